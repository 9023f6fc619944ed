package sky

import (
	"testing"

	"github.com/skytiles/skytiles/geometry"
	"github.com/stretchr/testify/require"
)

func TestReflect(t *testing.T) {
	region := DefaultRegion()

	t.Run("far from every bound", func(t *testing.T) {
		require.Nil(t, Reflect(region, DefaultMargin, geometry.NewBox(100, 0, 110, 10)))
	})

	t.Run("zero margin", func(t *testing.T) {
		require.Nil(t, Reflect(region, 0, region))
	})

	t.Run("near one bound", func(t *testing.T) {
		ghosts := Reflect(region, DefaultMargin, geometry.NewBox(1, 0, 2, 10).WithTag(3))
		require.Len(t, ghosts, 1)
		require.True(t, ghosts[0].Equal(geometry.NewBox(361, 0, 362, 10).WithTag(3)))
	})

	t.Run("far from the corner", func(t *testing.T) {
		// Both bounds trigger but hypot(4, 4) is above the margin.
		ghosts := Reflect(region, DefaultMargin, geometry.NewBox(4, -86, 10, -80))
		require.Len(t, ghosts, 2)
		require.True(t, ghosts[0].Equal(geometry.NewBox(364, -86, 370, -80)))
		require.True(t, ghosts[1].Equal(geometry.NewBox(4, 94, 10, 100)))
	})

	t.Run("region sized tile", func(t *testing.T) {
		ghosts := Reflect(region, DefaultMargin, region.WithTag(1))
		expected := []geometry.Box{
			geometry.NewBox(360, -90, 720, 90),
			geometry.NewBox(0, 90, 360, 270),
			geometry.NewBox(-360, -90, 0, 90),
			geometry.NewBox(0, -270, 360, -90),
			geometry.NewBox(360, 90, 720, 270),
			geometry.NewBox(-360, 90, 0, 270),
			geometry.NewBox(-360, -270, 0, -90),
			geometry.NewBox(360, -270, 720, -90),
		}

		require.Len(t, ghosts, len(expected))
		for i, g := range ghosts {
			require.True(t, g.Equal(expected[i].WithTag(1)), "ghost %d: %s", i, g)
		}
	})
}

func TestBoundOffset(t *testing.T) {
	region := geometry.NewBox(10, -5, 30, 5)

	tests := []struct {
		bound  geometry.Bound
		dx, dy float64
	}{
		{bound: geometry.MinX, dx: 20},
		{bound: geometry.MinY, dy: 10},
		{bound: geometry.MaxX, dx: -20},
		{bound: geometry.MaxY, dy: -10},
	}

	for _, test := range tests {
		t.Run(test.bound.String(), func(t *testing.T) {
			dx, dy := offset(region, test.bound)
			require.Equal(t, test.dx, dx)
			require.Equal(t, test.dy, dy)
		})
	}
}
