package sky

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/skytiles/skytiles/geometry"
	"github.com/stretchr/testify/require"
)

func TestNewDomain(t *testing.T) {
	t.Run("default domain", func(t *testing.T) {
		d := NewDefaultDomain()
		require.NotEmpty(t, d.ID)
		require.True(t, d.Region().Equal(geometry.NewBox(0, -90, 360, 90)))
		require.Equal(t, DefaultMargin, d.Margin())
		require.Zero(t, d.Len())
		require.Empty(t, d.Tiles())
	})

	t.Run("zero margin is valid", func(t *testing.T) {
		d, err := NewDomain(DefaultRegion(), 0)
		require.NoError(t, err)
		require.Zero(t, d.Margin())
	})

	t.Run("invalid margin", func(t *testing.T) {
		for _, margin := range []float64{-1, math.NaN(), math.Inf(1)} {
			d, err := NewDomain(DefaultRegion(), margin)
			require.Error(t, err)
			require.Nil(t, d)
			require.True(t, errors.IsType(err, ErrTypeInvalidMargin))
		}
	})

	t.Run("domains have distinct ids", func(t *testing.T) {
		require.NotEqual(t, NewDefaultDomain().ID, NewDefaultDomain().ID)
	})
}

func TestDomainRegister(t *testing.T) {
	t.Run("edge reflection", func(t *testing.T) {
		d := NewDefaultDomain()

		n, err := d.Register(geometry.NewBox(353, 80, 358, 85).WithTag(1))
		require.NoError(t, err)
		require.Equal(t, 2, n)

		tiles := d.Tiles()
		require.Len(t, tiles, 2)
		require.True(t, tiles[0].Equal(geometry.NewBox(-7, 80, -2, 85).WithTag(1)), tiles[0].String())
		require.True(t, tiles[1].Equal(geometry.NewBox(353, 80, 358, 85).WithTag(1)), tiles[1].String())
	})

	t.Run("no reflection", func(t *testing.T) {
		d := NewDefaultDomain()

		n, err := d.Register(geometry.NewBox(100, 0, 110, 10))
		require.NoError(t, err)
		require.Equal(t, 1, n)
		require.Equal(t, 1, d.Len())
	})

	t.Run("edge and corner reflection", func(t *testing.T) {
		d := NewDefaultDomain()

		n, err := d.Register(geometry.NewBox(358, -88, 348, -84).WithTag(4))
		require.NoError(t, err)
		require.Equal(t, 4, n)

		expected := []geometry.Box{
			geometry.NewBox(348, 92, 358, 96).WithTag(4),
			geometry.NewBox(-12, -88, -2, -84).WithTag(4),
			geometry.NewBox(-12, 92, -2, 96).WithTag(4),
			geometry.NewBox(348, -88, 358, -84).WithTag(4),
		}
		require.Equal(t, expected, d.Tiles())
	})

	t.Run("out of domain", func(t *testing.T) {
		d := NewDefaultDomain()

		n, err := d.Register(geometry.NewBox(355, 0, 365, 10))
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeOutOfDomain))
		require.Equal(t, ErrTypeOutOfDomain, errors.Type(err))
		require.Zero(t, n)
		require.Zero(t, d.Len())
	})

	t.Run("register fails iff region does not contain tile", func(t *testing.T) {
		d := NewDefaultDomain()
		r := rand.New(rand.NewSource(3))

		for i := 0; i < 500; i++ {
			tile := geometry.NewBox(
				r.Float64()*400-20, r.Float64()*200-100,
				r.Float64()*400-20, r.Float64()*200-100,
			)
			_, err := d.Register(tile)
			require.Equal(t, !d.Region().Contains(tile), err != nil, tile.String())
		}
	})

	t.Run("points register as tiny tiles", func(t *testing.T) {
		d := NewDefaultDomain()

		n, err := d.Register(geometry.NewPoint(180, 0).WithTag(9))
		require.NoError(t, err)
		require.Equal(t, 1, n)

		tag, ok := d.Tiles()[0].Tag()
		require.True(t, ok)
		require.Equal(t, uint32(9), tag)
	})

	t.Run("duplicates are kept", func(t *testing.T) {
		d := NewDefaultDomain()
		tile := geometry.NewBox(100, 0, 110, 10)

		d.Register(tile)
		d.Register(tile)
		require.Equal(t, 2, d.Len())
	})
}

func TestDomainGhosts(t *testing.T) {
	d := NewDefaultDomain()

	ghosts, err := d.Ghosts(geometry.NewBox(353, 80, 358, 85))
	require.NoError(t, err)
	require.Len(t, ghosts, 1)
	require.Zero(t, d.Len())

	ghosts, err = d.Ghosts(geometry.NewBox(100, 0, 110, 10))
	require.NoError(t, err)
	require.Empty(t, ghosts)

	_, err = d.Ghosts(geometry.NewBox(-1, 0, 1, 1))
	require.True(t, errors.IsType(err, ErrTypeOutOfDomain))
}

func TestDomainTilesIsACopy(t *testing.T) {
	d := NewDefaultDomain()
	d.Register(geometry.NewBox(100, 0, 110, 10))

	tiles := d.Tiles()
	tiles[0] = geometry.NewBox(0, 0, 1, 1)
	require.True(t, d.Tiles()[0].Equal(geometry.NewBox(100, 0, 110, 10)))
}

func TestDomainConcurrentRegister(t *testing.T) {
	d := NewDefaultDomain()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				// every tile sits near max_x only, so each registration
				// stores exactly two boxes.
				d.Register(geometry.NewBox(353, -10, 358, 10).WithTag(uint32(i*100 + j)))
			}
		}(i)
	}

	var partial int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for k := 0; k < 200; k++ {
			tiles := d.Tiles()
			if len(tiles)%2 != 0 {
				partial++
				continue
			}
			for i := 0; i+1 < len(tiles); i += 2 {
				ghostTag, _ := tiles[i].Tag()
				tileTag, _ := tiles[i+1].Tag()
				if ghostTag != tileTag {
					partial++
				}
			}
		}
	}()

	wg.Wait()
	<-done
	require.Zero(t, partial)
	require.Equal(t, 800, d.Len())
}

func TestDomainRegisterLogs(t *testing.T) {
	var b strings.Builder
	logs.SetLevel(logs.ParseLevel("debug"))
	logs.SetInlineEncoder()
	logs.SetLogger(func(e logs.Entry) {
		fmt.Fprint(&b, e)
	})
	defer logs.SetLevel(logs.InfoLevel)

	d := NewDefaultDomain()
	_, err := d.Register(geometry.NewBox(353, 80, 358, 85).WithTag(1))
	require.NoError(t, err)

	out := b.String()
	require.Contains(t, out, "tile registered")
	require.Contains(t, out, d.ID)
	require.Contains(t, out, `"edge_ghosts":1`)
	t.Log(out)
}
