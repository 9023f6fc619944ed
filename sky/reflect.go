package sky

import (
	"math"

	"github.com/skytiles/skytiles/geometry"
)

// corners lists the adjacent bound pairs of the region, x bound first.
var corners = [4][2]geometry.Bound{
	{geometry.MinX, geometry.MinY},
	{geometry.MaxX, geometry.MinY},
	{geometry.MaxX, geometry.MaxY},
	{geometry.MinX, geometry.MaxY},
}

// Reflect returns the periodic images of tile that fall within margin of the
// region edges. tile is expected to lie inside region.
//
// A tile closer than margin to a bound is copied across the opposite bound:
// the copy is the tile translated by the region extent along that axis, so it
// continues past the opposite edge exactly as far as the tile sits from its
// own edge. When two adjacent bounds trigger and the tile corner is closer
// than margin to the region corner, a diagonal copy translated along both
// axes is added. Edge copies come first in bound order, then corner copies.
// Every copy keeps the tile's tag.
func Reflect(region geometry.Box, margin float64, tile geometry.Box) []geometry.Box {
	r := reflectTile(region, margin, tile)
	if len(r.edges) == 0 {
		return nil
	}
	return append(r.edges, r.corners...)
}

type reflection struct {
	edges   []geometry.Box
	corners []geometry.Box
}

func (r reflection) count() int {
	return len(r.edges) + len(r.corners)
}

func reflectTile(region geometry.Box, margin float64, tile geometry.Box) reflection {
	var r reflection
	d := region.Delta(tile)

	var near [4]bool
	for _, b := range geometry.Bounds {
		if math.Abs(d.Of(b)) >= margin {
			continue
		}
		near[b] = true
		dx, dy := offset(region, b)
		r.edges = append(r.edges, tile.Translate(dx, dy))
	}

	for _, c := range corners {
		bx, by := c[0], c[1]
		if !near[bx] || !near[by] {
			continue
		}
		if math.Hypot(d.Of(bx), d.Of(by)) >= margin {
			continue
		}
		dx, _ := offset(region, bx)
		_, dy := offset(region, by)
		r.corners = append(r.corners, tile.Translate(dx, dy))
	}

	return r
}

// offset returns the translation that carries a tile near bound b to the far
// side of the opposite bound.
func offset(region geometry.Box, b geometry.Bound) (float64, float64) {
	shift := region.Bound(b.Opposite()) - region.Bound(b)
	if b.IsX() {
		return shift, 0
	}
	return 0, shift
}
