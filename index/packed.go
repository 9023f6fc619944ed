package index

import (
	"math"
	"sort"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/skytiles/skytiles/geometry"
)

// Packed is a two level sort-tile-recursive tree built once over a fixed set
// of boxes.
//
// Boxes are sorted by center x and cut into vertical slices. Each slice is
// sorted by center y and cut into leaves of about leafCapacity boxes. Every
// node keeps the minimal box covering its children, so a search only scans
// the members of leaves whose box overlaps the query.
//
// A Packed index is never modified after Build and is safe for concurrent
// searches.
type Packed struct {
	bounds       geometry.Box
	slices       []sliceNode
	len          int
	leafCapacity int
}

type sliceNode struct {
	bounds geometry.Box
	leaves []leafNode
}

type leafNode struct {
	bounds  geometry.Box
	members []geometry.Box
}

type entry struct {
	box    geometry.Box
	cx, cy float64
	order  int
}

// Build packs the bounding boxes of shapes into a new index. It fails with
// ErrTypeEmptyCollection when shapes is empty and with ErrTypeInvalidCapacity
// when leafCapacity is not positive. Nothing is built when it fails.
func Build[S geometry.Shape](shapes []S, leafCapacity int) (*Packed, error) {
	start := time.Now()

	if len(shapes) == 0 {
		err := errors.New("cannot build an index over an empty collection").
			WithType(ErrTypeEmptyCollection)
		instrumentBuildError(KindPacked, err)
		return nil, err
	}
	if leafCapacity <= 0 {
		err := errors.New("leaf capacity must be positive").
			WithType(ErrTypeInvalidCapacity).
			WithTag("leaf_capacity", leafCapacity)
		instrumentBuildError(KindPacked, err)
		return nil, err
	}

	entries := make([]entry, len(shapes))
	for i, s := range shapes {
		b := s.Bounds()
		cx, cy := b.Center()
		entries[i] = entry{box: b, cx: cx, cy: cy, order: i}
	}

	p := &Packed{
		len:          len(entries),
		leafCapacity: leafCapacity,
	}
	p.pack(entries)

	instrumentBuild(KindPacked, start)
	logs.WithTag("kind", KindPacked).
		WithTag("len", p.len).
		WithTag("leaf_capacity", leafCapacity).
		WithTag("slices", len(p.slices)).
		WithTag("duration", time.Since(start)).
		Debug("spatial index built")

	return p, nil
}

func (p *Packed) pack(entries []entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.cx != b.cx {
			return a.cx < b.cx
		}
		if a.cy != b.cy {
			return a.cy < b.cy
		}
		return a.order < b.order
	})

	sliceCount := int(math.Floor(math.Sqrt(float64(len(entries))/float64(p.leafCapacity)))) + 1
	parts := partition(entries, sliceCount)

	p.slices = make([]sliceNode, len(parts))
	for i, part := range parts {
		p.slices[i] = p.packSlice(part)
		if i == 0 {
			p.bounds = p.slices[i].bounds
		} else {
			p.bounds = p.bounds.Union(p.slices[i].bounds)
		}
	}
}

func (p *Packed) packSlice(entries []entry) sliceNode {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.cy != b.cy {
			return a.cy < b.cy
		}
		if a.cx != b.cx {
			return a.cx < b.cx
		}
		return a.order < b.order
	})

	leafCount := len(entries)/p.leafCapacity + 1
	parts := partition(entries, leafCount)

	s := sliceNode{leaves: make([]leafNode, len(parts))}
	for i, part := range parts {
		l := leafNode{
			bounds:  part[0].box.WithoutTag(),
			members: make([]geometry.Box, len(part)),
		}
		for j, e := range part {
			l.members[j] = e.box
			l.bounds = l.bounds.Union(e.box)
		}

		s.leaves[i] = l
		if i == 0 {
			s.bounds = l.bounds
		} else {
			s.bounds = s.bounds.Union(l.bounds)
		}
	}
	return s
}

// partition cuts entries into at most count contiguous parts of
// ceil(len/count) entries, the last one taking the remainder. No part is
// empty and no entry is dropped.
func partition(entries []entry, count int) [][]entry {
	size := (len(entries) + count - 1) / count
	parts := make([][]entry, 0, count)
	for start := 0; start < len(entries); start += size {
		end := min(start+size, len(entries))
		parts = append(parts, entries[start:end])
	}
	return parts
}

// Search returns the indexed boxes overlapping query, in slice, leaf and
// member order. The result is empty, not nil, when nothing overlaps.
func (p *Packed) Search(query geometry.Shape) []geometry.Box {
	defer instrumentSearch(KindPacked, time.Now())

	results := []geometry.Box{}
	p.SearchFunc(query, func(b geometry.Box) bool {
		results = append(results, b)
		return true
	})
	return results
}

// SearchFunc calls fn for each indexed box overlapping query, in the same
// order as Search. It stops when fn returns false.
func (p *Packed) SearchFunc(query geometry.Shape, fn func(geometry.Box) bool) {
	q := query.Bounds()
	if !p.bounds.Overlaps(q) {
		return
	}

	for _, s := range p.slices {
		if !s.bounds.Overlaps(q) {
			continue
		}
		for _, l := range s.leaves {
			if !l.bounds.Overlaps(q) {
				continue
			}
			for _, m := range l.members {
				if m.Overlaps(q) && !fn(m) {
					return
				}
			}
		}
	}
}

func (p *Packed) Bounds() geometry.Box {
	return p.bounds
}

func (p *Packed) Len() int {
	return p.len
}

func (p *Packed) LeafCapacity() int {
	return p.leafCapacity
}

func (p *Packed) DebugInfo() DebugInfo {
	info := DebugInfo{
		Kind:         KindPacked,
		Len:          p.len,
		LeafCapacity: p.leafCapacity,
		SliceCount:   len(p.slices),
		Bounds:       p.bounds,
	}

	for _, s := range p.slices {
		for _, l := range s.leaves {
			info.LeafCount++
			info.Occupancy = append(info.Occupancy, len(l.members))
		}
	}
	return info
}
