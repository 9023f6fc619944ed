package geometry

import (
	"fmt"
	"math"
)

// PointMargin is the half-width, in degrees, of the box a Point inflates to.
// One arcsecond.
const PointMargin = 1.0 / 3600.0

// Bound names one of the four edges of a Box.
type Bound int

const (
	MinX Bound = iota
	MinY
	MaxX
	MaxY
)

// Bounds lists the four bounds in storage order.
var Bounds = [4]Bound{MinX, MinY, MaxX, MaxY}

// Opposite returns the bound on the other side of the same axis.
func (b Bound) Opposite() Bound {
	return (b + 2) % 4
}

// Orthogonal returns the min and max bounds of the other axis.
func (b Bound) Orthogonal() (Bound, Bound) {
	if b.IsX() {
		return MinY, MaxY
	}
	return MinX, MaxX
}

func (b Bound) IsMin() bool {
	return b == MinX || b == MinY
}

func (b Bound) IsX() bool {
	return b == MinX || b == MaxX
}

func (b Bound) String() string {
	switch b {
	case MinX:
		return "min_x"
	case MinY:
		return "min_y"
	case MaxX:
		return "max_x"
	case MaxY:
		return "max_y"
	default:
		return fmt.Sprintf("bound(%d)", int(b))
	}
}

// Shape is anything that can be reduced to a bounding box and an optional
// tag.
type Shape interface {
	Bounds() Box
	Tag() (uint32, bool)
}

// Box is an immutable axis-aligned rectangle with an optional tag that
// identifies the caller object it came from.
type Box struct {
	bounds [4]float64
	tag    uint32
	tagged bool
}

// NewBox returns the box spanning the given corners. Each axis pair is
// sorted, so inverted input is normalized rather than rejected.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{bounds: [4]float64{x1, y1, x2, y2}}
}

// WithTag returns a copy of the box carrying the given tag.
func (b Box) WithTag(tag uint32) Box {
	b.tag = tag
	b.tagged = true
	return b
}

// WithoutTag returns an untagged copy of the box.
func (b Box) WithoutTag() Box {
	b.tag = 0
	b.tagged = false
	return b
}

func (b Box) Bounds() Box {
	return b
}

func (b Box) Tag() (uint32, bool) {
	return b.tag, b.tagged
}

func (b Box) Bound(bound Bound) float64 {
	return b.bounds[bound]
}

func (b Box) MinX() float64 { return b.bounds[MinX] }
func (b Box) MinY() float64 { return b.bounds[MinY] }
func (b Box) MaxX() float64 { return b.bounds[MaxX] }
func (b Box) MaxY() float64 { return b.bounds[MaxY] }

func (b Box) Width() float64 {
	return b.bounds[MaxX] - b.bounds[MinX]
}

func (b Box) Height() float64 {
	return b.bounds[MaxY] - b.bounds[MinY]
}

// Center returns the midpoint of each axis.
func (b Box) Center() (float64, float64) {
	return (b.bounds[MinX] + b.bounds[MaxX]) / 2, (b.bounds[MinY] + b.bounds[MaxY]) / 2
}

// Contains reports whether s lies entirely inside b. Shared edges count as
// inside.
func (b Box) Contains(s Shape) bool {
	o := s.Bounds()
	return b.bounds[MinX] <= o.bounds[MinX] &&
		b.bounds[MinY] <= o.bounds[MinY] &&
		b.bounds[MaxX] >= o.bounds[MaxX] &&
		b.bounds[MaxY] >= o.bounds[MaxY]
}

// Overlaps reports whether b and s intersect on both axes. Touching edges
// overlap.
func (b Box) Overlaps(s Shape) bool {
	o := s.Bounds()
	if b.bounds[MinX] > o.bounds[MaxX] || o.bounds[MinX] > b.bounds[MaxX] {
		return false
	}
	if b.bounds[MinY] > o.bounds[MaxY] || o.bounds[MinY] > b.bounds[MaxY] {
		return false
	}
	return true
}

// Delta returns the signed difference b - s for every bound.
func (b Box) Delta(s Shape) Deltas {
	o := s.Bounds()
	var d Deltas
	for _, bound := range Bounds {
		d[bound] = b.bounds[bound] - o.bounds[bound]
	}
	return d
}

// Translate returns the box moved by (dx, dy). The tag is kept.
func (b Box) Translate(dx, dy float64) Box {
	b.bounds[MinX] += dx
	b.bounds[MaxX] += dx
	b.bounds[MinY] += dy
	b.bounds[MaxY] += dy
	return b
}

// Union returns the smallest untagged box covering b and o.
func (b Box) Union(o Box) Box {
	return Box{bounds: [4]float64{
		math.Min(b.bounds[MinX], o.bounds[MinX]),
		math.Min(b.bounds[MinY], o.bounds[MinY]),
		math.Max(b.bounds[MaxX], o.bounds[MaxX]),
		math.Max(b.bounds[MaxY], o.bounds[MaxY]),
	}}
}

// Equal compares bounds and tag exactly.
func (b Box) Equal(o Box) bool {
	return b == o
}

func (b Box) EqualWithEpsilon(o Box, epsilon float64) bool {
	for _, bound := range Bounds {
		if !EqualWithEpsilon(b.bounds[bound], o.bounds[bound], epsilon) {
			return false
		}
	}
	return b.tag == o.tag && b.tagged == o.tagged
}

func (b Box) String() string {
	if b.tagged {
		return fmt.Sprintf("Box(%g, %g, %g, %g, tag=%d)", b.bounds[MinX], b.bounds[MinY], b.bounds[MaxX], b.bounds[MaxY], b.tag)
	}
	return fmt.Sprintf("Box(%g, %g, %g, %g)", b.bounds[MinX], b.bounds[MinY], b.bounds[MaxX], b.bounds[MaxY])
}

// Deltas holds one signed value per bound.
type Deltas [4]float64

func (d Deltas) Of(b Bound) float64 {
	return d[b]
}

// Point is a tagged coordinate. It takes part in spatial queries through the
// small box returned by Bounds.
type Point struct {
	X, Y   float64
	tag    uint32
	tagged bool
}

func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) WithTag(tag uint32) Point {
	p.tag = tag
	p.tagged = true
	return p
}

func (p Point) Tag() (uint32, bool) {
	return p.tag, p.tagged
}

// Bounds returns the box of half-width PointMargin centered on p.
func (p Point) Bounds() Box {
	b := NewBox(p.X-PointMargin, p.Y-PointMargin, p.X+PointMargin, p.Y+PointMargin)
	b.tag, b.tagged = p.tag, p.tagged
	return b
}

func EqualWithEpsilon(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}
