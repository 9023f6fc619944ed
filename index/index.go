package index

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/skytiles/skytiles/geometry"
)

const (
	ErrTypeEmptyCollection = "empty_collection"
	ErrTypeInvalidCapacity = "invalid_capacity"
	ErrTypeUnknownKind     = "unknown_kind"

	// DefaultLeafCapacity is the target number of boxes per leaf.
	DefaultLeafCapacity = 1000
)

// Kind names a SpatialIndex implementation.
type Kind string

const (
	KindPacked Kind = "packed"
	KindRTree  Kind = "rtree"
)

// SpatialIndex is a read-only index over a fixed set of boxes.
type SpatialIndex interface {
	// Returns the indexed boxes overlapping the query. The result is never
	// nil and its order is stable for a given index.
	Search(query geometry.Shape) []geometry.Box

	// Returns the box covering every indexed box.
	Bounds() geometry.Box

	// Returns the number of indexed boxes.
	Len() int

	// debug stuff:
	DebugInfo() DebugInfo
}

type DebugInfo struct {
	Kind         Kind
	Len          int
	LeafCapacity int
	SliceCount   int
	LeafCount    int
	Bounds       geometry.Box

	// Number of boxes per leaf, in slice then leaf order.
	Occupancy []int
}

// New builds the index of the given kind.
func New[S geometry.Shape](kind Kind, shapes []S, leafCapacity int) (SpatialIndex, error) {
	switch kind {
	case KindPacked:
		idx, err := Build(shapes, leafCapacity)
		if err != nil {
			return nil, err
		}
		return idx, nil

	case KindRTree:
		idx, err := BuildRTree(shapes)
		if err != nil {
			return nil, err
		}
		return idx, nil

	default:
		return nil, errors.New("unknown index kind").
			WithType(ErrTypeUnknownKind).
			WithTag("kind", kind)
	}
}
