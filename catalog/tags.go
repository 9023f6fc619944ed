package catalog

import (
	"math"
	"sort"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	ErrTypeTagsExhausted = "tags_exhausted"
)

// TagGenerator issues sequential tags from 1 to math.MaxUint32. Released tags
// are issued again, lowest first, before any new one.
type TagGenerator struct {
	mutex    sync.Mutex
	last     uint32
	released []uint32

	// Tags above last taken through Reserve.
	reserved map[uint32]struct{}
}

// Next returns an unused tag. It fails with ErrTypeTagsExhausted once every
// tag up to math.MaxUint32 is in use.
func (g *TagGenerator) Next() (uint32, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if len(g.released) != 0 {
		tag := g.released[0]
		g.released = g.released[1:]
		return tag, nil
	}

	for g.last < math.MaxUint32 {
		g.last++
		if !g.isReserved(g.last) {
			return g.last, nil
		}
		delete(g.reserved, g.last)
	}

	return 0, errors.New("every tag is in use").
		WithType(ErrTypeTagsExhausted)
}

// Reserve takes the given tag so that Next never issues it. It returns false
// when the tag is 0 or already in use.
func (g *TagGenerator) Reserve(tag uint32) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if tag == 0 {
		return false
	}

	if tag > g.last {
		if g.isReserved(tag) {
			return false
		}
		if g.reserved == nil {
			g.reserved = make(map[uint32]struct{})
		}
		g.reserved[tag] = struct{}{}
		return true
	}

	i, ok := g.releasedIndex(tag)
	if !ok {
		return false
	}
	g.released = append(g.released[:i], g.released[i+1:]...)
	return true
}

// Release makes tag available to Next again. Releasing a tag that was never
// issued or is already released does nothing.
func (g *TagGenerator) Release(tag uint32) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if tag == 0 {
		return
	}

	if tag > g.last {
		delete(g.reserved, tag)
		return
	}

	i, ok := g.releasedIndex(tag)
	if ok {
		return
	}

	g.released = append(g.released, 0)
	copy(g.released[i+1:], g.released[i:])
	g.released[i] = tag
}

func (g *TagGenerator) isReserved(tag uint32) bool {
	_, ok := g.reserved[tag]
	return ok
}

func (g *TagGenerator) releasedIndex(tag uint32) (int, bool) {
	i := sort.Search(len(g.released), func(i int) bool {
		return g.released[i] >= tag
	})
	return i, i < len(g.released) && g.released[i] == tag
}
