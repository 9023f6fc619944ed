package catalog

import (
	"sort"
	"sync"

	"github.com/skytiles/skytiles/geometry"
)

// Entry is a caller object known to the catalog.
type Entry struct {
	Tag  uint32
	Name string

	// The object's bounding box, tagged with Tag. This is the box handed to
	// the sky domain and the spatial indexes.
	Box geometry.Box
}

// Catalog owns the objects behind the tags carried by tiles. Domains and
// indexes only keep tagged boxes; search results are mapped back to objects
// through Lookup or Resolve.
type Catalog struct {
	tags TagGenerator

	mutex   sync.RWMutex
	entries map[uint32]Entry
}

func New() *Catalog {
	return &Catalog{
		entries: make(map[uint32]Entry),
	}
}

// Add stores a new object and returns its entry with a freshly issued tag.
// It fails with ErrTypeTagsExhausted when no tag is left.
func (c *Catalog) Add(name string, s geometry.Shape) (Entry, error) {
	tag, err := c.tags.Next()
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		Tag:  tag,
		Name: name,
		Box:  s.Bounds().WithTag(tag),
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[tag] = e
	return e, nil
}

// AddWithTag stores a new object under a tag chosen by the caller. It
// returns false when the tag is 0 or already in use.
func (c *Catalog) AddWithTag(tag uint32, name string, s geometry.Shape) (Entry, bool) {
	if !c.tags.Reserve(tag) {
		return Entry{}, false
	}

	e := Entry{
		Tag:  tag,
		Name: name,
		Box:  s.Bounds().WithTag(tag),
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[tag] = e
	return e, true
}

// Remove deletes the object with the given tag. Its tag may be issued again
// by a later Add.
func (c *Catalog) Remove(tag uint32) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, ok := c.entries[tag]; !ok {
		return false
	}

	delete(c.entries, tag)
	c.tags.Release(tag)
	return true
}

func (c *Catalog) Lookup(tag uint32) (Entry, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, ok := c.entries[tag]
	return e, ok
}

// Entries returns all entries sorted by tag.
func (c *Catalog) Entries() []Entry {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entries := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Tag < entries[j].Tag
	})
	return entries
}

// Boxes returns the tagged boxes of all entries sorted by tag.
func (c *Catalog) Boxes() []geometry.Box {
	entries := c.Entries()
	boxes := make([]geometry.Box, len(entries))
	for i, e := range entries {
		boxes[i] = e.Box
	}
	return boxes
}

func (c *Catalog) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.entries)
}

// Resolve maps boxes to their entries in first seen order. A tile and its
// ghosts resolve to a single entry. Untagged boxes and unknown tags are
// skipped.
func (c *Catalog) Resolve(boxes []geometry.Box) []Entry {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	seen := make(map[uint32]struct{}, len(boxes))
	entries := []Entry{}
	for _, b := range boxes {
		tag, ok := b.Tag()
		if !ok {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}

		if e, ok := c.entries[tag]; ok {
			entries = append(entries, e)
		}
	}
	return entries
}
