package index

import (
	"math"
	"sort"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/dhconnelly/rtreego"
	"github.com/skytiles/skytiles/geometry"
)

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
)

// RTree is a SpatialIndex backed by a bulk loaded rtreego tree. It answers
// the same queries as Packed and serves as a reference to check it against.
type RTree struct {
	tree   *rtreego.Rtree
	bounds geometry.Box
	len    int
}

type rtreeItem struct {
	box   geometry.Box
	order int
	rect  rtreego.Rect
}

func (i *rtreeItem) Bounds() rtreego.Rect {
	return i.rect
}

// BuildRTree bulk loads the bounding boxes of shapes into a new RTree. It
// fails with ErrTypeEmptyCollection when shapes is empty.
func BuildRTree[S geometry.Shape](shapes []S) (*RTree, error) {
	start := time.Now()

	if len(shapes) == 0 {
		err := errors.New("cannot build an index over an empty collection").
			WithType(ErrTypeEmptyCollection)
		instrumentBuildError(KindRTree, err)
		return nil, err
	}

	items := make([]rtreego.Spatial, len(shapes))
	var bounds geometry.Box
	for i, s := range shapes {
		b := s.Bounds()
		rect, err := toRect(b)
		if err != nil {
			err = errors.New("converting box to rtree rect failed").
				WithTag("box", b.String()).
				Wrap(err)
			instrumentBuildError(KindRTree, err)
			return nil, err
		}
		items[i] = &rtreeItem{box: b, order: i, rect: rect}

		if i == 0 {
			bounds = b.WithoutTag()
		} else {
			bounds = bounds.Union(b)
		}
	}

	t := &RTree{
		tree:   rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren, items...),
		bounds: bounds,
		len:    len(items),
	}

	instrumentBuild(KindRTree, start)
	logs.WithTag("kind", KindRTree).
		WithTag("len", t.len).
		WithTag("depth", t.tree.Depth()).
		WithTag("duration", time.Since(start)).
		Debug("spatial index built")

	return t, nil
}

// Search returns the indexed boxes overlapping query in build order.
func (t *RTree) Search(query geometry.Shape) []geometry.Box {
	defer instrumentSearch(KindRTree, time.Now())

	q := query.Bounds()
	results := []geometry.Box{}

	// rtreego only reports strict intersections, so the query grows by one
	// ulp on each bound and the candidates are filtered with Box.Overlaps.
	rect, err := toRect(geometry.NewBox(
		math.Nextafter(q.MinX(), math.Inf(-1)),
		math.Nextafter(q.MinY(), math.Inf(-1)),
		math.Nextafter(q.MaxX(), math.Inf(1)),
		math.Nextafter(q.MaxY(), math.Inf(1)),
	))
	if err != nil {
		return results
	}

	candidates := t.tree.SearchIntersect(rect)
	items := make([]*rtreeItem, 0, len(candidates))
	for _, c := range candidates {
		item := c.(*rtreeItem)
		if item.box.Overlaps(q) {
			items = append(items, item)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].order < items[j].order
	})
	for _, item := range items {
		results = append(results, item.box)
	}
	return results
}

func (t *RTree) Bounds() geometry.Box {
	return t.bounds
}

func (t *RTree) Len() int {
	return t.len
}

func (t *RTree) DebugInfo() DebugInfo {
	return DebugInfo{
		Kind:   KindRTree,
		Len:    t.len,
		Bounds: t.bounds,
	}
}

func toRect(b geometry.Box) (rtreego.Rect, error) {
	return rtreego.NewRectFromPoints(
		rtreego.Point{b.MinX(), b.MinY()},
		rtreego.Point{b.MaxX(), b.MaxY()},
	)
}
