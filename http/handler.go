package http

import (
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"github.com/skytiles/skytiles/geometry"
	"github.com/skytiles/skytiles/index"
	"github.com/skytiles/skytiles/sky"
)

// Tile is the JSON representation of a stored box.
type Tile struct {
	Bounds [4]float64 `json:"bounds"`
	Tag    *uint32    `json:"tag,omitempty"`
}

func NewTile(b geometry.Box) Tile {
	t := Tile{
		Bounds: [4]float64{b.MinX(), b.MinY(), b.MaxX(), b.MaxY()},
	}
	if tag, ok := b.Tag(); ok {
		t.Tag = &tag
	}
	return t
}

func NewTiles(boxes []geometry.Box) []Tile {
	tiles := make([]Tile, len(boxes))
	for i, b := range boxes {
		tiles[i] = NewTile(b)
	}
	return tiles
}

type tilesResponse struct {
	DomainID string  `json:"domain_id"`
	Region   Tile    `json:"region"`
	Margin   float64 `json:"margin"`
	Tiles    []Tile  `json:"tiles"`
}

type indexResponse struct {
	Kind         index.Kind `json:"kind"`
	Len          int        `json:"len"`
	LeafCapacity int        `json:"leaf_capacity,omitempty"`
	SliceCount   int        `json:"slice_count,omitempty"`
	LeafCount    int        `json:"leaf_count,omitempty"`
	Bounds       Tile       `json:"bounds"`
	Occupancy    []int      `json:"occupancy,omitempty"`
}

func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func HandleReadyCheck(readinessCheck func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !readinessCheck() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func HandleVersion(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(version))
	}
}

// HandleTiles writes the boxes stored in the domain, ghosts included.
func HandleTiles(d *sky.Domain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, tilesResponse{
			DomainID: d.ID,
			Region:   NewTile(d.Region()),
			Margin:   d.Margin(),
			Tiles:    NewTiles(d.Tiles()),
		})
	}
}

// HandleIndex writes the layout of the spatial index returned by getIndex.
// It responds with 503 while no index is built.
func HandleIndex(getIndex func() index.SpatialIndex) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx := getIndex()
		if idx == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		info := idx.DebugInfo()
		writeJSON(w, indexResponse{
			Kind:         info.Kind,
			Len:          info.Len,
			LeafCapacity: info.LeafCapacity,
			SliceCount:   info.SliceCount,
			LeafCount:    info.LeafCount,
			Bounds:       NewTile(info.Bounds),
			Occupancy:    info.Occupancy,
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logs.Warn(err)
	}
}
