package main

import (
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"github.com/skytiles/skytiles/catalog"
	"github.com/skytiles/skytiles/geometry"
	"github.com/skytiles/skytiles/sky"
)

const (
	errTypeInvalidConfig = "invalid_config"
	errTypeInvalidTiles  = "invalid_tiles"
)

// tileFileEntry is an element of the JSON array read from the tiles file.
// Entries without a tag get one from the catalog.
type tileFileEntry struct {
	Name   string    `json:"name"`
	Bounds []float64 `json:"bounds"`
	Tag    uint32    `json:"tag,omitempty"`
}

// demoTile is registered when no tiles file is given. It sits across the
// MinY and MaxX bounds of the default region.
var demoTile = tileFileEntry{
	Name:   "demo",
	Bounds: []float64{358, -88, 348, -84},
	Tag:    4,
}

// parseBox parses a box written as "x1,y1,x2,y2".
func parseBox(s string) (geometry.Box, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.Box{}, errors.New("a box needs 4 comma separated values").
			WithType(errTypeInvalidConfig).
			WithTag("box", s)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := parseFloat(p)
		if err != nil {
			return geometry.Box{}, errors.New("invalid box value").
				WithType(errTypeInvalidConfig).
				WithTag("box", s).
				Wrap(err)
		}
		v[i] = f
	}
	return geometry.NewBox(v[0], v[1], v[2], v[3]), nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Newf("%q is not a finite number", s)
	}
	return f, nil
}

func newDomain(conf config) (*sky.Domain, error) {
	region := sky.DefaultRegion()
	if conf.Region != "" {
		var err error
		if region, err = parseBox(conf.Region); err != nil {
			return nil, errors.New("invalid region").Wrap(err)
		}
	}

	margin, err := parseFloat(conf.Margin)
	if err != nil {
		return nil, errors.New("invalid margin").
			WithType(errTypeInvalidConfig).
			WithTag("margin", conf.Margin).
			Wrap(err)
	}
	return sky.NewDomain(region, margin)
}

// loadTiles reads the tiles file. An empty file name yields the demo tile.
func loadTiles(filename string) ([]tileFileEntry, error) {
	if filename == "" {
		return []tileFileEntry{demoTile}, nil
	}

	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.New("reading tiles file failed").
			WithTag("file_name", filename).
			Wrap(err)
	}

	var entries []tileFileEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, errors.New("decoding tiles file failed").
			WithType(errTypeInvalidTiles).
			WithTag("file_name", filename).
			Wrap(err)
	}

	for i, e := range entries {
		if len(e.Bounds) != 4 {
			return nil, errors.New("a tile needs 4 bounds").
				WithType(errTypeInvalidTiles).
				WithTag("file_name", filename).
				WithTag("index", i).
				WithTag("name", e.Name)
		}
	}
	return entries, nil
}

// registerTiles adds the entries to the catalog and registers their boxes in
// the domain. Entries outside the domain, with a duplicate tag or left
// without a tag are skipped with a warning.
func registerTiles(c *catalog.Catalog, d *sky.Domain, entries []tileFileEntry) int {
	var registered int
	for _, e := range entries {
		box := geometry.NewBox(e.Bounds[0], e.Bounds[1], e.Bounds[2], e.Bounds[3])

		var entry catalog.Entry
		if e.Tag == 0 {
			var err error
			if entry, err = c.Add(e.Name, box); err != nil {
				logs.Warn(errors.New("skipping tile").
					WithTag("name", e.Name).
					Wrap(err))
				continue
			}
		} else {
			var ok bool
			if entry, ok = c.AddWithTag(e.Tag, e.Name, box); !ok {
				logs.Warn(errors.New("skipping tile with a tag already in use").
					WithType(errTypeInvalidTiles).
					WithTag("name", e.Name).
					WithTag("tag", e.Tag))
				continue
			}
		}

		if _, err := d.Register(entry.Box); err != nil {
			c.Remove(entry.Tag)
			logs.Warn(errors.New("skipping tile").
				WithTag("name", e.Name).
				Wrap(err))
			continue
		}
		registered++
	}
	return registered
}
