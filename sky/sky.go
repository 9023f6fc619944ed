package sky

import (
	"math"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"github.com/skytiles/skytiles/geometry"
)

const (
	ErrTypeOutOfDomain   = "out_of_domain"
	ErrTypeInvalidMargin = "invalid_margin"

	// DefaultMargin is the distance, in degrees, under which a tile is
	// reflected across the sky edges.
	DefaultMargin = 5.0
)

// DefaultRegion returns the whole celestial sphere: right ascension 0..360
// and declination -90..90.
func DefaultRegion() geometry.Box {
	return geometry.NewBox(0, -90, 360, 90)
}

// Domain is a fixed sky region that accumulates tiles. Registering a tile
// near an edge also stores its periodic images.
//
// Tiles are append only. A registration stores the ghosts and the tile in a
// single critical section so readers never see half of it.
type Domain struct {
	ID string

	region geometry.Box
	margin float64

	mutex sync.RWMutex
	tiles []geometry.Box
}

func NewDomain(region geometry.Box, margin float64) (*Domain, error) {
	if margin < 0 || math.IsNaN(margin) || math.IsInf(margin, 0) {
		return nil, errors.New("margin must be a finite non-negative number").
			WithType(ErrTypeInvalidMargin).
			WithTag("margin", margin)
	}

	return &Domain{
		ID:     uuid.New().String(),
		region: region.WithoutTag(),
		margin: margin,
	}, nil
}

// NewDefaultDomain returns a domain over DefaultRegion with DefaultMargin.
func NewDefaultDomain() *Domain {
	d, _ := NewDomain(DefaultRegion(), DefaultMargin)
	return d
}

func (d *Domain) Region() geometry.Box {
	return d.region
}

func (d *Domain) Margin() float64 {
	return d.margin
}

// Register stores tile and its ghosts, ghosts first. It returns the number of
// boxes added. Tiles that are not inside the region are rejected with an
// ErrTypeOutOfDomain error.
func (d *Domain) Register(tile geometry.Shape) (int, error) {
	box := tile.Bounds()

	r, err := d.reflect(box)
	if err != nil {
		instrumentRegistrationError(err)
		return 0, err
	}

	d.mutex.Lock()
	d.tiles = append(d.tiles, r.edges...)
	d.tiles = append(d.tiles, r.corners...)
	d.tiles = append(d.tiles, box)
	d.mutex.Unlock()

	instrumentRegistration(r)

	tag, _ := box.Tag()
	logs.WithTag("domain_id", d.ID).
		WithTag("tile", box.String()).
		WithTag("tile_tag", tag).
		WithTag("edge_ghosts", len(r.edges)).
		WithTag("corner_ghosts", len(r.corners)).
		Debug("tile registered")

	return r.count() + 1, nil
}

// Ghosts returns the boxes Register would store for tile besides the tile
// itself, without storing anything.
func (d *Domain) Ghosts(tile geometry.Shape) ([]geometry.Box, error) {
	r, err := d.reflect(tile.Bounds())
	if err != nil {
		return nil, err
	}
	return append(r.edges, r.corners...), nil
}

func (d *Domain) reflect(box geometry.Box) (reflection, error) {
	if !d.region.Contains(box) {
		return reflection{}, errors.New("tile is not contained in the sky region").
			WithType(ErrTypeOutOfDomain).
			WithTag("domain_id", d.ID).
			WithTag("tile", box.String()).
			WithTag("region", d.region.String())
	}
	return reflectTile(d.region, d.margin, box), nil
}

// Tiles returns a copy of the stored tiles in registration order.
func (d *Domain) Tiles() []geometry.Box {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	tiles := make([]geometry.Box, len(d.tiles))
	copy(tiles, d.tiles)
	return tiles
}

func (d *Domain) Len() int {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return len(d.tiles)
}
