package domain

import (
	"fmt"
	"math"
)

// BoundingBox is a longitude/latitude rectangle in degrees.
type BoundingBox struct {
	MinLng float64
	MaxLng float64
	MinLat float64
	MaxLat float64
}

// ValidLngLat reports whether the pair lies in [-180,180] x [-90,90].
func ValidLngLat(lng, lat float64) bool {
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

// Grid maps coordinates to cells of a regular lon/lat raster.
type Grid struct {
	Box    BoundingBox
	ResLng float64
	ResLat float64
}

// Cell is a raster index: X counts longitude steps from MinLng, Y counts
// latitude steps from MinLat.
type Cell struct {
	X int
	Y int
}

// NewGrid validates the bounding box and resolution.
func NewGrid(box BoundingBox, resLng, resLat float64) (Grid, error) {
	if !ValidLngLat(box.MinLng, box.MinLat) || !ValidLngLat(box.MaxLng, box.MaxLat) {
		return Grid{}, fmt.Errorf("%w: bounding box corners out of range", ErrInvalidConfiguration)
	}
	if box.MinLng >= box.MaxLng || box.MinLat >= box.MaxLat {
		return Grid{}, fmt.Errorf("%w: bounding box min must be below max", ErrInvalidConfiguration)
	}
	if resLng <= 0 || resLat <= 0 {
		return Grid{}, fmt.Errorf("%w: resolution must be positive", ErrInvalidConfiguration)
	}
	return Grid{Box: box, ResLng: resLng, ResLat: resLat}, nil
}

// Cell returns the raster cell containing the coordinate.
func (g Grid) Cell(lng, lat float64) (Cell, error) {
	if !ValidLngLat(lng, lat) {
		return Cell{}, fmt.Errorf("%w: (%g, %g)", ErrInvalidCoordinate, lng, lat)
	}
	if lng < g.Box.MinLng || lng > g.Box.MaxLng || lat < g.Box.MinLat || lat > g.Box.MaxLat {
		return Cell{}, fmt.Errorf("%w: (%g, %g)", ErrOutOfBounds, lng, lat)
	}
	return Cell{
		X: int(math.Round((lng - g.Box.MinLng) / g.ResLng)),
		Y: int(math.Round((lat - g.Box.MinLat) / g.ResLat)),
	}, nil
}
