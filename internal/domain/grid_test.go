package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var conus = BoundingBox{MinLng: -130, MaxLng: -60, MinLat: 20, MaxLat: 55}

func TestGrid_Cell(t *testing.T) {
	g, err := NewGrid(conus, 0.02, 0.02)
	require.NoError(t, err)

	cell, err := g.Cell(-100, 40)
	require.NoError(t, err)
	assert.Equal(t, Cell{X: 1500, Y: 1000}, cell)

	again, err := g.Cell(-100, 40)
	require.NoError(t, err)
	assert.Equal(t, cell, again)

	corner, err := g.Cell(-130, 20)
	require.NoError(t, err)
	assert.Equal(t, Cell{}, corner)
}

func TestGrid_CellErrors(t *testing.T) {
	g, err := NewGrid(conus, 0.02, 0.02)
	require.NoError(t, err)

	tests := []struct {
		name    string
		lng     float64
		lat     float64
		wantErr error
	}{
		{"longitude beyond 180", 200, 40, ErrInvalidCoordinate},
		{"latitude beyond 90", -100, 95, ErrInvalidCoordinate},
		{"west of box", -140, 40, ErrOutOfBounds},
		{"north of box", -100, 60, ErrOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Cell(tt.lng, tt.lat)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewGrid_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		box    BoundingBox
		resLng float64
		resLat float64
	}{
		{"corner out of range", BoundingBox{MinLng: -200, MaxLng: -60, MinLat: 20, MaxLat: 55}, 0.02, 0.02},
		{"inverted box", BoundingBox{MinLng: -60, MaxLng: -130, MinLat: 20, MaxLat: 55}, 0.02, 0.02},
		{"zero resolution", conus, 0, 0.02},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.box, tt.resLng, tt.resLat)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}
