// Package grib turns gzipped GRIB2 products into domain frames.
package grib

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/precip-ingest-service/internal/domain"
	kgzip "github.com/klauspost/compress/gzip"
	"github.com/nilsmagnus/grib/griblib"
)

// MRMS CONUS grid: 0.01 degree cells from 130W to 60W and 20N to 55N.
const (
	MRMSWidth  = 7000
	MRMSHeight = 3500
)

// ErrEmptyProduct is returned when a GRIB2 stream holds no messages.
var ErrEmptyProduct = errors.New("grib product has no messages")

// Decoder reads one grid of known dimensions from a GRIB2 stream.
type Decoder struct {
	width  int
	height int
}

// NewDecoder creates a decoder for a width x height grid.
func NewDecoder(width, height int) (*Decoder, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: grid dimensions must be positive, got %dx%d", domain.ErrInvalidConfiguration, width, height)
	}
	return &Decoder{width: width, height: height}, nil
}

// Decode reads the GRIB2 stream and returns the last message's values in
// file scan order (for MRMS, north row first, west to east). Products with
// several messages carry the same field; the last one wins.
//
// PNG-packed fields (template 5.41), which MRMS publishes, are unpacked here;
// every other packing goes through griblib.
func (d *Decoder) Decode(r io.Reader) (domain.Frame, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("read grib product: %w", err)
	}
	if len(buf) == 0 {
		return domain.Frame{}, ErrEmptyProduct
	}
	messages, err := indexMessages(buf)
	if err != nil {
		return domain.Frame{}, err
	}
	last := messages[len(messages)-1]
	if last.ni != 0 && (last.ni != d.width || last.nj != d.height) {
		return domain.Frame{}, fmt.Errorf("grib grid is %dx%d, want %dx%d", last.ni, last.nj, d.width, d.height)
	}

	var values []float64
	if last.template == templatePNG {
		values, err = last.decodePNG()
	} else {
		values, err = decodeWithLibrary(buf)
	}
	if err != nil {
		return domain.Frame{}, err
	}
	if len(values) != d.width*d.height {
		return domain.Frame{}, fmt.Errorf("grib grid has %d values, want %dx%d", len(values), d.width, d.height)
	}
	return domain.Frame{Width: d.width, Height: d.height, Values: values}, nil
}

func decodeWithLibrary(buf []byte) ([]float64, error) {
	messages, err := griblib.ReadMessages(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("read grib messages: %w", err)
	}
	if len(messages) == 0 {
		return nil, ErrEmptyProduct
	}
	return messages[len(messages)-1].Data(), nil
}

// Gunzip wraps a gzip stream. The caller closes the returned reader.
func Gunzip(r io.Reader) (io.ReadCloser, error) {
	zr, err := kgzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	return zr, nil
}
