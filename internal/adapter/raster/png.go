// Package raster stores quantized frames as 16-bit grayscale PNG images.
//
// Unsigned samples are written as-is. Signed samples are written as their
// two's-complement bit pattern, so the sample type must be known when reading.
package raster

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/couchcryptid/precip-ingest-service/internal/domain"
)

// Encode writes e as a 16-bit grayscale PNG.
func Encode(w io.Writer, e domain.EncodedFrame) error {
	if len(e.Samples) != e.Width*e.Height {
		return fmt.Errorf("encode png: %d samples for %dx%d grid", len(e.Samples), e.Width, e.Height)
	}
	if _, _, err := e.Type.Range(); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}

	img := image.NewGray16(image.Rect(0, 0, e.Width, e.Height))
	for i, s := range e.Samples {
		bits := toBits(s, e.Type)
		img.Pix[2*i] = byte(bits >> 8)
		img.Pix[2*i+1] = byte(bits)
	}

	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Decode reads a 16-bit grayscale PNG written by Encode.
func Decode(r io.Reader, st domain.SampleType) (domain.EncodedFrame, error) {
	if _, _, err := st.Range(); err != nil {
		return domain.EncodedFrame{}, fmt.Errorf("decode png: %w", err)
	}

	img, err := png.Decode(r)
	if err != nil {
		return domain.EncodedFrame{}, fmt.Errorf("decode png: %w", err)
	}
	gray, ok := img.(*image.Gray16)
	if !ok {
		return domain.EncodedFrame{}, fmt.Errorf("decode png: expected 16-bit grayscale, got %T", img)
	}

	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	samples := make([]int32, 0, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+2*w]
		for x := 0; x < w; x++ {
			bits := uint16(row[2*x])<<8 | uint16(row[2*x+1])
			samples = append(samples, fromBits(bits, st))
		}
	}
	return domain.EncodedFrame{Width: w, Height: h, Type: st, Samples: samples}, nil
}

func toBits(s int32, st domain.SampleType) uint16 {
	if st == domain.Int16 {
		return uint16(int16(s))
	}
	return uint16(s)
}

func fromBits(bits uint16, st domain.SampleType) int32 {
	if st == domain.Int16 {
		return int32(int16(bits))
	}
	return int32(bits)
}
