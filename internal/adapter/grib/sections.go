package grib

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
)

// Data representation templates (GRIB2 code table 5.0).
const (
	templateSimple = 0
	templatePNG    = 41
)

const bitmapNone = 255

var (
	gribMagic = []byte("GRIB")
	endMarker = []byte("7777")
)

// message is the part of one GRIB2 message the decoder needs, located by
// walking the section headers.
type message struct {
	ni, nj   int // 0 when the grid is not template 3.0
	scanMode byte
	points   int
	template uint16
	ref      float64 // R
	binScale int     // E
	decScale int     // D
	bits     int
	bitmap   byte
	data     []byte // section 7 payload
}

// indexMessages splits a GRIB2 stream into messages.
func indexMessages(buf []byte) ([]message, error) {
	var out []message
	for len(buf) > 0 {
		if len(buf) < 16 || !bytes.Equal(buf[:4], gribMagic) {
			return nil, fmt.Errorf("not a grib stream at message %d", len(out)+1)
		}
		if buf[7] != 2 {
			return nil, fmt.Errorf("unsupported grib edition %d", buf[7])
		}
		total := binary.BigEndian.Uint64(buf[8:16])
		if total < 20 || total > uint64(len(buf)) {
			return nil, fmt.Errorf("grib message length %d exceeds %d bytes", total, len(buf))
		}
		m, err := parseSections(buf[16:total])
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", len(out)+1, err)
		}
		out = append(out, m)
		buf = buf[total:]
	}
	return out, nil
}

func parseSections(buf []byte) (message, error) {
	var m message
	for {
		if len(buf) >= 4 && bytes.Equal(buf[:4], endMarker) {
			return m, nil
		}
		if len(buf) < 5 {
			return m, errors.New("truncated section header")
		}
		n := binary.BigEndian.Uint32(buf[:4])
		if n < 5 || uint64(n) > uint64(len(buf)) {
			return m, fmt.Errorf("section %d length %d out of range", buf[4], n)
		}
		sec := buf[:n]
		switch sec[4] {
		case 3:
			if len(sec) >= 72 && binary.BigEndian.Uint16(sec[12:14]) == 0 {
				m.ni = int(binary.BigEndian.Uint32(sec[30:34]))
				m.nj = int(binary.BigEndian.Uint32(sec[34:38]))
				m.scanMode = sec[71]
			}
		case 5:
			if len(sec) < 21 {
				return m, errors.New("short data representation section")
			}
			m.points = int(binary.BigEndian.Uint32(sec[5:9]))
			m.template = binary.BigEndian.Uint16(sec[9:11])
			m.ref = float64(math.Float32frombits(binary.BigEndian.Uint32(sec[11:15])))
			m.binScale = signMagnitude(binary.BigEndian.Uint16(sec[15:17]))
			m.decScale = signMagnitude(binary.BigEndian.Uint16(sec[17:19]))
			m.bits = int(sec[19])
		case 6:
			if len(sec) >= 6 {
				m.bitmap = sec[5]
			}
		case 7:
			m.data = sec[5:]
		}
		buf = buf[n:]
	}
}

func signMagnitude(v uint16) int {
	if v&0x8000 != 0 {
		return -int(v & 0x7fff)
	}
	return int(v)
}

// unpack applies Y = (R + X * 2^E) / 10^D to each packed integer.
func (m message) unpack(raw []uint32) []float64 {
	bin := math.Pow(2, float64(m.binScale))
	dec := math.Pow(10, float64(-m.decScale))
	values := make([]float64, len(raw))
	for i, x := range raw {
		values[i] = (m.ref + float64(x)*bin) * dec
	}
	return values
}

// decodePNG unpacks template 5.41: section 7 holds a grayscale PNG whose
// pixels, in scan order, are the packed integers.
func (m message) decodePNG() ([]float64, error) {
	if m.bitmap != bitmapNone {
		return nil, fmt.Errorf("png packed field with bitmap %d is not supported", m.bitmap)
	}
	if m.bits == 0 {
		return m.unpack(make([]uint32, m.points)), nil
	}
	if m.bits != 8 && m.bits != 16 {
		return nil, fmt.Errorf("png packed data: unsupported depth %d", m.bits)
	}
	img, err := png.Decode(bytes.NewReader(m.data))
	if err != nil {
		return nil, fmt.Errorf("decode png packed data: %w", err)
	}

	b := img.Bounds()
	raw := make([]uint32, 0, b.Dx()*b.Dy())
	switch g := img.(type) {
	case *image.Gray16:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				raw = append(raw, uint32(g.Gray16At(x, y).Y))
			}
		}
	case *image.Gray:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				raw = append(raw, uint32(g.GrayAt(x, y).Y))
			}
		}
	default:
		return nil, fmt.Errorf("png packed data: unsupported pixel format %T", img)
	}
	if len(raw) != m.points {
		return nil, fmt.Errorf("png packed data has %d pixels, section 5 declares %d", len(raw), m.points)
	}
	return m.unpack(raw), nil
}
