package domain

import (
	"fmt"
	"math"
)

// Quantization constants: sample = round((value + QuantOffset) * QuantScale).
const (
	QuantOffset = 3.0
	QuantScale  = 10.0
)

// SampleType selects the fixed-width integer encoding of a raster sample.
type SampleType int

const (
	Int16 SampleType = iota
	Uint16
)

// String returns the tag used in artifact file names ("int16", "uint16").
func (s SampleType) String() string {
	switch s {
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	default:
		return fmt.Sprintf("SampleType(%d)", int(s))
	}
}

// Range returns the inclusive bounds of the sample type.
func (s SampleType) Range() (lo, hi int32, err error) {
	switch s {
	case Int16:
		return math.MinInt16, math.MaxInt16, nil
	case Uint16:
		return 0, math.MaxUint16, nil
	default:
		return 0, 0, fmt.Errorf("%w: %s", ErrUnknownSampleType, s)
	}
}

// ParseSampleType is the inverse of SampleType.String.
func ParseSampleType(s string) (SampleType, error) {
	switch s {
	case "int16":
		return Int16, nil
	case "uint16":
		return Uint16, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSampleType, s)
	}
}

// Frame is a row-major grid of physical precipitation rates in mm/h.
type Frame struct {
	Width  int
	Height int
	Values []float64
}

// EncodedFrame is a row-major grid of quantized samples. Samples are widened
// to int32 but always lie within Type's range.
type EncodedFrame struct {
	Width   int
	Height  int
	Type    SampleType
	Samples []int32
}

// EncodeValue quantizes a single value, clamping to [lo, hi]. NaN maps to lo.
func EncodeValue(v float64, lo, hi int32) int32 {
	if math.IsNaN(v) {
		return lo
	}
	q := math.Round((v + QuantOffset) * QuantScale)
	switch {
	case q <= float64(lo):
		return lo
	case q >= float64(hi):
		return hi
	}
	return int32(q)
}

// DecodeSample is the linear inverse of EncodeValue.
func DecodeSample(s int32) float64 {
	return float64(s)/QuantScale - QuantOffset
}

// Encode quantizes every value of f into samples of type st.
func Encode(f Frame, st SampleType) (EncodedFrame, error) {
	lo, hi, err := st.Range()
	if err != nil {
		return EncodedFrame{}, err
	}
	if len(f.Values) != f.Width*f.Height {
		return EncodedFrame{}, fmt.Errorf("encode frame: %d values for %dx%d grid", len(f.Values), f.Width, f.Height)
	}
	samples := make([]int32, len(f.Values))
	for i, v := range f.Values {
		samples[i] = EncodeValue(v, lo, hi)
	}
	return EncodedFrame{Width: f.Width, Height: f.Height, Type: st, Samples: samples}, nil
}

// Decode converts samples back to physical values. It applies no clamping;
// consumers that need a bounded range use Clamp afterwards.
func Decode(e EncodedFrame) Frame {
	values := make([]float64, len(e.Samples))
	for i, s := range e.Samples {
		values[i] = DecodeSample(s)
	}
	return Frame{Width: e.Width, Height: e.Height, Values: values}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
