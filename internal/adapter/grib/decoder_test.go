package grib

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/precip-ingest-service/internal/domain"
	kgzip "github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDecoder_InvalidDimensions(t *testing.T) {
	_, err := NewDecoder(0, MRMSHeight)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	d, err := NewDecoder(MRMSWidth, MRMSHeight)
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestDecode_RejectsNonGrib(t *testing.T) {
	d, err := NewDecoder(2, 2)
	require.NoError(t, err)

	_, err = d.Decode(strings.NewReader("<html>not found</html>"))
	require.Error(t, err)

	_, err = d.Decode(bytes.NewReader(nil))
	require.Error(t, err)
}

func TestGunzip(t *testing.T) {
	var buf bytes.Buffer
	zw := kgzip.NewWriter(&buf)
	_, err := zw.Write([]byte("GRIB payload"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	zr, err := Gunzip(&buf)
	require.NoError(t, err)
	defer zr.Close()

	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "GRIB payload", string(data))
}

func TestGunzip_RejectsPlainData(t *testing.T) {
	_, err := Gunzip(strings.NewReader("plain text"))
	require.Error(t, err)
}

// The fixtures hold one 4x3 field (R=-30, E=0, D=1, 16 bits, scanning mode 0),
// once simple-packed and once PNG-packed as MRMS publishes it.
var fixtureValues = []float64{
	-3, 0, 1, 2,
	3.5, 5, 10, 20,
	0.1, 0.2, 50, 100,
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestDecode_Fixtures(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"png packed", "precip_png.grib2"},
		{"simple packed", "precip_simple.grib2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDecoder(4, 3)
			require.NoError(t, err)

			frame, err := d.Decode(bytes.NewReader(readFixture(t, tt.file)))
			require.NoError(t, err)
			assert.Equal(t, 4, frame.Width)
			assert.Equal(t, 3, frame.Height)
			require.Len(t, frame.Values, len(fixtureValues))
			for i, want := range fixtureValues {
				assert.InDelta(t, want, frame.Values[i], 1e-6, "value %d", i)
			}
		})
	}
}

func TestDecode_FileOrderIsNorthFirst(t *testing.T) {
	d, err := NewDecoder(4, 3)
	require.NoError(t, err)

	frame, err := d.Decode(bytes.NewReader(readFixture(t, "precip_png.grib2")))
	require.NoError(t, err)

	// Row 0 is the first scanned row: La1, the northern edge.
	assert.InDelta(t, -3.0, frame.Values[0], 1e-6)
	assert.InDelta(t, 100.0, frame.Values[2*4+3], 1e-6)
}

func TestDecode_LastMessageWins(t *testing.T) {
	png := readFixture(t, "precip_png.grib2")
	d, err := NewDecoder(4, 3)
	require.NoError(t, err)

	frame, err := d.Decode(bytes.NewReader(append(append([]byte{}, png...), png...)))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, frame.Values[11], 1e-6)
}

func TestDecode_GridMismatch(t *testing.T) {
	d, err := NewDecoder(3, 4)
	require.NoError(t, err)

	_, err = d.Decode(bytes.NewReader(readFixture(t, "precip_png.grib2")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4x3")
}

func TestDecode_Truncated(t *testing.T) {
	png := readFixture(t, "precip_png.grib2")
	d, err := NewDecoder(4, 3)
	require.NoError(t, err)

	_, err = d.Decode(bytes.NewReader(png[:len(png)-10]))
	require.Error(t, err)
}
