package domain

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mrmsLayout = Layout{Base: "data", Source: "mrms", Org: "ncep", Product: "PrecipRate"}

func TestPathTemplate_Expand(t *testing.T) {
	instant := time.Date(2023, 1, 1, 0, 10, 0, 0, time.UTC)
	cst := time.FixedZone("UTC+8", 8*60*60)

	tests := []struct {
		name string
		tmpl PathTemplate
		loc  *time.Location
		want string
	}{
		{
			"live url",
			"https://mrms.ncep.noaa.gov/data/2D/PrecipRate/MRMS_PrecipRate_00.00_{stamp}.grib2.gz",
			nil,
			"https://mrms.ncep.noaa.gov/data/2D/PrecipRate/MRMS_PrecipRate_00.00_20230101-001000.grib2.gz",
		},
		{
			"archive url",
			"https://mtarchive.geol.iastate.edu/{yyyy}/{mm}/{dd}/mrms/ncep/PrecipRate/PrecipRate_00.00_{stamp}.grib2.gz",
			time.UTC,
			"https://mtarchive.geol.iastate.edu/2023/01/01/mrms/ncep/PrecipRate/PrecipRate_00.00_20230101-001000.grib2.gz",
		},
		{
			"mirror path in local zone",
			"{yyyy}/{date}/Z_OTHE_RADAMCR_{compact}.bin.bz2",
			cst,
			"2023/20230101/Z_OTHE_RADAMCR_20230101081000.bin.bz2",
		},
		{
			"clock parts",
			"{HH}{MI}{SS}",
			nil,
			"001000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tmpl.Expand(instant, tt.loc))
		})
	}
}

func TestLayout_Path(t *testing.T) {
	instant := time.Date(2023, 1, 1, 0, 10, 0, 0, time.UTC)

	got := mrmsLayout.Path(instant, "PrecipRate_00.00_{stamp}.int16.png")
	want := filepath.Join("data", "2023", "01", "01", "mrms", "ncep", "PrecipRate", "PrecipRate_00.00_20230101-001000.int16.png")
	assert.Equal(t, want, got)
}

func TestLayout_PathIsStableAndDistinct(t *testing.T) {
	a := time.Date(2023, 1, 1, 0, 10, 0, 0, time.UTC)
	b := a.Add(2 * time.Minute)
	name := PathTemplate("PrecipRate_00.00_{stamp}.grib2")

	assert.Equal(t, mrmsLayout.Path(a, name), mrmsLayout.Path(a, name))
	assert.Equal(t, mrmsLayout.Path(a, name), mrmsLayout.Path(a.In(time.FixedZone("X", 3600)), name))
	assert.NotEqual(t, mrmsLayout.Path(a, name), mrmsLayout.Path(b, name))
}

func TestLayout_DateInSourceZone(t *testing.T) {
	cst := time.FixedZone("UTC+8", 8*60*60)
	l := Layout{Base: "data", Source: "tjwf", Org: "radar_mosaic", Product: "MCR", Location: cst}

	// 2023-01-01 20:00 UTC is already 2 January in UTC+8.
	got := l.Dir(time.Date(2023, 1, 1, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, filepath.Join("data", "2023", "01", "02", "tjwf", "radar_mosaic", "MCR"), got)
}

func TestLayout_Validate(t *testing.T) {
	require.NoError(t, mrmsLayout.Validate())
	err := Layout{Base: "data"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
