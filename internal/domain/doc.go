// Package domain models precipitation-rate raster ingestion: time windows,
// quantized raster frames, artifact layout, and fetch outcomes.
//
// # Data Sources
//
// MRMS (Multi-Radar/Multi-Sensor) publishes a CONUS precipitation-rate grid
// every 2 minutes as gzipped GRIB2:
//
//	live:    https://mrms.ncep.noaa.gov/data/2D/PrecipRate/
//	archive: https://mtarchive.geol.iastate.edu/<yyyy>/<mm>/<dd>/mrms/ncep/PrecipRate/
//
// The live host keeps only a short rolling window, so historical backfill
// reads from the Iowa State archive. Files become available roughly three
// minutes after their nominal timestamp.
//
// TJWF radar mosaics (MCR product, every 6 minutes, UTC+8 file names) are
// read from a local or network-mounted mirror and copied through unchanged.
//
// # Time Windows
//
// A window is the half-open range [Last, Next) where Last is the greatest
// multiple of the publication interval, measured from the Unix epoch, that is
// not after now-delay:
//
//	now=00:05:00  interval=2m  delay=3m10s  ->  effective=00:01:50
//	Last=00:00:00  Next=00:02:00  wait=10s
//
// Alignment is epoch-based rather than midnight-based so fixed-offset zones
// such as UTC+8 produce the same instants as UTC.
//
// # Quantization
//
// Physical values (mm/h) are stored as 16-bit samples:
//
//	sample = round((value + 3) * 10)   clamped to the sample type range
//	value  = sample / 10 - 3
//
// MRMS reports "no coverage" as -3 and below, which maps to sample 0. The
// signed and unsigned encodings share the same mapping; they differ only in
// how out-of-range values clamp. One quantization step is 0.1 mm/h.
//
// # Storage Layout
//
//	<base>/<yyyy>/<mm>/<dd>/<source>/<org>/<product>/<file>
//	e.g. data/2023/01/01/mrms/ncep/PrecipRate/PrecipRate_00.00_20230101-001000.int16.png
//
// Date components and file stamps are rendered in the source's time zone.
// Paths are a pure function of (source, instant), which is what lets backfill
// skip instants that were already ingested.
package domain
