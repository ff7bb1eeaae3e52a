package domain

// MRMS PrecipRate. The live host keeps a short rolling window; the Iowa
// State archive holds history.
const (
	MRMSLiveURL    PathTemplate = "https://mrms.ncep.noaa.gov/data/2D/PrecipRate/MRMS_PrecipRate_00.00_{stamp}.grib2.gz"
	MRMSArchiveURL PathTemplate = "https://mtarchive.geol.iastate.edu/{yyyy}/{mm}/{dd}/mrms/ncep/PrecipRate/PrecipRate_00.00_{stamp}.grib2.gz"
	// MRMSBaseName is the stored file name without extension.
	MRMSBaseName PathTemplate = "PrecipRate_00.00_{stamp}"
)

// TJWF radar mosaic mirror conventions. Files are named in UTC+8.
const (
	TJWFFileName  PathTemplate = "Z_OTHE_RADAMCR_{compact}.bin.bz2"
	TJWFPrimary   PathTemplate = "{yyyy}/{date}/" + TJWFFileName
	TJWFAlternate PathTemplate = "{yyyy}/{date}/RADAR_MOSAIC/MCR/" + TJWFFileName
)
