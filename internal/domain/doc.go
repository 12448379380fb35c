// Package domain models crime-incident tables and the pure transformations
// that turn them into analysis output.
//
// # Input Tables
//
// Uploads arrive as a [RawTable]: a header row of arbitrary column names and
// rows of untyped text cells. Column naming varies between publishers, so the
// canonical fields are located by alias search (see [ResolveSchema]):
//
//	location     Area_Name, Location, District, City, Area
//	case_count   Cases_Property_Stolen, Cases, Count, Total_Cases
//	severity     Severity, Severity_Level            (optional)
//	year         Year, Period                        (optional)
//	category     Group_Name, Crime_Type, Category, Type (optional)
//	latitude     Latitude, Lat                       (optional)
//	longitude    Longitude, Lon, Lng                 (optional)
//
// Aliases are matched exactly and in order. When no alias of a mandatory
// field (location, case_count) is present, the first column of the table is
// used; the mapping is then degenerate and correctness is up to the uploader.
//
// # Normalization
//
// Each row becomes zero or one [Record]:
//
//	case_count  parsed as a number, rounded; unparseable = 0; rows <= 0 dropped
//	severity    supplied 1..5, or derived from case_count by fixed bins:
//	              (..,10] 1 | (10,20] 2 | (20,30] 3 | (30,40] 4 | (40,..) 5
//	coordinates supplied lat/lon (unparseable drops the row), or looked up by
//	            the first word of the location name in a small static table
//	            of Indian metro areas, (0,0) when unknown
//
// The coordinate table is a best-effort heuristic, not a geocoder. An
// optional [Geocoder] can fill in coordinates the table misses; see
// [EnrichWithGeocoding].
//
// # Aggregation
//
// Records are grouped by location or by category into yearly [Series] whose
// points are in strictly ascending year order. The forecaster depends on this
// ordering.
//
// # Ranking and Hotspots
//
// [TopN] orders records by severity then case count, both descending, keeping
// input order for ties. [Hotspots] assigns each record a map intensity and a
// risk level:
//
//	high      severity >= 4 or cases > 30
//	elevated  severity >= 3 or cases > 15
//	low       otherwise
package domain
