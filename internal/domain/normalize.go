package domain

import (
	"math"
	"strconv"
	"strings"
)

// Severity bounds and the threshold for high-risk records.
const (
	MinSeverity      = 1
	MaxSeverity      = 5
	HighRiskSeverity = 4
)

// UnspecifiedCategory labels records whose category is missing.
const UnspecifiedCategory = "Unspecified"

// severityUpperBounds are the inclusive upper edges of bins 1..4; anything
// above the last edge is bin 5.
var severityUpperBounds = [...]float64{10, 20, 30, 40}

// DropReason explains why a row produced no record.
type DropReason string

const (
	DropNonPositiveCases   DropReason = "non_positive_cases"
	DropInvalidCoordinates DropReason = "invalid_coordinates"
)

// NormalizeStats counts rows kept and dropped during normalization.
type NormalizeStats struct {
	Rows    int                `json:"rows"`
	Kept    int                `json:"kept"`
	Dropped int                `json:"dropped"`
	Reasons map[DropReason]int `json:"reasons,omitempty"`
}

// NormalizeTable converts every row of table into records using mapping.
// Records keep input order.
func NormalizeTable(table RawTable, mapping FieldMapping) ([]Record, NormalizeStats) {
	stats := NormalizeStats{Rows: len(table.Rows)}
	records := make([]Record, 0, len(table.Rows))

	for i, row := range table.Rows {
		rec, reason := NormalizeRow(i, row, mapping)
		if reason != "" {
			stats.Dropped++
			if stats.Reasons == nil {
				stats.Reasons = make(map[DropReason]int)
			}
			stats.Reasons[reason]++
			continue
		}
		records = append(records, rec)
	}
	stats.Kept = len(records)
	return records, stats
}

// NormalizeRow converts a single row. It returns a non-empty DropReason when
// the row must be discarded.
func NormalizeRow(index int, row Row, mapping FieldMapping) (Record, DropReason) {
	location := strings.TrimSpace(cell(row, mapping, FieldLocation))

	raw := parseFloatOrZero(cell(row, mapping, FieldCaseCount))
	if raw <= 0 {
		return Record{}, DropNonPositiveCases
	}
	// Fractional counts round up so a positive count never becomes zero.
	cases := int(math.Ceil(raw))

	rec := Record{
		Row:       index,
		Location:  location,
		Year:      parseYear(cell(row, mapping, FieldYear)),
		Category:  normalizeCategory(cell(row, mapping, FieldCategory)),
		CaseCount: cases,
		Severity:  resolveSeverity(row, mapping, raw),
	}

	_, latBound := mapping.Column(FieldLatitude)
	_, lonBound := mapping.Column(FieldLongitude)
	if latBound && lonBound {
		lat, okLat := parseFloat(cell(row, mapping, FieldLatitude))
		lon, okLon := parseFloat(cell(row, mapping, FieldLongitude))
		if !okLat || !okLon {
			return Record{}, DropInvalidCoordinates
		}
		rec.Latitude, rec.Longitude = lat, lon
		rec.GeoSource = GeoSourceColumn
		return rec, ""
	}

	if c, ok := LookupCoordinates(location); ok {
		rec.Latitude, rec.Longitude = c.Lat, c.Lon
		rec.GeoSource = GeoSourceTable
	} else {
		rec.GeoSource = GeoSourceNone
	}
	return rec, ""
}

// SeverityFromCases bins a case count into a severity of 1..5 using
// half-open (low, high] intervals. Zero and negative counts land in the
// lowest bin.
func SeverityFromCases(cases float64) int {
	for i, upper := range severityUpperBounds {
		if cases <= upper {
			return i + 1
		}
	}
	return MaxSeverity
}

// resolveSeverity uses the supplied severity when it is a whole number in
// range, and derives one from the parsed case count otherwise.
func resolveSeverity(row Row, mapping FieldMapping, cases float64) int {
	if _, ok := mapping.Column(FieldSeverity); ok {
		if s, ok := parseWhole(cell(row, mapping, FieldSeverity)); ok && s >= MinSeverity && s <= MaxSeverity {
			return s
		}
	}
	return SeverityFromCases(cases)
}

func parseYear(s string) int {
	y, ok := parseWhole(s)
	if !ok {
		return 0
	}
	return y
}

func normalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnspecifiedCategory
	}
	return s
}

// cell returns the trimmed cell bound to f, or "" when f is unbound.
func cell(row Row, mapping FieldMapping, f Field) string {
	col, ok := mapping.Column(f)
	if !ok {
		return ""
	}
	return strings.TrimSpace(row.Cell(col))
}

// parseFloat parses a finite number. NaN and infinities are rejected.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	v, ok := parseFloat(s)
	if !ok {
		return 0
	}
	return v
}

// parseWhole accepts integers and integral floats such as "2023.0".
func parseWhole(s string) (int, bool) {
	v, ok := parseFloat(s)
	if !ok || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}
