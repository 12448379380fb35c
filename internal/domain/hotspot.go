package domain

// RiskLevel is the display band of a hotspot.
type RiskLevel string

const (
	RiskHigh     RiskLevel = "high"
	RiskElevated RiskLevel = "elevated"
	RiskLow      RiskLevel = "low"
)

// Marker radius is baseRadius plus up to radiusSpan scaled by intensity.
const (
	baseRadius = 8.0
	radiusSpan = 15.0
)

// ClassifyRisk assigns a risk band from severity and case volume.
func ClassifyRisk(severity, cases int) RiskLevel {
	switch {
	case severity >= HighRiskSeverity || cases > 30:
		return RiskHigh
	case severity >= 3 || cases > 15:
		return RiskElevated
	default:
		return RiskLow
	}
}

// Hotspots places every record on the map with an intensity relative to the
// busiest record.
func Hotspots(records []Record) []Hotspot {
	maxCases := 0
	for _, r := range records {
		maxCases = max(maxCases, r.CaseCount)
	}

	out := make([]Hotspot, 0, len(records))
	for _, r := range records {
		var intensity float64
		if maxCases > 0 {
			intensity = float64(r.CaseCount) / float64(maxCases)
		}
		out = append(out, Hotspot{
			Location:  r.Location,
			Category:  r.Category,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Cases:     r.CaseCount,
			Severity:  r.Severity,
			Intensity: intensity,
			Radius:    baseRadius + intensity*radiusSpan,
			Level:     ClassifyRisk(r.Severity, r.CaseCount),
		})
	}
	return out
}

// MapCenter returns the mean latitude and longitude of records, or (0,0)
// when there are none.
func MapCenter(records []Record) [2]float64 {
	if len(records) == 0 {
		return [2]float64{}
	}
	var lat, lon float64
	for _, r := range records {
		lat += r.Latitude
		lon += r.Longitude
	}
	n := float64(len(records))
	return [2]float64{lat / n, lon / n}
}

// Alerts returns the high-risk records in input order.
func Alerts(records []Record) []Record {
	out := make([]Record, 0)
	for _, r := range records {
		if r.HighRisk() {
			out = append(out, r)
		}
	}
	return out
}
