package domain

import "time"

// Record is one normalized incident row.
type Record struct {
	Row       int     `json:"row"`
	Location  string  `json:"location"`
	Year      int     `json:"year"`
	Category  string  `json:"category"`
	CaseCount int     `json:"case_count"`
	Severity  int     `json:"severity"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	GeoSource string  `json:"geo_source"` // "column", "table", "geocoder", "none"
}

// Geo source labels recorded on each Record.
const (
	GeoSourceColumn   = "column"
	GeoSourceTable    = "table"
	GeoSourceGeocoder = "geocoder"
	GeoSourceNone     = "none"
)

// HighRisk reports whether the record counts toward the high-risk total.
func (r Record) HighRisk() bool {
	return r.Severity >= HighRiskSeverity
}

// SeriesPoint is the total case count for one year.
type SeriesPoint struct {
	Year  int `json:"year"`
	Cases int `json:"cases"`
}

// Series is a yearly case-count series for one grouping key.
type Series struct {
	Key    string        `json:"key"`
	Points []SeriesPoint `json:"points"`
}

// Summary holds the scalar metrics shown on the summary panel.
type Summary struct {
	TotalCases         int `json:"total_cases"`
	HighRiskCount      int `json:"high_risk_count"`
	CriticalCount      int `json:"critical_count"` // severity == MaxSeverity
	DistinctYears      int `json:"distinct_years"`
	DistinctCategories int `json:"distinct_categories"`
	FirstYear          int `json:"first_year,omitempty"`
	LastYear           int `json:"last_year,omitempty"`
}

// ForecastStatus describes the outcome of a forecast attempt.
type ForecastStatus string

const (
	ForecastOK               ForecastStatus = "ok"
	ForecastInsufficientData ForecastStatus = "insufficient_data"
	ForecastUnavailable      ForecastStatus = "unavailable"
)

// Forecast is a one-step-ahead prediction for a single series. Only Status
// and Reason are meaningful unless Status is ForecastOK.
type Forecast struct {
	Key               string         `json:"key"`
	Status            ForecastStatus `json:"status"`
	Reason            string         `json:"reason,omitempty"`
	Year              int            `json:"year,omitempty"`
	PointEstimate     float64        `json:"point_estimate"`
	LowerBound        float64        `json:"lower_bound"`
	UpperBound        float64        `json:"upper_bound"`
	LastObserved      int            `json:"last_observed"`
	ChangePct         *float64       `json:"change_pct"` // nil when the last observation is zero
	ProjectedIncrease bool           `json:"projected_increase"`
}

// Hotspot is a record placed on the map with its display weight.
type Hotspot struct {
	Location  string    `json:"location"`
	Category  string    `json:"category"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Cases     int       `json:"cases"`
	Severity  int       `json:"severity"`
	Intensity float64   `json:"intensity"` // cases / max cases, 0..1
	Radius    float64   `json:"radius"`
	Level     RiskLevel `json:"level"`
}

// Report bundles everything one analysis run produces.
type Report struct {
	RunID          string         `json:"run_id"`
	Source         string         `json:"source"`
	Encoding       string         `json:"encoding,omitempty"`
	GeneratedAt    time.Time      `json:"generated_at"`
	Mapping        FieldMapping   `json:"mapping"`
	Stats          NormalizeStats `json:"stats"`
	Summary        Summary        `json:"summary"`
	Records        []Record       `json:"records"`
	Hotspots       []Hotspot      `json:"hotspots"`
	MapCenter      [2]float64     `json:"map_center"`
	Alerts         []Record       `json:"alerts"`
	LocationSeries []Series       `json:"location_series"`
	CategorySeries []Series       `json:"category_series"`
	Forecasts      []Forecast     `json:"forecasts"`
	TopZones       []Record       `json:"top_zones"`
}
