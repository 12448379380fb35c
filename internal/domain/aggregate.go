package domain

import (
	"slices"
)

// LocationSeries sums case counts per year for one location across all
// categories.
func LocationSeries(records []Record, location string) Series {
	return seriesFor(records, location, func(r Record) string { return r.Location })
}

// CategorySeries sums case counts per year for one category across all
// locations.
func CategorySeries(records []Record, category string) Series {
	return seriesFor(records, category, func(r Record) string { return r.Category })
}

// SeriesByLocation returns one series per distinct location, in the order
// locations first appear.
func SeriesByLocation(records []Record) []Series {
	return seriesByKey(records, func(r Record) string { return r.Location })
}

// SeriesByCategory returns one series per distinct category, in the order
// categories first appear.
func SeriesByCategory(records []Record) []Series {
	return seriesByKey(records, func(r Record) string { return r.Category })
}

// Locations lists distinct locations in first-seen order.
func Locations(records []Record) []string {
	return distinct(records, func(r Record) string { return r.Location })
}

// Categories lists distinct categories in first-seen order.
func Categories(records []Record) []string {
	return distinct(records, func(r Record) string { return r.Category })
}

// Summarize computes the headline metrics for a record set.
func Summarize(records []Record) Summary {
	var s Summary
	if len(records) == 0 {
		return s
	}

	years := make(map[int]struct{})
	categories := make(map[string]struct{})
	s.FirstYear, s.LastYear = records[0].Year, records[0].Year

	for _, r := range records {
		s.TotalCases += r.CaseCount
		if r.HighRisk() {
			s.HighRiskCount++
		}
		if r.Severity == MaxSeverity {
			s.CriticalCount++
		}
		years[r.Year] = struct{}{}
		categories[r.Category] = struct{}{}
		s.FirstYear = min(s.FirstYear, r.Year)
		s.LastYear = max(s.LastYear, r.Year)
	}

	s.DistinctYears = len(years)
	s.DistinctCategories = len(categories)
	return s
}

// Len returns the number of yearly points.
func (s Series) Len() int {
	return len(s.Points)
}

// Values returns the case counts in year order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = float64(p.Cases)
	}
	return out
}

// Last returns the most recent point. ok is false for an empty series.
func (s Series) Last() (SeriesPoint, bool) {
	if len(s.Points) == 0 {
		return SeriesPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Mean returns the average yearly case count, or 0 for an empty series.
func (s Series) Mean() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	var total int
	for _, p := range s.Points {
		total += p.Cases
	}
	return float64(total) / float64(len(s.Points))
}

// AboveMean flags, per point, whether that year exceeds the series mean.
func (s Series) AboveMean() []bool {
	mean := s.Mean()
	out := make([]bool, len(s.Points))
	for i, p := range s.Points {
		out[i] = float64(p.Cases) > mean
	}
	return out
}

func seriesFor(records []Record, key string, keyOf func(Record) string) Series {
	totals := make(map[int]int)
	for _, r := range records {
		if keyOf(r) == key {
			totals[r.Year] += r.CaseCount
		}
	}
	return Series{Key: key, Points: pointsFrom(totals)}
}

func seriesByKey(records []Record, keyOf func(Record) string) []Series {
	keys := distinct(records, keyOf)
	totals := make(map[string]map[int]int, len(keys))
	for _, r := range records {
		k := keyOf(r)
		if totals[k] == nil {
			totals[k] = make(map[int]int)
		}
		totals[k][r.Year] += r.CaseCount
	}

	out := make([]Series, 0, len(keys))
	for _, k := range keys {
		out = append(out, Series{Key: k, Points: pointsFrom(totals[k])})
	}
	return out
}

// pointsFrom orders yearly totals by ascending year.
func pointsFrom(totals map[int]int) []SeriesPoint {
	points := make([]SeriesPoint, 0, len(totals))
	for year, cases := range totals {
		points = append(points, SeriesPoint{Year: year, Cases: cases})
	}
	slices.SortFunc(points, func(a, b SeriesPoint) int { return a.Year - b.Year })
	return points
}

func distinct(records []Record, keyOf func(Record) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		k := keyOf(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
