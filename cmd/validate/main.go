// Command validate performs end-to-end integrity checks on a crime incident
// table: it decodes the file, runs the analysis stages and verifies column
// mapping, row invariants, aggregation, ranking order and forecast outcomes.
// It also checks that the sample fixture matches the built-in sample table.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -input data/sample/crime_sample.csv \
//	  -fixture data/sample/crime_sample.csv
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/crime-data-analytics/internal/domain"
	"github.com/couchcryptid/crime-data-analytics/internal/forecast"
	"github.com/couchcryptid/crime-data-analytics/internal/ingest"
	"github.com/google/go-cmp/cmp"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	input := flag.String("input", "", "CSV or XLSX table to validate (default: built-in sample)")
	fixture := flag.String("fixture", "data/sample/crime_sample.csv", "sample fixture to compare with the built-in table")
	topN := flag.Int("top", domain.DefaultTopN, "size of the ranked table to check")
	flag.Parse()

	os.Exit(run(*input, *fixture, *topN))
}

func run(input, fixture string, topN int) int {
	fmt.Println("=== Crime Data Integrity Validation ===")
	fmt.Println()

	table, source, err := loadTable(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load %s: %v\n", source, err)
		return 1
	}

	mapping := domain.ResolveSchema(table.Columns)
	records, stats := domain.NormalizeTable(table, mapping)
	forecaster := forecast.New(slog.New(slog.DiscardHandler))

	phases := []*phase{
		validateMapping(table, mapping),
		validateRecords(records, stats),
		validateAggregation(records),
		validateRanking(records, topN),
		validateForecasts(forecaster, records),
	}
	if fixture != "" {
		phases = append(phases, validateFixture(fixture))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Source %s: %d rows, %d records, %d dropped\n", source, stats.Rows, stats.Kept, stats.Dropped)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadTable(path string) (domain.RawTable, string, error) {
	if path == "" {
		return domain.SampleTable(), "sample", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RawTable{}, path, err
	}
	res, err := ingest.Decode(filepath.Base(path), data)
	if err != nil {
		return domain.RawTable{}, path, err
	}
	return res.Table, fmt.Sprintf("%s (%s)", path, res.Encoding), nil
}

// ── Phases ──

func validateMapping(table domain.RawTable, mapping domain.FieldMapping) *phase {
	p := &phase{name: "Column mapping"}
	if len(table.Columns) == 0 {
		return p
	}
	for _, f := range []domain.Field{domain.FieldLocation, domain.FieldCaseCount} {
		if _, ok := mapping.Column(f); !ok {
			p.errorf("mandatory field %s is unbound", f)
		}
	}
	for f, col := range mapping {
		if !slices.Contains(table.Columns, col) {
			p.errorf("field %s bound to missing column %q", f, col)
		}
	}
	return p
}

func validateRecords(records []domain.Record, stats domain.NormalizeStats) *phase {
	p := &phase{name: "Record invariants"}
	if stats.Kept+stats.Dropped != stats.Rows {
		p.errorf("kept %d + dropped %d != rows %d", stats.Kept, stats.Dropped, stats.Rows)
	}
	reasons := 0
	for _, n := range stats.Reasons {
		reasons += n
	}
	if reasons != stats.Dropped {
		p.errorf("drop reasons sum to %d, dropped is %d", reasons, stats.Dropped)
	}
	for _, r := range records {
		if r.CaseCount <= 0 {
			p.errorf("row %d: case count %d is not positive", r.Row, r.CaseCount)
		}
		if r.Severity < domain.MinSeverity || r.Severity > domain.MaxSeverity {
			p.errorf("row %d: severity %d out of range", r.Row, r.Severity)
		}
		if r.Category == "" {
			p.errorf("row %d: empty category", r.Row)
		}
		if r.Latitude < -90 || r.Latitude > 90 || r.Longitude < -180 || r.Longitude > 180 {
			p.errorf("row %d: coordinates (%v, %v) out of range", r.Row, r.Latitude, r.Longitude)
		}
	}
	return p
}

func validateAggregation(records []domain.Record) *phase {
	p := &phase{name: "Yearly aggregation"}
	summary := domain.Summarize(records)

	check := func(kind string, series []domain.Series) {
		total := 0
		for _, s := range series {
			for i, pt := range s.Points {
				total += pt.Cases
				if i > 0 && pt.Year <= s.Points[i-1].Year {
					p.errorf("%s %q: year %d not after %d", kind, s.Key, pt.Year, s.Points[i-1].Year)
				}
			}
		}
		if total != summary.TotalCases {
			p.errorf("%s series sum to %d, total cases is %d", kind, total, summary.TotalCases)
		}
	}
	check("location", domain.SeriesByLocation(records))
	check("category", domain.SeriesByCategory(records))

	high := 0
	for _, r := range records {
		if r.HighRisk() {
			high++
		}
	}
	if high != summary.HighRiskCount {
		p.errorf("high risk count %d, summary says %d", high, summary.HighRiskCount)
	}
	return p
}

func validateRanking(records []domain.Record, n int) *phase {
	p := &phase{name: "Risk ranking"}
	top := domain.TopN(records, n)
	if want := min(n, len(records)); len(top) != want {
		p.errorf("ranked %d records, want %d", len(top), want)
	}
	for i := 1; i < len(top); i++ {
		prev, cur := top[i-1], top[i]
		if cur.Severity > prev.Severity ||
			(cur.Severity == prev.Severity && cur.CaseCount > prev.CaseCount) {
			p.errorf("rank %d (%s) outranks rank %d (%s)", i+1, cur.Location, i, prev.Location)
		}
	}
	return p
}

func validateForecasts(f *forecast.Forecaster, records []domain.Record) *phase {
	p := &phase{name: "Forecast outcomes"}
	for _, s := range domain.SeriesByLocation(records) {
		fc := f.Forecast(s)
		switch {
		case s.Len() <= 1:
			if fc.Status != domain.ForecastInsufficientData {
				p.errorf("%s: %d points gave status %s", s.Key, s.Len(), fc.Status)
			}
		case fc.Status == domain.ForecastOK:
			checkForecast(p, s, fc)
		case fc.Status == domain.ForecastUnavailable:
			if fc.Reason == "" {
				p.errorf("%s: unavailable without reason", s.Key)
			}
		default:
			p.errorf("%s: unexpected status %s", s.Key, fc.Status)
		}
	}
	return p
}

func checkForecast(p *phase, s domain.Series, fc domain.Forecast) {
	last, _ := s.Last()
	if fc.Year != last.Year+1 {
		p.errorf("%s: forecast year %d, want %d", s.Key, fc.Year, last.Year+1)
	}
	for _, v := range []float64{fc.PointEstimate, fc.LowerBound, fc.UpperBound} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			p.errorf("%s: non-finite forecast value", s.Key)
			return
		}
	}
	if fc.LowerBound > fc.PointEstimate || fc.PointEstimate > fc.UpperBound {
		p.errorf("%s: %v outside [%v, %v]", s.Key, fc.PointEstimate, fc.LowerBound, fc.UpperBound)
	}
	if (last.Cases == 0) != (fc.ChangePct == nil) {
		p.errorf("%s: change pct presence does not match last value %d", s.Key, last.Cases)
	}
}

func validateFixture(path string) *phase {
	p := &phase{name: "Sample fixture parity"}
	data, err := os.ReadFile(path)
	if err != nil {
		p.errorf("read fixture: %v", err)
		return p
	}
	res, err := ingest.Decode(filepath.Base(path), data)
	if err != nil {
		p.errorf("decode fixture: %v", err)
		return p
	}
	if diff := cmp.Diff(domain.SampleTable(), res.Table); diff != "" {
		p.errorf("fixture differs from built-in sample (-want +got):\n%s", diff)
	}
	return p
}
