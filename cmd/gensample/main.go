// Command gensample writes the built-in sample table as fixtures. The CSV
// fixture backs the sample-fallback tests; the optional workbook exercises
// the XLSX ingest path end to end.
//
// Usage:
//
//	go run ./cmd/gensample \
//	  -csv-out data/sample/crime_sample.csv \
//	  -xlsx-out data/sample/crime_sample.xlsx
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/crime-data-analytics/internal/domain"
	"github.com/xuri/excelize/v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvOut := flag.String("csv-out", "data/sample/crime_sample.csv", "output path for the CSV fixture")
	xlsxOut := flag.String("xlsx-out", "", "optional output path for an XLSX fixture")
	flag.Parse()

	records := domain.SampleRecords()

	if err := writeCSV(*csvOut, records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	log.Printf("wrote %s: %d rows", *csvOut, len(records)-1)

	if *xlsxOut != "" {
		if err := writeWorkbook(*xlsxOut, records); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		log.Printf("wrote %s: %d rows", *xlsxOut, len(records)-1)
	}

	printStats()
	return nil
}

func writeCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return f.Close()
}

func writeWorkbook(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// printStats logs the figures the sample-based tests assert on.
func printStats() {
	table := domain.SampleTable()
	records, _ := domain.NormalizeTable(table, domain.ResolveSchema(table.Columns))
	s := domain.Summarize(records)

	log.Printf("total cases: %d", s.TotalCases)
	log.Printf("high risk: %d, critical: %d", s.HighRiskCount, s.CriticalCount)
	for i, r := range domain.TopN(records, 3) {
		log.Printf("  top %d: %-22s %3d cases, severity %d", i+1, r.Location, r.CaseCount, r.Severity)
	}
	counts := countLevels(domain.Hotspots(records))
	for _, level := range []domain.RiskLevel{domain.RiskHigh, domain.RiskElevated, domain.RiskLow} {
		log.Printf("  %-8s %d", level, counts[level])
	}
}

func countLevels(spots []domain.Hotspot) map[domain.RiskLevel]int {
	counts := make(map[domain.RiskLevel]int)
	for _, h := range spots {
		counts[h.Level]++
	}
	return counts
}
