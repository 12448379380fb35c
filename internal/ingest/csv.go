package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/crime-data-analytics/internal/domain"
)

var errNoHeader = errors.New("no header row")

// parseCSV reads comma-separated text whose first record is the header.
func parseCSV(text []byte) (domain.RawTable, error) {
	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return domain.RawTable{}, errNoHeader
	}
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("read row: %w", err)
		}
		records = append(records, rec)
	}
	return buildTable(header, records), nil
}

// buildTable names columns and maps each record onto them. Short records are
// padded with empty cells, extra cells are ignored and blank records are
// skipped.
func buildTable(header []string, records [][]string) domain.RawTable {
	columns := columnNames(header)
	table := domain.RawTable{Columns: columns, Rows: make([]domain.Row, 0, len(records))}

	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		row := make(domain.Row, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// columnNames trims header cells, names empty ones "Unnamed: i" and
// suffixes repeats with ".1", ".2" and so on.
func columnNames(header []string) []string {
	seen := make(map[string]int, len(header))
	taken := make(map[string]struct{}, len(header))
	out := make([]string, len(header))

	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for {
			if _, dup := taken[name]; !dup {
				break
			}
			seen[base]++
			name = base + "." + strconv.Itoa(seen[base])
		}
		taken[name] = struct{}{}
		out[i] = name
	}
	return out
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
