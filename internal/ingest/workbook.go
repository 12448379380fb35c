package ingest

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/couchcryptid/crime-data-analytics/internal/domain"
	"github.com/xuri/excelize/v2"
)

// readWorkbook reads the first sheet of an .xlsx workbook. The first row is
// the header.
func readWorkbook(data []byte) (domain.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.RawTable{}, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return domain.RawTable{}, errNoHeader
	}
	return buildTable(rows[0], rows[1:]), nil
}
