package domain

// RawTable is an uploaded table before any interpretation. Cells are kept as
// text; an empty string is an empty cell.
type RawTable struct {
	Columns []string
	Rows    []Row
}

// Row maps column names to cell text.
type Row map[string]string

// Cell returns the cell for column, or "" when the column is absent.
func (r Row) Cell(column string) string {
	if r == nil {
		return ""
	}
	return r[column]
}

// Len returns the number of data rows.
func (t RawTable) Len() int {
	return len(t.Rows)
}
