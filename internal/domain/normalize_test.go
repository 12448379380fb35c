package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testArea  = "Area_Name"
	testCases = "Cases"
)

func fullMapping() FieldMapping {
	return FieldMapping{
		FieldLocation:  testArea,
		FieldCaseCount: testCases,
		FieldSeverity:  "Severity",
		FieldYear:      "Year",
		FieldCategory:  "Group_Name",
		FieldLatitude:  "Latitude",
		FieldLongitude: "Longitude",
	}
}

func TestSeverityFromCases(t *testing.T) {
	tests := []struct {
		cases    float64
		expected int
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{10, 1},
		{10.5, 2},
		{11, 2},
		{20, 2},
		{21, 3},
		{30, 3},
		{31, 4},
		{40, 4},
		{41, 5},
		{10_000, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SeverityFromCases(tt.cases), "cases=%v", tt.cases)
	}
}

func TestNormalizeRow(t *testing.T) {
	t.Run("supplied values", func(t *testing.T) {
		row := Row{
			testArea: "Delhi Central", testCases: "45", "Severity": "5", "Year": "2023",
			"Group_Name": "Armed Robbery", "Latitude": "28.6139", "Longitude": "77.2090",
		}
		rec, reason := NormalizeRow(3, row, fullMapping())

		require.Empty(t, reason)
		assert.Equal(t, Record{
			Row:       3,
			Location:  "Delhi Central",
			Year:      2023,
			Category:  "Armed Robbery",
			CaseCount: 45,
			Severity:  5,
			Latitude:  28.6139,
			Longitude: 77.2090,
			GeoSource: GeoSourceColumn,
		}, rec)
	})

	t.Run("derived severity when column unbound", func(t *testing.T) {
		m := FieldMapping{FieldLocation: testArea, FieldCaseCount: testCases}
		for cases, want := range map[string]int{"10": 1, "11": 2, "40": 4, "41": 5} {
			rec, reason := NormalizeRow(0, Row{testArea: "Pune East", testCases: cases}, m)
			require.Empty(t, reason)
			assert.Equal(t, want, rec.Severity, "cases=%s", cases)
		}
	})

	t.Run("unparseable severity falls back to bins", func(t *testing.T) {
		for _, sev := range []string{"high", "0", "9", "2.5", ""} {
			row := Row{testArea: "Pune East", testCases: "25", "Severity": sev, "Latitude": "1", "Longitude": "2"}
			rec, reason := NormalizeRow(0, row, fullMapping())
			require.Empty(t, reason)
			assert.Equal(t, 3, rec.Severity, "severity=%q", sev)
		}
	})

	t.Run("integral float severity accepted", func(t *testing.T) {
		row := Row{testArea: "X", testCases: "5", "Severity": "4.0", "Latitude": "1", "Longitude": "2"}
		rec, reason := NormalizeRow(0, row, fullMapping())
		require.Empty(t, reason)
		assert.Equal(t, 4, rec.Severity)
	})

	t.Run("zero and invalid case counts dropped", func(t *testing.T) {
		for _, cases := range []string{"0", "-4", "-0.3", "", "n/a", "NaN", "+Inf"} {
			row := Row{testArea: "Delhi", testCases: cases, "Latitude": "1", "Longitude": "2"}
			_, reason := NormalizeRow(0, row, fullMapping())
			assert.Equal(t, DropNonPositiveCases, reason, "cases=%q", cases)
		}
	})

	t.Run("fractional case counts", func(t *testing.T) {
		tests := []struct {
			cases    string
			count    int
			severity int
		}{
			{" 12.6 ", 13, 2},
			{"0.2", 1, 1},
			{"10.4", 11, 2},
			{"10", 10, 1},
			{"40.01", 41, 5},
		}
		for _, tt := range tests {
			row := Row{testArea: "Delhi", testCases: tt.cases, "Latitude": "1", "Longitude": "2"}
			rec, reason := NormalizeRow(0, row, fullMapping())
			require.Empty(t, reason, "cases=%q", tt.cases)
			assert.Equal(t, tt.count, rec.CaseCount, "cases=%q", tt.cases)
			assert.Equal(t, tt.severity, rec.Severity, "cases=%q", tt.cases)
		}
	})

	t.Run("unparseable coordinates dropped", func(t *testing.T) {
		row := Row{testArea: "Delhi", testCases: "12", "Latitude": "north", "Longitude": "77.2"}
		_, reason := NormalizeRow(0, row, fullMapping())
		assert.Equal(t, DropInvalidCoordinates, reason)

		row = Row{testArea: "Delhi", testCases: "12", "Latitude": "28.6", "Longitude": ""}
		_, reason = NormalizeRow(0, row, fullMapping())
		assert.Equal(t, DropInvalidCoordinates, reason)
	})

	t.Run("coordinate table lookup by first word", func(t *testing.T) {
		m := FieldMapping{FieldLocation: testArea, FieldCaseCount: testCases}
		rec, reason := NormalizeRow(0, Row{testArea: "Mumbai Downtown", testCases: "38"}, m)
		require.Empty(t, reason)
		assert.Equal(t, 19.0760, rec.Latitude)
		assert.Equal(t, 72.8777, rec.Longitude)
		assert.Equal(t, GeoSourceTable, rec.GeoSource)
	})

	t.Run("only one coordinate column bound uses lookup", func(t *testing.T) {
		m := FieldMapping{FieldLocation: testArea, FieldCaseCount: testCases, FieldLatitude: "Latitude"}
		rec, reason := NormalizeRow(0, Row{testArea: "Chennai Port", testCases: "8", "Latitude": "bad"}, m)
		require.Empty(t, reason)
		assert.Equal(t, 13.0827, rec.Latitude)
		assert.Equal(t, GeoSourceTable, rec.GeoSource)
	})

	t.Run("unknown location defaults to origin", func(t *testing.T) {
		m := FieldMapping{FieldLocation: testArea, FieldCaseCount: testCases}
		for _, loc := range []string{"Lucknow Cantonment", "delhi central", "", "   "} {
			rec, reason := NormalizeRow(0, Row{testArea: loc, testCases: "3"}, m)
			require.Empty(t, reason)
			assert.Zero(t, rec.Latitude)
			assert.Zero(t, rec.Longitude)
			assert.Equal(t, GeoSourceNone, rec.GeoSource)
		}
	})

	t.Run("missing year and category", func(t *testing.T) {
		m := FieldMapping{FieldLocation: testArea, FieldCaseCount: testCases}
		rec, reason := NormalizeRow(0, Row{testArea: "Jaipur", testCases: "3"}, m)
		require.Empty(t, reason)
		assert.Zero(t, rec.Year)
		assert.Equal(t, UnspecifiedCategory, rec.Category)
	})
}

func TestNormalizeTable(t *testing.T) {
	table := RawTable{
		Columns: []string{testArea, testCases},
		Rows: []Row{
			{testArea: "Delhi North", testCases: "12"},
			{testArea: "Delhi South", testCases: "0"},
			{testArea: "Pune", testCases: "abc"},
			{testArea: "Kolkata", testCases: "31"},
		},
	}
	m := ResolveSchema(table.Columns)

	records, stats := NormalizeTable(table, m)

	require.Len(t, records, 2)
	assert.Equal(t, "Delhi North", records[0].Location)
	assert.Equal(t, 0, records[0].Row)
	assert.Equal(t, "Kolkata", records[1].Location)
	assert.Equal(t, 3, records[1].Row)
	assert.Equal(t, NormalizeStats{
		Rows:    4,
		Kept:    2,
		Dropped: 2,
		Reasons: map[DropReason]int{DropNonPositiveCases: 2},
	}, stats)

	for _, r := range records {
		assert.Positive(t, r.CaseCount)
		assert.GreaterOrEqual(t, r.Severity, MinSeverity)
		assert.LessOrEqual(t, r.Severity, MaxSeverity)
	}
}

func TestNormalizeTable_Empty(t *testing.T) {
	records, stats := NormalizeTable(RawTable{}, FieldMapping{})
	assert.Empty(t, records)
	assert.Equal(t, NormalizeStats{}, stats)
}

func TestNormalizeTable_Deterministic(t *testing.T) {
	table := SampleTable()
	table.Rows = append(table.Rows, Row{"Area_Name": "Unknown Town", "Cases_Property_Stolen": "7"})

	first, _ := NormalizeTable(table, ResolveSchema(table.Columns))
	second, _ := NormalizeTable(table, ResolveSchema(table.Columns))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("normalization not deterministic (-first +second):\n%s", diff)
	}
}

func TestParseWhole(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"2023", 2023, true},
		{" 2023.0 ", 2023, true},
		{"2023.5", 0, false},
		{"", 0, false},
		{"Inf", 0, false},
		{"twenty", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseWhole(tt.in)
		assert.Equal(t, tt.ok, ok, "in=%q", tt.in)
		assert.Equal(t, tt.want, got, "in=%q", tt.in)
	}
}
