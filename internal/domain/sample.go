package domain

// SampleColumns is the header of the built-in sample table.
var SampleColumns = []string{
	"Area_Name", "Year", "Group_Name", "Cases_Property_Stolen", "Latitude", "Longitude", "Severity",
}

var sampleRows = [][]string{
	{"Delhi Central", "2023", "Armed Robbery", "45", "28.6139", "77.2090", "5"},
	{"Mumbai Downtown", "2023", "Gang Violence", "38", "19.0760", "72.8777", "4"},
	{"Chennai Port", "2023", "Drug Trafficking", "28", "13.0827", "80.2707", "4"},
	{"Kolkata Market", "2023", "Mass Theft", "22", "22.5726", "88.3639", "3"},
	{"Bangalore Tech Park", "2023", "Cyber Crime", "15", "12.9716", "77.5946", "2"},
	{"Hyderabad Old City", "2023", "Communal Violence", "44", "17.3616", "78.4747", "5"},
	{"Pune Nightlife", "2023", "Drug Offenses", "33", "18.5204", "73.8567", "3"},
	{"Jaipur Tourist Zone", "2023", "Scams", "27", "26.9124", "75.7873", "2"},
}

// SampleTable returns a fresh copy of the built-in 8-row table used when no
// upload is supplied.
func SampleTable() RawTable {
	table := RawTable{
		Columns: append([]string(nil), SampleColumns...),
		Rows:    make([]Row, 0, len(sampleRows)),
	}
	for _, values := range sampleRows {
		row := make(Row, len(SampleColumns))
		for i, col := range SampleColumns {
			row[col] = values[i]
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// SampleRecords returns the sample table as CSV-style records including the
// header, for fixture generation.
func SampleRecords() [][]string {
	out := make([][]string, 0, len(sampleRows)+1)
	out = append(out, append([]string(nil), SampleColumns...))
	for _, values := range sampleRows {
		out = append(out, append([]string(nil), values...))
	}
	return out
}
