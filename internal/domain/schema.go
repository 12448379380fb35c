package domain

import "slices"

// Field is a canonical record field that an uploaded column can be bound to.
type Field string

const (
	FieldLocation  Field = "location"
	FieldCaseCount Field = "case_count"
	FieldSeverity  Field = "severity"
	FieldYear      Field = "year"
	FieldCategory  Field = "category"
	FieldLatitude  Field = "latitude"
	FieldLongitude Field = "longitude"
)

// Aliases lists, per canonical field, the acceptable column names in
// priority order.
type Aliases map[Field][]string

// FieldMapping binds canonical fields to column names. Unbound fields are
// absent from the map.
type FieldMapping map[Field]string

// Column returns the column bound to f, if any.
func (m FieldMapping) Column(f Field) (string, bool) {
	col, ok := m[f]
	return col, ok
}

// mandatoryFields fall back to the first column when no alias matches.
var mandatoryFields = []Field{FieldLocation, FieldCaseCount}

// resolveOrder fixes the iteration order so resolution is deterministic.
var resolveOrder = []Field{
	FieldLocation,
	FieldCaseCount,
	FieldSeverity,
	FieldYear,
	FieldCategory,
	FieldLatitude,
	FieldLongitude,
}

var defaultAliases = Aliases{
	FieldLocation:  {"Area_Name", "Location", "District", "City", "Area"},
	FieldCaseCount: {"Cases_Property_Stolen", "Cases", "Count", "Total_Cases"},
	FieldSeverity:  {"Severity", "Severity_Level"},
	FieldYear:      {"Year", "Period"},
	FieldCategory:  {"Group_Name", "Crime_Type", "Category", "Type"},
	FieldLatitude:  {"Latitude", "Lat"},
	FieldLongitude: {"Longitude", "Lon", "Lng"},
}

// DefaultAliases returns a copy of the built-in alias table.
func DefaultAliases() Aliases {
	out := make(Aliases, len(defaultAliases))
	for f, names := range defaultAliases {
		out[f] = slices.Clone(names)
	}
	return out
}

// ResolveSchema binds canonical fields to columns using the default aliases.
func ResolveSchema(columns []string) FieldMapping {
	return ResolveSchemaWith(columns, defaultAliases)
}

// ResolveSchemaWith binds each canonical field to the first of its aliases
// present in columns. Mandatory fields with no match are bound to the first
// column; optional fields stay unbound. It never fails, but an empty column
// list produces an empty mapping.
func ResolveSchemaWith(columns []string, aliases Aliases) FieldMapping {
	mapping := make(FieldMapping, len(resolveOrder))
	if len(columns) == 0 {
		return mapping
	}

	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	for _, f := range resolveOrder {
		if col, ok := findAlias(aliases[f], present); ok {
			mapping[f] = col
			continue
		}
		if slices.Contains(mandatoryFields, f) {
			mapping[f] = columns[0]
		}
	}
	return mapping
}

func findAlias(names []string, present map[string]struct{}) (string, bool) {
	for _, name := range names {
		if _, ok := present[name]; ok {
			return name, true
		}
	}
	return "", false
}
