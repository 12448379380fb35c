package domain

import "strings"

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// coordinateTable maps the leading word of a location name to the city
// centre used when an upload carries no coordinates. Read-only after init.
var coordinateTable = map[string]Coordinate{
	"Delhi":     {Lat: 28.6139, Lon: 77.2090},
	"Mumbai":    {Lat: 19.0760, Lon: 72.8777},
	"Chennai":   {Lat: 13.0827, Lon: 80.2707},
	"Kolkata":   {Lat: 22.5726, Lon: 88.3639},
	"Bangalore": {Lat: 12.9716, Lon: 77.5946},
	"Hyderabad": {Lat: 17.3616, Lon: 78.4747},
	"Pune":      {Lat: 18.5204, Lon: 73.8567},
	"Jaipur":    {Lat: 26.9124, Lon: 75.7873},
}

// LookupCoordinates returns the table coordinates for the first
// whitespace-separated word of location. The match is exact and
// case-sensitive.
func LookupCoordinates(location string) (Coordinate, bool) {
	fields := strings.Fields(location)
	if len(fields) == 0 {
		return Coordinate{}, false
	}
	c, ok := coordinateTable[fields[0]]
	return c, ok
}
