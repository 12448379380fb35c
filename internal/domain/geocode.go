package domain

import (
	"context"
	"log/slog"
	"slices"
)

// EnrichWithGeocoding fills in coordinates for records that neither carried
// coordinates nor matched the coordinate table. Each distinct location is
// looked up once. Failed or empty lookups leave the record at (0,0) with
// GeoSource "none" (graceful degradation). The input slice is not modified.
func EnrichWithGeocoding(ctx context.Context, records []Record, geocoder Geocoder, logger *slog.Logger) []Record {
	if geocoder == nil {
		return records
	}

	out := slices.Clone(records)
	resolved := make(map[string]*Coordinate)

	for i := range out {
		rec := &out[i]
		if rec.GeoSource != GeoSourceNone || rec.Location == "" {
			continue
		}

		coord, seen := resolved[rec.Location]
		if !seen {
			coord = forwardGeocode(ctx, geocoder, rec.Location, logger)
			resolved[rec.Location] = coord
		}
		if coord == nil {
			continue
		}
		rec.Latitude = coord.Lat
		rec.Longitude = coord.Lon
		rec.GeoSource = GeoSourceGeocoder
	}
	return out
}

func forwardGeocode(ctx context.Context, geocoder Geocoder, location string, logger *slog.Logger) *Coordinate {
	result, err := geocoder.ForwardGeocode(ctx, location)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"location", location,
			"error", err,
		)
		return nil
	}
	if result.Lat == 0 && result.Lon == 0 {
		return nil
	}
	return &Coordinate{Lat: result.Lat, Lon: result.Lon}
}
