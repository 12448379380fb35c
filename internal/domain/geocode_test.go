package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock geocoder ---

type mockGeocoder struct {
	results map[string]GeocodingResult
	err     error
	calls   map[string]int
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, name string) (GeocodingResult, error) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
	if m.err != nil {
		return GeocodingResult{}, m.err
	}
	return m.results[name], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestEnrichWithGeocoding_NilGeocoder(t *testing.T) {
	records := []Record{{Location: "Lucknow", GeoSource: GeoSourceNone}}

	result := EnrichWithGeocoding(context.Background(), records, nil, discardLogger())

	assert.Equal(t, records, result)
}

func TestEnrichWithGeocoding_FillsUnknownLocations(t *testing.T) {
	geo := &mockGeocoder{results: map[string]GeocodingResult{
		"Lucknow Cantonment": {Lat: 26.8467, Lon: 80.9462, PlaceName: "Lucknow", Confidence: 0.9},
	}}
	records := []Record{
		{Location: "Lucknow Cantonment", GeoSource: GeoSourceNone},
		{Location: "Delhi Central", Latitude: 28.6139, Longitude: 77.2090, GeoSource: GeoSourceTable},
		{Location: "Lucknow Cantonment", GeoSource: GeoSourceNone},
	}

	result := EnrichWithGeocoding(context.Background(), records, geo, discardLogger())

	require.Len(t, result, 3)
	assert.Equal(t, 26.8467, result[0].Latitude)
	assert.Equal(t, 80.9462, result[0].Longitude)
	assert.Equal(t, GeoSourceGeocoder, result[0].GeoSource)
	assert.Equal(t, GeoSourceTable, result[1].GeoSource)
	assert.Equal(t, GeoSourceGeocoder, result[2].GeoSource)

	assert.Equal(t, 1, geo.calls["Lucknow Cantonment"], "each location is looked up once")
	assert.Zero(t, geo.calls["Delhi Central"])

	assert.Equal(t, GeoSourceNone, records[0].GeoSource, "input must not be modified")
}

func TestEnrichWithGeocoding_ErrorGracefulDegradation(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("API timeout")}
	records := []Record{{Location: "Lucknow", GeoSource: GeoSourceNone}}

	result := EnrichWithGeocoding(context.Background(), records, geo, discardLogger())

	assert.Equal(t, GeoSourceNone, result[0].GeoSource)
	assert.Zero(t, result[0].Latitude)
}

func TestEnrichWithGeocoding_EmptyResult(t *testing.T) {
	geo := &mockGeocoder{results: map[string]GeocodingResult{}}
	records := []Record{{Location: "Atlantis", GeoSource: GeoSourceNone}}

	result := EnrichWithGeocoding(context.Background(), records, geo, discardLogger())

	assert.Equal(t, GeoSourceNone, result[0].GeoSource)
	assert.Equal(t, 1, geo.calls["Atlantis"])
}

func TestEnrichWithGeocoding_SkipsBlankLocation(t *testing.T) {
	geo := &mockGeocoder{}
	records := []Record{{Location: "", GeoSource: GeoSourceNone}}

	EnrichWithGeocoding(context.Background(), records, geo, discardLogger())

	assert.Empty(t, geo.calls)
}
