package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/crime-data-analytics/internal/adapter/http"
	"github.com/couchcryptid/crime-data-analytics/internal/domain"
	"github.com/couchcryptid/crime-data-analytics/internal/ingest"
	"github.com/couchcryptid/crime-data-analytics/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaxUpload = 1024

type mockAnalyzer struct {
	readyErr error
	err      error
	inputs   []pipeline.Input
}

func (m *mockAnalyzer) CheckReadiness(_ context.Context) error { return m.readyErr }

func (m *mockAnalyzer) Analyze(_ context.Context, in pipeline.Input) (domain.Report, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return domain.Report{}, m.err
	}
	source := in.Source
	if len(in.Data) == 0 {
		source = pipeline.SampleSource
	}
	return domain.Report{RunID: "run-1", Source: source, Summary: domain.Summary{TotalCases: 252}}, nil
}

func newTestServer(a *mockAnalyzer) *httpadapter.Server {
	return httpadapter.NewServer(":0", a, testMaxUpload, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// --- health endpoints ---

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockAnalyzer{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(&mockAnalyzer{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockAnalyzer{readyErr: fmt.Errorf("warm-up analysis has not completed")})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "warm-up analysis has not completed", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockAnalyzer{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- analysis API ---

func TestAnalyze_RawBody(t *testing.T) {
	a := &mockAnalyzer{}
	srv := newTestServer(a)
	body := "Area_Name,Cases\nDelhi Central,45\n"
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses?name=delhi.csv&top=3&location=Delhi+Central&location=+", strings.NewReader(body))

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, a.inputs, 1)
	assert.Equal(t, pipeline.Input{
		Source:    "delhi.csv",
		Data:      []byte(body),
		TopN:      3,
		Locations: []string{"Delhi Central"},
	}, a.inputs[0])

	var report domain.Report
	decodeBody(t, rec, &report)
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "delhi.csv", report.Source)
}

func TestAnalyze_Multipart(t *testing.T) {
	a := &mockAnalyzer{}
	srv := newTestServer(a)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "crimes.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Area_Name,Cases\nPune,5\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, a.inputs, 1)
	assert.Equal(t, "crimes.csv", a.inputs[0].Source)
	assert.Equal(t, []byte("Area_Name,Cases\nPune,5\n"), a.inputs[0].Data)
}

func TestAnalyze_EmptyBodyUsesSample(t *testing.T) {
	a := &mockAnalyzer{}
	srv := newTestServer(a)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", nil)

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var report domain.Report
	decodeBody(t, rec, &report)
	assert.Equal(t, pipeline.SampleSource, report.Source)
}

func TestAnalyze_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		body     string
		err      error
		expected int
	}{
		{"bad top", "/api/v1/analyses?top=zero", "a,b\n", nil, http.StatusBadRequest},
		{"negative top", "/api/v1/analyses?top=-1", "a,b\n", nil, http.StatusBadRequest},
		{"oversize", "/api/v1/analyses", strings.Repeat("x", testMaxUpload+1), nil, http.StatusRequestEntityTooLarge},
		{"unreadable", "/api/v1/analyses", "a,b\n", fmt.Errorf("decode: %w", ingest.ErrUnreadable), http.StatusUnprocessableEntity},
		{"cancelled", "/api/v1/analyses", "a,b\n", context.Canceled, http.StatusServiceUnavailable},
		{"internal", "/api/v1/analyses", "a,b\n", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&mockAnalyzer{err: tt.err})
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))

			srv.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
			var body map[string]string
			decodeBody(t, rec, &body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSample_Endpoint(t *testing.T) {
	a := &mockAnalyzer{}
	srv := newTestServer(a)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sample?top=2", nil)

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, a.inputs, 1)
	assert.Empty(t, a.inputs[0].Data)
	assert.Equal(t, 2, a.inputs[0].TopN)
}

func TestAnalyze_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(&mockAnalyzer{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
