package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/crime-data-analytics/internal/ingest"
	"github.com/couchcryptid/crime-data-analytics/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// uploadField is the multipart form field carrying the file.
const uploadField = "file"

var errUploadTooLarge = errors.New("upload exceeds size limit")

type errorResponse struct {
	Error string `json:"error"`
}

// handleAnalyze analyzes an uploaded table. The body is either the raw file
// or a multipart form with a "file" field; an empty body analyzes the sample.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	in, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	name, data, err := s.readUpload(w, r)
	switch {
	case errors.Is(err, errUploadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: %d bytes", err, s.maxUploadBytes))
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if in.Source == "" {
		in.Source = name
	}
	in.Data = data

	s.analyze(w, r, in)
}

// handleSample analyzes the built-in sample table.
func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	in, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	in.Source, in.Data = "", nil
	s.analyze(w, r, in)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, in pipeline.Input) {
	report, err := s.analyzer.Analyze(r.Context(), in)
	switch {
	case errors.Is(err, ingest.ErrUnreadable):
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err)
		return
	case err != nil:
		s.logger.Error("analysis failed", "source", in.Source, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("analysis failed"))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

// parseQuery reads name, top and repeated location parameters.
func parseQuery(r *http.Request) (pipeline.Input, error) {
	q := r.URL.Query()
	in := pipeline.Input{Source: strings.TrimSpace(q.Get("name"))}

	if v := q.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return pipeline.Input{}, fmt.Errorf("invalid top %q: must be a positive integer", v)
		}
		in.TopN = n
	}

	for _, loc := range q["location"] {
		if loc = strings.TrimSpace(loc); loc != "" {
			in.Locations = append(in.Locations, loc)
		}
	}
	return in, nil
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return readMultipart(r)
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, uploadError(err)
	}
	return "", data, nil
}

func readMultipart(r *http.Request) (string, []byte, error) {
	file, header, err := r.FormFile(uploadField)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, uploadError(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, uploadError(err)
	}
	return header.Filename, data, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errUploadTooLarge
	}
	return fmt.Errorf("read upload: %w", err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, errorResponse{Error: err.Error()})
}
