package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"babytrack/internal/analysis"
	"babytrack/internal/generator"
	"babytrack/internal/log"
	"babytrack/internal/store"
)

// writeJSON writes a JSON response with the given status code.
// Buffer-first: headers are only sent after successful encoding, so an
// encoding failure can still return a proper 500.
func writeJSON(w http.ResponseWriter, status int, data any, logger log.Logger) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		logger.Error("encoding JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are common and expected.
		logger.Debug("writing response body", "error", err)
	}
}

// ErrorResponse is the JSON error shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string, logger log.Logger) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message}, logger)
}

// writeDomainError maps domain errors onto HTTP statuses: not-found to
// 404, invalid windows and empty data to 422, exhausted generation
// quota to 503, everything else to 500.
func writeDomainError(w http.ResponseWriter, err error, logger log.Logger) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found", logger)
	case errors.Is(err, analysis.ErrInvalidWindow):
		writeError(w, http.StatusUnprocessableEntity, "invalid_window", "window end must be after start", logger)
	case errors.Is(err, analysis.ErrNoData):
		writeError(w, http.StatusUnprocessableEntity, "no_data", "no events recorded in the requested window", logger)
	case errors.Is(err, generator.ErrQuotaExhausted):
		writeError(w, http.StatusServiceUnavailable, "quota_exhausted", "analysis service temporarily unavailable, try again later", logger)
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", logger)
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
