package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/p-n-ai/medstudy/internal/mentor"
	"github.com/p-n-ai/medstudy/internal/schedule"
	"github.com/p-n-ai/medstudy/internal/tracker"
)

const (
	maxBodyBytes   = 1 << 20
	maxBackupBytes = 16 << 20
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorEnvelope{Error: errorBody{Message: msg, Code: code}})
}

// writeErr maps a domain error onto an HTTP status.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tracker.ErrValidation), errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, tracker.ErrMalformedImport):
		writeError(w, http.StatusBadRequest, "malformed_import", err.Error())
	case errors.Is(err, mentor.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "empty_input", err.Error())
	case errors.Is(err, tracker.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, mentor.ErrBusy):
		writeError(w, http.StatusConflict, "busy", err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", requestID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

var errBadRequest = errors.New("bad request")

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding body: %w", errBadRequest, err)
	}
	return nil
}

func pathWeekday(r *http.Request) (schedule.Weekday, error) {
	n, err := strconv.Atoi(r.PathValue("weekday"))
	if err != nil || !schedule.Weekday(n).Valid() {
		return 0, fmt.Errorf("%w: %w", errBadRequest, schedule.ErrInvalidWeekday)
	}
	return schedule.Weekday(n), nil
}

func pathInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return n, nil
}
