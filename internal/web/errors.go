package web

// errors.go provides unified error response handling for the web layer.
//
// All errors are logged with full detail server-side (correlated by
// request ID) and returned to clients as a small JSON envelope with a
// stable machine-readable code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/listclean/listclean/internal/clean"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError maps err to an HTTP status and JSON envelope. Known
// service errors get their own status; anything else is a 500 with a
// generic message so internals never leak to clients.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classifyError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondErrorMessage writes an error envelope for a condition detected
// directly by the HTTP layer (bad input, rate limiting), where there is
// no underlying error value worth logging at error level.
func respondErrorMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	slog.Warn("request rejected",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"reason", message,
		"request_id", middleware.GetReqID(r.Context()),
	)

	writeJSON(w, status, ErrorResponse{Error: message, Code: codeForStatus(status)})
}

func classifyError(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, clean.ErrRunNotFound):
		return http.StatusNotFound, "run_not_found", "run not found or expired"
	case errors.Is(err, clean.ErrNoFiles):
		return http.StatusBadRequest, "no_files", "at least one file is required"
	case errors.Is(err, clean.ErrTooManyRuns):
		return http.StatusServiceUnavailable, "too_many_runs", "too many concurrent runs, try again shortly"
	default:
		return http.StatusInternalServerError, "internal", "internal server error"
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "error"
	}
}

// writeJSON encodes v as JSON with the given status code.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}
