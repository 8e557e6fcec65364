package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/listclean/listclean/internal/classify"
	"github.com/listclean/listclean/internal/clean"
	"github.com/listclean/listclean/internal/logging"
)

// handleIndex serves the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// handleStartRun accepts a multipart upload of one or more tabular
// files and starts a cleaning run over them. The run executes in the
// background; the response carries the run ID to poll.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondErrorMessage(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds the %d byte limit", s.cfg.Upload.MaxFileSize))
			return
		}
		respondErrorMessage(w, r, http.StatusBadRequest, "malformed multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		respondErrorMessage(w, r, http.StatusBadRequest, "at least one file is required")
		return
	}
	if len(headers) > s.cfg.Upload.MaxFilesPerRun {
		respondErrorMessage(w, r, http.StatusBadRequest,
			fmt.Sprintf("too many files: limit is %d per run", s.cfg.Upload.MaxFilesPerRun))
		return
	}

	sources := make([]clean.Source, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respondError(w, r, fmt.Errorf("open uploaded file %q: %w", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respondError(w, r, fmt.Errorf("read uploaded file %q: %w", fh.Filename, err))
			return
		}
		sources = append(sources, clean.Source{Name: fh.Filename, Data: data})
	}

	runID, err := s.service.StartRun(r.Context(), sources)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("run started",
		"run_id", runID,
		"files", len(sources),
	)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id":     runID,
		"status_url": "/api/runs/" + runID,
	})
}

// handleRunStatus returns a non-blocking snapshot of one run.
func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleRunResult returns the full run outcome, blocking until the run
// completes (bounded by the request timeout middleware).
func (s *Server) handleRunResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Result(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleRunRecords returns a run's records, optionally filtered by the
// status query parameter: "valid", "rejected", or any single rejection
// status such as "duplicate". Without a filter all records are returned
// in partition order (valid first).
func (s *Server) handleRunRecords(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Result(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	var records []clean.Record
	switch filter := r.URL.Query().Get("status"); filter {
	case "", "all":
		records = append(append(records, result.Valid...), result.Rejected...)
	case "valid":
		records = result.Valid
	case "rejected":
		records = result.Rejected
	default:
		status := classify.Status(filter)
		if !validFilter(status) {
			respondErrorMessage(w, r, http.StatusBadRequest,
				fmt.Sprintf("unknown status filter %q", filter))
			return
		}
		records = make([]clean.Record, 0)
		for _, rec := range result.Rejected {
			if rec.Status == status {
				records = append(records, rec)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

// handleExportClean streams the clean list as a CSV download. The
// default projection is the single Email column; a comma-separated
// fields parameter overrides it.
func (s *Server) handleExportClean(w http.ResponseWriter, r *http.Request) {
	s.exportCSV(w, r, "clean.csv", []string{"email"}, func(res *clean.Result) []clean.Record {
		return res.Valid
	})
}

// handleExportRejected streams the reject list as a CSV download with
// Email and Status columns by default.
func (s *Server) handleExportRejected(w http.ResponseWriter, r *http.Request) {
	s.exportCSV(w, r, "rejected.csv", []string{"email", "status"}, func(res *clean.Result) []clean.Record {
		return res.Rejected
	})
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request, filename string, defaultFields []string, pick func(*clean.Result) []clean.Record) {
	result, err := s.service.Result(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	fields := defaultFields
	if raw := r.URL.Query().Get("fields"); raw != "" {
		if raw == "all" {
			fields = nil // full projection
		} else {
			fields = strings.Split(raw, ",")
		}
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := clean.WriteCSV(w, pick(result), fields); err != nil {
		// Headers are out; log and give up on this response.
		logging.FromContext(r.Context()).Error("csv export failed", "error", err)
	}
}

// handleRules reports the size of each loaded classification table.
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tables.Counts())
}

// handleHealth reports liveness plus run limiter occupancy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"runs":   s.service.LimiterStatus(),
	})
}

// validFilter reports whether status names a real rejection category.
func validFilter(status classify.Status) bool {
	for _, s := range classify.NonValidStatuses {
		if s == status {
			return true
		}
	}
	return false
}
