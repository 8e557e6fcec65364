package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/listclean/listclean/internal/classify"
	"github.com/listclean/listclean/internal/clean"
	"github.com/listclean/listclean/internal/config"
	"github.com/listclean/listclean/internal/rules"
)

func newTestServer() *Server {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           8080,
			RequestTimeout: 30 * time.Second,
		},
		Upload: config.UploadConfig{
			MaxFileSize:    1 << 20,
			MaxFilesPerRun: 3,
			MaxConcurrent:  2,
			MaxWaitTime:    time.Second,
			Timeout:        time.Minute,
			RunRetention:   time.Minute,
		},
		Rate: config.RateLimitConfig{Enabled: false},
	}

	tables := rules.Default()
	pipeline := clean.NewPipeline(classify.New(tables), nil)
	service := clean.NewService(pipeline, clean.ServiceConfig{
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		Timeout:       cfg.Upload.Timeout,
		Retention:     cfg.Upload.RunRetention,
	})

	return NewServer(cfg, service, tables)
}

func multipartUpload(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func startRun(t *testing.T, srv *Server, files map[string]string) string {
	t.Helper()
	body, contentType := multipartUpload(t, files)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /api/runs status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["run_id"] == "" {
		t.Fatal("response missing run_id")
	}
	return resp["run_id"]
}

func TestUploadAndResultRoundTrip(t *testing.T) {
	srv := newTestServer()
	runID := startRun(t, srv, map[string]string{
		"list.csv": "Email\ngood@corp.io\ngood@corp.io\nadmin@corp.io\n",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+runID+"/result", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result clean.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Stats.TotalProcessed != 3 || result.Stats.TotalValid != 1 {
		t.Errorf("stats = %+v, want 3 processed / 1 valid", result.Stats)
	}
	if result.Stats.TotalDuplicates != 1 {
		t.Errorf("TotalDuplicates = %d, want 1", result.Stats.TotalDuplicates)
	}
}

func TestExportCleanCSV(t *testing.T) {
	srv := newTestServer()
	runID := startRun(t, srv, map[string]string{
		"list.csv": "Email\nb@x.com\na@mailinator.com\n",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+runID+"/export/clean", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "clean.csv") {
		t.Errorf("Content-Disposition = %q, want attachment clean.csv", cd)
	}

	got := strings.TrimSpace(rec.Body.String())
	if got != "Email\nb@x.com" {
		t.Errorf("export body = %q, want header plus single clean address", got)
	}
}

func TestExportRejectedCSV(t *testing.T) {
	srv := newTestServer()
	runID := startRun(t, srv, map[string]string{
		"list.csv": "Email\nok@x.com\nsupport@x.com\n",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+runID+"/export/rejected", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	got := strings.TrimSpace(rec.Body.String())
	want := "Email,Status\nsupport@x.com,role_based"
	if got != want {
		t.Errorf("export body = %q, want %q", got, want)
	}
}

func TestRecordsStatusFilter(t *testing.T) {
	srv := newTestServer()
	runID := startRun(t, srv, map[string]string{
		"list.csv": "Email\na@x.com\na@x.com\nbad-address\n",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+runID+"/records?status=duplicate", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var resp struct {
		Count   int            `json:"count"`
		Records []clean.Record `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 || resp.Records[0].Status != classify.StatusDuplicate {
		t.Errorf("filtered records = %+v, want one duplicate", resp)
	}
}

func TestRecordsRejectsUnknownFilter(t *testing.T) {
	srv := newTestServer()
	runID := startRun(t, srv, map[string]string{"list.csv": "Email\na@x.com\n"})

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+runID+"/records?status=bogus", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown filter", rec.Code)
	}
}

func TestUnknownRunIs404(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/runs/no-such-run", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "run_not_found" {
		t.Errorf("error code = %q, want run_not_found", resp.Code)
	}
}

func TestUploadWithoutFilesIs400(t *testing.T) {
	srv := newTestServer()
	body, contentType := multipartUpload(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUploadTooManyFilesIs400(t *testing.T) {
	srv := newTestServer() // MaxFilesPerRun: 3
	files := map[string]string{
		"a.csv": "Email\na@x.com\n",
		"b.csv": "Email\nb@x.com\n",
		"c.csv": "Email\nc@x.com\n",
		"d.csv": "Email\nd@x.com\n",
	}
	body, contentType := multipartUpload(t, files)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRulesEndpoint(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/rules", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var counts rules.Counts
	if err := json.Unmarshal(rec.Body.Bytes(), &counts); err != nil {
		t.Fatal(err)
	}
	if counts.TypoDomains == 0 || counts.DisposableDomains == 0 || counts.RolePrefixes == 0 {
		t.Errorf("Counts = %+v, want non-empty built-in tables", counts)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s, want status ok", rec.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}
