package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storebench/internal/config"
	"storebench/internal/metrics"
	"storebench/internal/orchestrator"
)

func sampleSuite(name string) orchestrator.SuiteResult {
	return orchestrator.SuiteResult{
		SuiteName: name,
		StartTime: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 8, 20, 12, 5, 0, 0, time.UTC),
		Results: []orchestrator.TestResult{
			{
				TestCaseID:  "kb-latency",
				BackendName: "simple-store",
				DataScale:   "small",
				Concurrency: 5,
				Latency:     metrics.LatencyStats{P95: 12.5, Count: 100},
				Throughput:  metrics.ThroughputStats{QPS: 80, TotalRequests: 100},
			},
			{
				TestCaseID:  "kb-latency",
				BackendName: "badger-store",
				Concurrency: 5,
				Details:     map[string]interface{}{"error": "initialize failed"},
			},
		},
	}
}

func TestStoreAddListGet(t *testing.T) {
	store := NewStore()
	store.Add(sampleSuite("alpha"))
	store.Add(sampleSuite("beta"))
	store.Add(sampleSuite("alpha")) // replace keeps position

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("Expected 2 suites, got %d", len(list))
	}
	if list[0].SuiteName != "alpha" || list[1].SuiteName != "beta" {
		t.Errorf("Suites out of order: %s, %s", list[0].SuiteName, list[1].SuiteName)
	}

	if _, ok := store.Get("alpha"); !ok {
		t.Error("Expected to find suite alpha")
	}
	if _, ok := store.Get("missing"); ok {
		t.Error("Unexpected suite found")
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, sampleSuite("nightly"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	var decoded orchestrator.SuiteResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}
	if decoded.SuiteName != "nightly" || len(decoded.Results) != 2 {
		t.Errorf("Report lost data: %+v", decoded)
	}
}

func TestWriteSanitizesSuiteName(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, sampleSuite("../sneaky suite"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("Report escaped output dir: %s", path)
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(sampleSuite("nightly"))
	if len(summary.Runs) != 2 {
		t.Fatalf("Expected 2 run summaries, got %d", len(summary.Runs))
	}
	if summary.Runs[0].Failed {
		t.Error("Healthy run marked failed")
	}
	if !summary.Runs[1].Failed {
		t.Error("Failed run not flagged")
	}
	if summary.Runs[0].P95MS != 12.5 || summary.Runs[0].QPS != 80 {
		t.Errorf("Summary dropped stats: %+v", summary.Runs[0])
	}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	store := NewStore()
	store.Add(sampleSuite("nightly"))
	cfg := config.DefaultConfig().Report
	return NewServer(&cfg, store, nil)
}

func TestListSuitesEndpoint(t *testing.T) {
	srv := testServer(t)
	router := srv.SetupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/suites", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body struct {
		Count  int       `json:"count"`
		Suites []Summary `json:"suites"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body.Count != 1 || body.Suites[0].SuiteName != "nightly" {
		t.Errorf("Unexpected listing: %+v", body)
	}
}

func TestGetSuiteEndpoint(t *testing.T) {
	srv := testServer(t)
	router := srv.SetupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/suites/nightly", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var suite orchestrator.SuiteResult
	if err := json.Unmarshal(rec.Body.Bytes(), &suite); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if len(suite.Results) != 2 {
		t.Errorf("Expected full suite payload, got %+v", suite)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/suites/missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown suite, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)
	router := srv.SetupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from healthz, got %d", rec.Code)
	}
}
