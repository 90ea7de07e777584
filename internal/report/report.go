// Package report persists finished suite results as JSON artifacts and
// serves them over HTTP for browsing.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"storebench/internal/orchestrator"
)

// Store keeps finished suite results in memory, in completion order.
type Store struct {
	mu     sync.RWMutex
	suites map[string]orchestrator.SuiteResult
	order  []string
}

// NewStore creates an empty result store.
func NewStore() *Store {
	return &Store{suites: make(map[string]orchestrator.SuiteResult)}
}

// Add records a finished suite. A suite with the same name replaces the
// earlier entry but keeps its original position.
func (s *Store) Add(result orchestrator.SuiteResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.suites[result.SuiteName]; !exists {
		s.order = append(s.order, result.SuiteName)
	}
	s.suites[result.SuiteName] = result
}

// List returns all stored suites in completion order.
func (s *Store) List() []orchestrator.SuiteResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]orchestrator.SuiteResult, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.suites[name])
	}
	return out
}

// Get returns one suite by name.
func (s *Store) Get(name string) (orchestrator.SuiteResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.suites[name]
	return result, ok
}

// sanitizeName makes a suite name safe to use as a file name.
func sanitizeName(name string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", " ", "_", "..", "-")
	return replacer.Replace(name)
}

// Write serializes a suite result to <outputDir>/<suite>_<timestamp>.json
// and returns the written path.
func Write(outputDir string, result orchestrator.SuiteResult) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json",
		sanitizeName(result.SuiteName),
		result.StartTime.Format("20060102T150405"))
	path := filepath.Join(outputDir, name)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal suite result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Summary condenses a suite into the headline figures per run.
type Summary struct {
	SuiteName string       `json:"suite_name"`
	StartTime time.Time    `json:"start_time"`
	Runs      []RunSummary `json:"runs"`
}

// RunSummary is one row of a suite summary.
type RunSummary struct {
	TestCaseID  string  `json:"test_case_id"`
	BackendName string  `json:"backend_name"`
	Concurrency int     `json:"concurrency"`
	P95MS       float64 `json:"p95_ms"`
	QPS         float64 `json:"qps"`
	ErrorRate   float64 `json:"error_rate"`
	Failed      bool    `json:"failed"`
}

// Summarize builds the per-run headline view of a suite.
func Summarize(result orchestrator.SuiteResult) Summary {
	summary := Summary{
		SuiteName: result.SuiteName,
		StartTime: result.StartTime,
		Runs:      make([]RunSummary, 0, len(result.Results)),
	}
	for _, r := range result.Results {
		_, failed := r.Details["error"]
		summary.Runs = append(summary.Runs, RunSummary{
			TestCaseID:  r.TestCaseID,
			BackendName: r.BackendName,
			Concurrency: r.Concurrency,
			P95MS:       r.Latency.P95,
			QPS:         r.Throughput.QPS,
			ErrorRate:   r.Throughput.ErrorRate,
			Failed:      failed,
		})
	}
	return summary
}
