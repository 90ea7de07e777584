package simplestore

import (
	"context"
	"testing"

	"storebench/internal/backend"
)

func testDocs() []backend.Document {
	return []backend.Document{
		{ID: "d1", Title: "replication basics", Content: "replication keeps replicas consistent", Metadata: map[string]string{"topic": "databases"}},
		{ID: "d2", Title: "routing deep dive", Content: "packet routing and congestion control", Metadata: map[string]string{"topic": "networking"}},
		{ID: "d3", Title: "more replication", Content: "replication lag and consistency tradeoffs", Metadata: map[string]string{"topic": "databases"}},
	}
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	ctx := context.Background()

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	upload, err := s.UploadDocuments(ctx, testDocs())
	if err != nil {
		t.Fatalf("UploadDocuments failed: %v", err)
	}
	if upload.SuccessCount != 3 || upload.FailedCount != 0 {
		t.Fatalf("Expected 3 successful uploads, got %+v", upload)
	}
	index, err := s.BuildIndex(ctx)
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	if !index.Success || index.DocCount != 3 {
		t.Fatalf("Expected successful index over 3 docs, got %+v", index)
	}
	return s
}

func TestQueryRanksByOverlap(t *testing.T) {
	s := setupStore(t)

	result, err := s.Query(context.Background(), "replication consistency", 10, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if result.TotalResults == 0 {
		t.Fatal("Expected matching documents")
	}
	if len(result.Documents) != len(result.Scores) {
		t.Fatal("Documents and Scores must stay parallel")
	}
	for i := 1; i < len(result.Scores); i++ {
		if result.Scores[i] > result.Scores[i-1] {
			t.Errorf("Scores not descending at %d: %v", i, result.Scores)
		}
	}
	if result.Documents[0].ID == "d2" {
		t.Error("Networking doc should not rank first for a replication query")
	}
}

func TestQueryTopK(t *testing.T) {
	s := setupStore(t)

	result, err := s.Query(context.Background(), "replication", 1, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(result.Documents) != 1 {
		t.Errorf("Expected topK=1 to return one doc, got %d", len(result.Documents))
	}
}

func TestQueryFilters(t *testing.T) {
	s := setupStore(t)

	result, err := s.Query(context.Background(), "replication routing", 10,
		map[string]string{"topic": "networking"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	for _, d := range result.Documents {
		if d.Metadata["topic"] != "networking" {
			t.Errorf("Filter leaked doc %s with topic %s", d.ID, d.Metadata["topic"])
		}
	}
}

func TestQueryBeforeIndex(t *testing.T) {
	s := New()
	if _, err := s.UploadDocuments(context.Background(), testDocs()); err != nil {
		t.Fatalf("UploadDocuments failed: %v", err)
	}
	if _, err := s.Query(context.Background(), "replication", 10, nil); err == nil {
		t.Error("Expected error querying before BuildIndex")
	}
}

func TestUploadRejectsEmptyID(t *testing.T) {
	s := New()
	result, err := s.UploadDocuments(context.Background(), []backend.Document{
		{ID: "", Content: "orphan"},
		{ID: "ok", Content: "fine"},
	})
	if err != nil {
		t.Fatalf("UploadDocuments failed: %v", err)
	}
	if result.SuccessCount != 1 || result.FailedCount != 1 {
		t.Errorf("Expected 1 success and 1 failure, got %+v", result)
	}
}

func TestCleanup(t *testing.T) {
	s := setupStore(t)
	if err := s.Cleanup(context.Background()); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	index, err := s.BuildIndex(context.Background())
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	if index.DocCount != 0 {
		t.Errorf("Expected empty store after cleanup, got %d docs", index.DocCount)
	}
}
