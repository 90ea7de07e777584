package badgerstore

import (
	"context"
	"testing"

	"storebench/internal/backend"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s := New(Config{InMemory: true})
	ctx := context.Background()

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Cleanup(context.Background())
	})

	docs := []backend.Document{
		{ID: "d1", Title: "compaction", Content: "compaction reduces write amplification", Metadata: map[string]string{"topic": "storage"}},
		{ID: "d2", Title: "snapshots", Content: "snapshot isolation and durability", Metadata: map[string]string{"topic": "storage"}},
		{ID: "d3", Title: "routing", Content: "packet routing under congestion", Metadata: map[string]string{"topic": "networking"}},
	}
	upload, err := s.UploadDocuments(ctx, docs)
	if err != nil {
		t.Fatalf("UploadDocuments failed: %v", err)
	}
	if upload.SuccessCount != 3 {
		t.Fatalf("Expected 3 uploads, got %+v", upload)
	}
	index, err := s.BuildIndex(ctx)
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	if !index.Success || index.DocCount != 3 {
		t.Fatalf("Expected index over 3 docs, got %+v", index)
	}
	return s
}

func TestQueryReturnsPersistedDocuments(t *testing.T) {
	s := setupStore(t)

	result, err := s.Query(context.Background(), "compaction write amplification", 10, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if result.TotalResults == 0 {
		t.Fatal("Expected matches for compaction query")
	}
	if result.Documents[0].ID != "d1" {
		t.Errorf("Expected d1 ranked first, got %s", result.Documents[0].ID)
	}
	if len(result.Documents) != len(result.Scores) {
		t.Error("Documents and Scores must stay parallel")
	}
}

func TestQueryWithFilters(t *testing.T) {
	s := setupStore(t)

	result, err := s.Query(context.Background(), "routing durability", 10,
		map[string]string{"topic": "storage"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	for _, d := range result.Documents {
		if d.Metadata["topic"] != "storage" {
			t.Errorf("Filter leaked doc %s", d.ID)
		}
	}
}

func TestQueryRequiresInitializeAndIndex(t *testing.T) {
	s := New(Config{InMemory: true})
	if _, err := s.Query(context.Background(), "anything", 10, nil); err == nil {
		t.Error("Expected error querying uninitialized store")
	}

	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer s.Cleanup(context.Background())

	if _, err := s.Query(context.Background(), "anything", 10, nil); err == nil {
		t.Error("Expected error querying before BuildIndex")
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	s := New(Config{InMemory: true})
	ctx := context.Background()

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := s.Initialize(ctx); err != nil {
		t.Errorf("Second Initialize should be a no-op, got %v", err)
	}
	if err := s.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	// Cleanup twice is also safe.
	if err := s.Cleanup(ctx); err != nil {
		t.Errorf("Second Cleanup should be a no-op, got %v", err)
	}
}
