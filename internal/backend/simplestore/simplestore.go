// Package simplestore implements an in-memory knowledge base with an
// inverted term index. It needs no external services and serves as the
// reference backend for harness tests and local runs.
package simplestore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storebench/internal/backend"
)

// Store is an in-memory knowledge base. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	docs     map[string]backend.Document
	postings map[string]map[string]struct{} // term -> doc IDs
	indexed  bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		docs:     make(map[string]backend.Document),
		postings: make(map[string]map[string]struct{}),
	}
}

func (s *Store) Name() string { return "simple-store" }

func (s *Store) Initialize(ctx context.Context) error { return nil }

// Cleanup drops all documents and the index.
func (s *Store) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]backend.Document)
	s.postings = make(map[string]map[string]struct{})
	s.indexed = false
	return nil
}

// UploadDocuments stores the documents. Documents without an ID are
// rejected individually without failing the batch.
func (s *Store) UploadDocuments(ctx context.Context, docs []backend.Document) (backend.UploadResult, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var result backend.UploadResult
	for _, d := range docs {
		if d.ID == "" {
			result.FailedCount++
			result.FailedIDs = append(result.FailedIDs, d.ID)
			continue
		}
		s.docs[d.ID] = d
		result.SuccessCount++
	}
	s.indexed = false
	result.TotalTimeMS = float64(time.Since(start)) / float64(time.Millisecond)
	return result, nil
}

// BuildIndex builds the inverted index over all stored documents.
func (s *Store) BuildIndex(ctx context.Context) (backend.IndexResult, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.postings = make(map[string]map[string]struct{})
	for id, d := range s.docs {
		for _, term := range backend.Tokenize(d.Title + " " + d.Content) {
			ids, ok := s.postings[term]
			if !ok {
				ids = make(map[string]struct{})
				s.postings[term] = ids
			}
			ids[id] = struct{}{}
		}
	}
	s.indexed = true

	return backend.IndexResult{
		Success:     true,
		IndexTimeMS: float64(time.Since(start)) / float64(time.Millisecond),
		DocCount:    len(s.docs),
	}, nil
}

// Query returns the topK documents scored by term overlap with the query.
// Filters match against document metadata exactly.
func (s *Store) Query(ctx context.Context, query string, topK int, filters map[string]string) (backend.QueryResult, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.indexed {
		return backend.QueryResult{}, fmt.Errorf("simplestore: index not built")
	}

	terms := backend.Tokenize(query)

	// The index narrows candidates to documents sharing at least one term.
	candidateIDs := make(map[string]struct{})
	for _, term := range terms {
		for id := range s.postings[term] {
			candidateIDs[id] = struct{}{}
		}
	}

	ranked := make([]backend.Ranked, 0, len(candidateIDs))
	for id := range candidateIDs {
		d := s.docs[id]
		if !matchesFilters(d.Metadata, filters) {
			continue
		}
		score := backend.OverlapScore(terms, d.Title+" "+d.Content)
		if score > 0 {
			ranked = append(ranked, backend.Ranked{ID: id, Score: score})
		}
	}
	backend.SortRanked(ranked)

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	result := backend.QueryResult{
		Query:        query,
		TotalResults: len(ranked),
		Documents:    make([]backend.RetrievedDocument, 0, len(ranked)),
		Scores:       make([]float64, 0, len(ranked)),
	}
	for _, r := range ranked {
		d := s.docs[r.ID]
		result.Documents = append(result.Documents, backend.RetrievedDocument{
			ID:       d.ID,
			Content:  d.Content,
			Metadata: d.Metadata,
		})
		result.Scores = append(result.Scores, r.Score)
	}
	result.LatencyMS = float64(time.Since(start)) / float64(time.Millisecond)
	return result, nil
}

func matchesFilters(metadata, filters map[string]string) bool {
	for k, v := range filters {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
