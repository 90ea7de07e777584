// Package localmem implements an in-memory memory store. It is the
// credential-free default for memory-domain benchmarks.
package localmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storebench/internal/backend"
)

// Store keeps memory records per user in process memory. Safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	byUser  map[string][]backend.MemoryRecord
	counter int
}

// New creates an empty store.
func New() *Store {
	return &Store{byUser: make(map[string][]backend.MemoryRecord)}
}

func (s *Store) Name() string { return "local-memory" }

func (s *Store) Initialize(ctx context.Context) error { return nil }

// Cleanup drops every user's records.
func (s *Store) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser = make(map[string][]backend.MemoryRecord)
	return nil
}

// AddMemory stores one record, assigning an ID when none is set.
func (s *Store) AddMemory(ctx context.Context, rec backend.MemoryRecord) (backend.MemoryAddResult, error) {
	start := time.Now()
	if rec.UserID == "" {
		return backend.MemoryAddResult{}, fmt.Errorf("localmem: record has no user ID")
	}

	s.mu.Lock()
	if rec.ID == "" {
		s.counter++
		rec.ID = fmt.Sprintf("local-%06d", s.counter)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	s.byUser[rec.UserID] = append(s.byUser[rec.UserID], rec)
	s.mu.Unlock()

	return backend.MemoryAddResult{
		MemoryID:  rec.ID,
		Success:   true,
		LatencyMS: float64(time.Since(start)) / float64(time.Millisecond),
	}, nil
}

// AddMemories stores a batch of records. Individual failures are reported
// per record without aborting the batch.
func (s *Store) AddMemories(ctx context.Context, recs []backend.MemoryRecord) ([]backend.MemoryAddResult, error) {
	results := make([]backend.MemoryAddResult, 0, len(recs))
	for _, rec := range recs {
		r, err := s.AddMemory(ctx, rec)
		if err != nil {
			results = append(results, backend.MemoryAddResult{Success: false})
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

// SearchMemory returns the user's topK records ranked by term overlap with
// the query.
func (s *Store) SearchMemory(ctx context.Context, query, userID string, topK int) (backend.MemorySearchResult, error) {
	start := time.Now()
	terms := backend.Tokenize(query)

	s.mu.RLock()
	records := s.byUser[userID]
	ranked := make([]backend.Ranked, 0, len(records))
	byID := make(map[string]backend.MemoryRecord, len(records))
	for _, rec := range records {
		score := backend.OverlapScore(terms, rec.Content)
		if score > 0 {
			ranked = append(ranked, backend.Ranked{ID: rec.ID, Score: score})
			byID[rec.ID] = rec
		}
	}
	s.mu.RUnlock()

	backend.SortRanked(ranked)
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	result := backend.MemorySearchResult{
		TotalResults: len(ranked),
		Records:      make([]backend.MemoryRecord, 0, len(ranked)),
		Scores:       make([]float64, 0, len(ranked)),
	}
	for _, r := range ranked {
		result.Records = append(result.Records, byID[r.ID])
		result.Scores = append(result.Scores, r.Score)
	}
	result.LatencyMS = float64(time.Since(start)) / float64(time.Millisecond)
	return result, nil
}
