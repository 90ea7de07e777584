// Package badgerstore implements a knowledge base persisted in BadgerDB.
// Documents live as key/value entries; the term index is rebuilt in memory
// by BuildIndex so queries avoid scanning the value log.
package badgerstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"storebench/internal/backend"
)

const docPrefix = "doc:"

// Config controls where and how the Badger instance runs.
type Config struct {
	DataPath   string
	InMemory   bool
	SyncWrites bool
}

// Store is a Badger-backed knowledge base.
type Store struct {
	cfg Config

	mu       sync.RWMutex
	db       *badger.DB
	postings map[string]map[string]struct{}
	indexed  bool
}

// New creates a store; the database opens on Initialize.
func New(cfg Config) *Store {
	return &Store{cfg: cfg}
}

func (s *Store) Name() string { return "badger-store" }

// Initialize opens the Badger database. Calling it on an open store is a
// no-op.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	// In-memory mode rejects a data directory.
	var opts badger.Options
	if s.cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(s.cfg.DataPath)
	}
	opts = opts.WithSyncWrites(s.cfg.SyncWrites)
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open badger database: %w", err)
	}
	s.db = db
	s.postings = make(map[string]map[string]struct{})
	return nil
}

// Cleanup drops all stored documents and closes the database.
func (s *Store) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("failed to drop badger data: %w", err)
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}
	s.db = nil
	s.postings = nil
	s.indexed = false
	return nil
}

// UploadDocuments persists the documents as JSON values. Failures are
// reported per document.
func (s *Store) UploadDocuments(ctx context.Context, docs []backend.Document) (backend.UploadResult, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return backend.UploadResult{}, fmt.Errorf("badgerstore: not initialized")
	}

	var result backend.UploadResult
	for _, d := range docs {
		if d.ID == "" {
			result.FailedCount++
			result.FailedIDs = append(result.FailedIDs, d.ID)
			continue
		}
		value, err := json.Marshal(d)
		if err != nil {
			result.FailedCount++
			result.FailedIDs = append(result.FailedIDs, d.ID)
			continue
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(docPrefix+d.ID), value)
		})
		if err != nil {
			result.FailedCount++
			result.FailedIDs = append(result.FailedIDs, d.ID)
			continue
		}
		result.SuccessCount++
	}
	s.indexed = false
	result.TotalTimeMS = float64(time.Since(start)) / float64(time.Millisecond)
	return result, nil
}

// BuildIndex scans every stored document and rebuilds the in-memory term
// index.
func (s *Store) BuildIndex(ctx context.Context) (backend.IndexResult, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return backend.IndexResult{}, fmt.Errorf("badgerstore: not initialized")
	}

	postings := make(map[string]map[string]struct{})
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(value []byte) error {
				var d backend.Document
				if err := json.Unmarshal(value, &d); err != nil {
					return err
				}
				for _, term := range backend.Tokenize(d.Title + " " + d.Content) {
					ids, ok := postings[term]
					if !ok {
						ids = make(map[string]struct{})
						postings[term] = ids
					}
					ids[d.ID] = struct{}{}
				}
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return backend.IndexResult{}, fmt.Errorf("failed to build index: %w", err)
	}

	s.postings = postings
	s.indexed = true

	lsm, vlog := s.db.Size()
	return backend.IndexResult{
		Success:        true,
		IndexTimeMS:    float64(time.Since(start)) / float64(time.Millisecond),
		DocCount:       count,
		IndexSizeBytes: lsm + vlog,
	}, nil
}

// Query ranks candidate documents from the term index by overlap with the
// query, fetching document bodies from Badger.
func (s *Store) Query(ctx context.Context, query string, topK int, filters map[string]string) (backend.QueryResult, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return backend.QueryResult{}, fmt.Errorf("badgerstore: not initialized")
	}
	if !s.indexed {
		return backend.QueryResult{}, fmt.Errorf("badgerstore: index not built")
	}

	terms := backend.Tokenize(query)
	candidateIDs := make(map[string]struct{})
	for _, term := range terms {
		for id := range s.postings[term] {
			candidateIDs[id] = struct{}{}
		}
	}

	ranked := make([]backend.Ranked, 0, len(candidateIDs))
	docs := make(map[string]backend.Document, len(candidateIDs))
	err := s.db.View(func(txn *badger.Txn) error {
		for id := range candidateIDs {
			item, err := txn.Get([]byte(docPrefix + id))
			if err != nil {
				return err
			}
			var d backend.Document
			err = item.Value(func(value []byte) error {
				return json.Unmarshal(value, &d)
			})
			if err != nil {
				return err
			}
			if !matchesFilters(d.Metadata, filters) {
				continue
			}
			score := backend.OverlapScore(terms, d.Title+" "+d.Content)
			if score > 0 {
				ranked = append(ranked, backend.Ranked{ID: id, Score: score})
				docs[id] = d
			}
		}
		return nil
	})
	if err != nil {
		return backend.QueryResult{}, fmt.Errorf("query failed: %w", err)
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
		d := docs[r.ID]
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
