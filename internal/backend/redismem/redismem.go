// Package redismem implements a memory store backed by Redis. Each user's
// records live in one hash keyed by record ID; search loads the user's hash
// and ranks records by term overlap.
package redismem

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"storebench/internal/backend"
)

const keyPrefix = "storebench:mem:"

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Store is a Redis-backed memory store.
type Store struct {
	cfg    Config
	client *redis.Client

	mu      sync.Mutex
	users   map[string]struct{} // users written to, for cleanup
	counter int
}

// New creates a store; the connection is established on Initialize.
func New(cfg Config) *Store {
	return &Store{
		cfg:   cfg,
		users: make(map[string]struct{}),
	}
}

func (s *Store) Name() string { return "redis-memory" }

// Initialize connects to Redis and verifies the server responds.
func (s *Store) Initialize(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     s.cfg.Addr,
		Password: s.cfg.Password,
		DB:       s.cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis at %s: %w", s.cfg.Addr, err)
	}
	s.client = client
	return nil
}

// Cleanup deletes every key this store wrote and closes the connection.
func (s *Store) Cleanup(ctx context.Context) error {
	if s.client == nil {
		return nil
	}

	s.mu.Lock()
	keys := make([]string, 0, len(s.users))
	for user := range s.users {
		keys = append(keys, userKey(user))
	}
	s.users = make(map[string]struct{})
	s.mu.Unlock()

	if len(keys) > 0 {
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete redis keys: %w", err)
		}
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	s.client = nil
	return nil
}

func userKey(userID string) string {
	return keyPrefix + userID
}

// AddMemory stores one record in the user's hash.
func (s *Store) AddMemory(ctx context.Context, rec backend.MemoryRecord) (backend.MemoryAddResult, error) {
	start := time.Now()
	if s.client == nil {
		return backend.MemoryAddResult{}, fmt.Errorf("redismem: not initialized")
	}
	if rec.UserID == "" {
		return backend.MemoryAddResult{}, fmt.Errorf("redismem: record has no user ID")
	}

	s.mu.Lock()
	if rec.ID == "" {
		s.counter++
		rec.ID = fmt.Sprintf("redis-%06d", s.counter)
	}
	s.users[rec.UserID] = struct{}{}
	s.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return backend.MemoryAddResult{}, fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := s.client.HSet(ctx, userKey(rec.UserID), rec.ID, value).Err(); err != nil {
		return backend.MemoryAddResult{}, fmt.Errorf("failed to store record: %w", err)
	}

	return backend.MemoryAddResult{
		MemoryID:  rec.ID,
		Success:   true,
		LatencyMS: float64(time.Since(start)) / float64(time.Millisecond),
	}, nil
}

// AddMemories stores a batch, reporting per-record outcomes.
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

// SearchMemory loads the user's records and returns the topK ranked by term
// overlap with the query.
func (s *Store) SearchMemory(ctx context.Context, query, userID string, topK int) (backend.MemorySearchResult, error) {
	start := time.Now()
	if s.client == nil {
		return backend.MemorySearchResult{}, fmt.Errorf("redismem: not initialized")
	}

	entries, err := s.client.HGetAll(ctx, userKey(userID)).Result()
	if err != nil {
		return backend.MemorySearchResult{}, fmt.Errorf("failed to load records: %w", err)
	}

	terms := backend.Tokenize(query)
	ranked := make([]backend.Ranked, 0, len(entries))
	byID := make(map[string]backend.MemoryRecord, len(entries))
	for id, raw := range entries {
		var rec backend.MemoryRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		score := backend.OverlapScore(terms, rec.Content)
		if score > 0 {
			ranked = append(ranked, backend.Ranked{ID: id, Score: score})
			byID[id] = rec
		}
	}

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
