package backend

import (
	"context"
	"time"
)

// Document is a single unit of content stored in a knowledge base.
type Document struct {
	ID       string            `json:"id"`
	Title    string            `json:"title,omitempty"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RetrievedDocument is one entry of a query result.
type RetrievedDocument struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// QueryResult contains the ranked documents returned for one query.
// Scores is parallel to Documents.
type QueryResult struct {
	Documents    []RetrievedDocument `json:"documents"`
	Scores       []float64           `json:"scores"`
	LatencyMS    float64             `json:"latency_ms"`
	TotalResults int                 `json:"total_results"`
	Query        string              `json:"query,omitempty"`
}

// UploadResult summarizes a bulk document upload.
type UploadResult struct {
	SuccessCount int      `json:"success_count"`
	FailedCount  int      `json:"failed_count"`
	FailedIDs    []string `json:"failed_ids,omitempty"`
	TotalTimeMS  float64  `json:"total_time_ms"`
}

// IndexResult summarizes an index build.
type IndexResult struct {
	Success        bool    `json:"success"`
	IndexTimeMS    float64 `json:"index_time_ms"`
	DocCount       int     `json:"doc_count"`
	IndexSizeBytes int64   `json:"index_size_bytes,omitempty"`
}

// MemoryRecord is a single memory entry owned by one synthetic user.
type MemoryRecord struct {
	ID        string            `json:"id,omitempty"`
	UserID    string            `json:"user_id"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Kind      string            `json:"kind"` // general, fact, preference, episode
}

// MemoryAddResult reports the outcome of adding one memory record.
type MemoryAddResult struct {
	MemoryID  string  `json:"memory_id"`
	Success   bool    `json:"success"`
	LatencyMS float64 `json:"latency_ms"`
}

// MemorySearchResult contains the ranked memory records returned for one
// search. Scores is parallel to Records.
type MemorySearchResult struct {
	Records      []MemoryRecord `json:"records"`
	Scores       []float64      `json:"scores"`
	LatencyMS    float64        `json:"latency_ms"`
	TotalResults int            `json:"total_results"`
}

// Backend is the capability surface shared by every benchmarked service.
// Initialize must be idempotent; the harness never inspects backend-specific
// state beyond this contract.
type Backend interface {
	Name() string
	Initialize(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

// KnowledgeBase is the capability interface for vector/search stores.
type KnowledgeBase interface {
	Backend
	UploadDocuments(ctx context.Context, docs []Document) (UploadResult, error)
	BuildIndex(ctx context.Context) (IndexResult, error)
	Query(ctx context.Context, query string, topK int, filters map[string]string) (QueryResult, error)
}

// MemoryStore is the capability interface for memory stores.
type MemoryStore interface {
	Backend
	AddMemory(ctx context.Context, rec MemoryRecord) (MemoryAddResult, error)
	AddMemories(ctx context.Context, recs []MemoryRecord) ([]MemoryAddResult, error)
	SearchMemory(ctx context.Context, query, userID string, topK int) (MemorySearchResult, error)
}
