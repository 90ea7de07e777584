// Package datagen produces deterministic synthetic corpora for benchmark
// runs: topic-tagged documents, queries with ground-truth relevance, and
// per-user memory records. The same seed always yields the same data so runs
// are comparable across backends.
package datagen

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"storebench/internal/backend"
)

// topics are the subject areas documents and queries are drawn from. Ground
// truth treats every document sharing the query's topic as relevant.
var topics = []struct {
	Name  string
	Terms []string
}{
	{"databases", []string{"index", "transaction", "replication", "query planner", "sharding", "consistency"}},
	{"networking", []string{"latency", "packet", "routing", "congestion", "bandwidth", "protocol"}},
	{"machine learning", []string{"training", "embedding", "gradient", "inference", "overfitting", "dataset"}},
	{"security", []string{"encryption", "authentication", "certificate", "vulnerability", "audit", "firewall"}},
	{"storage", []string{"compaction", "write amplification", "durability", "snapshot", "cache", "throughput"}},
	{"distributed systems", []string{"consensus", "quorum", "partition", "leader election", "gossip", "clock skew"}},
	{"observability", []string{"tracing", "metrics", "sampling", "dashboard", "alerting", "cardinality"}},
	{"search", []string{"relevance", "tokenizer", "ranking", "inverted index", "recall", "stemming"}},
	{"cloud", []string{"autoscaling", "region", "quota", "billing", "serverless", "provisioning"}},
	{"compilers", []string{"parser", "optimization", "register allocation", "linker", "inlining", "codegen"}},
}

var queryTemplates = []string{
	"how does %s affect %s",
	"best practices for %s in %s",
	"troubleshooting %s issues",
	"comparing approaches to %s",
	"when to use %s for %s",
}

var memoryTemplates = []string{
	"prefers %s when working on %s",
	"asked about %s last session",
	"is currently debugging a %s problem",
	"mentioned experience with %s and %s",
	"wants weekly summaries about %s",
}

// Generator produces deterministic synthetic data from a fixed seed.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded for reproducible output.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Documents generates count documents of roughly contentLength characters,
// cycling through the topic list. Document IDs encode their position.
func (g *Generator) Documents(count, contentLength int) []backend.Document {
	docs := make([]backend.Document, count)
	for i := 0; i < count; i++ {
		topic := topics[i%len(topics)]
		var b strings.Builder
		for b.Len() < contentLength {
			term := topic.Terms[g.rng.Intn(len(topic.Terms))]
			fmt.Fprintf(&b, "Notes on %s in %s systems. ", term, topic.Name)
		}
		docs[i] = backend.Document{
			ID:      fmt.Sprintf("doc-%04d", i),
			Title:   fmt.Sprintf("%s overview %d", topic.Name, i/len(topics)),
			Content: b.String(),
			Metadata: map[string]string{
				"topic": topic.Name,
			},
		}
	}
	return docs
}

// QueriesWithGroundTruth generates count queries and, for each, the IDs of
// the documents relevant to it. Relevance is topical: a query about topic T
// is satisfied by every provided document tagged with T.
func (g *Generator) QueriesWithGroundTruth(count int, docs []backend.Document) ([]string, [][]string) {
	byTopic := make(map[string][]string)
	for _, d := range docs {
		t := d.Metadata["topic"]
		byTopic[t] = append(byTopic[t], d.ID)
	}

	queries := make([]string, count)
	truth := make([][]string, count)
	for i := 0; i < count; i++ {
		topic := topics[i%len(topics)]
		tmpl := queryTemplates[g.rng.Intn(len(queryTemplates))]
		term := topic.Terms[g.rng.Intn(len(topic.Terms))]
		if strings.Count(tmpl, "%s") == 2 {
			queries[i] = fmt.Sprintf(tmpl, term, topic.Name)
		} else {
			queries[i] = fmt.Sprintf(tmpl, term)
		}
		truth[i] = append([]string(nil), byTopic[topic.Name]...)
	}
	return queries, truth
}

// Queries generates count queries without ground truth, for load phases
// where quality is not scored.
func (g *Generator) Queries(count int) []string {
	qs, _ := g.QueriesWithGroundTruth(count, nil)
	return qs
}

// MemoryRecords generates count memory records spread across numUsers
// synthetic users.
func (g *Generator) MemoryRecords(count, numUsers int) []backend.MemoryRecord {
	if numUsers < 1 {
		numUsers = 1
	}
	kinds := []string{"general", "fact", "preference", "episode"}
	now := time.Now()

	recs := make([]backend.MemoryRecord, count)
	for i := 0; i < count; i++ {
		topic := topics[g.rng.Intn(len(topics))]
		tmpl := memoryTemplates[g.rng.Intn(len(memoryTemplates))]
		term := topic.Terms[g.rng.Intn(len(topic.Terms))]
		var content string
		if strings.Count(tmpl, "%s") == 2 {
			content = fmt.Sprintf(tmpl, term, topic.Name)
		} else {
			content = fmt.Sprintf(tmpl, term)
		}
		recs[i] = backend.MemoryRecord{
			ID:        fmt.Sprintf("mem-%05d", i),
			UserID:    fmt.Sprintf("user-%02d", i%numUsers),
			Content:   content,
			SessionID: fmt.Sprintf("session-%03d", i/numUsers),
			Timestamp: now.Add(-time.Duration(count-i) * time.Minute),
			Kind:      kinds[i%len(kinds)],
			Metadata: map[string]string{
				"topic": topic.Name,
			},
		}
	}
	return recs
}

// UserIDs returns the synthetic user pool covering records produced by
// MemoryRecords with the same numUsers.
func UserIDs(numUsers int) []string {
	ids := make([]string, numUsers)
	for i := range ids {
		ids[i] = fmt.Sprintf("user-%02d", i)
	}
	return ids
}
