package orchestrator

import (
	"context"
	"fmt"
	"time"

	"storebench/internal/backend"
	"storebench/internal/bench"
	"storebench/internal/datagen"
	"storebench/internal/metrics"
)

// StressSpec describes a sustained-load test against one backend.
type StressSpec struct {
	BackendName string
	Domain      Domain
	DataScale   string
	Concurrency int
	Duration    time.Duration
	Warmup      time.Duration
	TopK        int
}

// prepareCall loads the backend with scale-appropriate data and returns the
// call the load engine hammers, plus a cleanup function.
func (o *Orchestrator) prepareCall(ctx context.Context, spec StressSpec) (bench.CallFunc, []string, func(), error) {
	topK := spec.TopK
	if topK <= 0 {
		topK = 10
	}
	scale := spec.DataScale
	if scale == "" {
		scale = "small"
	}
	if _, ok := kbScaleCounts[scale]; !ok {
		return nil, nil, nil, fmt.Errorf("unknown data scale %q", scale)
	}

	gen := datagen.NewGenerator(o.seed)
	cleanup := func() {}

	switch spec.Domain {
	case DomainKnowledgeBase:
		b, ok := o.lookup(spec.BackendName, DomainKnowledgeBase)
		if !ok {
			return nil, nil, nil, fmt.Errorf("backend %q not registered for knowledge base domain", spec.BackendName)
		}
		store := b.(backend.KnowledgeBase)

		docs := gen.Documents(kbScaleCounts[scale], 400)
		queries := gen.Queries(100)

		if err := store.Initialize(ctx); err != nil {
			return nil, nil, nil, fmt.Errorf("initialize failed: %w", err)
		}
		cleanup = func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = store.Cleanup(cleanupCtx)
		}
		if _, err := store.UploadDocuments(ctx, docs); err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("upload failed: %w", err)
		}
		if _, err := store.BuildIndex(ctx); err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("index build failed: %w", err)
		}

		call := func(ctx context.Context, query string) error {
			_, err := store.Query(ctx, query, topK, nil)
			return err
		}
		return call, queries, cleanup, nil

	case DomainMemory:
		b, ok := o.lookup(spec.BackendName, DomainMemory)
		if !ok {
			return nil, nil, nil, fmt.Errorf("backend %q not registered for memory domain", spec.BackendName)
		}
		store := b.(backend.MemoryStore)

		records := gen.MemoryRecords(memoryScaleCounts[scale], o.numUsers)
		queries := gen.Queries(100)

		if err := store.Initialize(ctx); err != nil {
			return nil, nil, nil, fmt.Errorf("initialize failed: %w", err)
		}
		cleanup = func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = store.Cleanup(cleanupCtx)
		}
		if _, err := store.AddMemories(ctx, records); err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("bulk add failed: %w", err)
		}

		numUsers := o.numUsers
		call := func(ctx context.Context, query string) error {
			_, err := store.SearchMemory(ctx, query, pickUser(query, numUsers), topK)
			return err
		}
		return call, queries, cleanup, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown domain %q", spec.Domain)
}

// RunStressTest holds fixed-concurrency load against one backend for the
// given duration. The rate limiter is bypassed: stress tests measure the
// backend's ceiling, not the quota's.
func (o *Orchestrator) RunStressTest(ctx context.Context, spec StressSpec) (TestResult, error) {
	if spec.Concurrency <= 0 {
		return TestResult{}, fmt.Errorf("concurrency must be positive, got %d", spec.Concurrency)
	}

	scale := spec.DataScale
	if scale == "" {
		scale = "small"
	}

	call, queries, cleanup, err := o.prepareCall(ctx, spec)
	if err != nil {
		return TestResult{}, err
	}
	defer cleanup()

	operation := "query"
	if spec.Domain == DomainMemory {
		operation = "search"
	}

	collector := metrics.NewCollector()
	runner, err := bench.NewStressRunner(operation, queries, call, collector, o.logger)
	if err != nil {
		return TestResult{}, err
	}

	cfg := bench.ConcurrencyConfig{
		Concurrency: spec.Concurrency,
		Duration:    spec.Duration,
		Warmup:      spec.Warmup,
	}
	if err := runner.Run(ctx, cfg); err != nil {
		return TestResult{}, err
	}

	return TestResult{
		TestCaseID:  "stress",
		BackendName: spec.BackendName,
		DataScale:   scale,
		Concurrency: spec.Concurrency,
		Latency:     collector.LatencyMetrics(operation),
		Throughput:  collector.ThroughputMetrics(operation),
		Timestamp:   time.Now(),
		Details: map[string]interface{}{
			"duration":  spec.Duration.String(),
			"warmup":    spec.Warmup.String(),
			"operation": operation,
		},
	}, nil
}

// RunSteppedTest measures one backend across increasing concurrency levels,
// warming up only before the first level.
func (o *Orchestrator) RunSteppedTest(ctx context.Context, spec StressSpec, levels []int) ([]bench.LevelResult, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("no concurrency levels given")
	}

	call, queries, cleanup, err := o.prepareCall(ctx, spec)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	operation := "query"
	if spec.Domain == DomainMemory {
		operation = "search"
	}

	driver := bench.NewSteppedDriver(operation, queries, call, o.logger)
	return driver.Run(ctx, levels, spec.Duration, spec.Warmup)
}
