// Package bench drives sustained concurrent load against a single backend
// operation and records every call into a metrics collector.
package bench

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storebench/internal/logging"
	"storebench/internal/metrics"
)

// ConcurrencyConfig describes one load period.
type ConcurrencyConfig struct {
	Concurrency int           `json:"concurrency"`
	Duration    time.Duration `json:"duration"`
	Warmup      time.Duration `json:"warmup"`
}

// CallFunc issues one call against the system under test. The error result
// decides whether the sample counts as a success.
type CallFunc func(ctx context.Context, query string) error

// StressRunner holds fixed-concurrency load against one operation until a
// wall-clock deadline. Calls in flight when the deadline passes run to
// completion and are still recorded.
type StressRunner struct {
	operation string
	queries   []string
	call      CallFunc
	collector *metrics.Collector
	logger    *logging.Logger
}

// NewStressRunner creates a runner for the named operation. queries is the
// pool the workers rotate through; it must be non-empty.
func NewStressRunner(operation string, queries []string, call CallFunc, collector *metrics.Collector, logger *logging.Logger) (*StressRunner, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("bench: query pool cannot be empty")
	}
	if call == nil {
		return nil, fmt.Errorf("bench: call function cannot be nil")
	}
	if collector == nil {
		return nil, fmt.Errorf("bench: collector cannot be nil")
	}
	return &StressRunner{
		operation: operation,
		queries:   queries,
		call:      call,
		collector: collector,
		logger:    logger,
	}, nil
}

// pickQuery rotates through the pool on wall-clock time so concurrent
// workers spread across different queries without coordination.
func (r *StressRunner) pickQuery() string {
	idx := int(time.Now().UnixNano()/int64(time.Millisecond)) % len(r.queries)
	if idx < 0 {
		idx += len(r.queries)
	}
	return r.queries[idx]
}

// callOnce issues a single call and records its latency sample. A panic in
// the call function is captured as a failed sample rather than tearing down
// the worker.
func (r *StressRunner) callOnce(ctx context.Context, query string) {
	start := time.Now()
	var err error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("call panicked: %v", rec)
			}
		}()
		err = r.call(ctx, query)
	}()
	latencyMS := float64(time.Since(start)) / float64(time.Millisecond)
	r.collector.RecordLatency(r.operation, latencyMS, err == nil)
}

// Run executes one load period: an optional sequential warmup whose samples
// are discarded, then cfg.Concurrency workers looping until the deadline.
// The collector's measurement window brackets the measured portion only,
// excluding warmup.
func (r *StressRunner) Run(ctx context.Context, cfg ConcurrencyConfig) error {
	if cfg.Concurrency <= 0 {
		return fmt.Errorf("bench: concurrency must be positive, got %d", cfg.Concurrency)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("bench: duration must be positive, got %v", cfg.Duration)
	}

	if cfg.Warmup > 0 {
		if err := r.warmup(ctx, cfg.Warmup); err != nil {
			return err
		}
	}

	if r.logger != nil {
		r.logger.WithFields(map[string]interface{}{
			"operation":   r.operation,
			"concurrency": cfg.Concurrency,
			"duration":    cfg.Duration.String(),
		}).Info("Load period started")
	}

	r.collector.Start()
	defer r.collector.Stop()

	deadline := time.Now().Add(cfg.Duration)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				if ctx.Err() != nil {
					return
				}
				r.callOnce(ctx, r.pickQuery())
			}
		}()
	}
	wg.Wait()

	return ctx.Err()
}

// warmup issues sequential calls for the given period without recording
// samples, letting caches and connections settle before measurement.
func (r *StressRunner) warmup(ctx context.Context, period time.Duration) error {
	deadline := time.Now().Add(period)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		func() {
			defer func() { recover() }()
			_ = r.call(ctx, r.pickQuery())
		}()
	}
	return nil
}
