package bench

import (
	"context"
	"time"

	"storebench/internal/logging"
	"storebench/internal/metrics"
)

// LevelResult holds the statistics measured at one concurrency level.
type LevelResult struct {
	Concurrency int                     `json:"concurrency"`
	Latency     metrics.LatencyStats    `json:"latency"`
	Throughput  metrics.ThroughputStats `json:"throughput"`
}

// SteppedConcurrencyDriver runs the same operation at increasing concurrency
// levels and reports per-level statistics in input order. Warmup runs only
// before the first level; later levels inherit the warmed state. A cool-down
// pause between levels lets the backend drain before the next step.
type SteppedConcurrencyDriver struct {
	operation string
	queries   []string
	call      CallFunc
	logger    *logging.Logger

	// CoolDown is the pause between levels. Zero means the default 2s;
	// tests set it negative to skip the pause entirely.
	CoolDown time.Duration
}

const defaultCoolDown = 2 * time.Second

// NewSteppedDriver creates a driver for the named operation.
func NewSteppedDriver(operation string, queries []string, call CallFunc, logger *logging.Logger) *SteppedConcurrencyDriver {
	return &SteppedConcurrencyDriver{
		operation: operation,
		queries:   queries,
		call:      call,
		logger:    logger,
	}
}

// Run measures every concurrency level for duration each, with warmup before
// the first. Each level gets a fresh collector so levels do not contaminate
// each other. Results are returned in the order the levels were given.
func (d *SteppedConcurrencyDriver) Run(ctx context.Context, levels []int, duration, warmup time.Duration) ([]LevelResult, error) {
	coolDown := d.CoolDown
	if coolDown == 0 {
		coolDown = defaultCoolDown
	}

	results := make([]LevelResult, 0, len(levels))
	for i, level := range levels {
		collector := metrics.NewCollector()
		runner, err := NewStressRunner(d.operation, d.queries, d.call, collector, d.logger)
		if err != nil {
			return results, err
		}

		cfg := ConcurrencyConfig{
			Concurrency: level,
			Duration:    duration,
		}
		if i == 0 {
			cfg.Warmup = warmup
		}

		if err := runner.Run(ctx, cfg); err != nil {
			return results, err
		}

		results = append(results, LevelResult{
			Concurrency: level,
			Latency:     collector.LatencyMetrics(d.operation),
			Throughput:  collector.ThroughputMetrics(d.operation),
		})

		if i < len(levels)-1 && coolDown > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(coolDown):
			}
		}
	}
	return results, nil
}
