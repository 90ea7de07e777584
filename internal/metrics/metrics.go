// Package metrics collects per-call measurements during a benchmark run and
// derives latency, throughput, retrieval-quality, and cost statistics from
// them.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Kind classifies a metric series.
type Kind string

// KindLatency is the only recorded kind today; throughput is derived from
// latency series over the collection window.
const KindLatency Kind = "latency"

// Key identifies one metric series: what is measured and for which
// operation.
type Key struct {
	Kind      Kind
	Operation string
}

// Point is a single recorded measurement.
type Point struct {
	Value     float64           `json:"value"`
	Timestamp time.Time         `json:"timestamp"`
	Success   bool              `json:"success"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// LatencyStats summarizes a latency series in milliseconds.
type LatencyStats struct {
	P50    float64 `json:"p50_ms"`
	P75    float64 `json:"p75_ms"`
	P90    float64 `json:"p90_ms"`
	P95    float64 `json:"p95_ms"`
	P99    float64 `json:"p99_ms"`
	Mean   float64 `json:"mean_ms"`
	Min    float64 `json:"min_ms"`
	Max    float64 `json:"max_ms"`
	StdDev float64 `json:"std_dev_ms"`
	Count  int     `json:"count"`
}

// ThroughputStats summarizes request volume over the collection window.
type ThroughputStats struct {
	QPS                float64 `json:"qps"`
	TotalRequests      int     `json:"total_requests"`
	SuccessfulRequests int     `json:"successful_requests"`
	FailedRequests     int     `json:"failed_requests"`
	ErrorRate          float64 `json:"error_rate"`
	DurationSeconds    float64 `json:"duration_seconds"`
}

// Collector accumulates measurement points for one benchmark run. It is safe
// for concurrent use; stat readers see a snapshot of whatever has been
// recorded so far.
type Collector struct {
	mu        sync.Mutex
	points    map[Key][]Point
	startTime time.Time
	endTime   time.Time
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{points: make(map[Key][]Point)}
}

// Start marks the beginning of the collection window.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
	c.endTime = time.Time{}
}

// Stop marks the end of the collection window.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endTime = time.Now()
}

// Clear drops all recorded points and the collection window.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = make(map[Key][]Point)
	c.startTime = time.Time{}
	c.endTime = time.Time{}
}

// Record appends a point to the series identified by key.
func (c *Collector) Record(key Key, value float64, success bool, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points[key] = append(c.points[key], Point{
		Value:     value,
		Timestamp: time.Now(),
		Success:   success,
		Labels:    labels,
	})
}

// RecordLatency appends a latency sample in milliseconds for an operation.
func (c *Collector) RecordLatency(operation string, latencyMS float64, success bool) {
	c.Record(Key{Kind: KindLatency, Operation: operation}, latencyMS, success, nil)
}

// RawData returns a copy of every recorded series.
func (c *Collector) RawData() map[Key][]Point {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[Key][]Point, len(c.points))
	for k, pts := range c.points {
		cp := make([]Point, len(pts))
		copy(cp, pts)
		out[k] = cp
	}
	return out
}

// latencySeries collects the points feeding a latency computation. An empty
// operation selects every latency series. Caller must hold c.mu.
func (c *Collector) latencySeries(operation string) []Point {
	var pts []Point
	for k, series := range c.points {
		if k.Kind != KindLatency {
			continue
		}
		if operation != "" && k.Operation != operation {
			continue
		}
		pts = append(pts, series...)
	}
	return pts
}

// LatencyMetrics computes latency statistics over successful samples for one
// operation, or over all latency series when operation is empty. An empty
// selection yields zero-valued stats.
func (c *Collector) LatencyMetrics(operation string) LatencyStats {
	c.mu.Lock()
	pts := c.latencySeries(operation)
	c.mu.Unlock()

	values := make([]float64, 0, len(pts))
	for _, p := range pts {
		if p.Success {
			values = append(values, p.Value)
		}
	}
	return latencyStats(values)
}

// latencyStats derives percentile and moment statistics from raw samples.
// Percentiles use nearest-rank floor indexing over the sorted samples.
func latencyStats(values []float64) LatencyStats {
	if len(values) == 0 {
		return LatencyStats{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	pct := func(p float64) float64 {
		idx := int(float64(n) * p)
		if idx >= n {
			idx = n - 1
		}
		return sorted[idx]
	}

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var variance float64
	for _, v := range sorted {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)

	return LatencyStats{
		P50:    pct(0.50),
		P75:    pct(0.75),
		P90:    pct(0.90),
		P95:    pct(0.95),
		P99:    pct(0.99),
		Mean:   mean,
		Min:    sorted[0],
		Max:    sorted[n-1],
		StdDev: math.Sqrt(variance),
		Count:  n,
	}
}

// ThroughputMetrics computes request-volume statistics for one operation, or
// across all latency series when operation is empty. Failed samples count
// toward volume and the error rate. The window is the explicit Start/Stop
// span when both were called, otherwise the span of the recorded timestamps
// floored at one second.
func (c *Collector) ThroughputMetrics(operation string) ThroughputStats {
	c.mu.Lock()
	pts := c.latencySeries(operation)
	start, end := c.startTime, c.endTime
	c.mu.Unlock()

	if len(pts) == 0 {
		return ThroughputStats{}
	}

	total := len(pts)
	successful := 0
	for _, p := range pts {
		if p.Success {
			successful++
		}
	}
	failed := total - successful

	var duration float64
	if !start.IsZero() && !end.IsZero() {
		duration = end.Sub(start).Seconds()
	} else {
		first, last := pts[0].Timestamp, pts[0].Timestamp
		for _, p := range pts[1:] {
			if p.Timestamp.Before(first) {
				first = p.Timestamp
			}
			if p.Timestamp.After(last) {
				last = p.Timestamp
			}
		}
		duration = last.Sub(first).Seconds()
		if duration < 1 {
			duration = 1
		}
	}
	if duration <= 0 {
		duration = 1
	}

	return ThroughputStats{
		QPS:                float64(total) / duration,
		TotalRequests:      total,
		SuccessfulRequests: successful,
		FailedRequests:     failed,
		ErrorRate:          float64(failed) / float64(total),
		DurationSeconds:    duration,
	}
}
