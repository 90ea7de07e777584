// Package ratelimit provides a token-bucket rate limiter used to keep
// benchmark traffic inside per-service request quotas, plus a registry that
// hands out one shared limiter per service name.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter is a token-bucket rate limiter. Tokens refill continuously at
// `rate` per second up to `capacity`. Acquire blocks until the requested
// tokens are available; the refill check, the wait, and the deduction happen
// under one critical section so concurrent acquirers cannot double-spend.
type Limiter struct {
	name     string
	rate     float64
	capacity float64

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewLimiter creates a limiter for the named service. rate is tokens per
// second; capacity is the burst size. Both must be positive.
func NewLimiter(name string, rate, capacity float64) (*Limiter, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("ratelimit: rate must be positive, got %v", rate)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("ratelimit: capacity must be positive, got %v", capacity)
	}
	return &Limiter{
		name:       name,
		rate:       rate,
		capacity:   capacity,
		tokens:     capacity,
		lastRefill: time.Now(),
	}, nil
}

// Name returns the service name this limiter was created for.
func (l *Limiter) Name() string { return l.name }

// refill credits tokens for the time elapsed since the last refill, clamped
// at capacity. Caller must hold l.mu.
func (l *Limiter) refill(now time.Time) {
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	l.tokens += elapsed * l.rate
	if l.tokens > l.capacity {
		l.tokens = l.capacity
	}
	l.lastRefill = now
}

// Acquire takes n tokens, blocking until they are available. It returns the
// time spent waiting. Requests larger than the bucket capacity fail
// immediately since they could never be satisfied. The lock is held across
// the wait so later acquirers queue behind this one instead of draining the
// refill out from under it. If ctx is cancelled during the wait the tokens
// are not spent and ctx.Err() is returned.
func (l *Limiter) Acquire(ctx context.Context, n float64) (time.Duration, error) {
	if n <= 0 {
		return 0, fmt.Errorf("ratelimit: token count must be positive, got %v", n)
	}
	if n > l.capacity {
		return 0, fmt.Errorf("ratelimit: requested %v tokens exceeds capacity %v", n, l.capacity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.refill(now)

	if l.tokens >= n {
		l.tokens -= n
		return 0, nil
	}

	wait := time.Duration((n - l.tokens) / l.rate * float64(time.Second))
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
	}

	// The full wait credits exactly the missing tokens, so the bucket is
	// empty after taking them.
	l.tokens = 0
	l.lastRefill = time.Now()
	return wait, nil
}

// TryAcquire takes n tokens without blocking. It reports whether the tokens
// were taken.
func (l *Limiter) TryAcquire(n float64) bool {
	if n <= 0 || n > l.capacity {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill(time.Now())
	if l.tokens < n {
		return false
	}
	l.tokens -= n
	return true
}

// AvailableTokens reports how many tokens the bucket currently holds,
// including refill credit accrued since the last acquisition.
func (l *Limiter) AvailableTokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill(time.Now())
	return l.tokens
}

// Reset refills the bucket to capacity.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tokens = l.capacity
	l.lastRefill = time.Now()
}

// ServiceLimit is a known per-service request quota.
type ServiceLimit struct {
	Rate     float64
	Capacity float64
}

// serviceLimits are the default quotas for the services the harness
// benchmarks. Local backends get a generous limit so the limiter never
// dominates their measurements.
var serviceLimits = map[string]ServiceLimit{
	"aws-bedrock-kb": {Rate: 5, Capacity: 20},
	"gcp-vertex":     {Rate: 10, Capacity: 50},
	"simple-store":   {Rate: 100, Capacity: 500},
	"badger-store":   {Rate: 100, Capacity: 500},
	"local-memory":   {Rate: 100, Capacity: 500},
	"redis-memory":   {Rate: 100, Capacity: 500},
}

// defaultLimit applies to services with no entry in serviceLimits.
var defaultLimit = ServiceLimit{Rate: 10, Capacity: 50}

// Registry hands out one shared limiter per service name. It is owned by the
// orchestrator that created it; separate registries do not share state.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewRegistry creates an empty limiter registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

// GetOrCreate returns the limiter registered under name, creating it with
// the given rate and capacity if it does not exist yet. An existing limiter
// keeps its original parameters.
func (r *Registry) GetOrCreate(name string, rate, capacity float64) (*Limiter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[name]; ok {
		return l, nil
	}
	l, err := NewLimiter(name, rate, capacity)
	if err != nil {
		return nil, err
	}
	r.limiters[name] = l
	return l, nil
}

// ForService returns the limiter for a service name using the predefined
// quota table, falling back to the default quota for unknown services.
func (r *Registry) ForService(name string) (*Limiter, error) {
	limit, ok := serviceLimits[name]
	if !ok {
		limit = defaultLimit
	}
	return r.GetOrCreate(name, limit.Rate, limit.Capacity)
}

// ResetAll refills every registered limiter to capacity.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.limiters {
		l.Reset()
	}
}
