package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNewLimiterValidation(t *testing.T) {
	if _, err := NewLimiter("svc", 0, 10); err == nil {
		t.Error("Expected error for zero rate")
	}
	if _, err := NewLimiter("svc", -1, 10); err == nil {
		t.Error("Expected error for negative rate")
	}
	if _, err := NewLimiter("svc", 10, 0); err == nil {
		t.Error("Expected error for zero capacity")
	}
	l, err := NewLimiter("svc", 10, 10)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}
	if l.Name() != "svc" {
		t.Errorf("Expected name svc, got %s", l.Name())
	}
}

func TestAcquireBurstThenWait(t *testing.T) {
	l, err := NewLimiter("svc", 10, 10)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		wait, err := l.Acquire(ctx, 1)
		if err != nil {
			t.Fatalf("Acquire %d failed: %v", i, err)
		}
		if wait != 0 {
			t.Errorf("Acquire %d should not wait, waited %v", i, wait)
		}
	}

	// Bucket is empty; the 11th acquisition should wait about 1/rate.
	start := time.Now()
	wait, err := l.Acquire(ctx, 1)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Acquire after burst failed: %v", err)
	}
	if wait <= 0 {
		t.Errorf("Expected positive reported wait, got %v", wait)
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("Expected to block around 100ms, blocked %v", elapsed)
	}
}

func TestAcquireExceedsCapacity(t *testing.T) {
	l, err := NewLimiter("svc", 10, 5)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}
	if _, err := l.Acquire(context.Background(), 6); err == nil {
		t.Error("Expected error for request above capacity")
	}
	if _, err := l.Acquire(context.Background(), 0); err == nil {
		t.Error("Expected error for zero token request")
	}
}

func TestAcquireContextCancelled(t *testing.T) {
	l, err := NewLimiter("svc", 1, 1)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}
	if _, err := l.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("Initial acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, 1); err == nil {
		t.Error("Expected context error for cancelled wait")
	}
}

func TestTryAcquire(t *testing.T) {
	l, err := NewLimiter("svc", 10, 3)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if !l.TryAcquire(1) {
			t.Errorf("TryAcquire %d should succeed", i)
		}
	}
	if l.TryAcquire(1) {
		t.Error("TryAcquire on empty bucket should fail")
	}
	if l.TryAcquire(4) {
		t.Error("TryAcquire above capacity should fail")
	}
}

func TestRefillClampsAtCapacity(t *testing.T) {
	l, err := NewLimiter("svc", 1000, 5)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}
	if !l.TryAcquire(5) {
		t.Fatal("Draining acquire should succeed")
	}

	time.Sleep(20 * time.Millisecond)
	available := l.AvailableTokens()
	if available > 5 {
		t.Errorf("Tokens should clamp at capacity 5, got %v", available)
	}
	if available < 5 {
		t.Errorf("Expected full refill after idle period, got %v", available)
	}
}

func TestReset(t *testing.T) {
	l, err := NewLimiter("svc", 0.001, 4)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}
	if !l.TryAcquire(4) {
		t.Fatal("Draining acquire should succeed")
	}
	if l.TryAcquire(1) {
		t.Error("Bucket should be empty before reset")
	}

	l.Reset()
	if !l.TryAcquire(4) {
		t.Error("Bucket should be full after reset")
	}
}

func TestRegistryReusesLimiters(t *testing.T) {
	r := NewRegistry()

	a, err := r.GetOrCreate("svc", 10, 20)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	b, err := r.GetOrCreate("svc", 99, 99)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if a != b {
		t.Error("Registry should return the same limiter for the same name")
	}
}

func TestRegistryForService(t *testing.T) {
	r := NewRegistry()

	known, err := r.ForService("aws-bedrock-kb")
	if err != nil {
		t.Fatalf("ForService failed: %v", err)
	}
	if known.capacity != 20 {
		t.Errorf("Expected capacity 20 for aws-bedrock-kb, got %v", known.capacity)
	}

	unknown, err := r.ForService("never-seen")
	if err != nil {
		t.Fatalf("ForService failed: %v", err)
	}
	if unknown.rate != defaultLimit.Rate || unknown.capacity != defaultLimit.Capacity {
		t.Errorf("Unknown service should get default limit, got rate=%v cap=%v",
			unknown.rate, unknown.capacity)
	}
}

func TestRegistryResetAll(t *testing.T) {
	r := NewRegistry()
	l, err := r.GetOrCreate("svc", 0.001, 2)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if !l.TryAcquire(2) {
		t.Fatal("Draining acquire should succeed")
	}

	r.ResetAll()
	if !l.TryAcquire(2) {
		t.Error("Limiter should be full after ResetAll")
	}
}
