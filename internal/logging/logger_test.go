package logging

import (
	"context"
	"testing"
	"time"

	"storebench/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config config.LoggingConfig
	}{
		{
			name:   "development config",
			config: DevelopmentLoggingConfig(),
		},
		{
			name:   "production config",
			config: ProductionLoggingConfig(),
		},
		{
			name: "unknown level and format fall back",
			config: config.LoggingConfig{
				Level:  "mystery",
				Format: "mystery",
				Output: "stdout",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(&tt.config)
			if logger == nil {
				t.Fatal("NewLogger returned nil")
			}
			logger.Info("test message", "key", "value")
		})
	}
}

func TestWithHelpers(t *testing.T) {
	cfg := TestLoggingConfig()
	logger := NewLogger(&cfg)

	withField := logger.WithField("backend", "simple-store")
	if withField == nil || withField == logger {
		t.Error("WithField should return a new logger")
	}

	withFields := logger.WithFields(map[string]interface{}{
		"suite":       "nightly",
		"concurrency": 10,
	})
	if withFields == nil {
		t.Error("WithFields returned nil")
	}

	withErr := logger.WithError(context.DeadlineExceeded)
	if withErr == nil {
		t.Error("WithError returned nil")
	}
}

func TestWithContext(t *testing.T) {
	cfg := TestLoggingConfig()
	logger := NewLogger(&cfg)

	ctx := context.WithValue(context.Background(), RunIDKey, "run-123")
	ctx = context.WithValue(ctx, BackendKey, "badger-store")

	ctxLogger := logger.WithContext(ctx)
	if ctxLogger == nil {
		t.Fatal("WithContext returned nil")
	}
	ctxLogger.Info("context test")
}

func TestDomainHelpers(t *testing.T) {
	cfg := TestLoggingConfig()
	logger := NewLogger(&cfg)
	ctx := context.Background()

	logger.RunStart(ctx, "kb-latency", "simple-store", 5)
	logger.RunEnd(ctx, "kb-latency", "simple-store", 120*time.Millisecond, nil)
	logger.RunEnd(ctx, "kb-latency", "simple-store", 5*time.Millisecond, context.Canceled)
	logger.BackendOperation(ctx, "simple-store", "query", 3*time.Millisecond, nil)
	logger.Performance(ctx, "qps", 120.5, "req/s", map[string]string{"backend": "simple-store"})
}
