package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"storebench/internal/config"
)

type Logger struct {
	*slog.Logger
	config *config.LoggingConfig
}

type ContextKey string

const (
	RunIDKey   ContextKey = "run_id"
	SuiteKey   ContextKey = "suite"
	BackendKey ContextKey = "backend"
)

// NewLogger creates a new structured logger using slog
func NewLogger(cfg *config.LoggingConfig) *Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var writer io.Writer
	switch cfg.Output {
	case "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		if cfg.Output != "" {
			file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err == nil {
				writer = file
			} else {
				writer = os.Stdout
				slog.Warn("Failed to open log file, using stdout", "error", err, "file", cfg.Output)
			}
		} else {
			writer = os.Stdout
		}
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize timestamp format
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	case "text", "console":
		handler = slog.NewTextHandler(writer, opts)
	default:
		// Default to JSON for production
		handler = slog.NewJSONHandler(writer, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return &Logger{
		Logger: logger,
		config: cfg,
	}
}

// WithContext creates a new logger with context values
func (l *Logger) WithContext(ctx context.Context) *Logger {
	logger := l.Logger

	if runID := ctx.Value(RunIDKey); runID != nil {
		logger = logger.With("run_id", runID)
	}
	if suite := ctx.Value(SuiteKey); suite != nil {
		logger = logger.With("suite", suite)
	}
	if backend := ctx.Value(BackendKey); backend != nil {
		logger = logger.With("backend", backend)
	}

	return &Logger{
		Logger: logger,
		config: l.config,
	}
}

// WithFields creates a new logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	var args []interface{}
	for key, value := range fields {
		args = append(args, key, value)
	}

	return &Logger{
		Logger: l.Logger.With(args...),
		config: l.config,
	}
}

// WithField creates a new logger with a single additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.With(key, value),
		config: l.config,
	}
}

// WithError creates a new logger with an error field
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With("error", err.Error()),
		config: l.config,
	}
}

// RunStart logs the start of a single benchmark run
func (l *Logger) RunStart(ctx context.Context, testCase, backend string, concurrency int) {
	l.WithContext(ctx).Info("Benchmark run started",
		"test_case", testCase,
		"backend", backend,
		"concurrency", concurrency,
	)
}

// RunEnd logs the completion of a single benchmark run
func (l *Logger) RunEnd(ctx context.Context, testCase, backend string, duration time.Duration, err error) {
	logger := l.WithContext(ctx).With(
		"test_case", testCase,
		"backend", backend,
		"duration_ms", duration.Milliseconds(),
	)

	if err != nil {
		logger.Error("Benchmark run failed", "error", err.Error())
	} else {
		logger.Info("Benchmark run completed")
	}
}

// BackendOperation logs a single backend call outcome
func (l *Logger) BackendOperation(ctx context.Context, backend, operation string, duration time.Duration, err error) {
	logger := l.WithContext(ctx).With(
		"backend", backend,
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	)

	if err != nil {
		logger.Warn("Backend operation failed", "error", err.Error())
	} else {
		logger.Debug("Backend operation completed")
	}
}

// Performance logs performance metrics
func (l *Logger) Performance(ctx context.Context, metric string, value float64, unit string, tags map[string]string) {
	args := []interface{}{
		"metric", metric,
		"value", value,
		"unit", unit,
	}

	for key, value := range tags {
		args = append(args, "tag_"+key, value)
	}

	l.WithContext(ctx).Info("Performance metric", args...)
}
