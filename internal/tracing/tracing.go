package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"storebench/internal/config"
)

// Service manages OpenTelemetry tracing for benchmark runs
type Service struct {
	config   config.TracingConfig
	tracer   oteltrace.Tracer
	provider *trace.TracerProvider
}

// NewService creates a new tracing service
func NewService(cfg config.TracingConfig) (*Service, error) {
	if !cfg.Enabled {
		// Return a no-op tracer
		return &Service{
			config: cfg,
			tracer: otel.Tracer("storebench-noop"),
		}, nil
	}

	// Create resource
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Create exporter based on configuration
	var exporter trace.SpanExporter
	switch cfg.ExporterType {
	case "jaeger":
		exporter, err = jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
		if err != nil {
			return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
		}
	case "otlp":
		client := otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
			otlptracehttp.WithHeaders(cfg.OTLPHeaders),
		)
		exporter, err = otlptrace.New(context.Background(), client)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	case "console":
		// For development - logs spans to console
		exporter, err = NewConsoleExporter()
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.ExporterType)
	}

	// Create tracer provider
	samplingRatio := cfg.SamplingRatio
	if samplingRatio <= 0 {
		samplingRatio = 1.0 // Default to sampling all traces
	}

	tp := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithBatcher(exporter),
		trace.WithSampler(trace.TraceIDRatioBased(samplingRatio)),
	)

	// Set global tracer provider
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Service{
		config:   cfg,
		tracer:   tp.Tracer("storebench"),
		provider: tp,
	}, nil
}

// StartSpan starts a new span
func (ts *Service) StartSpan(ctx context.Context, name string, opts ...oteltrace.SpanStartOption) (context.Context, oteltrace.Span) {
	return ts.tracer.Start(ctx, name, opts...)
}

// RecordError records an error in the current span
func (ts *Service) RecordError(span oteltrace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Close shuts down the tracing service
func (ts *Service) Close(ctx context.Context) error {
	if ts.provider != nil {
		return ts.provider.Shutdown(ctx)
	}
	return nil
}

// TraceOperation is a helper function to trace an operation
func (ts *Service) TraceOperation(ctx context.Context, operationName string, fn func(context.Context, oteltrace.Span) error) error {
	ctx, span := ts.StartSpan(ctx, operationName)
	defer span.End()

	err := fn(ctx, span)
	if err != nil {
		ts.RecordError(span, err)
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// InstrumentRun creates a span covering one benchmark run
func (ts *Service) InstrumentRun(ctx context.Context, testCase, backend string, concurrency int) (context.Context, oteltrace.Span) {
	return ts.StartSpan(ctx, fmt.Sprintf("run.%s", testCase),
		oteltrace.WithAttributes(
			attribute.String("run.test_case", testCase),
			attribute.String("run.backend", backend),
			attribute.Int("run.concurrency", concurrency),
			attribute.String("component", "orchestrator"),
		),
	)
}

// InstrumentBackendCall creates a span for a single backend operation
func (ts *Service) InstrumentBackendCall(ctx context.Context, backend, operation string) (context.Context, oteltrace.Span) {
	return ts.StartSpan(ctx, fmt.Sprintf("backend.%s", operation),
		oteltrace.WithAttributes(
			attribute.String("backend.name", backend),
			attribute.String("backend.operation", operation),
			attribute.String("component", "backend"),
		),
	)
}
