package tracing

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
)

// ConsoleExporter writes finished spans through the process slog handler,
// one structured record per span. Intended for local development runs where
// a collector is not worth standing up.
type ConsoleExporter struct {
	logger *slog.Logger
}

// NewConsoleExporter creates an exporter bound to the default slog handler,
// so span records share the format configured in internal/logging.
func NewConsoleExporter() (*ConsoleExporter, error) {
	return &ConsoleExporter{logger: slog.Default()}, nil
}

// ExportSpans logs each span with its identifiers, timing, status, and
// attributes.
func (ce *ConsoleExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	for _, span := range spans {
		args := []any{
			"trace_id", span.SpanContext().TraceID().String(),
			"span_id", span.SpanContext().SpanID().String(),
			"name", span.Name(),
			"duration_ms", float64(span.EndTime().Sub(span.StartTime())) / float64(time.Millisecond),
			"status", span.Status().Code.String(),
		}
		if span.Parent().HasSpanID() {
			args = append(args, "parent_id", span.Parent().SpanID().String())
		}
		if attrs := span.Attributes(); len(attrs) > 0 {
			args = append(args, "attributes", attrValue(attrs))
		}
		if events := span.Events(); len(events) > 0 {
			args = append(args, "events", eventNames(events))
		}
		ce.logger.Log(ctx, slog.LevelInfo, "Span finished", args...)
	}
	return nil
}

// Shutdown implements trace.SpanExporter; there is nothing to flush.
func (ce *ConsoleExporter) Shutdown(ctx context.Context) error {
	return nil
}

func attrValue(attrs []attribute.KeyValue) slog.Value {
	grouped := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		grouped = append(grouped, slog.Any(string(a.Key), a.Value.AsInterface()))
	}
	return slog.GroupValue(grouped...)
}

func eventNames(events []trace.Event) []string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	return names
}
