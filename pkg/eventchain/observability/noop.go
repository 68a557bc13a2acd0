package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordEmit does nothing.
func (NoopMetrics) RecordEmit(_ context.Context, _ string, _ int, _ bool, _ time.Duration) {}

// RecordTally does nothing.
func (NoopMetrics) RecordTally(_ context.Context, _ string, _, _ int) {}

// RecordChainCompletion does nothing.
func (NoopMetrics) RecordChainCompletion(_ context.Context, _, _ string) {}

// RecordChainResync does nothing.
func (NoopMetrics) RecordChainResync(_ context.Context, _ string) {}

// RecordCapacityExceeded does nothing.
func (NoopMetrics) RecordCapacityExceeded(_ context.Context, _ string) {}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartEmitSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartEmitSpan(ctx context.Context, _ string, _ bool) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartChainSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartChainSpan(ctx context.Context, _ string, _ []string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
