package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the eventchain tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("eventchain")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartEmitSpan starts a span covering one synchronous dispatch.
	StartEmitSpan(ctx context.Context, event string, chainDelivery bool) (context.Context, trace.Span)

	// StartChainSpan starts a span for the evaluation of a completed chain.
	StartChainSpan(ctx context.Context, owner string, deps []string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartEmitSpan starts a span covering one synchronous dispatch.
func (m *otelSpanManager) StartEmitSpan(ctx context.Context, event string, chainDelivery bool) (context.Context, trace.Span) {
	return StartEmitSpan(ctx, event, chainDelivery)
}

// StartChainSpan starts a span for chain evaluation.
func (m *otelSpanManager) StartChainSpan(ctx context.Context, owner string, deps []string) (context.Context, trace.Span) {
	return StartChainSpan(ctx, owner, deps)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartEmitSpan starts a dispatch span using the global OTel tracer.
func StartEmitSpan(ctx context.Context, event string, chainDelivery bool) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventchain.emit "+event,
		trace.WithAttributes(
			attribute.String("event.name", event),
			attribute.Bool("event.chain_delivery", chainDelivery),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartChainSpan starts a chain evaluation span using the global OTel tracer.
func StartChainSpan(ctx context.Context, owner string, deps []string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventchain.chain "+owner,
		trace.WithAttributes(
			attribute.String("chain.owner", owner),
			attribute.String("chain.dependencies", strings.Join(deps, ",")),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
