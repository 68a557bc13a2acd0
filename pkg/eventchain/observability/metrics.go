package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records eventchain metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEmit records a dispatch with the number of listeners invoked.
	RecordEmit(ctx context.Context, event string, invoked int, chainDelivery bool, duration time.Duration)

	// RecordTally records a finalized tally.
	RecordTally(ctx context.Context, event string, total, failure int)

	// RecordChainCompletion records a synthesized chain emission.
	RecordChainCompletion(ctx context.Context, owner, mode string)

	// RecordChainResync records a chain reset caused by duplicate arrivals.
	RecordChainResync(ctx context.Context, owner string)

	// RecordCapacityExceeded records a rejected registration.
	RecordCapacityExceeded(ctx context.Context, event string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	emits       metric.Int64Counter
	invocations metric.Int64Counter
	emitLatency metric.Float64Histogram
	tallies     metric.Int64Counter
	tallyErrors metric.Int64Counter
	completions metric.Int64Counter
	resyncs     metric.Int64Counter
	rejections  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("eventchain")

	emits, err := meter.Int64Counter("eventchain.emits",
		metric.WithDescription("Number of event dispatches"),
	)
	if err != nil {
		return nil, err
	}

	invocations, err := meter.Int64Counter("eventchain.listener.invocations",
		metric.WithDescription("Number of listener invocations"),
	)
	if err != nil {
		return nil, err
	}

	emitLatency, err := meter.Float64Histogram("eventchain.emit.latency_ms",
		metric.WithDescription("Synchronous dispatch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	tallies, err := meter.Int64Counter("eventchain.tally.finalized",
		metric.WithDescription("Number of finalized completion tallies"),
	)
	if err != nil {
		return nil, err
	}

	tallyErrors, err := meter.Int64Counter("eventchain.tally.failures",
		metric.WithDescription("Number of listener-reported failures in finalized tallies"),
	)
	if err != nil {
		return nil, err
	}

	completions, err := meter.Int64Counter("eventchain.chain.completions",
		metric.WithDescription("Number of synthesized chain emissions"),
	)
	if err != nil {
		return nil, err
	}

	resyncs, err := meter.Int64Counter("eventchain.chain.resyncs",
		metric.WithDescription("Number of chains reset after duplicate arrivals"),
	)
	if err != nil {
		return nil, err
	}

	rejections, err := meter.Int64Counter("eventchain.capacity.rejections",
		metric.WithDescription("Number of registrations rejected by the listener cap"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		emits:       emits,
		invocations: invocations,
		emitLatency: emitLatency,
		tallies:     tallies,
		tallyErrors: tallyErrors,
		completions: completions,
		resyncs:     resyncs,
		rejections:  rejections,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEmit records a dispatch.
func (m *otelMetrics) RecordEmit(ctx context.Context, event string, invoked int, chainDelivery bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("event", event),
		attribute.Bool("chain_delivery", chainDelivery),
	)
	m.emits.Add(ctx, 1, attrs)
	m.invocations.Add(ctx, int64(invoked), attrs)
	m.emitLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordTally records a finalized tally.
func (m *otelMetrics) RecordTally(ctx context.Context, event string, total, failure int) {
	attrs := metric.WithAttributes(attribute.String("event", event))
	m.tallies.Add(ctx, 1, attrs)
	if failure > 0 {
		m.tallyErrors.Add(ctx, int64(failure), attrs)
	}
}

// RecordChainCompletion records a synthesized chain emission.
func (m *otelMetrics) RecordChainCompletion(ctx context.Context, owner, mode string) {
	m.completions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("owner", owner),
		attribute.String("mode", mode),
	))
}

// RecordChainResync records a chain reset.
func (m *otelMetrics) RecordChainResync(ctx context.Context, owner string) {
	m.resyncs.Add(ctx, 1, metric.WithAttributes(attribute.String("owner", owner)))
}

// RecordCapacityExceeded records a rejected registration.
func (m *otelMetrics) RecordCapacityExceeded(ctx context.Context, event string) {
	m.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}
