package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest creates a test meter provider and returns its reader.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	originalProvider := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}

	return reader, cleanup
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumFor returns the counter value for the datapoint carrying key=value.
func sumFor(t *testing.T, m *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			return dp.Value
		}
	}
	return 0
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordEmit(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordEmit(ctx, "a", 3, false, 2*time.Millisecond)
	m.RecordEmit(ctx, "a", 2, false, time.Millisecond)

	rm := collectMetrics(t, reader)

	emits := findMetric(rm, "eventchain.emits")
	require.NotNil(t, emits)
	assert.Equal(t, int64(2), sumFor(t, emits, "event", "a"))

	invocations := findMetric(rm, "eventchain.listener.invocations")
	require.NotNil(t, invocations)
	assert.Equal(t, int64(5), sumFor(t, invocations, "event", "a"))

	latency := findMetric(rm, "eventchain.emit.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "Expected Histogram type")
	require.NotEmpty(t, hist.DataPoints)
}

func TestRecordTally(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordTally(ctx, "a", 3, 0)
	m.RecordTally(ctx, "a", 3, 2)

	rm := collectMetrics(t, reader)

	tallies := findMetric(rm, "eventchain.tally.finalized")
	require.NotNil(t, tallies)
	assert.Equal(t, int64(2), sumFor(t, tallies, "event", "a"))

	failures := findMetric(rm, "eventchain.tally.failures")
	require.NotNil(t, failures)
	assert.Equal(t, int64(2), sumFor(t, failures, "event", "a"))
}

func TestRecordChainEvents(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordChainCompletion(ctx, "x", "ordered-any")
	m.RecordChainCompletion(ctx, "x", "ordered-all-success")
	m.RecordChainResync(ctx, "x")
	m.RecordCapacityExceeded(ctx, "y")

	rm := collectMetrics(t, reader)

	completions := findMetric(rm, "eventchain.chain.completions")
	require.NotNil(t, completions)
	assert.Equal(t, int64(1), sumFor(t, completions, "mode", "ordered-any"))
	assert.Equal(t, int64(1), sumFor(t, completions, "mode", "ordered-all-success"))

	resyncs := findMetric(rm, "eventchain.chain.resyncs")
	require.NotNil(t, resyncs)
	assert.Equal(t, int64(1), sumFor(t, resyncs, "owner", "x"))

	rejections := findMetric(rm, "eventchain.capacity.rejections")
	require.NotNil(t, rejections)
	assert.Equal(t, int64(1), sumFor(t, rejections, "event", "y"))
}
