package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordEmit(ctx, "a", 1, false, time.Millisecond)
		m.RecordTally(ctx, "a", 1, 0)
		m.RecordChainCompletion(ctx, "x", "ordered-any")
		m.RecordChainResync(ctx, "x")
		m.RecordCapacityExceeded(ctx, "x")
	})
}

func TestNoopSpanManager(t *testing.T) {
	sm := NoopSpanManager{}
	ctx := context.Background()

	t.Run("returns context unchanged", func(t *testing.T) {
		newCtx, span := sm.StartEmitSpan(ctx, "a", false)
		assert.Equal(t, ctx, newCtx)
		assert.False(t, span.IsRecording())

		newCtx, span = sm.StartChainSpan(ctx, "x", []string{"a"})
		assert.Equal(t, ctx, newCtx)
		assert.False(t, span.IsRecording())
	})

	t.Run("end and events do not panic", func(t *testing.T) {
		_, span := sm.StartEmitSpan(ctx, "a", false)
		assert.NotPanics(t, func() {
			sm.AddSpanEvent(ctx, "evt", attribute.String("k", "v"))
			sm.EndSpanWithError(span, nil)
			sm.EndSpanWithError(nil, nil)
		})
	})
}
