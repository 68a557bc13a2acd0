package eventchain

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/eventchain/pkg/eventchain/observability"
)

// Helper listeners

// succeed reports success immediately.
func succeed(done Done, _ ...any) {
	done(false)
}

// fail reports failure immediately.
func fail(done Done, _ ...any) {
	done(true)
}

// completions collects the Completion values delivered to a chain listener.
type completions struct {
	got []Completion
}

// listener returns a chain listener that records its completion and reports success.
func (c *completions) listener() Listener {
	return func(done Done, args ...any) {
		if len(args) > 0 {
			if comp, ok := args[0].(Completion); ok {
				c.got = append(c.got, comp)
			}
		}
		if done != nil {
			done(false)
		}
	}
}

func (c *completions) modes() []ChainMode {
	out := make([]ChainMode, 0, len(c.got))
	for _, comp := range c.got {
		out = append(out, comp.Mode)
	}
	return out
}

// tally is one payload delivered to EventListening.
type tally struct {
	Event   string
	Total   int
	Success int
	Failure int
}

// tapListening records every finalized tally on the bus.
func tapListening(b *Bus) *[]tally {
	var got []tally
	_, err := b.On(EventListening, func(done Done, args ...any) {
		got = append(got, tally{
			Event:   args[0].(string),
			Total:   args[1].(int),
			Success: args[2].(int),
			Failure: args[3].(int),
		})
	})
	if err != nil {
		panic(err)
	}
	return &got
}

// tracker records the order in which listeners run.
func tracker(name string, log *[]string, failed bool) Listener {
	return func(done Done, _ ...any) {
		*log = append(*log, name)
		if done != nil {
			done(failed)
		}
	}
}

// spyMetrics counts recorder calls.
type spyMetrics struct {
	observability.NoopMetrics
	emits       int
	tallies     int
	completions []string
	resyncs     int
	rejections  int
}

func (s *spyMetrics) RecordEmit(_ context.Context, _ string, _ int, _ bool, _ time.Duration) {
	s.emits++
}

func (s *spyMetrics) RecordTally(_ context.Context, _ string, _, _ int) {
	s.tallies++
}

func (s *spyMetrics) RecordChainCompletion(_ context.Context, owner, mode string) {
	s.completions = append(s.completions, owner+":"+mode)
}

func (s *spyMetrics) RecordChainResync(_ context.Context, _ string) {
	s.resyncs++
}

func (s *spyMetrics) RecordCapacityExceeded(_ context.Context, _ string) {
	s.rejections++
}

// spySpans counts span starts and endings.
type spySpans struct {
	observability.NoopSpanManager
	emitSpans  []string
	chainSpans []string
	ended      int
	failed     int
	events     []string
}

func (s *spySpans) StartEmitSpan(ctx context.Context, event string, _ bool) (context.Context, trace.Span) {
	s.emitSpans = append(s.emitSpans, event)
	return ctx, trace.SpanFromContext(ctx)
}

func (s *spySpans) StartChainSpan(ctx context.Context, owner string, _ []string) (context.Context, trace.Span) {
	s.chainSpans = append(s.chainSpans, owner)
	return ctx, trace.SpanFromContext(ctx)
}

func (s *spySpans) EndSpanWithError(_ trace.Span, err error) {
	s.ended++
	if err != nil {
		s.failed++
	}
}

func (s *spySpans) AddSpanEvent(_ context.Context, name string, _ ...attribute.KeyValue) {
	s.events = append(s.events, name)
}
