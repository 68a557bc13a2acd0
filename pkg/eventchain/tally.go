package eventchain

import (
	"context"

	"github.com/randalmurphal/eventchain/pkg/eventchain/journal"
	"github.com/randalmurphal/eventchain/pkg/eventchain/observability"
)

// tallyEntry counts completions for the current firing of one event.
type tallyEntry struct {
	count  int
	errors int
}

// newDone returns the completion signal handed to one listener invocation.
// expected is the listener-list length captured when the dispatch started.
func (b *Bus) newDone(ctx context.Context, event string, expected int) Done {
	return b.once(func(failed bool) {
		b.recordCompletion(ctx, event, failed, expected)
	})
}

// once wraps record so that only the first call counts and the recording
// runs as a bus call.
func (b *Bus) once(record func(failed bool)) Done {
	called := false
	return func(failed bool) {
		if called {
			return
		}
		called = true

		b.queue.Enter()
		defer b.queue.Leave()
		record(failed)
	}
}

// recordCompletion adds one listener result to the event's tally. Once every
// expected listener has reported, finalization is posted to the end of the
// turn and the tally starts over.
func (b *Bus) recordCompletion(ctx context.Context, event string, failed bool, expected int) {
	entry, ok := b.tallies[event]
	if !ok {
		entry = &tallyEntry{}
		b.tallies[event] = entry
	}

	entry.count++
	if failed {
		entry.errors++
	}
	if entry.count < expected {
		return
	}

	total, failure := entry.count, entry.errors
	*entry = tallyEntry{}

	b.queue.Post(func() {
		b.finalize(ctx, event, total, total-failure, failure)
	})
}

// completionTally counts the listeners invoked by every synthesized emission
// of one chain completion as a single firing of the owner. A completion that
// emits the base and the specific mode therefore finalizes the owner once,
// whatever mix of chain-bound and plain listeners the owner has.
type completionTally struct {
	owner    string
	expected int
	entry    tallyEntry

	// sealed is set once every emission of the completion has been
	// dispatched and expected can no longer grow.
	sealed    bool
	finalized bool
}

func (b *Bus) newCompletionDone(ctx context.Context, t *completionTally) Done {
	return b.once(func(failed bool) {
		t.entry.count++
		if failed {
			t.entry.errors++
		}
		b.settleCompletion(ctx, t)
	})
}

// seal closes the completion to further emissions.
func (b *Bus) seal(ctx context.Context, t *completionTally) {
	t.sealed = true
	b.settleCompletion(ctx, t)
}

// settleCompletion posts the owner's finalization once the completion is
// sealed and every invoked listener has reported. A completion that reached
// no listener never finalizes, like an emit without listeners.
func (b *Bus) settleCompletion(ctx context.Context, t *completionTally) {
	if !t.sealed || t.finalized || t.expected == 0 || t.entry.count < t.expected {
		return
	}
	t.finalized = true

	total, failure := t.entry.count, t.entry.errors
	b.queue.Post(func() {
		b.finalize(ctx, t.owner, total, total-failure, failure)
	})
}

// finalize publishes a completed tally to the listening tap and the chain
// engine. It always runs from the turn queue, never inside a dispatch loop.
func (b *Bus) finalize(ctx context.Context, event string, total, success, failure int) {
	b.queue.Enter()
	defer b.queue.Leave()

	b.metrics.RecordTally(ctx, event, total, failure)
	observability.LogTallyFinalized(b.logger, event, total, success, failure)
	b.record(ctx, journal.Record{
		Kind:    journal.KindTally,
		Event:   event,
		Total:   total,
		Success: success,
		Failure: failure,
	})

	if b.registry.count(EventListening) > 0 {
		b.dispatch(ctx, EventListening, nil, []any{event, total, success, failure})
	}
	b.advanceChains(ctx, event, failure)
}
