package eventchain

import (
	"context"
	"fmt"

	"github.com/randalmurphal/eventchain/pkg/eventchain/observability"
)

// chainTarget restricts a dispatch to the listeners bound to one chain
// declaration and mode. Listeners without a chain binding are not filtered.
// Invocations are tallied against the completion rather than the owner's
// running tally.
type chainTarget struct {
	mode      ChainMode
	sortedKey string
	tally     *completionTally
}

func (t *chainTarget) accepts(rec *listenerRecord) bool {
	if t == nil || !rec.chainBound() {
		return true
	}
	return rec.mode == t.mode && rec.sortedKey == t.sortedKey
}

// dispatch synchronously invokes the listeners of event and returns how many
// were invoked. The set of listeners is fixed when dispatch starts: listeners
// added or removed by a running listener take effect on the next dispatch.
// An ordinary dispatch finalizes the event once as many listeners have
// reported as the list held at that point. Listener panics are not recovered.
func (b *Bus) dispatch(ctx context.Context, event string, target *chainTarget, args []any) int {
	b.queue.Enter()
	defer b.queue.Leave()

	parent := ctx
	ctx, span := b.spans.StartEmitSpan(ctx, event, target != nil)
	elapsed := observability.TimedOperation()
	defer func() {
		if r := recover(); r != nil {
			b.spans.EndSpanWithError(span, fmt.Errorf("listener panic: %v", r))
			panic(r)
		}
	}()

	var invoked []*listenerRecord
	for _, rec := range b.registry.listeners(event) {
		if target.accepts(rec) {
			invoked = append(invoked, rec)
		}
	}

	tallied := event != EventListening
	expected := len(b.registry.listeners(event))
	if target != nil {
		target.tally.expected += len(invoked)
	}

	for _, rec := range invoked {
		var done Done
		switch {
		case !tallied:
		case target != nil:
			done = b.newCompletionDone(parent, target.tally)
		default:
			done = b.newDone(parent, event, expected)
		}

		rec.fn(done, args...)

		if rec.once {
			b.registry.detach(event, rec)
		}
	}

	b.metrics.RecordEmit(ctx, event, len(invoked), target != nil, elapsed())
	observability.LogEmit(b.logger, event, len(invoked), target != nil)
	b.spans.EndSpanWithError(span, nil)
	return len(invoked)
}
