package eventchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/randalmurphal/eventchain/pkg/eventchain/config"
	"github.com/randalmurphal/eventchain/pkg/eventchain/journal"
	"github.com/randalmurphal/eventchain/pkg/eventchain/observability"
	"github.com/randalmurphal/eventchain/pkg/eventchain/turn"
)

// DefaultMaxListeners is the per-event listener cap of a new Bus.
const DefaultMaxListeners = config.DefaultMaxListeners

// Bus is an in-process event emitter with chain completion tracking.
//
// A Bus is not safe for concurrent use. Every call, including the Done
// signals handed to listeners, must come from the goroutine that owns it.
// Independent buses share no state.
type Bus struct {
	id           string
	maxListeners int

	registry *registry
	tallies  map[string]*tallyEntry
	chains   *chainTable
	queue    *turn.Queue

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	journal journal.Store

	owned []closer
}

// New creates a bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		id:           uuid.NewString(),
		maxListeners: DefaultMaxListeners,
		registry:     newRegistry(),
		tallies:      make(map[string]*tallyEntry),
		chains:       newChainTable(),
		queue:        turn.New(),
		metrics:      observability.NoopMetrics{},
		spans:        observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewFromConfig creates a bus from decoded configuration. Logging goes to
// stderr as JSON at the configured level. opts are applied after the
// configuration and override it.
//
// Journals opened from configuration are owned by the bus and released by Close.
func NewFromConfig(cfg config.Config, opts ...Option) (*Bus, error) {
	settings, err := cfg.Settings()
	if err != nil {
		return nil, fmt.Errorf("load bus settings: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: observability.ParseLevel(settings.LogLevel),
	}))

	configured, owned, err := optionsFromSettings(settings, logger)
	if err != nil {
		return nil, fmt.Errorf("configure bus: %w", err)
	}

	b := New(append(configured, opts...)...)
	b.owned = owned
	return b, nil
}

// ID returns the unique bus identifier used in logs.
func (b *Bus) ID() string {
	return b.id
}

// Close releases resources opened by NewFromConfig. It does not touch
// listeners or chain state.
func (b *Bus) Close() error {
	var errs []error
	for _, c := range b.owned {
		if err := c.close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.owned = nil
	return errors.Join(errs...)
}

// Register adds fn under event.
//
// When the event already holds the maximum number of listeners the
// registration is rejected with a *CapacityError. A chain binding that would
// make the owner one of its own dependencies, directly or through other
// chains, is rejected with ErrChainCycle. If an EventError listener
// exists the error is emitted to it instead and Register returns an empty
// ID and a nil error; otherwise the error is returned.
//
// Example:
//
//	id, err := bus.Register("report", onReport,
//	    eventchain.WithChain(eventchain.OrderedAllSuccess, "fetch", "parse"),
//	    eventchain.WithOnce(),
//	)
func (b *Bus) Register(event string, fn Listener, opts ...ListenerOption) (ListenerID, error) {
	if event == "" {
		return "", ErrEmptyEventName
	}
	if fn == nil {
		return "", ErrNilListener
	}

	var o listenerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.chain {
		if !o.mode.Valid() {
			return "", fmt.Errorf("%w: %d", ErrInvalidChainMode, int(o.mode))
		}
		if len(o.deps) == 0 {
			return "", ErrEmptyChain
		}
	}

	if o.chain && b.chains.wouldCycle(event, o.deps) {
		return "", fmt.Errorf("%w: %s waits for %s", ErrChainCycle, event, strings.Join(o.deps, ","))
	}

	b.queue.Enter()
	defer b.queue.Leave()

	if b.maxListeners > 0 && b.registry.count(event) >= b.maxListeners {
		return "", b.rejectCapacity(event)
	}

	rec := &listenerRecord{
		id:        ListenerID(uuid.NewString()),
		fn:        fn,
		once:      o.once,
		protected: o.protected,
	}
	if o.chain {
		rec.mode = o.mode
		rec.deps = o.deps
		rec.sortedKey = sortedKey(o.deps)
		b.chains.declare(event, o.deps)
	}

	b.registry.insert(event, rec, o.prepend)
	return rec.id, nil
}

// rejectCapacity routes a capacity failure to EventError listeners when
// there are any and returns nil in that case.
func (b *Bus) rejectCapacity(event string) error {
	err := &CapacityError{Event: event, Limit: b.maxListeners}
	redirected := b.registry.count(EventError) > 0

	b.metrics.RecordCapacityExceeded(context.Background(), event)
	observability.LogCapacityExceeded(b.logger, event, b.maxListeners, redirected)

	if !redirected {
		return err
	}
	b.dispatch(context.Background(), EventError, nil, []any{err})
	return nil
}

// On registers fn under event.
func (b *Bus) On(event string, fn Listener) (ListenerID, error) {
	return b.Register(event, fn)
}

// Once registers fn under event for a single invocation.
func (b *Bus) Once(event string, fn Listener) (ListenerID, error) {
	return b.Register(event, fn, WithOnce())
}

// PrependOn registers fn ahead of the listeners already on event.
func (b *Bus) PrependOn(event string, fn Listener) (ListenerID, error) {
	return b.Register(event, fn, WithPrepend())
}

// PrependOnce registers fn ahead of existing listeners for a single invocation.
func (b *Bus) PrependOnce(event string, fn Listener) (ListenerID, error) {
	return b.Register(event, fn, WithPrepend(), WithOnce())
}

// Define registers fn as a protected listener that removal calls skip.
func (b *Bus) Define(event string, fn Listener) (ListenerID, error) {
	return b.Register(event, fn, WithProtected())
}

// OnChain binds fn to the chain deps under event. fn receives a Completion
// each time the chain finishes with a classification equal to mode.
func (b *Bus) OnChain(event string, mode ChainMode, deps []string, fn Listener) (ListenerID, error) {
	return b.Register(event, fn, WithChain(mode, deps...))
}

// OnceChain is OnChain for a single invocation.
func (b *Bus) OnceChain(event string, mode ChainMode, deps []string, fn Listener) (ListenerID, error) {
	return b.Register(event, fn, WithChain(mode, deps...), WithOnce())
}

// DefineChain is OnChain for a protected listener.
func (b *Bus) DefineChain(event string, mode ChainMode, deps []string, fn Listener) (ListenerID, error) {
	return b.Register(event, fn, WithChain(mode, deps...), WithProtected())
}

// RemoveListener removes the registration with the given ID unless it is
// protected.
func (b *Bus) RemoveListener(event string, id ListenerID) {
	b.remove(event, func(rec *listenerRecord) bool { return rec.id == id })
}

// RemoveAllListeners removes every non-protected listener of event.
func (b *Bus) RemoveAllListeners(event string) {
	b.remove(event, func(*listenerRecord) bool { return true })
}

// remove deletes matching listeners. Once no removable listener is left,
// the event's tally and owned chains are reset; surviving protected chain
// listeners get fresh declarations.
func (b *Bus) remove(event string, match func(*listenerRecord) bool) {
	removed, remaining := b.registry.remove(event, match)
	if removed == 0 {
		return
	}

	cleared := !slices.ContainsFunc(remaining, func(rec *listenerRecord) bool {
		return !rec.protected
	})
	if cleared {
		delete(b.tallies, event)
		b.chains.clear(event)

		if len(remaining) == 0 {
			b.registry.drop(event)
		}
		for _, rec := range remaining {
			if rec.chainBound() {
				b.chains.declare(event, rec.deps)
			}
		}
	}

	observability.LogListenersRemoved(b.logger, event, removed, len(remaining), cleared)
}

// SetMaxListeners sets the per-event listener cap. 0 means unlimited.
// The cap applies to future registrations only.
func (b *Bus) SetMaxListeners(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, n)
	}
	b.maxListeners = n
	return nil
}

// MaxListeners returns the per-event listener cap.
func (b *Bus) MaxListeners() int {
	return b.maxListeners
}

// ListenerCount returns the number of listeners registered under event.
func (b *Bus) ListenerCount(event string) int {
	return b.registry.count(event)
}

// EventNames returns the events that have listeners, in first-registration order.
func (b *Bus) EventNames() []string {
	return b.registry.eventNames()
}

// ChainState returns copies of the chains declared under owner, in
// declaration order.
func (b *Bus) ChainState(owner string) []ChainSnapshot {
	decls := b.chains.owned(owner)
	out := make([]ChainSnapshot, 0, len(decls))
	for _, d := range decls {
		out = append(out, d.snapshot())
	}
	return out
}

// Emit synchronously invokes the listeners of event with args, prefixed by a
// Done signal. Tally finalization and any chain completions it triggers run
// before Emit returns, after every listener has been invoked.
func (b *Bus) Emit(event string, args ...any) {
	b.EmitContext(context.Background(), event, args...)
}

// EmitContext is Emit with a context for tracing. Cancellation is not
// observed; dispatch always runs to completion.
func (b *Bus) EmitContext(ctx context.Context, event string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	b.dispatch(ctx, event, nil, args)
}

// record appends to the journal, logging failures.
func (b *Bus) record(ctx context.Context, rec journal.Record) {
	if b.journal == nil {
		return
	}
	if err := b.journal.Append(ctx, rec); err != nil {
		observability.LogJournalError(b.logger, "append", err)
	}
}

// closer is a resource released by Bus.Close.
type closer interface {
	close() error
}

type storeCloser struct{ store journal.Store }

func (c storeCloser) close() error { return c.store.Close() }

type prunerCloser struct{ pruner *journal.Pruner }

func (c prunerCloser) close() error { return c.pruner.Stop(context.Background()) }
