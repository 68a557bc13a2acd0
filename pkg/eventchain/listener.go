package eventchain

import (
	"slices"
	"strings"
)

// Listener is a callback registered under an event name.
//
// done must be called exactly once when the listener's work for this firing
// is finished; pass true if it failed. Chains only advance once every
// listener of a member event has called done. Listeners of EventListening
// receive a nil done.
type Listener func(done Done, args ...any)

// Done signals completion of one listener invocation.
// Calls after the first are ignored.
type Done func(failed bool)

// ListenerID identifies a registration for removal.
type ListenerID string

// listenerRecord is one registration held by the registry.
type listenerRecord struct {
	id        ListenerID
	fn        Listener
	once      bool
	protected bool

	// mode and deps are set only for chain-bound listeners.
	mode      ChainMode
	deps      []string
	sortedKey string
}

func (r *listenerRecord) chainBound() bool {
	return r.deps != nil
}

// ListenerOption configures a registration.
type ListenerOption func(*listenerOptions)

type listenerOptions struct {
	once      bool
	prepend   bool
	protected bool
	chain     bool
	mode      ChainMode
	deps      []string
}

// WithOnce removes the listener after its first invocation.
func WithOnce() ListenerOption {
	return func(o *listenerOptions) { o.once = true }
}

// WithPrepend inserts the listener ahead of those already registered.
func WithPrepend() ListenerOption {
	return func(o *listenerOptions) { o.prepend = true }
}

// WithProtected exempts the listener from RemoveListener and RemoveAllListeners.
func WithProtected() ListenerOption {
	return func(o *listenerOptions) { o.protected = true }
}

// WithChain binds the listener to the chain formed by deps under the
// registered event name. The listener receives only synthesized completions
// tagged with mode. deps is copied and must not lead back to the registered
// event through other chains.
func WithChain(mode ChainMode, deps ...string) ListenerOption {
	return func(o *listenerOptions) {
		o.chain = true
		o.mode = mode
		o.deps = slices.Clone(deps)
	}
}

// keySep joins names into map keys. Event names never need to contain it.
const keySep = "\x1f"

// declaredKey is the order-preserving identity of a dependency sequence.
func declaredKey(deps []string) string {
	return strings.Join(deps, keySep)
}

// sortedKey is the order-insensitive identity used to match chain listeners.
func sortedKey(deps []string) string {
	sorted := slices.Clone(deps)
	slices.Sort(sorted)
	return strings.Join(sorted, keySep)
}
