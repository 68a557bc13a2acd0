package eventchain

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/eventchain/pkg/eventchain/journal"
	"github.com/randalmurphal/eventchain/pkg/eventchain/observability"
)

// Completion is the argument delivered with every synthesized chain emission.
type Completion struct {
	// Owner is the event name the chain was declared under.
	Owner string
	// Mode is the tag of this emission.
	Mode ChainMode
	// Dependencies is the declared member sequence.
	Dependencies []string
	// Arrivals is the order in which members finished.
	Arrivals []string
	// Succeeded counts member firings with no failed listener.
	Succeeded int
	// Failed counts member firings with at least one failed listener.
	Failed int
}

// Ordered reports whether the members finished in declared order.
func (c Completion) Ordered() bool {
	return c.Mode.Ordered()
}

// ChainSnapshot is a copy of one chain's tracking state.
type ChainSnapshot struct {
	Dependencies []string
	Arrivals     []string
	Successes    int
}

// chainDecl tracks one declared dependency sequence under an owner event.
type chainDecl struct {
	owner     string
	deps      []string
	sortedKey string
	members   map[string]struct{}

	arrivals  []string
	successes int

	// detached is set when the owner's state is cleared while an
	// evaluation pass still holds the declaration.
	detached bool
}

func newChainDecl(owner string, deps []string) *chainDecl {
	members := make(map[string]struct{}, len(deps))
	for _, d := range deps {
		members[d] = struct{}{}
	}
	return &chainDecl{
		owner:     owner,
		deps:      slices.Clone(deps),
		sortedKey: sortedKey(deps),
		members:   members,
		arrivals:  make([]string, 0, len(deps)),
	}
}

func (c *chainDecl) has(event string) bool {
	_, ok := c.members[event]
	return ok
}

// chainResult is the evaluation of a chain that reached its declared length.
type chainResult struct {
	arrivals  []string
	successes int

	// resync is set when arrivals were not a permutation of the members.
	resync     bool
	ordered    bool
	allSuccess bool
	allFailure bool
}

// arrive records one finalized member firing. It reports true when the
// chain reached its declared length, in which case the state has already
// been reset and the returned result describes the finished cycle.
func (c *chainDecl) arrive(event string, succeeded bool) (chainResult, bool) {
	c.arrivals = append(c.arrivals, event)
	if succeeded {
		c.successes++
	}
	if len(c.arrivals) < len(c.deps) {
		return chainResult{}, false
	}

	res := chainResult{
		arrivals:  c.arrivals,
		successes: c.successes,
	}
	c.arrivals = make([]string, 0, len(c.deps))
	c.successes = 0

	if sortedKey(res.arrivals) != c.sortedKey {
		res.resync = true
		return res, true
	}

	res.ordered = slices.Equal(res.arrivals, c.deps)
	res.allSuccess = res.successes == len(c.deps)
	res.allFailure = res.successes == 0
	return res, true
}

func (c *chainDecl) snapshot() ChainSnapshot {
	return ChainSnapshot{
		Dependencies: slices.Clone(c.deps),
		Arrivals:     slices.Clone(c.arrivals),
		Successes:    c.successes,
	}
}

// chainTable holds every declaration, grouped by owner in declaration order.
type chainTable struct {
	owners  []string
	byOwner map[string][]*chainDecl
}

func newChainTable() *chainTable {
	return &chainTable{
		byOwner: make(map[string][]*chainDecl),
	}
}

// declare returns the declaration for (owner, deps), creating it on first use.
// Content-identical sequences under one owner share a declaration.
func (t *chainTable) declare(owner string, deps []string) *chainDecl {
	key := declaredKey(deps)
	decls, ok := t.byOwner[owner]
	if !ok {
		t.owners = append(t.owners, owner)
	}
	for _, d := range decls {
		if declaredKey(d.deps) == key {
			return d
		}
	}
	d := newChainDecl(owner, deps)
	t.byOwner[owner] = append(decls, d)
	return d
}

// clear drops every declaration owned by owner.
func (t *chainTable) clear(owner string) {
	decls, ok := t.byOwner[owner]
	if !ok {
		return
	}
	for _, d := range decls {
		d.detached = true
	}
	delete(t.byOwner, owner)
	if i := slices.Index(t.owners, owner); i >= 0 {
		t.owners = slices.Delete(t.owners, i, i+1)
	}
}

// containing returns the declarations that list event as a member.
func (t *chainTable) containing(event string) []*chainDecl {
	var out []*chainDecl
	for _, owner := range t.owners {
		for _, d := range t.byOwner[owner] {
			if d.has(event) {
				out = append(out, d)
			}
		}
	}
	return out
}

// wouldCycle reports whether declaring deps under owner would let the
// owner's own firing feed back into it: owner is one of deps, or owner's
// completions already flow into one of deps through existing chains.
func (t *chainTable) wouldCycle(owner string, deps []string) bool {
	targets := make(map[string]struct{}, len(deps))
	for _, d := range deps {
		targets[d] = struct{}{}
	}

	seen := map[string]struct{}{}
	queue := []string{owner}
	for len(queue) > 0 {
		event := queue[0]
		queue = queue[1:]
		if _, ok := targets[event]; ok {
			return true
		}
		if _, ok := seen[event]; ok {
			continue
		}
		seen[event] = struct{}{}
		for _, d := range t.containing(event) {
			queue = append(queue, d.owner)
		}
	}
	return false
}

func (t *chainTable) owned(owner string) []*chainDecl {
	return t.byOwner[owner]
}

// advanceChains feeds a finalized firing of event into every chain that
// lists it and emits completions for the chains it finishes.
func (b *Bus) advanceChains(ctx context.Context, event string, failure int) {
	for _, decl := range b.chains.containing(event) {
		if decl.detached {
			continue
		}

		res, complete := decl.arrive(event, failure == 0)
		if !complete {
			continue
		}

		if res.resync {
			observability.LogChainResync(b.logger, decl.owner, decl.deps, res.arrivals)
			b.metrics.RecordChainResync(ctx, decl.owner)
			b.record(ctx, journal.Record{
				Kind:         journal.KindResync,
				Owner:        decl.owner,
				Dependencies: decl.deps,
				Arrivals:     res.arrivals,
				Total:        len(decl.deps),
				Success:      res.successes,
				Failure:      len(res.arrivals) - res.successes,
			})
			continue
		}

		b.emitCompletion(ctx, decl, res)
	}
}

// emitCompletion delivers the synthesized emissions for one finished chain:
// the base mode always, followed by the specific mode when every member
// succeeded or every member failed. Together they count as one firing of
// the owner.
func (b *Bus) emitCompletion(ctx context.Context, decl *chainDecl, res chainResult) {
	ctx, span := b.spans.StartChainSpan(ctx, decl.owner, decl.deps)
	defer b.spans.EndSpanWithError(span, nil)

	base, mode := classify(res.ordered, res.allSuccess, res.allFailure)
	modes := []ChainMode{base}
	if res.allSuccess || res.allFailure {
		modes = append(modes, mode)
	}

	firing := &completionTally{owner: decl.owner}

	for _, m := range modes {
		completion := Completion{
			Owner:        decl.owner,
			Mode:         m,
			Dependencies: slices.Clone(decl.deps),
			Arrivals:     slices.Clone(res.arrivals),
			Succeeded:    res.successes,
			Failed:       len(res.arrivals) - res.successes,
		}

		observability.LogChainComplete(b.logger, decl.owner, m.String(), decl.deps, res.arrivals)
		b.metrics.RecordChainCompletion(ctx, decl.owner, m.String())
		b.spans.AddSpanEvent(ctx, "chain.completed", attribute.String("mode", m.String()))
		b.record(ctx, journal.Record{
			Kind:         journal.KindChain,
			Owner:        decl.owner,
			Mode:         m.String(),
			Dependencies: decl.deps,
			Arrivals:     res.arrivals,
			Total:        len(decl.deps),
			Success:      completion.Succeeded,
			Failure:      completion.Failed,
		})

		b.dispatch(ctx, decl.owner, &chainTarget{mode: m, sortedKey: decl.sortedKey, tally: firing}, []any{completion})
	}

	b.seal(ctx, firing)
}
