/*
Package eventchain provides an in-process event emitter that reports when a
set of events has finished.

# Overview

A Bus dispatches events synchronously to their listeners, like a classic
emitter, with two additions:

  - Every listener receives a Done signal and reports when its work for the
    firing is finished, and whether it failed.
  - A listener can be bound to a chain: an ordered list of member events.
    When every member has fired and all of its listeners have reported, the
    bus synthesizes an emission on the chain's owner event, tagged with how
    the chain finished.

# Basic Usage

	bus := eventchain.New()

	bus.On("fetch", func(done eventchain.Done, args ...any) {
	    err := download(args[0].(string))
	    done(err != nil)
	})
	bus.On("parse", func(done eventchain.Done, args ...any) {
	    done(false)
	})

	bus.OnChain("report", eventchain.OrderedAllSuccess, []string{"fetch", "parse"},
	    func(done eventchain.Done, args ...any) {
	        c := args[0].(eventchain.Completion)
	        fmt.Println("report ready:", c.Arrivals)
	        done(false)
	    })

	bus.Emit("fetch", "https://example.com/data.csv")
	bus.Emit("parse")

Done may also be called later, after Emit has returned. A Bus is not safe
for concurrent use, so work finished on another goroutine must be handed
back to the goroutine that owns the bus before calling done.

# Chain Modes

Completed chains are classified by arrival order and outcome:

	OrderedAny          (1) members finished in declared order
	OrderedAllSuccess   (2) ordered, no member failed
	OrderedAllFailure   (3) ordered, every member failed
	UnorderedAny        (4) members finished out of declared order
	UnorderedAllSuccess (5) unordered, no member failed
	UnorderedAllFailure (6) unordered, every member failed

The "any" mode of the family is always emitted. When every member succeeded
or every member failed, the specific mode follows it. Each chain listener
only hears the emission tagged with its own mode. Listeners registered on the
owner without a chain binding hear every emission.

A member firing counts as failed when at least one of its listeners called
done(true). If a member fires twice before the chain finishes, the chain
discards its progress and starts over without emitting.

# Turns

Tally finalization never runs inside a dispatch loop. It is queued and runs
when the outermost bus call returns, so a chain completion is always
observed after every listener of the last member has been invoked.

# Reserved Events

EventError receives registration failures when a listener is present for
it. EventListening receives (event, total, success, failure) after every
finalized tally.

# Observability

Logging, metrics, tracing and a completion journal are opt-in:

	store, _ := journal.NewSQLiteStore("journal.db")
	bus := eventchain.New(
	    eventchain.WithLogger(slog.Default()),
	    eventchain.WithMetrics(observability.NewMetricsRecorder()),
	    eventchain.WithTracing(observability.NewSpanManager()),
	    eventchain.WithJournal(store),
	)

NewFromConfig builds the same setup from a YAML, JSON or TOML file; see
package config.
*/
package eventchain
