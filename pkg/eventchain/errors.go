package eventchain

import (
	"errors"
	"fmt"
)

// Reserved event names.
const (
	// EventError receives bus-level failures such as *CapacityError.
	// Listeners get the error as their only argument.
	EventError = "error"

	// EventListening is the observability tap. Listeners receive
	// (event string, total, success, failure int) after every finalized
	// tally, with a nil Done. It is never tallied itself.
	EventListening = "listening"
)

// Sentinel errors for registration.
var (
	// ErrCapacityExceeded indicates the event already holds the maximum
	// number of listeners.
	ErrCapacityExceeded = errors.New("listener capacity exceeded")

	// ErrEmptyEventName indicates an empty event name was given.
	ErrEmptyEventName = errors.New("event name cannot be empty")

	// ErrNilListener indicates a nil listener was given.
	ErrNilListener = errors.New("listener cannot be nil")

	// ErrInvalidChainMode indicates a chain mode outside 1..6.
	ErrInvalidChainMode = errors.New("invalid chain mode")

	// ErrEmptyChain indicates a chain binding without dependencies.
	ErrEmptyChain = errors.New("chain requires at least one dependency")

	// ErrChainCycle indicates a chain whose owner would feed back into its
	// own dependencies, directly or through other chains.
	ErrChainCycle = errors.New("chain depends on its own owner")

	// ErrInvalidCapacity indicates a negative listener cap.
	ErrInvalidCapacity = errors.New("listener capacity must be non-negative")
)

// CapacityError reports a registration rejected by the listener cap.
type CapacityError struct {
	// Event is the event name that is full.
	Event string
	// Limit is the cap in force at registration time.
	Limit int
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	return fmt.Sprintf("event %q: the listeners length reached max listeners (%d)", e.Event, e.Limit)
}

// Unwrap returns ErrCapacityExceeded for errors.Is support.
func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}
