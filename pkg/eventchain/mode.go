package eventchain

import (
	"fmt"
	"strings"
)

// ChainMode classifies a completed chain by arrival order and outcome.
// Listeners bound to a chain receive only the emissions tagged with their mode.
type ChainMode int

// Chain modes. The numeric values are stable.
const (
	// ModeNone marks a listener that is not bound to a chain.
	ModeNone ChainMode = iota

	// OrderedAny fires whenever members arrive in declared order.
	OrderedAny

	// OrderedAllSuccess fires when members arrive in declared order and none failed.
	OrderedAllSuccess

	// OrderedAllFailure fires when members arrive in declared order and all failed.
	OrderedAllFailure

	// UnorderedAny fires whenever members complete out of declared order.
	UnorderedAny

	// UnorderedAllSuccess fires when members complete out of order and none failed.
	UnorderedAllSuccess

	// UnorderedAllFailure fires when members complete out of order and all failed.
	UnorderedAllFailure
)

var modeNames = [...]string{
	ModeNone:            "none",
	OrderedAny:          "ordered-any",
	OrderedAllSuccess:   "ordered-all-success",
	OrderedAllFailure:   "ordered-all-failure",
	UnorderedAny:        "unordered-any",
	UnorderedAllSuccess: "unordered-all-success",
	UnorderedAllFailure: "unordered-all-failure",
}

// String returns the kebab-case name of the mode.
func (m ChainMode) String() string {
	if m < ModeNone || int(m) >= len(modeNames) {
		return fmt.Sprintf("ChainMode(%d)", int(m))
	}
	return modeNames[m]
}

// Valid reports whether m is one of the six chain modes.
func (m ChainMode) Valid() bool {
	return m >= OrderedAny && m <= UnorderedAllFailure
}

// Ordered reports whether m belongs to the ordered family.
func (m ChainMode) Ordered() bool {
	return m >= OrderedAny && m <= OrderedAllFailure
}

// Base returns the "any" mode of m's family.
func (m ChainMode) Base() ChainMode {
	switch {
	case m.Ordered():
		return OrderedAny
	case m.Valid():
		return UnorderedAny
	default:
		return ModeNone
	}
}

// ParseChainMode accepts a mode name ("ordered-all-success") or its number ("2").
func ParseChainMode(s string) (ChainMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		m := ChainMode(i)
		if m.Valid() && (s == name || s == fmt.Sprint(i)) {
			return m, nil
		}
	}
	return ModeNone, fmt.Errorf("%w: %q", ErrInvalidChainMode, s)
}

// classify derives the base and specific modes for a completed chain.
func classify(ordered, allSuccess, allFailure bool) (base, mode ChainMode) {
	if ordered {
		base = OrderedAny
	} else {
		base = UnorderedAny
	}

	switch {
	case allSuccess:
		mode = base + 1
	case allFailure:
		mode = base + 2
	default:
		mode = base
	}
	return base, mode
}
