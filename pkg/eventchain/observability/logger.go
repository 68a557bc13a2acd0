// Package observability provides production-grade observability features
// for eventchain: structured logging, metrics, and distributed tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"strings"
	"time"
)

// EnrichLogger adds bus context to a logger.
// Returns a new logger with the bus_id field.
//
// Example:
//
//	enriched := EnrichLogger(logger, "7f6c...")
//	enriched.Info("doing work") // includes bus_id
func EnrichLogger(logger *slog.Logger, busID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("bus_id", busID),
	)
}

// LogEmit logs a dispatch of an event to its listeners.
func LogEmit(logger *slog.Logger, event string, invoked int, chainDelivery bool) {
	if logger == nil {
		return
	}
	logger.Debug("event emitted",
		slog.String("event", event),
		slog.Int("listeners", invoked),
		slog.Bool("chain_delivery", chainDelivery),
	)
}

// LogTallyFinalized logs a completed tally for one firing of an event.
func LogTallyFinalized(logger *slog.Logger, event string, total, success, failure int) {
	if logger == nil {
		return
	}
	logger.Debug("tally finalized",
		slog.String("event", event),
		slog.Int("total", total),
		slog.Int("success", success),
		slog.Int("failure", failure),
	)
}

// LogChainComplete logs a chain that reached its declared length.
func LogChainComplete(logger *slog.Logger, owner, mode string, deps, arrivals []string) {
	if logger == nil {
		return
	}
	logger.Info("chain completed",
		slog.String("owner", owner),
		slog.String("mode", mode),
		slog.String("dependencies", strings.Join(deps, ",")),
		slog.String("arrivals", strings.Join(arrivals, ",")),
	)
}

// LogChainResync logs a chain whose arrivals did not match its members.
// The chain state is discarded without emitting.
func LogChainResync(logger *slog.Logger, owner string, deps, arrivals []string) {
	if logger == nil {
		return
	}
	logger.Debug("chain resynchronized",
		slog.String("owner", owner),
		slog.String("dependencies", strings.Join(deps, ",")),
		slog.String("arrivals", strings.Join(arrivals, ",")),
	)
}

// LogCapacityExceeded logs a rejected registration.
func LogCapacityExceeded(logger *slog.Logger, event string, limit int, redirected bool) {
	if logger == nil {
		return
	}
	logger.Warn("listener capacity exceeded",
		slog.String("event", event),
		slog.Int("limit", limit),
		slog.Bool("redirected", redirected),
	)
}

// LogListenersRemoved logs a removal pass over an event's listeners.
func LogListenersRemoved(logger *slog.Logger, event string, removed, remaining int, cleared bool) {
	if logger == nil {
		return
	}
	logger.Debug("listeners removed",
		slog.String("event", event),
		slog.Int("removed", removed),
		slog.Int("remaining", remaining),
		slog.Bool("state_cleared", cleared),
	)
}

// LogJournalError logs a journal write failure (non-fatal).
func LogJournalError(logger *slog.Logger, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("journal write failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// ParseLevel maps a level name to a slog.Level.
// Unknown names fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	elapsed := done()
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
