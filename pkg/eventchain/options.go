package eventchain

import (
	"errors"
	"log/slog"

	"github.com/randalmurphal/eventchain/pkg/eventchain/config"
	"github.com/randalmurphal/eventchain/pkg/eventchain/journal"
	"github.com/randalmurphal/eventchain/pkg/eventchain/observability"
)

// Option configures a Bus.
type Option func(*Bus)

// WithMaxListeners sets the per-event listener cap.
// Default: 10. 0 means unlimited; negative values are ignored.
func WithMaxListeners(n int) Option {
	return func(b *Bus) {
		if n >= 0 {
			b.maxListeners = n
		}
	}
}

// WithLogger sets the structured logger.
// Default: nil (no logging).
//
// The logger is enriched with the bus ID.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = observability.EnrichLogger(logger, b.id)
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}.
//
// Example:
//
//	bus := eventchain.New(eventchain.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(b *Bus) {
		if m != nil {
			b.metrics = m
		}
	}
}

// WithTracing sets the span manager used around dispatch and chain evaluation.
// Default: observability.NoopSpanManager{}.
func WithTracing(s observability.SpanManager) Option {
	return func(b *Bus) {
		if s != nil {
			b.spans = s
		}
	}
}

// WithJournal records finalized tallies, chain completions and resyncs.
// The caller keeps ownership of store; Bus.Close does not close it.
func WithJournal(store journal.Store) Option {
	return func(b *Bus) {
		b.journal = store
	}
}

// optionsFromSettings translates decoded settings into bus options and the
// resources the bus must release on Close.
func optionsFromSettings(s config.Settings, logger *slog.Logger) ([]Option, []closer, error) {
	opts := []Option{WithMaxListeners(s.MaxListeners)}
	var owned []closer

	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	if s.Metrics {
		opts = append(opts, WithMetrics(observability.NewMetricsRecorder()))
	}
	if s.Tracing {
		opts = append(opts, WithTracing(observability.NewSpanManager()))
	}

	var store journal.Store
	switch s.Journal.Driver {
	case config.JournalMemory:
		store = journal.NewMemoryStore()
	case config.JournalSQLite:
		sqlite, err := journal.NewSQLiteStore(s.Journal.DSN)
		if err != nil {
			return nil, nil, err
		}
		store = sqlite
	}

	if store != nil {
		opts = append(opts, WithJournal(store))
		owned = append(owned, storeCloser{store})

		if s.Journal.Retention > 0 {
			pruner, err := startPruner(store, s.Journal, logger)
			if err != nil {
				return nil, nil, err
			}
			// Stop the pruner before the store closes.
			owned = append([]closer{prunerCloser{pruner}}, owned...)
		}
	}

	return opts, owned, nil
}

// startPruner schedules retention pruning on store. The store is closed
// when the pruner cannot start.
func startPruner(store journal.Store, j config.JournalSettings, logger *slog.Logger) (*journal.Pruner, error) {
	pruner, err := journal.NewPruner(store, j.Retention, j.PruneSchedule, logger)
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}
	if err := pruner.Start(); err != nil {
		return nil, errors.Join(err, store.Close())
	}
	return pruner, nil
}
