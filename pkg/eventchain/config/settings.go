package config

import (
	"fmt"
	"time"
)

// Journal drivers accepted by Settings.
const (
	JournalNone   = ""
	JournalMemory = "memory"
	JournalSQLite = "sqlite"
)

// DefaultMaxListeners is the per-event listener cap applied when
// max_listeners is absent.
const DefaultMaxListeners = 10

// Settings is the decoded bus configuration.
type Settings struct {
	// MaxListeners caps listeners per event name. 0 means unlimited.
	MaxListeners int

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// Metrics enables the OpenTelemetry metrics recorder.
	Metrics bool

	// Tracing enables OpenTelemetry spans around dispatch and chain evaluation.
	Tracing bool

	Journal JournalSettings
}

// JournalSettings configures the completion journal.
type JournalSettings struct {
	// Driver selects the store: "", "memory" or "sqlite".
	Driver string

	// DSN is the sqlite data source (file path or ":memory:").
	DSN string

	// Retention is the age after which records are pruned. 0 keeps everything.
	Retention time.Duration

	// PruneSchedule is a five-field cron expression. Defaults to hourly
	// when Retention is set.
	PruneSchedule string
}

// Settings decodes the well-known bus keys and validates them.
//
//	max_listeners: 10
//	log_level: info
//	metrics: false
//	tracing: false
//	journal:
//	  driver: sqlite
//	  dsn: ./journal.db
//	  retention: 24h
//	  prune_schedule: "0 * * * *"
func (c Config) Settings() (Settings, error) {
	s := Settings{
		MaxListeners: c.Int("max_listeners", DefaultMaxListeners),
		LogLevel:     c.String("log_level", "info"),
		Metrics:      c.Bool("metrics", false),
		Tracing:      c.Bool("tracing", false),
		Journal: JournalSettings{
			Driver:        c.String("journal.driver", JournalNone),
			DSN:           c.String("journal.dsn", ""),
			Retention:     c.Duration("journal.retention", 0),
			PruneSchedule: c.String("journal.prune_schedule", ""),
		},
	}

	if s.MaxListeners < 0 {
		return Settings{}, fmt.Errorf("max_listeners must be non-negative, got %d", s.MaxListeners)
	}

	switch s.Journal.Driver {
	case JournalNone, JournalMemory:
	case JournalSQLite:
		if s.Journal.DSN == "" {
			return Settings{}, fmt.Errorf("journal.dsn is required for the sqlite driver")
		}
	default:
		return Settings{}, fmt.Errorf("unknown journal driver: %s", s.Journal.Driver)
	}

	if s.Journal.Retention > 0 && s.Journal.PruneSchedule == "" {
		s.Journal.PruneSchedule = "@hourly"
	}

	return s, nil
}
