// Package journal records finalized tallies and chain completions for
// external monitoring.
//
// The journal is an audit trail only. Chain tracking state lives in the bus
// and is never restored from a journal.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a journal record.
type Kind string

const (
	// KindTally is written for every finalized completion tally.
	KindTally Kind = "tally"

	// KindChain is written for every synthesized chain emission.
	KindChain Kind = "chain"

	// KindResync is written when a chain discards duplicate arrivals.
	KindResync Kind = "resync"
)

// Record is one journal entry.
type Record struct {
	ID        string
	Kind      Kind
	Timestamp time.Time

	// Event is the fired event for tally records.
	Event string

	// Owner, Mode, Dependencies and Arrivals describe chain records.
	Owner        string
	Mode         string
	Dependencies []string
	Arrivals     []string

	Total   int
	Success int
	Failure int
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Kind  Kind
	Event string
	Owner string
	Since time.Time

	// Limit caps the number of records returned. 0 means no limit.
	Limit int
}

func (f Filter) matches(r Record) bool {
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.Event != "" && r.Event != f.Event {
		return false
	}
	if f.Owner != "" && r.Owner != f.Owner {
		return false
	}
	if !f.Since.IsZero() && r.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

// Store persists journal records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stores a record. A missing ID or timestamp is filled in.
	Append(ctx context.Context, rec Record) error

	// List returns matching records in append order.
	List(ctx context.Context, filter Filter) ([]Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Prune deletes records older than before and returns how many were removed.
	Prune(ctx context.Context, before time.Time) (int, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for journal operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal store closed")
)

// normalize fills in the ID and timestamp of a record about to be stored.
func normalize(rec Record) Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	return rec
}
