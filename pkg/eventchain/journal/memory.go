package journal

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory journal for tests and short-lived processes.
// Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	closed  bool
}

// NewMemoryStore creates a new in-memory journal.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append implements Store.
func (m *MemoryStore) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	rec = normalize(rec)
	rec.Dependencies = append([]string(nil), rec.Dependencies...)
	rec.Arrivals = append([]string(nil), rec.Arrivals...)
	m.records = append(m.records, rec)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, filter Filter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	var out []Record
	for _, rec := range m.records {
		if !filter.matches(rec) {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Count implements Store.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	return len(m.records), nil
}

// Prune implements Store.
func (m *MemoryStore) Prune(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}

	kept := m.records[:0]
	removed := 0
	for _, rec := range m.records {
		if rec.Timestamp.Before(before) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	return removed, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.records = nil
	return nil
}
