package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// SQLiteStore persists journal records to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) a SQLite journal.
// The path should be a file path (e.g., "./journal.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	rec = normalize(rec)
	deps, err := marshalNames(rec.Dependencies)
	if err != nil {
		return fmt.Errorf("marshal dependencies: %w", err)
	}
	arrivals, err := marshalNames(rec.Arrivals)
	if err != nil {
		return fmt.Errorf("marshal arrivals: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journal (id, kind, event, owner, mode, dependencies, arrivals, total, success, failure, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.Kind), rec.Event, rec.Owner, rec.Mode, deps, arrivals,
		rec.Total, rec.Success, rec.Failure, rec.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var (
		where []string
		args  []any
	)
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Event != "" {
		where = append(where, "event = ?")
		args = append(args, filter.Event)
	}
	if filter.Owner != "" {
		where = append(where, "owner = ?")
		args = append(args, filter.Owner)
	}
	if !filter.Since.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, filter.Since.UnixNano())
	}

	query := `SELECT id, kind, event, owner, mode, dependencies, arrivals, total, success, failure, ts FROM journal`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec            Record
			kind           string
			deps, arrivals string
			ts             int64
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.Event, &rec.Owner, &rec.Mode, &deps, &arrivals,
			&rec.Total, &rec.Success, &rec.Failure, &ts); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Kind = Kind(kind)
		rec.Timestamp = time.Unix(0, ts).UTC()
		if rec.Dependencies, err = unmarshalNames(deps); err != nil {
			return nil, fmt.Errorf("decode dependencies: %w", err)
		}
		if rec.Arrivals, err = unmarshalNames(arrivals); err != nil {
			return nil, fmt.Errorf("decode arrivals: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Prune implements Store.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM journal WHERE ts < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}
	return int(n), nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

func marshalNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	b, err := json.Marshal(names)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalNames(s string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(s), &names); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	return names, nil
}
