package journal_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventchain/pkg/eventchain/journal"
)

// storeFactories runs the same contract against every Store implementation.
func storeFactories(t *testing.T) map[string]func() journal.Store {
	return map[string]func() journal.Store{
		"memory": func() journal.Store {
			return journal.NewMemoryStore()
		},
		"sqlite": func() journal.Store {
			s, err := journal.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_AppendAndList(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			require.NoError(t, store.Append(ctx, journal.Record{
				Kind: journal.KindTally, Event: "a", Total: 2, Success: 2,
			}))
			require.NoError(t, store.Append(ctx, journal.Record{
				Kind:         journal.KindChain,
				Owner:        "x",
				Mode:         "ordered-all-success",
				Dependencies: []string{"a", "b"},
				Arrivals:     []string{"a", "b"},
				Total:        2,
				Success:      2,
			}))

			records, err := store.List(ctx, journal.Filter{})
			require.NoError(t, err)
			require.Len(t, records, 2)

			assert.Equal(t, journal.KindTally, records[0].Kind)
			assert.NotEmpty(t, records[0].ID)
			assert.False(t, records[0].Timestamp.IsZero())
			assert.Equal(t, 2, records[0].Success)
			assert.Nil(t, records[0].Dependencies)

			assert.Equal(t, journal.KindChain, records[1].Kind)
			assert.Equal(t, []string{"a", "b"}, records[1].Dependencies)
			assert.Equal(t, []string{"a", "b"}, records[1].Arrivals)
			assert.Equal(t, "ordered-all-success", records[1].Mode)

			n, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
		})
	}
}

func TestStore_ListFilter(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			for i, rec := range []journal.Record{
				{Kind: journal.KindTally, Event: "a"},
				{Kind: journal.KindTally, Event: "b"},
				{Kind: journal.KindChain, Owner: "x"},
				{Kind: journal.KindResync, Owner: "x"},
				{Kind: journal.KindTally, Event: "a"},
			} {
				rec.Timestamp = base.Add(time.Duration(i) * time.Minute)
				require.NoError(t, store.Append(ctx, rec))
			}

			byKind, err := store.List(ctx, journal.Filter{Kind: journal.KindTally})
			require.NoError(t, err)
			assert.Len(t, byKind, 3)

			byEvent, err := store.List(ctx, journal.Filter{Event: "a"})
			require.NoError(t, err)
			assert.Len(t, byEvent, 2)

			byOwner, err := store.List(ctx, journal.Filter{Owner: "x"})
			require.NoError(t, err)
			assert.Len(t, byOwner, 2)

			since, err := store.List(ctx, journal.Filter{Since: base.Add(3 * time.Minute)})
			require.NoError(t, err)
			require.Len(t, since, 2)
			assert.Equal(t, journal.KindResync, since[0].Kind)

			limited, err := store.List(ctx, journal.Filter{Limit: 2})
			require.NoError(t, err)
			require.Len(t, limited, 2)
			assert.Equal(t, "a", limited[0].Event)
			assert.Equal(t, "b", limited[1].Event)
		})
	}
}

func TestStore_Prune(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			now := time.Now().UTC()
			require.NoError(t, store.Append(ctx, journal.Record{Kind: journal.KindTally, Event: "old", Timestamp: now.Add(-2 * time.Hour)}))
			require.NoError(t, store.Append(ctx, journal.Record{Kind: journal.KindTally, Event: "new", Timestamp: now}))

			removed, err := store.Prune(ctx, now.Add(-time.Hour))
			require.NoError(t, err)
			assert.Equal(t, 1, removed)

			records, err := store.List(ctx, journal.Filter{})
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "new", records[0].Event)
		})
	}
}

func TestStore_Closed(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			require.NoError(t, store.Close())
			ctx := context.Background()

			assert.ErrorIs(t, store.Append(ctx, journal.Record{Kind: journal.KindTally}), journal.ErrStoreClosed)

			_, err := store.List(ctx, journal.Filter{})
			assert.ErrorIs(t, err, journal.ErrStoreClosed)

			_, err = store.Count(ctx)
			assert.ErrorIs(t, err, journal.ErrStoreClosed)

			_, err = store.Prune(ctx, time.Now())
			assert.ErrorIs(t, err, journal.ErrStoreClosed)

			assert.NoError(t, store.Close(), "double close is safe")
		})
	}
}

func TestSQLiteStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	store1, err := journal.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store1.Append(ctx, journal.Record{Kind: journal.KindTally, Event: "persisted"}))
	require.NoError(t, store1.Close())

	store2, err := journal.NewSQLiteStore(path)
	require.NoError(t, err)
	defer store2.Close()

	records, err := store2.List(ctx, journal.Filter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "persisted", records[0].Event)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := journal.NewSQLiteStore("/nonexistent/path/journal.db")
	assert.Error(t, err)
}
