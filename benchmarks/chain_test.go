package benchmarks

import (
	"context"
	"testing"

	"github.com/randalmurphal/eventchain/pkg/eventchain"
	"github.com/randalmurphal/eventchain/pkg/eventchain/journal"
)

// newChainBus builds a bus with an ordered chain "done" over n member events.
func newChainBus(b *testing.B, n int, opts ...eventchain.Option) (*eventchain.Bus, []string) {
	b.Helper()
	bus := eventchain.New(opts...)
	deps := make([]string, n)
	for i := range deps {
		deps[i] = eventName(i)
		if _, err := bus.On(deps[i], succeed); err != nil {
			b.Fatal(err)
		}
	}
	for _, mode := range []eventchain.ChainMode{eventchain.OrderedAny, eventchain.OrderedAllSuccess} {
		if _, err := bus.OnChain("done", mode, deps, succeed); err != nil {
			b.Fatal(err)
		}
	}
	return bus, deps
}

func benchmarkChain(b *testing.B, n int, opts ...eventchain.Option) {
	bus, deps := newChainBus(b, n, opts...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, dep := range deps {
			bus.Emit(dep)
		}
	}
}

// BenchmarkChain_2 measures a full two-member chain cycle.
func BenchmarkChain_2(b *testing.B) {
	benchmarkChain(b, 2)
}

// BenchmarkChain_10 measures a full ten-member chain cycle.
func BenchmarkChain_10(b *testing.B) {
	benchmarkChain(b, 10)
}

// BenchmarkChain_Unordered measures a chain whose members arrive reversed.
func BenchmarkChain_Unordered(b *testing.B) {
	bus, deps := newChainBus(b, 5)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := len(deps) - 1; j >= 0; j-- {
			bus.Emit(deps[j])
		}
	}
}

// BenchmarkChain_MemoryJournal measures the overhead of journaling.
func BenchmarkChain_MemoryJournal(b *testing.B) {
	store := journal.NewMemoryStore()
	defer store.Close()
	benchmarkChain(b, 2, eventchain.WithJournal(store))
}

// BenchmarkChain_SQLiteJournal measures journaling to sqlite.
func BenchmarkChain_SQLiteJournal(b *testing.B) {
	store, err := journal.NewSQLiteStore(b.TempDir() + "/journal.db")
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()
	benchmarkChain(b, 2, eventchain.WithJournal(store))

	b.StopTimer()
	n, err := store.Count(context.Background())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportMetric(float64(n)/float64(b.N), "records/op")
}
