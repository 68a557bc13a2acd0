package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes records older than a retention age on a cron schedule.
type Pruner struct {
	store     Store
	retention time.Duration
	schedule  string
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewPruner creates a pruner for store. schedule is a standard five-field
// cron expression or a descriptor such as "@hourly".
func NewPruner(store Store, retention time.Duration, schedule string, logger *slog.Logger) (*Pruner, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %s", retention)
	}
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, fmt.Errorf("prune schedule is required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid prune schedule: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pruner{
		store:     store,
		retention: retention,
		schedule:  schedule,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// PruneNow removes expired records immediately.
func (p *Pruner) PruneNow(ctx context.Context) (int, error) {
	cutoff := p.now().Add(-p.retention)
	n, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.logger.Debug("journal pruned",
			slog.Int("removed", n),
			slog.Time("cutoff", cutoff),
		)
	}
	return n, nil
}

// Start begins scheduled pruning. Calling Start twice is a no-op.
func (p *Pruner) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(p.schedule, func() {
		if _, err := p.PruneNow(context.Background()); err != nil {
			p.logger.Warn("journal prune failed", slog.String("error", err.Error()))
		}
	}); err != nil {
		return fmt.Errorf("schedule prune: %w", err)
	}

	c.Start()
	p.cron = c
	p.running = true
	return nil
}

// Stop halts scheduled pruning and waits for a running prune to finish
// or ctx to expire.
func (p *Pruner) Stop(ctx context.Context) error {
	p.mu.Lock()
	c := p.cron
	p.cron = nil
	p.running = false
	p.mu.Unlock()

	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
