package history

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const pruneTimeout = 30 * time.Second

// QuotePruner deletes quote records older than a cutoff.
type QuotePruner interface {
	DeleteQuotesBefore(ctx context.Context, before time.Time) error
}

// Pruner drops quote records older than the retention window. It runs once
// at Start and then every interval.
type Pruner struct {
	store     QuotePruner
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPruner(store QuotePruner, retention, interval time.Duration, logger *zap.Logger) *Pruner {
	return &Pruner{
		store:     store,
		retention: retention,
		interval:  interval,
		logger:    logger.Named("history"),
		now:       time.Now,
	}
}

// PruneOnce deletes everything fetched before now minus the retention window.
func (p *Pruner) PruneOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pruneTimeout)
	defer cancel()

	cutoff := p.now().UTC().Add(-p.retention)
	if err := p.store.DeleteQuotesBefore(ctx, cutoff); err != nil {
		return err
	}
	p.logger.Debug("old quotes pruned", zap.Time("before", cutoff))
	return nil
}

func (p *Pruner) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)

		t := time.NewTicker(p.interval)
		defer t.Stop()

		for {
			if err := p.PruneOnce(ctx); err != nil && ctx.Err() == nil {
				p.logger.Warn("failed to prune quotes", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}(p.done)
}

// Stop cancels the schedule and waits for the loop to exit. Safe to call twice.
func (p *Pruner) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
