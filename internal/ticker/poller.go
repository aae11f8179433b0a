// Package ticker polls the public quote API for the token and keeps the
// latest formatted market snapshot.
package ticker

import (
	"context"
	"errors"
	"sync"
	"time"

	"dreamsite/pkg/dexscreener"

	"go.uber.org/zap"
)

// DefaultInterval is the poll cadence.
const DefaultInterval = 30 * time.Second

// Source fetches the pair records for a token.
type Source interface {
	GetTokenPairs(ctx context.Context, tokenAddress string) ([]dexscreener.Pair, error)
}

type Options struct {
	TokenAddress string
	Interval     time.Duration
	Timeout      time.Duration // per fetch; zero means the interval
}

// Poller fetches a quote immediately on Start and then on every interval
// until Stop. A failed cycle leaves the previous snapshot in place.
type Poller struct {
	source Source
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	snapshot *Snapshot
	stopped  bool

	subMu       sync.Mutex
	nextSubID   int
	subscribers map[int]func(Snapshot)

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewPoller(source Source, opts Options, logger *zap.Logger) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = opts.Interval
	}
	return &Poller{
		source:      source,
		opts:        opts,
		logger:      logger.Named("ticker"),
		now:         time.Now,
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Start launches the polling loop. Calling Start on a running or stopped
// poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	p.mu.RLock()
	stopped := p.stopped
	p.mu.RUnlock()
	if p.done != nil || stopped {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx, p.done)
}

func (p *Poller) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	// Run immediately once at startup
	p.poll(ctx)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// Stop cancels the schedule and waits for the loop to exit. It is safe to
// call more than once and before Start.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.lifecycleMu.Lock()
	cancel, done := p.cancel, p.done
	p.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Snapshot returns the latest snapshot, or false before the first successful fetch.
func (p *Poller) Snapshot() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.snapshot == nil {
		return Snapshot{}, false
	}
	return *p.snapshot, true
}

// Subscribe registers fn to receive every new snapshot. fn runs on the
// polling goroutine, so a slow subscriber delays the next poll.
func (p *Poller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	p.subMu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	p.subMu.Unlock()

	return func() {
		p.subMu.Lock()
		delete(p.subscribers, id)
		p.subMu.Unlock()
	}
}

func (p *Poller) poll(ctx context.Context) {
	snap, err := p.fetch(ctx)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
		case errors.Is(err, ErrNoPairs):
			p.logger.Debug("quote returned no pairs", zap.String("token", p.opts.TokenAddress))
		default:
			p.logger.Warn("failed to fetch token quote", zap.String("token", p.opts.TokenAddress), zap.Error(err))
		}
		return
	}

	if !p.commit(ctx, snap) {
		return
	}
	p.logger.Debug("ticker snapshot replaced",
		zap.String("price", snap.Price),
		zap.String("change24h", snap.PriceChange24h))
	p.publish(snap)
}

func (p *Poller) fetch(ctx context.Context) (Snapshot, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	pairs, err := p.source.GetTokenPairs(fetchCtx, p.opts.TokenAddress)
	if err != nil {
		return Snapshot{}, err
	}
	return FromPairs(pairs, p.now())
}

// commit swaps in snap unless the poller was stopped while the fetch was in flight.
func (p *Poller) commit(ctx context.Context, snap Snapshot) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || ctx.Err() != nil {
		return false
	}
	p.snapshot = &snap
	return true
}

func (p *Poller) publish(snap Snapshot) {
	p.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	p.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
