package ticker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dreamsite/pkg/dexscreener"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type result struct {
	pairs []dexscreener.Pair
	err   error
}

// scriptedSource replays results in order and repeats the last one.
type scriptedSource struct {
	mu      sync.Mutex
	results []result
	calls   int
}

func (s *scriptedSource) GetTokenPairs(ctx context.Context, _ string) ([]dexscreener.Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i].pairs, s.results[i].err
}

func (s *scriptedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func pairWithPrice(price string) dexscreener.Pair {
	p := samplePair()
	p.PriceUsd = dec(price)
	return p
}

func newTestPoller(src Source, interval time.Duration) *Poller {
	return NewPoller(src, Options{TokenAddress: "TOKEN", Interval: interval}, zap.NewNop())
}

// go test -v --run TestPollerFetchesImmediately
func TestPollerFetchesImmediately(t *testing.T) {
	src := &scriptedSource{results: []result{{pairs: []dexscreener.Pair{pairWithPrice("1.5")}}}}
	p := newTestPoller(src, time.Hour)

	_, ok := p.Snapshot()
	assert.False(t, ok)

	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool {
		_, ok := p.Snapshot()
		return ok
	}, time.Second, 5*time.Millisecond)

	snap, _ := p.Snapshot()
	assert.Equal(t, "1.50000000", snap.Price)
	assert.Equal(t, 1, src.Calls())
}

func TestPollerEmptyPairsKeepsAbsent(t *testing.T) {
	src := &scriptedSource{results: []result{{pairs: []dexscreener.Pair{}}}}
	p := newTestPoller(src, 10*time.Millisecond)

	p.Start(context.Background())
	require.Eventually(t, func() bool { return src.Calls() >= 3 }, time.Second, 5*time.Millisecond)
	p.Stop()

	_, ok := p.Snapshot()
	assert.False(t, ok)
}

func TestPollerFailuresKeepPriorSnapshot(t *testing.T) {
	src := &scriptedSource{results: []result{
		{pairs: []dexscreener.Pair{pairWithPrice("2")}},
		{err: errors.New("connection reset")},
		{pairs: []dexscreener.Pair{{PriceUsd: dec("3")}}}, // malformed
		{pairs: nil},
	}}
	p := newTestPoller(src, 10*time.Millisecond)

	var mu sync.Mutex
	var published []Snapshot
	unsubscribe := p.Subscribe(func(s Snapshot) {
		mu.Lock()
		published = append(published, s)
		mu.Unlock()
	})
	defer unsubscribe()

	p.Start(context.Background())
	require.Eventually(t, func() bool { return src.Calls() >= 6 }, time.Second, 5*time.Millisecond)
	p.Stop()

	snap, ok := p.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "2.00000000", snap.Price)
	assert.Equal(t, "1,234,568", snap.Volume24h)
	assert.Equal(t, "-3.25", snap.PriceChange24h)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, published, 1)
}

func TestPollerReplacesWholesale(t *testing.T) {
	second := samplePair()
	second.PriceUsd = dec("9")
	second.Volume = &dexscreener.Window{H24: dec("10")}
	second.PriceChange = &dexscreener.Window{H24: dec("4")}
	second.MarketCap.Valid = false

	src := &scriptedSource{results: []result{
		{pairs: []dexscreener.Pair{samplePair()}},
		{pairs: []dexscreener.Pair{second}},
	}}
	p := newTestPoller(src, 10*time.Millisecond)

	p.Start(context.Background())
	require.Eventually(t, func() bool {
		s, ok := p.Snapshot()
		return ok && s.Price == "9.00000000"
	}, time.Second, 5*time.Millisecond)
	p.Stop()

	snap, _ := p.Snapshot()
	assert.Equal(t, "10", snap.Volume24h)
	assert.Equal(t, "4", snap.PriceChange24h)
	assert.Equal(t, MarketCapUnavailable, snap.MarketCap)
}

// blockingSource holds the fetch until the context is cancelled.
type blockingSource struct {
	entered chan struct{}
}

func (b *blockingSource) GetTokenPairs(ctx context.Context, _ string) ([]dexscreener.Pair, error) {
	close(b.entered)
	<-ctx.Done()
	return []dexscreener.Pair{samplePair()}, nil
}

func TestPollerStopDiscardsInFlight(t *testing.T) {
	src := &blockingSource{entered: make(chan struct{})}
	p := newTestPoller(src, time.Hour)

	p.Start(context.Background())
	<-src.entered
	p.Stop()

	_, ok := p.Snapshot()
	assert.False(t, ok)
}

func TestPollerStopIdempotent(t *testing.T) {
	src := &scriptedSource{results: []result{{pairs: []dexscreener.Pair{samplePair()}}}}
	p := newTestPoller(src, time.Hour)

	p.Stop()
	p.Start(context.Background())
	p.Stop()

	assert.Equal(t, 0, src.Calls())

	p2 := newTestPoller(src, time.Hour)
	p2.Start(context.Background())
	p2.Start(context.Background())
	p2.Stop()
	p2.Stop()
}

func TestPollerParentContextCancel(t *testing.T) {
	src := &scriptedSource{results: []result{{pairs: []dexscreener.Pair{samplePair()}}}}
	p := newTestPoller(src, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	require.Eventually(t, func() bool { return src.Calls() >= 2 }, time.Second, time.Millisecond)
	cancel()
	p.Stop()

	calls := src.Calls()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, src.Calls())
}
