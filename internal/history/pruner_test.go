package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dreamsite/pkg/storage/postgres"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (f *fakePruner) DeleteQuotesBefore(ctx context.Context, before time.Time) error {
	f.mu.Lock()
	f.cutoffs = append(f.cutoffs, before)
	err := f.err
	f.mu.Unlock()
	return err
}

func TestPruneOnceUsesRetention(t *testing.T) {
	store := &fakePruner{}
	p := NewPruner(store, 48*time.Hour, time.Hour, zap.NewNop())
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	require.NoError(t, p.PruneOnce(context.Background()))

	require.Len(t, store.cutoffs, 1)
	assert.Equal(t, now.Add(-48*time.Hour), store.cutoffs[0])
}

// go test -v --run TestPrunerRunsAtStartAndStops
func TestPrunerRunsAtStartAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	core, logs := observer.New(zap.WarnLevel)
	store := &fakePruner{err: errors.New("db down")}
	p := NewPruner(store, time.Hour, time.Hour, zap.New(core))

	p.Start(context.Background())
	require.Eventually(t, func() bool {
		return logs.FilterMessage("failed to prune quotes").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
	p.Stop()
	p.Stop()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.cutoffs, 1)
}

type fakeLister struct {
	token string
	limit int
	rows  []postgres.QuoteRecord
}

func (f *fakeLister) LatestQuotes(ctx context.Context, token string, limit int) ([]postgres.QuoteRecord, error) {
	f.token, f.limit = token, limit
	return f.rows, nil
}

func TestReaderRecent(t *testing.T) {
	at := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	store := &fakeLister{rows: []postgres.QuoteRecord{
		{
			FetchedAt: at,
			Price:     decimal.RequireFromString("0.00012346"),
			Volume24h: decimal.NewFromInt(1000),
			Liquidity: decimal.NewFromInt(2000),
			MarketCap: decimal.NewNullDecimal(decimal.NewFromInt(3000)),
			Change24h: decimal.RequireFromString("-3.25"),
		},
		{FetchedAt: at.Add(-time.Minute), Change24h: decimal.NewFromInt(1)},
	}}

	points, err := NewReader(store, "TOKEN").Recent(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, "TOKEN", store.token)
	assert.Equal(t, 10, store.limit)
	require.Len(t, points, 2)
	assert.Equal(t, "0.00012346", points[0].Price)
	require.NotNil(t, points[0].MarketCap)
	assert.Equal(t, "3000", *points[0].MarketCap)
	assert.Equal(t, "-3.25", points[0].Change24h)
	assert.Nil(t, points[1].MarketCap)
}
