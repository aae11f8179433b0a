package ticker

import (
	"testing"
	"time"

	"dreamsite/pkg/dexscreener"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func samplePair() dexscreener.Pair {
	return dexscreener.Pair{
		PairAddress: "pair-1",
		PriceUsd:    dec("0.000123456789"),
		Volume:      &dexscreener.Window{H24: dec("1234567.5")},
		Liquidity:   &dexscreener.Liquidity{Usd: dec("98765.4")},
		MarketCap:   decimal.NewNullDecimal(decimal.RequireFromString("12345678.49")),
		PriceChange: &dexscreener.Window{H24: dec("-3.25")},
	}
}

// go test -v --run TestFromPairs
func TestFromPairs(t *testing.T) {
	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	snap, err := FromPairs([]dexscreener.Pair{samplePair(), {PriceUsd: dec("99")}}, at)
	require.NoError(t, err)

	assert.Equal(t, "0.00012346", snap.Price)
	assert.Equal(t, "1,234,568", snap.Volume24h)
	assert.Equal(t, "98,765", snap.Liquidity)
	assert.Equal(t, "12,345,678", snap.MarketCap)
	assert.Equal(t, "-3.25", snap.PriceChange24h)
	assert.Equal(t, at, snap.FetchedAt)
	assert.Equal(t, "pair-1", snap.Quote.PairAddress)
}

func TestFromPairsMarketCapSentinel(t *testing.T) {
	missing := samplePair()
	missing.MarketCap = decimal.NullDecimal{}

	snap, err := FromPairs([]dexscreener.Pair{missing}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, MarketCapUnavailable, snap.MarketCap)

	zero := samplePair()
	zero.MarketCap = decimal.NewNullDecimal(decimal.Zero)

	snap, err = FromPairs([]dexscreener.Pair{zero}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "N/A", snap.MarketCap)
}

func TestFromPairsNoPairs(t *testing.T) {
	_, err := FromPairs(nil, time.Now())
	assert.ErrorIs(t, err, ErrNoPairs)

	_, err = FromPairs([]dexscreener.Pair{}, time.Now())
	assert.ErrorIs(t, err, ErrNoPairs)
}

func TestFromPairsMalformed(t *testing.T) {
	cases := map[string]func(p *dexscreener.Pair){
		"price":     func(p *dexscreener.Pair) { p.PriceUsd = nil },
		"volume":    func(p *dexscreener.Pair) { p.Volume = nil },
		"volume24":  func(p *dexscreener.Pair) { p.Volume = &dexscreener.Window{} },
		"liquidity": func(p *dexscreener.Pair) { p.Liquidity = nil },
		"change":    func(p *dexscreener.Pair) { p.PriceChange = nil },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := samplePair()
			mutate(&p)
			_, err := FromPairs([]dexscreener.Pair{p}, time.Now())
			assert.ErrorIs(t, err, ErrMalformedPair)
		})
	}
}
