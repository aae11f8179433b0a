package ticker

import (
	"errors"
	"fmt"
	"time"

	"dreamsite/pkg/dexscreener"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MarketCapUnavailable replaces the market cap when the quote carries none.
// It is opaque display text, not a number.
const MarketCapUnavailable = "N/A"

const priceDecimals = 8

var (
	ErrNoPairs       = errors.New("quote has no pairs")
	ErrMalformedPair = errors.New("malformed pair record")
)

// Snapshot is the latest formatted market quote. It is built from one pair
// record in full, never patched field by field.
type Snapshot struct {
	Price          string    `json:"priceUsd"`
	Volume24h      string    `json:"volume24h"`
	Liquidity      string    `json:"liquidity"`
	MarketCap      string    `json:"marketCap"`
	PriceChange24h string    `json:"priceChange24h"`
	FetchedAt      time.Time `json:"fetchedAt"`

	Quote Quote `json:"-"`
}

// Quote keeps the unformatted values a snapshot was derived from.
type Quote struct {
	PairAddress string
	Price       decimal.Decimal
	Volume24h   decimal.Decimal
	Liquidity   decimal.Decimal
	MarketCap   decimal.NullDecimal
	Change24h   decimal.Decimal
}

var printer = message.NewPrinter(language.AmericanEnglish)

// FromPairs derives a snapshot from the first pair record.
func FromPairs(pairs []dexscreener.Pair, fetchedAt time.Time) (Snapshot, error) {
	if len(pairs) == 0 {
		return Snapshot{}, ErrNoPairs
	}
	p := pairs[0]

	switch {
	case p.PriceUsd == nil:
		return Snapshot{}, fmt.Errorf("%w: priceUsd missing", ErrMalformedPair)
	case p.Volume == nil || p.Volume.H24 == nil:
		return Snapshot{}, fmt.Errorf("%w: volume.h24 missing", ErrMalformedPair)
	case p.Liquidity == nil || p.Liquidity.Usd == nil:
		return Snapshot{}, fmt.Errorf("%w: liquidity.usd missing", ErrMalformedPair)
	case p.PriceChange == nil || p.PriceChange.H24 == nil:
		return Snapshot{}, fmt.Errorf("%w: priceChange.h24 missing", ErrMalformedPair)
	}

	marketCap := MarketCapUnavailable
	if p.MarketCap.Valid && !p.MarketCap.Decimal.IsZero() {
		marketCap = groupInteger(p.MarketCap.Decimal)
	}

	return Snapshot{
		Price:          p.PriceUsd.StringFixed(priceDecimals),
		Volume24h:      groupInteger(*p.Volume.H24),
		Liquidity:      groupInteger(*p.Liquidity.Usd),
		MarketCap:      marketCap,
		PriceChange24h: p.PriceChange.H24.String(),
		FetchedAt:      fetchedAt,
		Quote: Quote{
			PairAddress: p.PairAddress,
			Price:       *p.PriceUsd,
			Volume24h:   *p.Volume.H24,
			Liquidity:   *p.Liquidity.Usd,
			MarketCap:   p.MarketCap,
			Change24h:   *p.PriceChange.H24,
		},
	}, nil
}

// groupInteger rounds half away from zero and groups thousands with commas.
func groupInteger(d decimal.Decimal) string {
	return printer.Sprintf("%d", d.Round(0).IntPart())
}
