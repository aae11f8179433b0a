package history

import (
	"context"
	"time"

	"dreamsite/pkg/storage/postgres"
)

// QuoteLister reads stored quotes newest first.
type QuoteLister interface {
	LatestQuotes(ctx context.Context, token string, limit int) ([]postgres.QuoteRecord, error)
}

// Point is one stored quote as served to clients.
type Point struct {
	FetchedAt time.Time `json:"fetched_at"`
	Price     string    `json:"price"`
	Volume24h string    `json:"volume_24h"`
	Liquidity string    `json:"liquidity"`
	MarketCap *string   `json:"market_cap"`
	Change24h string    `json:"change_24h"`
}

type Reader struct {
	store QuoteLister
	token string
}

func NewReader(store QuoteLister, token string) *Reader {
	return &Reader{store: store, token: token}
}

// Recent returns up to limit points, newest first.
func (r *Reader) Recent(ctx context.Context, limit int) ([]Point, error) {
	records, err := r.store.LatestQuotes(ctx, r.token, limit)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(records))
	for _, rec := range records {
		p := Point{
			FetchedAt: rec.FetchedAt,
			Price:     rec.Price.String(),
			Volume24h: rec.Volume24h.String(),
			Liquidity: rec.Liquidity.String(),
			Change24h: rec.Change24h.String(),
		}
		if rec.MarketCap.Valid {
			mc := rec.MarketCap.Decimal.String()
			p.MarketCap = &mc
		}
		points = append(points, p)
	}
	return points, nil
}
