package postgres

import (
	"context"
	"fmt"
	"time"

	"dreamsite/internal/ticker"

	"gorm.io/gorm/clause"
)

func (p *PostgresClient) InsertQuote(ctx context.Context, record *QuoteRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "token"},
			{Name: "fetched_at"},
		},
		DoNothing: true,
	}).Create(record)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return fmt.Errorf(
			"duplicate quote skipped: token=%s fetched_at=%s",
			record.Token,
			record.FetchedAt.Format(time.RFC3339Nano),
		)
	}

	return nil
}

// LatestQuotes returns up to limit records for token, newest first.
func (p *PostgresClient) LatestQuotes(ctx context.Context, token string, limit int) ([]QuoteRecord, error) {
	var records []QuoteRecord
	err := p.DB.WithContext(ctx).
		Where("token = ?", token).
		Order("fetched_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (p *PostgresClient) DeleteQuotesBefore(ctx context.Context, before time.Time) error {
	return p.DB.WithContext(ctx).
		Where("fetched_at < ?", before).
		Delete(&QuoteRecord{}).Error
}

// ToQuoteRecord converts a ticker snapshot for token into a QuoteRecord for DB insertion.
func ToQuoteRecord(token string, snap ticker.Snapshot) *QuoteRecord {
	q := snap.Quote
	return &QuoteRecord{
		Token:       token,
		FetchedAt:   snap.FetchedAt.UTC(),
		PairAddress: q.PairAddress,
		Price:       q.Price,
		Volume24h:   q.Volume24h,
		Liquidity:   q.Liquidity,
		MarketCap:   q.MarketCap,
		Change24h:   q.Change24h,
	}
}
