package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteRecord is one polled market quote kept for history.
type QuoteRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	Token     string    `gorm:"type:text;not null;index:idx_quote_token;index:idx_token_fetched_at,unique"`
	FetchedAt time.Time `gorm:"not null;index:idx_token_fetched_at,unique"`

	PairAddress string `gorm:"type:text;not null"`

	Price     decimal.Decimal     `gorm:"type:numeric;not null"`
	Volume24h decimal.Decimal     `gorm:"type:numeric;not null"`
	Liquidity decimal.Decimal     `gorm:"type:numeric;not null"`
	MarketCap decimal.NullDecimal `gorm:"type:numeric"`
	Change24h decimal.Decimal     `gorm:"type:numeric;not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (QuoteRecord) TableName() string {
	return "quote_record"
}
