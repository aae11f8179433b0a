// Package history appends polled market quotes to the quote_record table.
package history

import (
	"context"
	"time"

	"dreamsite/internal/ticker"
	"dreamsite/pkg/storage/postgres"

	"go.uber.org/zap"
)

const insertTimeout = 2 * time.Second

// QuoteInserter stores one quote record.
type QuoteInserter interface {
	InsertQuote(ctx context.Context, record *postgres.QuoteRecord) error
}

// MakeRecorder returns a ticker subscriber that stores each snapshot for
// token. Failures are logged and never reach the ticker.
func MakeRecorder(logger *zap.Logger, token string, store QuoteInserter) func(ticker.Snapshot) {
	logger = logger.Named("history")
	return func(snap ticker.Snapshot) {
		record := postgres.ToQuoteRecord(token, snap)

		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		defer cancel()
		if err := store.InsertQuote(ctx, record); err != nil {
			logger.Warn("failed to insert quote record", zap.Error(err))
			return
		}
		logger.Debug("quote recorded",
			zap.String("token", token),
			zap.Time("fetched_at", record.FetchedAt),
		)
	}
}
