package ports

import (
	"context"
	"time"

	"equitySim/internal/domain"
)

// SnapshotStore persists point-in-time portfolio state. WriteSnapshot is an
// idempotent upsert keyed by (collection, timestamp, ticker): rewriting the
// same tick replaces rather than duplicates, so the portfolio can safely
// hand over the full cumulative table on every market event.
type SnapshotStore interface {
	WriteSnapshot(ctx context.Context, collection string, rows []domain.PositionRow, ts time.Time) error

	// LoadSnapshot returns all rows of a collection ordered by timestamp
	// then ticker, suitable for equity-curve reconstruction.
	LoadSnapshot(ctx context.Context, collection string) ([]domain.PositionRow, error)

	// RecordTrade appends an executed trade to the journal.
	RecordTrade(ctx context.Context, t *domain.Trade) error

	// ListTrades returns the most recent trades for a ticker, up to limit.
	ListTrades(ctx context.Context, ticker string, limit int) ([]*domain.Trade, error)

	Close() error
}
