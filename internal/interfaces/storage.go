package interfaces

import (
	"context"
	"time"

	"github.com/dandalion98/s-portfolio/internal/models"
)

// StorageManager coordinates the persistence stores for one deployment.
type StorageManager interface {
	Accounts() AccountStore
	Positions() PositionStore
	Summaries() SummaryStore
	Aggregations() AggregationStore

	// CommitAccountUpdate persists one account's full sync output —
	// positions and day summaries — in a single transaction. A crash
	// mid-cycle can never leave open-amount inventory inconsistent with
	// summary running totals.
	CommitAccountUpdate(ctx context.Context, positions []*models.Position, summaries []*models.DailySummary) error

	Close() error
}

// AccountStore manages tracked accounts.
type AccountStore interface {
	Get(ctx context.Context, address string) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) error
	List(ctx context.Context) ([]*models.Account, error)
	// Delete removes the account and cascades to its positions,
	// summaries, and aggregations.
	Delete(ctx context.Context, address string) error
}

// PositionStore manages trade lots.
type PositionStore interface {
	// OpenPositions returns the account's open lots with remaining
	// OpenAmount > 0, newest-first.
	OpenPositions(ctx context.Context, account string) ([]*models.Position, error)
	// ClosedPositions returns the account's close lots, newest-first.
	ClosedPositions(ctx context.Context, account string) ([]*models.Position, error)
}

// SummaryStore manages daily summaries.
type SummaryStore interface {
	// Latest returns the most recent summary for the account, nil when
	// the account has none.
	Latest(ctx context.Context, account string) (*models.DailySummary, error)
	// AtOrBefore returns the latest summary dated at or before date, nil
	// when none qualifies.
	AtOrBefore(ctx context.Context, account string, date time.Time) (*models.DailySummary, error)
	// Since returns summaries dated at or after from, oldest-first.
	Since(ctx context.Context, account string, from time.Time) ([]*models.DailySummary, error)
	// Save upserts summaries outside a sync commit (valuation refresh).
	Save(ctx context.Context, summaries []*models.DailySummary) error
}

// AggregationStore manages trailing-window ROI rows.
type AggregationStore interface {
	ByAccount(ctx context.Context, account string) ([]*models.AccountAggregation, error)
	// ByType returns aggregations of one window type with ROI > 0,
	// highest first.
	ByType(ctx context.Context, aggType string) ([]*models.AccountAggregation, error)
	Save(ctx context.Context, agg *models.AccountAggregation) error
}
