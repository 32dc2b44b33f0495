package interfaces

import (
	"context"

	"github.com/dandalion98/s-portfolio/internal/models"
)

// SeriesRangeDays is the default lookback for plot series.
const SeriesRangeDays = 365

// PortfolioService owns the account sync cycle and position queries.
type PortfolioService interface {
	// SyncAccount runs one full sync cycle for the account: fetch new
	// effects, normalize, reconstruct balances, match lots, summarize,
	// commit, and refresh trailing-window aggregations.
	SyncAccount(ctx context.Context, account *models.Account) error

	// OpenPositionAggregates groups remaining open inventory by asset.
	OpenPositionAggregates(ctx context.Context, account string) ([]*models.OpenPositionAggregate, error)
	// ClosedPositionAggregates groups realized closes by asset.
	ClosedPositionAggregates(ctx context.Context, account string) ([]*models.ClosedPositionAggregate, error)

	// Leaders ranks accounts by trailing-window ROI (positive only).
	Leaders(ctx context.Context, window string) ([]*models.AccountAggregation, error)

	// ProfitSeries returns [date, total_profits] points for the trailing
	// year of summaries.
	ProfitSeries(ctx context.Context, account string) ([]models.SeriesPoint, error)
}

// ValuationService prices summary end-balances in native units.
type ValuationService interface {
	// ValueSummaries computes and persists ValueNative for the given
	// summaries, fetching any price history not yet cached. Today's
	// summary is skipped (no close price yet).
	ValueSummaries(ctx context.Context, summaries []*models.DailySummary) error

	// ValueSeries returns [date, value_native] points for the trailing
	// year of summaries.
	ValueSeries(ctx context.Context, account string) ([]models.SeriesPoint, error)
}
