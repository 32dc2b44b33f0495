// Package interfaces defines client, storage, and service contracts for
// s-portfolio
package interfaces

import (
	"context"
	"time"

	"github.com/dandalion98/s-portfolio/internal/models"
)

// LedgerClient fetches raw account data from the ledger network.
type LedgerClient interface {
	// ListEffects returns the account's effects newest-first. When
	// sinceEffectID is non-empty, only effects strictly newer than it are
	// returned.
	ListEffects(ctx context.Context, account string, sinceEffectID string) ([]models.RawEffect, error)

	// GetBalances returns the account's current per-asset balances keyed
	// by normalized asset id.
	GetBalances(ctx context.Context, account string) (models.Balance, error)

	// TradeAggregations returns daily close prices for the asset against
	// the native asset over [start, end], newest-first.
	TradeAggregations(ctx context.Context, asset string, start, end time.Time) ([]models.TradeAggregation, error)
}

// PriceSource is the subset of LedgerClient the valuation layer needs.
type PriceSource interface {
	TradeAggregations(ctx context.Context, asset string, start, end time.Time) ([]models.TradeAggregation, error)
}
