package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySummary is one account-day: the day's deltas plus running totals
// carried forward from the latest preceding summary. Running totals form a
// prefix sum over calendar days; days with no activity have no stored
// record and contribute zero delta.
type DailySummary struct {
	ID      string    `json:"id,omitempty" badgerhold:"key"`
	Account string    `json:"account" badgerhold:"index"`
	Date    time.Time `json:"date"` // UTC midnight, inclusive day boundary

	Credits       decimal.Decimal `json:"credits"`
	Debits        decimal.Decimal `json:"debits"`
	Profits       decimal.Decimal `json:"profits"`
	Trades        int             `json:"trades"`
	WinningTrades int             `json:"winning_trades"`

	// EndBalance is the per-asset balance as of the last effect of the day.
	EndBalance Balance `json:"end_balance,omitempty"`
	// LastEffectID is the incremental-resync high-water mark.
	LastEffectID string `json:"last_effect_id,omitempty"`

	TotalCredits       decimal.Decimal `json:"total_credits"`
	TotalDebits        decimal.Decimal `json:"total_debits"`
	TotalProfits       decimal.Decimal `json:"total_profits"`
	TotalTrades        int             `json:"total_trades"`
	TotalWinningTrades int             `json:"total_winning_trades"`

	// ValueNative is the lazily computed valuation of EndBalance in native
	// units. Zero until the valuation resolver has priced the day.
	ValueNative decimal.Decimal `json:"value_native,omitempty"`
}

// SummaryID builds the storage key for an account-day.
func SummaryID(account string, date time.Time) string {
	return account + "/" + date.UTC().Format("2006-01-02")
}

// ApplyTotals chains running totals from the previous summary:
// total_X = prev.total_X + X, rounded.
func (s *DailySummary) ApplyTotals(prev *DailySummary) {
	s.TotalCredits = Round(prev.TotalCredits.Add(s.Credits))
	s.TotalDebits = Round(prev.TotalDebits.Add(s.Debits))
	s.TotalProfits = Round(prev.TotalProfits.Add(s.Profits))
	s.TotalTrades = prev.TotalTrades + s.Trades
	s.TotalWinningTrades = prev.TotalWinningTrades + s.WinningTrades
}

// ChainBase returns a synthetic summary holding the running totals as they
// stood before this summary's own deltas. Used to re-thread totals when
// today's record is updated in place by a second sync cycle.
func (s *DailySummary) ChainBase() *DailySummary {
	return &DailySummary{
		TotalCredits:       Round(s.TotalCredits.Sub(s.Credits)),
		TotalDebits:        Round(s.TotalDebits.Sub(s.Debits)),
		TotalProfits:       Round(s.TotalProfits.Sub(s.Profits)),
		TotalTrades:        s.TotalTrades - s.Trades,
		TotalWinningTrades: s.TotalWinningTrades - s.WinningTrades,
	}
}
