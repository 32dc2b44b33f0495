package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionType classifies a trade lot.
type PositionType string

const (
	// PositionOpen acquired a non-native asset with native currency.
	PositionOpen PositionType = "open"
	// PositionClose liquidated a non-native asset back to native.
	PositionClose PositionType = "close"
	// PositionConvert swapped one non-native asset for another; never
	// matched and carries no profit.
	PositionConvert PositionType = "convert"
	// PositionCloseUnknown is a close with no open inventory to match
	// against (unknown cost basis). Kept as a data-quality flag.
	PositionCloseUnknown PositionType = "close_unk"
)

// Position is a discrete trade lot, either opening a non-native holding or
// closing it back to the native asset. All amounts are rounded to
// AmountScale.
type Position struct {
	// ID is the persisted record id, empty until first saved. The daily
	// summarizer uses this to avoid double-counting lots from prior runs.
	ID      string       `json:"id,omitempty" badgerhold:"key"`
	Account string       `json:"account" badgerhold:"index"`
	TradeID string       `json:"trade_id"`
	Type    PositionType `json:"type"`

	BoughtAsset  string          `json:"bought_asset"`
	BoughtAmount decimal.Decimal `json:"bought_amount"`
	BoughtPrice  decimal.Decimal `json:"bought_price,omitempty"`
	SoldAsset    string          `json:"sold_asset"`
	SoldAmount   decimal.Decimal `json:"sold_amount"`
	SoldPrice    decimal.Decimal `json:"sold_price,omitempty"`

	// OpenAmount is the remaining unmatched quantity of an open lot. It is
	// monotonically non-increasing as the lot absorbs matches and never
	// goes negative.
	OpenAmount decimal.Decimal `json:"open_amount,omitempty"`

	// CloseBasisPrice is the cost basis captured at match time (close lots).
	CloseBasisPrice decimal.Decimal `json:"close_basis_price,omitempty"`
	// OpenTradeID back-references the open lot this close was matched
	// against. Set only by the matcher, never before.
	OpenTradeID string `json:"open_trade_id,omitempty"`
	// Profit is the realized gain/loss in native units (close lots only).
	Profit decimal.Decimal `json:"profit,omitempty"`

	Time time.Time `json:"time"`
}

// IsOpen reports whether the lot is an open position.
func (p *Position) IsOpen() bool {
	return p.Type == PositionOpen
}

// IsClose reports whether the lot closed inventory back to native,
// including closes with unknown basis.
func (p *Position) IsClose() bool {
	return p.Type == PositionClose || p.Type == PositionCloseUnknown
}

// Persisted reports whether the lot was loaded from storage rather than
// created this cycle.
func (p *Position) Persisted() bool {
	return p.ID != ""
}

// Clone returns a copy of the position.
func (p *Position) Clone() *Position {
	c := *p
	return &c
}
