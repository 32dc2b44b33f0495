package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeAggregation is one daily price bucket for an asset traded against
// the native asset.
type TradeAggregation struct {
	Timestamp time.Time       `json:"timestamp"`
	Close     decimal.Decimal `json:"close"`
}
