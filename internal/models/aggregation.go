package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AggregationWindows are the trailing-day windows maintained per account.
var AggregationWindows = []int{7, 30, 90, 365}

// AggregationType returns the aggregation type name for a window,
// e.g. "last30".
func AggregationType(days int) string {
	return fmt.Sprintf("last%d", days)
}

// AccountAggregation is the realized performance of an account over a
// trailing window, refreshed after each sync cycle.
type AccountAggregation struct {
	ID      string `json:"id,omitempty" badgerhold:"key"`
	Account string `json:"account" badgerhold:"index"`
	Type    string `json:"type" badgerhold:"index"` // e.g. "last7"
	Days    int    `json:"days"`

	ROI                decimal.Decimal `json:"roi"`
	TotalProfits       decimal.Decimal `json:"total_profits"`
	TotalTrades        int             `json:"total_trades"`
	TotalWinningTrades int             `json:"total_winning_trades"`

	UpdatedAt time.Time `json:"updated_at"`
}

// AggregationID builds the storage key for an account window.
func AggregationID(account, aggType string) string {
	return account + "/" + aggType
}

// OpenPositionAggregate summarizes remaining open inventory for one asset.
type OpenPositionAggregate struct {
	Asset     string          `json:"asset"`
	Positions []*Position     `json:"positions"`
	Quantity  decimal.Decimal `json:"quantity"`
	CostBasis decimal.Decimal `json:"cost_basis"`
	LastTime  time.Time       `json:"last_time"`
}

// ClosedPositionAggregate summarizes realized activity for one asset.
type ClosedPositionAggregate struct {
	Asset             string          `json:"asset"`
	Positions         []*Position     `json:"positions"`
	Quantity          decimal.Decimal `json:"quantity"`
	CostBasis         decimal.Decimal `json:"cost_basis"`
	LiquidationAmount decimal.Decimal `json:"liquidation_amount"`
	Profits           decimal.Decimal `json:"profits"`
	LastTime          time.Time       `json:"last_time"`
}
