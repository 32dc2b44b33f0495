package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeriesPoint is one [date, value] pair in a plot series.
type SeriesPoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}
