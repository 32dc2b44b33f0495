// Package valuation prices historical account balances in native units
// using an incrementally extended per-asset daily price cache.
package valuation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dandalion98/s-portfolio/internal/common"
	"github.com/dandalion98/s-portfolio/internal/interfaces"
	"github.com/dandalion98/s-portfolio/internal/models"
)

// Fetch-window padding around the uncovered range, absorbing venues with
// sparse trading.
const (
	padBeforeDays = 30
	padAfterDays  = 3
)

const oneDay = 24 * time.Hour

// AssetPriceHistory caches daily closing prices for one asset against the
// native asset. The covered range only grows; every day strictly inside
// it has a price, with gaps filled by carrying the later known close
// backward.
type AssetPriceHistory struct {
	ticker string
	source interfaces.PriceSource
	logger *common.Logger

	earliest time.Time // zero until the first fetch
	latest   time.Time
	prices   map[int64]decimal.Decimal // day unix -> close
}

// NewAssetPriceHistory creates an empty price history for a ticker.
func NewAssetPriceHistory(ticker string, source interfaces.PriceSource, logger *common.Logger) *AssetPriceHistory {
	return &AssetPriceHistory{
		ticker: ticker,
		source: source,
		logger: logger,
		prices: make(map[int64]decimal.Decimal),
	}
}

// missingRange computes the padded sub-range of [from, to] not yet
// covered. ok is false when the request falls entirely within covered
// bounds and no fetch is needed.
func (h *AssetPriceHistory) missingRange(from, to time.Time) (start, end time.Time, ok bool) {
	if h.earliest.IsZero() || from.Before(h.earliest) {
		start = from
	}
	if h.latest.IsZero() || to.After(h.latest) {
		end = to
	}

	if start.IsZero() && end.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	if start.IsZero() {
		// only extending forward
		start = h.latest
	}
	if end.IsZero() {
		// only extending backward
		end = h.earliest
	}

	start = start.AddDate(0, 0, -padBeforeDays)
	end = end.AddDate(0, 0, padAfterDays)
	return start, end, true
}

// EnsureRange extends the cache so that [from, to] is covered, fetching
// daily aggregated closes for the padded uncovered window and gap-filling
// days with no trade. A day between two known trade days takes the later
// day's close: the price propagates from future-known to past-unknown.
func (h *AssetPriceHistory) EnsureRange(ctx context.Context, from, to time.Time) error {
	start, end, ok := h.missingRange(from, to)
	if !ok {
		return nil
	}

	records, err := h.source.TradeAggregations(ctx, h.ticker, start, end)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		h.logger.Warn().Str("ticker", h.ticker).
			Time("start", start).Time("end", end).
			Msg("No trade aggregations for range")
		return nil
	}

	// records are newest-first
	var newerDay time.Time
	var newerPrice decimal.Decimal
	for _, rec := range records {
		recDay := models.DayOf(rec.Timestamp)

		h.prices[recDay.Unix()] = rec.Close
		if !newerDay.IsZero() {
			for d := recDay.Add(oneDay); d.Before(newerDay); d = d.Add(oneDay) {
				h.prices[d.Unix()] = newerPrice
			}
		}

		if h.earliest.IsZero() || recDay.Before(h.earliest) {
			h.earliest = recDay
		}
		if h.latest.IsZero() || recDay.After(h.latest) {
			h.latest = recDay
		}

		newerDay = recDay
		newerPrice = rec.Close
	}

	return nil
}

// Price returns the cached close for a day. A day outside the cached map
// yields zero and is logged as a data-quality event, never an error.
func (h *AssetPriceHistory) Price(date time.Time) decimal.Decimal {
	price, ok := h.prices[models.DayOf(date).Unix()]
	if !ok {
		h.logger.Debug().Str("ticker", h.ticker).Time("date", date).
			Err(models.ErrMissingPriceData).
			Msg("No cached price for day")
		return decimal.Zero
	}
	return price
}
