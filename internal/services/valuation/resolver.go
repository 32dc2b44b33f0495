package valuation

import (
	"context"
	"sort"
	"time"

	"github.com/dandalion98/s-portfolio/internal/common"
	"github.com/dandalion98/s-portfolio/internal/interfaces"
	"github.com/dandalion98/s-portfolio/internal/models"
)

// Service resolves daily summaries to a native-unit portfolio value. It
// keeps one AssetPriceHistory per ticker for the life of the process, so
// repeated sync cycles only fetch the incremental date range.
type Service struct {
	storage   interfaces.StorageManager
	source    interfaces.PriceSource
	logger    *common.Logger
	histories map[string]*AssetPriceHistory
}

var _ interfaces.ValuationService = (*Service)(nil)

// NewService creates the valuation service.
func NewService(storage interfaces.StorageManager, source interfaces.PriceSource, logger *common.Logger) *Service {
	return &Service{
		storage:   storage,
		source:    source,
		logger:    logger,
		histories: make(map[string]*AssetPriceHistory),
	}
}

type dateRange struct {
	from, to time.Time
}

func (r *dateRange) extend(t time.Time) {
	if r.from.IsZero() || t.Before(r.from) {
		r.from = t
	}
	if r.to.IsZero() || t.After(r.to) {
		r.to = t
	}
}

// tickerDateRanges collects, per non-native asset held on any summary
// day, the span of dates that asset needs prices for.
func tickerDateRanges(summaries []*models.DailySummary) map[string]*dateRange {
	ranges := make(map[string]*dateRange)
	for _, rec := range summaries {
		for ticker, amount := range rec.EndBalance {
			if ticker == models.NativeAsset || !amount.IsPositive() {
				continue
			}
			r, ok := ranges[ticker]
			if !ok {
				r = &dateRange{}
				ranges[ticker] = r
			}
			r.extend(rec.Date)
		}
	}
	return ranges
}

func (s *Service) history(ticker string) *AssetPriceHistory {
	h, ok := s.histories[ticker]
	if !ok {
		h = NewAssetPriceHistory(ticker, s.source, s.logger)
		s.histories[ticker] = h
	}
	return h
}

// ValueSummaries computes ValueNative for each summary and persists the
// result. Today's summary is left unvalued since its close price does
// not exist yet. A missing price contributes zero value for that asset
// on that day rather than failing the batch.
func (s *Service) ValueSummaries(ctx context.Context, summaries []*models.DailySummary) error {
	ranges := tickerDateRanges(summaries)

	tickers := make([]string, 0, len(ranges))
	for ticker := range ranges {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	for _, ticker := range tickers {
		r := ranges[ticker]
		if err := s.history(ticker).EnsureRange(ctx, r.from, r.to); err != nil {
			return err
		}
	}

	today := models.DayOf(time.Now().UTC())
	valued := make([]*models.DailySummary, 0, len(summaries))
	for _, rec := range summaries {
		if !rec.Date.Before(today) {
			continue
		}
		value := rec.EndBalance.Get(models.NativeAsset)
		for ticker, amount := range rec.EndBalance {
			if ticker == models.NativeAsset || !amount.IsPositive() {
				continue
			}
			price := s.history(ticker).Price(rec.Date)
			value = value.Add(amount.Mul(price))
		}
		rec.ValueNative = models.Round(value)
		valued = append(valued, rec)
	}

	if len(valued) == 0 {
		return nil
	}
	return s.storage.Summaries().Save(ctx, valued)
}

// ValueSeries returns [date, value_native] points for the account's
// trailing year of summaries, valuing any summary not yet priced.
func (s *Service) ValueSeries(ctx context.Context, account string) ([]models.SeriesPoint, error) {
	from := time.Now().UTC().AddDate(0, 0, -interfaces.SeriesRangeDays)
	summaries, err := s.storage.Summaries().Since(ctx, account, from)
	if err != nil {
		return nil, err
	}

	var unvalued []*models.DailySummary
	for _, rec := range summaries {
		if rec.ValueNative.IsZero() {
			unvalued = append(unvalued, rec)
		}
	}
	if len(unvalued) > 0 {
		if err := s.ValueSummaries(ctx, unvalued); err != nil {
			return nil, err
		}
	}

	points := make([]models.SeriesPoint, 0, len(summaries))
	for _, rec := range summaries {
		points = append(points, models.SeriesPoint{Date: rec.Date, Value: rec.ValueNative})
	}
	return points, nil
}
