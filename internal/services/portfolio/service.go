package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dandalion98/s-portfolio/internal/common"
	"github.com/dandalion98/s-portfolio/internal/interfaces"
	"github.com/dandalion98/s-portfolio/internal/models"
)

// Compile-time interface check
var _ interfaces.PortfolioService = (*Service)(nil)

// Service implements PortfolioService.
type Service struct {
	storage   interfaces.StorageManager
	ledger    interfaces.LedgerClient
	valuation interfaces.ValuationService // nil disables post-sync valuation
	logger    *common.Logger
}

// NewService creates a new portfolio service.
func NewService(storage interfaces.StorageManager, ledger interfaces.LedgerClient, valuation interfaces.ValuationService, logger *common.Logger) *Service {
	return &Service{
		storage:   storage,
		ledger:    ledger,
		valuation: valuation,
		logger:    logger,
	}
}

// SyncAccount runs one full sync cycle for an account. All steps are
// strictly sequential; the lot list and summaries are committed in one
// storage transaction, so a fatal matching error aborts the cycle with
// prior persisted state untouched.
func (s *Service) SyncAccount(ctx context.Context, account *models.Account) error {
	start := time.Now()
	runID := uuid.NewString()[:8]
	logger := &common.Logger{Logger: s.logger.With().Str("account", account.Address).Str("run", runID).Logger()}

	latest, err := s.storage.Summaries().Latest(ctx, account.Address)
	if err != nil {
		return fmt.Errorf("failed to load latest summary: %w", err)
	}

	sinceID := ""
	if latest != nil {
		sinceID = latest.LastEffectID
	}

	raws, err := s.ledger.ListEffects(ctx, account.Address, sinceID)
	if err != nil {
		return fmt.Errorf("failed to list effects: %w", err)
	}
	raws = FilterNewEffects(raws, sinceID)

	balances, err := s.ledger.GetBalances(ctx, account.Address)
	if err != nil {
		return fmt.Errorf("failed to get balances: %w", err)
	}

	effects, parseErrs := ParseEffects(raws)
	for _, perr := range parseErrs {
		logger.Warn().Err(perr).Msg("Dropping malformed effect")
	}
	effects = MergeEffects(effects)

	if len(effects) == 0 {
		logger.Debug().Msg("Account up to date")
		return nil
	}

	ComputeBalances(effects, balances)

	existingOpen, err := s.storage.Positions().OpenPositions(ctx, account.Address)
	if err != nil {
		return fmt.Errorf("failed to load open positions: %w", err)
	}

	candidates := append(ParsePositions(effects), existingOpen...)
	final, err := MatchPositions(candidates, logger)
	if err != nil {
		// invariant violation — abort without committing anything
		return fmt.Errorf("aborting sync for %s: %w", account.Address, err)
	}
	for _, p := range final {
		p.Account = account.Address
	}

	summarizer := NewSummarizer(account.Address, latest)
	summarizer.AddPositions(final)
	summarizer.AddEffects(effects)
	summaries := summarizer.Records()

	if err := s.storage.CommitAccountUpdate(ctx, final, summaries); err != nil {
		return fmt.Errorf("failed to commit account update: %w", err)
	}

	account.LastSynced = time.Now()
	if err := s.storage.Accounts().Save(ctx, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	if err := s.updateAggregations(ctx, account.Address); err != nil {
		logger.Warn().Err(err).Msg("Aggregation update failed")
	}

	if s.valuation != nil {
		if err := s.valuation.ValueSummaries(ctx, summaries); err != nil {
			logger.Warn().Err(err).Msg("Valuation failed")
		}
	}

	logger.Info().
		Int("effects", len(effects)).
		Int("positions", len(final)).
		Int("days", len(summaries)).
		Dur("elapsed", time.Since(start)).
		Msg("Account synced")
	return nil
}

// updateAggregations refreshes the trailing-window ROI rows against the
// account's newest summary. Windows whose start falls after the end
// summary, or with no summary at or before their start, are skipped.
func (s *Service) updateAggregations(ctx context.Context, account string) error {
	end, err := s.storage.Summaries().Latest(ctx, account)
	if err != nil {
		return err
	}
	if end == nil {
		return nil
	}

	now := time.Now()
	for _, days := range models.AggregationWindows {
		aggType := models.AggregationType(days)
		startDate := now.AddDate(0, 0, -days)

		if startDate.After(end.Date) {
			// end summary predates the whole window — too late to update
			continue
		}

		windowStart, err := s.storage.Summaries().AtOrBefore(ctx, account, startDate)
		if err != nil {
			return err
		}
		if windowStart == nil {
			continue
		}

		roi, err := ROI(end, windowStart)
		if err != nil {
			if errors.Is(err, models.ErrZeroBaseInvestment) {
				s.logger.Debug().Str("account", account).Str("window", aggType).
					Msg("ROI not computable: zero base investment")
				continue
			}
			return err
		}

		agg := &models.AccountAggregation{
			ID:                 models.AggregationID(account, aggType),
			Account:            account,
			Type:               aggType,
			Days:               days,
			ROI:                roi,
			TotalProfits:       models.Round(end.TotalProfits.Sub(windowStart.TotalProfits)),
			TotalTrades:        end.TotalTrades - windowStart.TotalTrades,
			TotalWinningTrades: end.TotalWinningTrades - windowStart.TotalWinningTrades,
		}
		if err := s.storage.Aggregations().Save(ctx, agg); err != nil {
			return err
		}
	}

	return nil
}

// OpenPositionAggregates groups the account's remaining open inventory by
// asset, most recently traded first.
func (s *Service) OpenPositionAggregates(ctx context.Context, account string) ([]*models.OpenPositionAggregate, error) {
	positions, err := s.storage.Positions().OpenPositions(ctx, account)
	if err != nil {
		return nil, err
	}

	aggMap := make(map[string]*models.OpenPositionAggregate)
	var aggs []*models.OpenPositionAggregate

	for _, p := range positions {
		agg, ok := aggMap[p.BoughtAsset]
		if !ok {
			agg = &models.OpenPositionAggregate{Asset: p.BoughtAsset}
			aggMap[p.BoughtAsset] = agg
			aggs = append(aggs, agg)
		}

		agg.Positions = append(agg.Positions, p)
		agg.Quantity = models.Round(agg.Quantity.Add(p.OpenAmount))
		agg.CostBasis = models.Round(agg.CostBasis.Add(p.OpenAmount.Mul(p.BoughtPrice)))
		if p.Time.After(agg.LastTime) {
			agg.LastTime = p.Time
		}
	}

	sort.Slice(aggs, func(i, j int) bool { return aggs[i].LastTime.After(aggs[j].LastTime) })
	return aggs, nil
}

// ClosedPositionAggregates groups the account's realized closes by asset,
// most recently traded first.
func (s *Service) ClosedPositionAggregates(ctx context.Context, account string) ([]*models.ClosedPositionAggregate, error) {
	positions, err := s.storage.Positions().ClosedPositions(ctx, account)
	if err != nil {
		return nil, err
	}

	aggMap := make(map[string]*models.ClosedPositionAggregate)
	var aggs []*models.ClosedPositionAggregate

	for _, p := range positions {
		agg, ok := aggMap[p.SoldAsset]
		if !ok {
			agg = &models.ClosedPositionAggregate{Asset: p.SoldAsset}
			aggMap[p.SoldAsset] = agg
			aggs = append(aggs, agg)
		}

		agg.Positions = append(agg.Positions, p)
		agg.Quantity = models.Round(agg.Quantity.Add(p.SoldAmount))
		agg.CostBasis = models.Round(agg.CostBasis.Add(p.SoldAmount.Mul(p.CloseBasisPrice)))
		agg.LiquidationAmount = models.Round(agg.LiquidationAmount.Add(p.BoughtAmount))
		agg.Profits = models.Round(agg.Profits.Add(p.Profit))
		if p.Time.After(agg.LastTime) {
			agg.LastTime = p.Time
		}
	}

	sort.Slice(aggs, func(i, j int) bool { return aggs[i].LastTime.After(aggs[j].LastTime) })
	return aggs, nil
}

// Leaders ranks accounts by trailing-window ROI, positive returns only.
func (s *Service) Leaders(ctx context.Context, window string) ([]*models.AccountAggregation, error) {
	valid := false
	for _, days := range models.AggregationWindows {
		if window == models.AggregationType(days) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("unknown aggregation window %q", window)
	}

	return s.storage.Aggregations().ByType(ctx, window)
}

// ProfitSeries returns [date, total_profits] points over the trailing year.
func (s *Service) ProfitSeries(ctx context.Context, account string) ([]models.SeriesPoint, error) {
	from := time.Now().AddDate(0, 0, -interfaces.SeriesRangeDays)
	summaries, err := s.storage.Summaries().Since(ctx, account, from)
	if err != nil {
		return nil, err
	}

	points := make([]models.SeriesPoint, 0, len(summaries))
	for _, sum := range summaries {
		points = append(points, models.SeriesPoint{Date: sum.Date, Value: sum.TotalProfits})
	}
	return points, nil
}
