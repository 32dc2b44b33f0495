package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/dandalion98/s-portfolio/internal/models"
)

// accountStore implements AccountStore
type accountStore struct {
	m *Manager
}

func (s *accountStore) Get(ctx context.Context, address string) (*models.Account, error) {
	var account models.Account
	err := s.m.store.Get(address, &account)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("account '%s' not found", address)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (s *accountStore) Save(ctx context.Context, account *models.Account) error {
	account.UpdatedAt = time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	if err := s.m.store.Upsert(account.Address, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	s.m.logger.Debug().Str("account", account.Address).Msg("Account saved")
	return nil
}

func (s *accountStore) List(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	if err := s.m.store.Find(&accounts, nil); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// Delete removes the account and everything derived from it.
func (s *accountStore) Delete(ctx context.Context, address string) error {
	byAccount := badgerhold.Where("Account").Eq(address).Index("Account")

	if err := s.m.store.DeleteMatching(&models.Position{}, byAccount); err != nil {
		return fmt.Errorf("failed to delete positions: %w", err)
	}
	if err := s.m.store.DeleteMatching(&models.DailySummary{}, byAccount); err != nil {
		return fmt.Errorf("failed to delete summaries: %w", err)
	}
	if err := s.m.store.DeleteMatching(&models.AccountAggregation{}, byAccount); err != nil {
		return fmt.Errorf("failed to delete aggregations: %w", err)
	}
	if err := s.m.store.Delete(address, models.Account{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.m.logger.Debug().Str("account", address).Msg("Account deleted")
	return nil
}

// positionStore implements PositionStore
type positionStore struct {
	m *Manager
}

func (s *positionStore) byAccount(account string) ([]*models.Position, error) {
	var positions []*models.Position
	query := badgerhold.Where("Account").Eq(account).Index("Account")
	if err := s.m.store.Find(&positions, query); err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	return positions, nil
}

// Decimal fields cannot be compared inside badgerhold queries, so open
// amount and ordering are resolved in Go after the index lookup.
func (s *positionStore) OpenPositions(ctx context.Context, account string) ([]*models.Position, error) {
	all, err := s.byAccount(account)
	if err != nil {
		return nil, err
	}

	open := make([]*models.Position, 0, len(all))
	for _, p := range all {
		if p.IsOpen() && p.OpenAmount.IsPositive() {
			open = append(open, p)
		}
	}
	sortNewestFirst(open)
	return open, nil
}

func (s *positionStore) ClosedPositions(ctx context.Context, account string) ([]*models.Position, error) {
	all, err := s.byAccount(account)
	if err != nil {
		return nil, err
	}

	closed := make([]*models.Position, 0, len(all))
	for _, p := range all {
		if p.IsClose() {
			closed = append(closed, p)
		}
	}
	sortNewestFirst(closed)
	return closed, nil
}

func sortNewestFirst(positions []*models.Position) {
	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].Time.After(positions[j].Time)
	})
}

// summaryStore implements SummaryStore
type summaryStore struct {
	m *Manager
}

func (s *summaryStore) byAccount(account string) ([]*models.DailySummary, error) {
	var summaries []*models.DailySummary
	query := badgerhold.Where("Account").Eq(account).Index("Account")
	if err := s.m.store.Find(&summaries, query); err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Date.Before(summaries[j].Date)
	})
	return summaries, nil
}

func (s *summaryStore) Latest(ctx context.Context, account string) (*models.DailySummary, error) {
	all, err := s.byAccount(account)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[len(all)-1], nil
}

func (s *summaryStore) AtOrBefore(ctx context.Context, account string, date time.Time) (*models.DailySummary, error) {
	all, err := s.byAccount(account)
	if err != nil {
		return nil, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		if !all[i].Date.After(date) {
			return all[i], nil
		}
	}
	return nil, nil
}

func (s *summaryStore) Since(ctx context.Context, account string, from time.Time) ([]*models.DailySummary, error) {
	all, err := s.byAccount(account)
	if err != nil {
		return nil, err
	}
	out := make([]*models.DailySummary, 0, len(all))
	for _, rec := range all {
		if !rec.Date.Before(from) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *summaryStore) Save(ctx context.Context, summaries []*models.DailySummary) error {
	for _, rec := range summaries {
		if rec.ID == "" {
			rec.ID = models.SummaryID(rec.Account, rec.Date)
		}
		if err := s.m.store.Upsert(rec.ID, rec); err != nil {
			return fmt.Errorf("failed to save summary %s: %w", rec.ID, err)
		}
	}
	return nil
}

// aggregationStore implements AggregationStore
type aggregationStore struct {
	m *Manager
}

func (s *aggregationStore) ByAccount(ctx context.Context, account string) ([]*models.AccountAggregation, error) {
	var aggs []*models.AccountAggregation
	query := badgerhold.Where("Account").Eq(account).Index("Account")
	if err := s.m.store.Find(&aggs, query); err != nil {
		return nil, fmt.Errorf("failed to query aggregations: %w", err)
	}
	sort.Slice(aggs, func(i, j int) bool {
		return aggs[i].Days < aggs[j].Days
	})
	return aggs, nil
}

func (s *aggregationStore) ByType(ctx context.Context, aggType string) ([]*models.AccountAggregation, error) {
	var aggs []*models.AccountAggregation
	query := badgerhold.Where("Type").Eq(aggType).Index("Type")
	if err := s.m.store.Find(&aggs, query); err != nil {
		return nil, fmt.Errorf("failed to query aggregations: %w", err)
	}

	ranked := make([]*models.AccountAggregation, 0, len(aggs))
	for _, agg := range aggs {
		if agg.ROI.IsPositive() {
			ranked = append(ranked, agg)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].ROI.GreaterThan(ranked[j].ROI)
	})
	return ranked, nil
}

func (s *aggregationStore) Save(ctx context.Context, agg *models.AccountAggregation) error {
	if agg.ID == "" {
		agg.ID = models.AggregationID(agg.Account, agg.Type)
	}
	agg.UpdatedAt = time.Now()
	if err := s.m.store.Upsert(agg.ID, agg); err != nil {
		return fmt.Errorf("failed to save aggregation %s: %w", agg.ID, err)
	}
	return nil
}

// CommitAccountUpdate writes one sync cycle's positions and summaries in
// a single badger transaction. New positions get their record ids here.
func (m *Manager) CommitAccountUpdate(ctx context.Context, positions []*models.Position, summaries []*models.DailySummary) error {
	err := m.store.Badger().Update(func(tx *badger.Txn) error {
		for _, p := range positions {
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			if err := m.store.TxUpsert(tx, p.ID, p); err != nil {
				return fmt.Errorf("failed to upsert position %s: %w", p.ID, err)
			}
		}
		for _, rec := range summaries {
			if rec.ID == "" {
				rec.ID = models.SummaryID(rec.Account, rec.Date)
			}
			if err := m.store.TxUpsert(tx, rec.ID, rec); err != nil {
				return fmt.Errorf("failed to upsert summary %s: %w", rec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("account update commit: %w", err)
	}

	m.logger.Debug().
		Int("positions", len(positions)).
		Int("summaries", len(summaries)).
		Msg("Account update committed")
	return nil
}
