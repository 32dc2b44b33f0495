package valuation

import (
	"context"
	"testing"
	"time"

	"github.com/dandalion98/s-portfolio/internal/common"
	"github.com/dandalion98/s-portfolio/internal/interfaces"
	"github.com/dandalion98/s-portfolio/internal/models"
)

// summaryOnlyStorage satisfies StorageManager for valuation tests; only
// the summary store is exercised.
type summaryOnlyStorage struct {
	saved []*models.DailySummary
	since []*models.DailySummary
}

func (s *summaryOnlyStorage) Accounts() interfaces.AccountStore         { return nil }
func (s *summaryOnlyStorage) Positions() interfaces.PositionStore       { return nil }
func (s *summaryOnlyStorage) Aggregations() interfaces.AggregationStore { return nil }
func (s *summaryOnlyStorage) Summaries() interfaces.SummaryStore        { return (*summaryOnlyStore)(s) }
func (s *summaryOnlyStorage) Close() error                              { return nil }
func (s *summaryOnlyStorage) CommitAccountUpdate(ctx context.Context, positions []*models.Position, summaries []*models.DailySummary) error {
	return nil
}

type summaryOnlyStore summaryOnlyStorage

func (s *summaryOnlyStore) Latest(ctx context.Context, account string) (*models.DailySummary, error) {
	return nil, nil
}
func (s *summaryOnlyStore) AtOrBefore(ctx context.Context, account string, date time.Time) (*models.DailySummary, error) {
	return nil, nil
}
func (s *summaryOnlyStore) Since(ctx context.Context, account string, from time.Time) ([]*models.DailySummary, error) {
	return s.since, nil
}
func (s *summaryOnlyStore) Save(ctx context.Context, summaries []*models.DailySummary) error {
	s.saved = append(s.saved, summaries...)
	return nil
}

func pastDay(daysAgo int) time.Time {
	return models.DayOf(time.Now().UTC()).AddDate(0, 0, -daysAgo)
}

func TestValueSummaries_PricesNonNativeHoldings(t *testing.T) {
	source := &fakeSource{records: []models.TradeAggregation{
		{Timestamp: pastDay(1), Close: dec("0.6")},
		{Timestamp: pastDay(2), Close: dec("0.5")},
	}}
	storage := &summaryOnlyStorage{}
	svc := NewService(storage, source, common.NewSilentLogger())

	summaries := []*models.DailySummary{
		{Account: "ACC", Date: pastDay(2),
			EndBalance: models.Balance{"native": dec("100"), "BTC-G1": dec("40")}},
		{Account: "ACC", Date: pastDay(1),
			EndBalance: models.Balance{"native": dec("100"), "BTC-G1": dec("40")}},
	}

	if err := svc.ValueSummaries(context.Background(), summaries); err != nil {
		t.Fatalf("ValueSummaries: %v", err)
	}

	// value = native + amount * close: 100 + 40*0.5, then 100 + 40*0.6
	if !summaries[0].ValueNative.Equal(dec("120")) {
		t.Errorf("day-2 value = %s, want 120", summaries[0].ValueNative)
	}
	if !summaries[1].ValueNative.Equal(dec("124")) {
		t.Errorf("day-1 value = %s, want 124", summaries[1].ValueNative)
	}
	if len(storage.saved) != 2 {
		t.Errorf("saved = %d summaries, want 2", len(storage.saved))
	}
}

func TestValueSummaries_TodaySkipped(t *testing.T) {
	source := &fakeSource{records: []models.TradeAggregation{
		{Timestamp: pastDay(0), Close: dec("0.5")},
	}}
	storage := &summaryOnlyStorage{}
	svc := NewService(storage, source, common.NewSilentLogger())

	summaries := []*models.DailySummary{
		{Account: "ACC", Date: pastDay(0),
			EndBalance: models.Balance{"native": dec("100"), "BTC-G1": dec("40")}},
	}

	if err := svc.ValueSummaries(context.Background(), summaries); err != nil {
		t.Fatalf("ValueSummaries: %v", err)
	}

	if !summaries[0].ValueNative.IsZero() {
		t.Errorf("today valued = %s, want skipped", summaries[0].ValueNative)
	}
	if len(storage.saved) != 0 {
		t.Errorf("saved = %d, want none", len(storage.saved))
	}
}

func TestValueSummaries_NativeOnlyNeedsNoPrices(t *testing.T) {
	source := &fakeSource{}
	storage := &summaryOnlyStorage{}
	svc := NewService(storage, source, common.NewSilentLogger())

	summaries := []*models.DailySummary{
		{Account: "ACC", Date: pastDay(1), EndBalance: models.Balance{"native": dec("100")}},
	}

	if err := svc.ValueSummaries(context.Background(), summaries); err != nil {
		t.Fatalf("ValueSummaries: %v", err)
	}

	if len(source.calls) != 0 {
		t.Errorf("price fetches = %d, want none", len(source.calls))
	}
	if !summaries[0].ValueNative.Equal(dec("100")) {
		t.Errorf("value = %s, want 100", summaries[0].ValueNative)
	}
}

func TestValueSeries_ValuesUnpricedDays(t *testing.T) {
	source := &fakeSource{records: []models.TradeAggregation{
		{Timestamp: pastDay(1), Close: dec("0.5")},
	}}
	storage := &summaryOnlyStorage{
		since: []*models.DailySummary{
			{Account: "ACC", Date: pastDay(2), ValueNative: dec("90")},
			{Account: "ACC", Date: pastDay(1),
				EndBalance: models.Balance{"BTC-G1": dec("40")}},
		},
	}
	svc := NewService(storage, source, common.NewSilentLogger())

	points, err := svc.ValueSeries(context.Background(), "ACC")
	if err != nil {
		t.Fatalf("ValueSeries: %v", err)
	}

	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if !points[0].Value.Equal(dec("90")) {
		t.Errorf("day-2 = %s, want cached 90", points[0].Value)
	}
	// freshly valued: 40 * 0.5
	if !points[1].Value.Equal(dec("20")) {
		t.Errorf("day-1 = %s, want 20", points[1].Value)
	}
}
