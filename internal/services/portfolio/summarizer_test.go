package portfolio

import (
	"testing"
	"time"

	"github.com/dandalion98/s-portfolio/internal/models"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestSummarizer_BucketsEffectsByDay(t *testing.T) {
	// Chronologically: day 1 credit 100, day 1 debit 10, day 2 credit 50.
	// Effects arrive newest-first with reconstructed end balances.
	effects := []models.Effect{
		{ID: "e3", Type: models.EffectCredit, Time: ts(2, 9), Asset: "native", Amount: dec("50"),
			EndBalance: models.Balance{"native": dec("140")}},
		{ID: "e2", Type: models.EffectDebit, Time: ts(1, 12), Asset: "native", Amount: dec("10"),
			EndBalance: models.Balance{"native": dec("90")}},
		{ID: "e1", Type: models.EffectCredit, Time: ts(1, 9), Asset: "native", Amount: dec("100"),
			EndBalance: models.Balance{"native": dec("100")}},
	}

	s := NewSummarizer("ACC", nil)
	s.AddEffects(effects)
	records := s.Records()

	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	d1, d2 := records[0], records[1]
	if !d1.Date.Equal(day(1)) || !d2.Date.Equal(day(2)) {
		t.Fatalf("dates = %s/%s, want day1/day2", d1.Date, d2.Date)
	}

	if !d1.Credits.Equal(dec("100")) || !d1.Debits.Equal(dec("10")) {
		t.Errorf("day1 deltas = %s/%s, want 100/10", d1.Credits, d1.Debits)
	}
	// high-water mark and end balance come from the day's last effect
	if d1.LastEffectID != "e2" {
		t.Errorf("day1 last effect = %s, want e2", d1.LastEffectID)
	}
	if !d1.EndBalance.Get("native").Equal(dec("90")) {
		t.Errorf("day1 end balance = %s, want 90", d1.EndBalance.Get("native"))
	}

	// running totals chain: day2 totals = day1 totals + day2 deltas
	if !d1.TotalCredits.Equal(dec("100")) || !d2.TotalCredits.Equal(dec("150")) {
		t.Errorf("total credits = %s/%s, want 100/150", d1.TotalCredits, d2.TotalCredits)
	}
	if !d2.TotalDebits.Equal(dec("10")) {
		t.Errorf("day2 total debits = %s, want 10", d2.TotalDebits)
	}
	if d2.LastEffectID != "e3" {
		t.Errorf("day2 last effect = %s, want e3", d2.LastEffectID)
	}
}

func TestSummarizer_ChainsFromLatestPersisted(t *testing.T) {
	latest := &models.DailySummary{
		ID: models.SummaryID("ACC", day(1)), Account: "ACC", Date: day(1),
		Credits: dec("100"), TotalCredits: dec("100"),
		Profits: dec("5"), TotalProfits: dec("5"),
		Trades: 2, TotalTrades: 2,
	}

	effects := []models.Effect{
		{ID: "e9", Type: models.EffectCredit, Time: ts(3, 9), Asset: "native", Amount: dec("40"),
			EndBalance: models.Balance{"native": dec("140")}},
	}

	s := NewSummarizer("ACC", latest)
	s.AddEffects(effects)
	records := s.Records()

	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	// totals continue from the persisted summary: 100 + 40
	if !records[0].TotalCredits.Equal(dec("140")) {
		t.Errorf("total credits = %s, want 140", records[0].TotalCredits)
	}
	if !records[0].TotalProfits.Equal(dec("5")) {
		t.Errorf("total profits = %s, want carried 5", records[0].TotalProfits)
	}
	if records[0].TotalTrades != 2 {
		t.Errorf("total trades = %d, want carried 2", records[0].TotalTrades)
	}
}

func TestSummarizer_SameDayResyncUpdatesInPlace(t *testing.T) {
	// The account already has a summary for today from an earlier cycle.
	// A later cycle the same day must extend that record, not double its
	// deltas into the totals.
	latest := &models.DailySummary{
		ID: models.SummaryID("ACC", day(2)), Account: "ACC", Date: day(2),
		Credits: dec("100"), TotalCredits: dec("300"),
		Debits: dec("20"), TotalDebits: dec("50"),
		Trades: 1, TotalTrades: 4,
		LastEffectID: "e5",
		EndBalance:   models.Balance{"native": dec("330")},
	}

	effects := []models.Effect{
		{ID: "e6", Type: models.EffectCredit, Time: ts(2, 20), Asset: "native", Amount: dec("10"),
			EndBalance: models.Balance{"native": dec("340")}},
	}

	s := NewSummarizer("ACC", latest)
	s.AddEffects(effects)
	records := s.Records()

	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	rec := records[0]

	if rec.ID != latest.ID {
		t.Errorf("id = %s, want same record %s", rec.ID, latest.ID)
	}
	// deltas accumulate: 100 + 10
	if !rec.Credits.Equal(dec("110")) {
		t.Errorf("credits = %s, want 110", rec.Credits)
	}
	// totals re-thread from the pre-day base (300-100=200): 200 + 110
	if !rec.TotalCredits.Equal(dec("310")) {
		t.Errorf("total credits = %s, want 310", rec.TotalCredits)
	}
	if !rec.TotalDebits.Equal(dec("50")) {
		t.Errorf("total debits = %s, want 50", rec.TotalDebits)
	}
	if rec.LastEffectID != "e6" {
		t.Errorf("last effect = %s, want e6", rec.LastEffectID)
	}
	if !rec.EndBalance.Get("native").Equal(dec("340")) {
		t.Errorf("end balance = %s, want 340", rec.EndBalance.Get("native"))
	}
}

func TestSummarizer_PositionsFoldIntoProfits(t *testing.T) {
	positions := newestFirst(
		&models.Position{TradeID: "t1", Type: models.PositionClose, Profit: dec("3"), Time: ts(1, 10)},
		&models.Position{TradeID: "t2", Type: models.PositionClose, Profit: dec("-1"), Time: ts(1, 12)},
		&models.Position{TradeID: "t3", Type: models.PositionClose, Profit: dec("2"), Time: ts(2, 10)},
	)

	s := NewSummarizer("ACC", nil)
	s.AddPositions(positions)
	s.AddEffects(nil)
	records := s.Records()

	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	d1 := records[0]
	if d1.Trades != 2 || d1.WinningTrades != 1 {
		t.Errorf("day1 trades = %d/%d, want 2/1", d1.Trades, d1.WinningTrades)
	}
	// day1 profit = 3 - 1 = 2
	if !d1.Profits.Equal(dec("2")) {
		t.Errorf("day1 profits = %s, want 2", d1.Profits)
	}
}

func TestSummarizer_CloseUnknownCountsAsTradeNeverWinning(t *testing.T) {
	positions := newestFirst(
		&models.Position{TradeID: "t1", Type: models.PositionCloseUnknown, Time: ts(1, 10)},
	)

	s := NewSummarizer("ACC", nil)
	s.AddPositions(positions)
	records := s.Records()

	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].Trades != 1 || records[0].WinningTrades != 0 {
		t.Errorf("trades = %d/%d, want 1/0", records[0].Trades, records[0].WinningTrades)
	}
	if !records[0].Profits.IsZero() {
		t.Errorf("profits = %s, want 0", records[0].Profits)
	}
}

func TestSummarizer_PersistedAndOpenPositionsSkipped(t *testing.T) {
	positions := newestFirst(
		&models.Position{ID: "persisted", TradeID: "t1", Type: models.PositionClose, Profit: dec("3"), Time: ts(1, 10)},
		&models.Position{TradeID: "t2", Type: models.PositionOpen, Time: ts(1, 11)},
		&models.Position{TradeID: "t3", Type: models.PositionConvert, Time: ts(1, 12)},
	)

	s := NewSummarizer("ACC", nil)
	s.AddPositions(positions)

	if len(s.Records()) != 0 {
		t.Fatalf("records = %d, want none", len(s.Records()))
	}
}
