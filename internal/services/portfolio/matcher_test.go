package portfolio

import (
	"errors"
	"testing"
	"time"

	"github.com/dandalion98/s-portfolio/internal/common"
	"github.com/dandalion98/s-portfolio/internal/models"
)

func openLot(tradeID, asset, amount, price string, at time.Time) *models.Position {
	return &models.Position{
		TradeID:      tradeID,
		Type:         models.PositionOpen,
		SoldAsset:    models.NativeAsset,
		BoughtAsset:  asset,
		BoughtAmount: dec(amount),
		BoughtPrice:  dec(price),
		OpenAmount:   dec(amount),
		Time:         at,
	}
}

func closeLot(tradeID, asset, soldAmount, boughtNative, price string, at time.Time) *models.Position {
	return &models.Position{
		TradeID:      tradeID,
		Type:         models.PositionClose,
		SoldAsset:    asset,
		SoldAmount:   dec(soldAmount),
		BoughtAsset:  models.NativeAsset,
		BoughtAmount: dec(boughtNative),
		SoldPrice:    dec(price),
		Time:         at,
	}
}

// candidates are newest-first; helper builds that order from a
// chronological listing.
func newestFirst(chronological ...*models.Position) []*models.Position {
	out := make([]*models.Position, len(chronological))
	for i, p := range chronological {
		out[len(chronological)-1-i] = p
	}
	return out
}

func TestMatchPositions_SingleLotLifecycle(t *testing.T) {
	// Buy 100 BTC for 50 native (price 0.5), then sell 60 for 33
	// (price 0.55), then sell 40 for 22 (price 0.55).
	open := openLot("t1", "BTC-G1", "100", "0.5", ts(1, 10))
	close1 := closeLot("t2", "BTC-G1", "60", "33", "0.55", ts(2, 10))
	close2 := closeLot("t3", "BTC-G1", "40", "22", "0.55", ts(3, 10))

	final, err := MatchPositions(newestFirst(open, close1, close2), common.NewSilentLogger())
	if err != nil {
		t.Fatalf("MatchPositions: %v", err)
	}
	if len(final) != 3 {
		t.Fatalf("len(final) = %d, want 3", len(final))
	}

	// newest-first output
	if final[0].TradeID != "t3" || final[2].TradeID != "t1" {
		t.Fatalf("order = [%s %s %s], want newest-first", final[0].TradeID, final[1].TradeID, final[2].TradeID)
	}

	// profit t2 = (0.55 - 0.5) * 60 = 3
	if !final[1].Profit.Equal(dec("3")) {
		t.Errorf("t2 profit = %s, want 3", final[1].Profit)
	}
	// profit t3 = (0.55 - 0.5) * 40 = 2
	if !final[0].Profit.Equal(dec("2")) {
		t.Errorf("t3 profit = %s, want 2", final[0].Profit)
	}
	if final[0].OpenTradeID != "t1" || final[1].OpenTradeID != "t1" {
		t.Errorf("back-references = %s/%s, want t1/t1", final[0].OpenTradeID, final[1].OpenTradeID)
	}
	if !final[0].CloseBasisPrice.Equal(dec("0.5")) {
		t.Errorf("basis = %s, want 0.5", final[0].CloseBasisPrice)
	}
	// open lot fully consumed
	if !open.OpenAmount.IsZero() {
		t.Errorf("open amount = %s, want 0", open.OpenAmount)
	}
}

func TestMatchPositions_ExactMatchBeatsPrefix(t *testing.T) {
	// Inventory (chronological): 60 then 40. A close of 40 must settle
	// against the exact 40 lot even though 60 alone covers it.
	openA := openLot("tA", "BTC-G1", "60", "0.5", ts(1, 10))
	openB := openLot("tB", "BTC-G1", "40", "0.6", ts(2, 10))
	sell := closeLot("tC", "BTC-G1", "40", "28", "0.7", ts(3, 10))

	final, err := MatchPositions(newestFirst(openA, openB, sell), common.NewSilentLogger())
	if err != nil {
		t.Fatalf("MatchPositions: %v", err)
	}

	var closed *models.Position
	for _, p := range final {
		if p.TradeID == "tC" {
			closed = p
		}
	}
	if closed == nil {
		t.Fatal("close record missing")
	}
	if closed.OpenTradeID != "tB" {
		t.Errorf("matched against %s, want exact lot tB", closed.OpenTradeID)
	}
	// profit = (0.7 - 0.6) * 40 = 4
	if !closed.Profit.Equal(dec("4")) {
		t.Errorf("profit = %s, want 4", closed.Profit)
	}
	if !openA.OpenAmount.Equal(dec("60")) {
		t.Errorf("tA open amount = %s, want untouched 60", openA.OpenAmount)
	}
}

func TestMatchPositions_MultiLotSplit(t *testing.T) {
	// Inventory 60 + 60, close 100 for 110 native (price 1.1). The close
	// splits: 60 against the first lot, 40 against the second.
	openA := openLot("tA", "BTC-G1", "60", "0.5", ts(1, 10))
	openB := openLot("tB", "BTC-G1", "60", "1.0", ts(2, 10))
	sell := closeLot("tC", "BTC-G1", "100", "110", "1.1", ts(3, 10))

	final, err := MatchPositions(newestFirst(openA, openB, sell), common.NewSilentLogger())
	if err != nil {
		t.Fatalf("MatchPositions: %v", err)
	}
	// 2 opens + 2 split close records
	if len(final) != 4 {
		t.Fatalf("len(final) = %d, want 4", len(final))
	}

	var recs []*models.Position
	for _, p := range final {
		if p.TradeID == "tC" {
			recs = append(recs, p)
		}
	}
	if len(recs) != 2 {
		t.Fatalf("close records = %d, want 2", len(recs))
	}

	// newest-first output keeps split order reversed; rec against tB
	// (second peer) comes first
	recB, recA := recs[0], recs[1]
	if recA.OpenTradeID != "tA" || recB.OpenTradeID != "tB" {
		t.Fatalf("back-references = %s/%s, want tA/tB", recA.OpenTradeID, recB.OpenTradeID)
	}

	if !recA.SoldAmount.Equal(dec("60")) || !recB.SoldAmount.Equal(dec("40")) {
		t.Errorf("split amounts = %s/%s, want 60/40", recA.SoldAmount, recB.SoldAmount)
	}
	// bought native scales proportionally: 110*60/100 = 66, 110*40/100 = 44
	if !recA.BoughtAmount.Equal(dec("66")) || !recB.BoughtAmount.Equal(dec("44")) {
		t.Errorf("split bought = %s/%s, want 66/44", recA.BoughtAmount, recB.BoughtAmount)
	}
	// profits: (1.1-0.5)*60 = 36, (1.1-1.0)*40 = 4
	if !recA.Profit.Equal(dec("36")) || !recB.Profit.Equal(dec("4")) {
		t.Errorf("profits = %s/%s, want 36/4", recA.Profit, recB.Profit)
	}

	if !openA.OpenAmount.IsZero() {
		t.Errorf("tA open amount = %s, want 0", openA.OpenAmount)
	}
	if !openB.OpenAmount.Equal(dec("20")) {
		t.Errorf("tB open amount = %s, want 20", openB.OpenAmount)
	}
}

func TestMatchPositions_UnmatchedCloseFlagged(t *testing.T) {
	sell := closeLot("tC", "BTC-G1", "40", "28", "0.7", ts(1, 10))

	final, err := MatchPositions(newestFirst(sell), common.NewSilentLogger())
	if err != nil {
		t.Fatalf("MatchPositions: %v", err)
	}
	if len(final) != 1 {
		t.Fatalf("len(final) = %d, want 1", len(final))
	}
	if final[0].Type != models.PositionCloseUnknown {
		t.Errorf("type = %s, want close_unk", final[0].Type)
	}
	if !final[0].Profit.IsZero() {
		t.Errorf("profit = %s, want 0 for unknown basis", final[0].Profit)
	}
}

func TestMatchPositions_InsufficientInventoryFlagged(t *testing.T) {
	open := openLot("tA", "BTC-G1", "30", "0.5", ts(1, 10))
	sell := closeLot("tC", "BTC-G1", "40", "28", "0.7", ts(2, 10))

	final, err := MatchPositions(newestFirst(open, sell), common.NewSilentLogger())
	if err != nil {
		t.Fatalf("MatchPositions: %v", err)
	}

	for _, p := range final {
		if p.TradeID == "tC" && p.Type != models.PositionCloseUnknown {
			t.Errorf("type = %s, want close_unk when inventory cannot cover", p.Type)
		}
	}
	if !open.OpenAmount.Equal(dec("30")) {
		t.Errorf("open amount = %s, want untouched 30", open.OpenAmount)
	}
}

func TestMatchPositions_PreviouslyMatchedPassThrough(t *testing.T) {
	open := openLot("tA", "BTC-G1", "100", "0.5", ts(1, 10))
	prior := closeLot("tB", "BTC-G1", "40", "28", "0.7", ts(2, 10))
	prior.OpenTradeID = "tOld"
	prior.Profit = dec("9")

	final, err := MatchPositions(newestFirst(open, prior), common.NewSilentLogger())
	if err != nil {
		t.Fatalf("MatchPositions: %v", err)
	}

	for _, p := range final {
		if p.TradeID == "tB" {
			if p.OpenTradeID != "tOld" || !p.Profit.Equal(dec("9")) {
				t.Errorf("prior close rewritten: ref=%s profit=%s", p.OpenTradeID, p.Profit)
			}
		}
	}
	// inventory untouched by the pass-through
	if !open.OpenAmount.Equal(dec("100")) {
		t.Errorf("open amount = %s, want 100", open.OpenAmount)
	}
}

func TestMatchPositions_ConvertNeverMatched(t *testing.T) {
	open := openLot("tA", "BTC-G1", "100", "0.5", ts(1, 10))
	convert := &models.Position{
		TradeID: "tB", Type: models.PositionConvert,
		SoldAsset: "BTC-G1", SoldAmount: dec("10"),
		BoughtAsset: "ETH-G2", BoughtAmount: dec("50"),
		OpenAmount: dec("50"), Time: ts(2, 10),
	}

	final, err := MatchPositions(newestFirst(open, convert), common.NewSilentLogger())
	if err != nil {
		t.Fatalf("MatchPositions: %v", err)
	}
	if len(final) != 2 {
		t.Fatalf("len(final) = %d, want 2", len(final))
	}
	if !open.OpenAmount.Equal(dec("100")) {
		t.Errorf("open amount = %s, want 100", open.OpenAmount)
	}
}

func TestMatchPair_InsufficientOpenAmount(t *testing.T) {
	peer := openLot("tA", "BTC-G1", "10", "0.5", ts(1, 10))
	rec := closeLot("tB", "BTC-G1", "40", "28", "0.7", ts(2, 10))

	err := matchPair(rec, peer)
	if !errors.Is(err, models.ErrInsufficientOpenAmount) {
		t.Fatalf("err = %v, want ErrInsufficientOpenAmount", err)
	}
}
