package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dandalion98/s-portfolio/internal/common"
	"github.com/dandalion98/s-portfolio/internal/models"
)

// matcher tracks open-lot inventory per asset while the candidate list is
// replayed in chronological order. State is per-account and per-cycle;
// it is never shared.
type matcher struct {
	openMap map[string][]*models.Position
}

func newMatcher() *matcher {
	return &matcher{openMap: make(map[string][]*models.Position)}
}

func (m *matcher) addOpen(p *models.Position) {
	m.openMap[p.BoughtAsset] = append(m.openMap[p.BoughtAsset], p)
}

// findMatches returns the open lots a close should settle against: a
// single exact-amount lot when one exists, otherwise the shortest stored
// prefix of open lots whose remaining amounts cover the close. Returns nil
// when inventory is insufficient. The scan keeps looking for an exact
// match even after the accumulated prefix is sufficient, as an exact lot
// always wins.
func (m *matcher) findMatches(closeLot *models.Position) []*models.Position {
	inventory := m.openMap[closeLot.SoldAsset]
	if len(inventory) == 0 {
		return nil
	}

	var multi []*models.Position
	multiSum := decimal.Zero

	for _, open := range inventory {
		if open.OpenAmount.IsZero() {
			continue
		}

		if open.OpenAmount.Equal(closeLot.SoldAmount) {
			return []*models.Position{open}
		}

		if open.OpenAmount.IsPositive() && multiSum.LessThan(closeLot.SoldAmount) {
			multi = append(multi, open)
			multiSum = models.Round(multiSum.Add(open.OpenAmount))
		}
	}

	if multiSum.GreaterThanOrEqual(closeLot.SoldAmount) {
		return multi
	}
	return nil
}

// splitClose divides a close lot across its matched peers, one close
// record per peer. Each record takes sold_portion = min(remaining,
// peer.open_amount) and a proportionally scaled bought amount; remaining
// is then decremented by the peer's full open amount, since an over-sized
// open lot absorbs the remainder in one step. A close matched against a
// single peer is returned unchanged.
func splitClose(closeLot *models.Position, peers []*models.Position) []*models.Position {
	if len(peers) == 1 {
		return []*models.Position{closeLot}
	}

	original := closeLot.SoldAmount
	remaining := original
	out := make([]*models.Position, 0, len(peers))

	for _, peer := range peers {
		portion := decimal.Min(remaining, peer.OpenAmount)

		rec := closeLot.Clone()
		rec.SoldAmount = models.Round(portion)
		rec.BoughtAmount = models.Round(closeLot.BoughtAmount.Mul(portion).Div(original))
		out = append(out, rec)

		remaining = models.Round(remaining.Sub(peer.OpenAmount))
	}

	return out
}

// matchPair settles one close record against one open peer: the peer's
// open amount shrinks by the closed quantity, the record gains its
// back-reference and, for true closes, realized profit against the peer's
// cost basis. A peer that cannot absorb the close is an invariant
// violation — the accumulation rule upstream guarantees capacity, so this
// indicates corrupted inventory and aborts the cycle.
func matchPair(closeRec, peer *models.Position) error {
	if peer.OpenAmount.LessThan(closeRec.SoldAmount) {
		return fmt.Errorf("%w: open trade %s has %s, close trade %s needs %s",
			models.ErrInsufficientOpenAmount,
			peer.TradeID, peer.OpenAmount, closeRec.TradeID, closeRec.SoldAmount)
	}

	peer.OpenAmount = models.Round(peer.OpenAmount.Sub(closeRec.SoldAmount))
	closeRec.OpenTradeID = peer.TradeID

	if closeRec.Type == models.PositionClose {
		closeRec.Profit = models.Round(closeRec.SoldPrice.Sub(peer.BoughtPrice).Mul(closeRec.SoldAmount))
		closeRec.CloseBasisPrice = peer.BoughtPrice
	}

	return nil
}

// MatchPositions replays the candidate lots in chronological order —
// candidates arrive newest-first, so iteration runs from the tail —
// registering opens into inventory and settling closes against it. The
// returned list is newest-first and may be longer than the input where
// closes were split. Candidates must include previously persisted open
// lots with remaining inventory so cross-run closes can match.
//
// A close with no covering inventory is flagged close_unk and kept; this
// is a data-quality condition, not a failure. Previously matched closes
// pass through untouched.
func MatchPositions(candidates []*models.Position, logger *common.Logger) ([]*models.Position, error) {
	m := newMatcher()
	final := make([]*models.Position, 0, len(candidates))

	for i := len(candidates) - 1; i >= 0; i-- {
		p := candidates[i]

		switch {
		case p.IsOpen():
			m.addOpen(p)
			final = append(final, p)

		case p.Type == models.PositionConvert:
			final = append(final, p)

		case p.OpenTradeID != "":
			// already matched in a prior run
			final = append(final, p)

		default:
			peers := m.findMatches(p)
			if peers == nil {
				logger.Error().
					Str("trade", p.TradeID).
					Str("asset", p.SoldAsset).
					Str("amount", p.SoldAmount.String()).
					Err(models.ErrUnmatchedClose).
					Msg("Failed to match open position")
				p.Type = models.PositionCloseUnknown
				final = append(final, p)
				continue
			}

			closeRecs := splitClose(p, peers)
			for j, peer := range peers {
				if err := matchPair(closeRecs[j], peer); err != nil {
					return nil, err
				}
				final = append(final, closeRecs[j])
			}
		}
	}

	// back to the canonical newest-first order
	for l, r := 0, len(final)-1; l < r; l, r = l+1, r-1 {
		final[l], final[r] = final[r], final[l]
	}

	return final, nil
}
