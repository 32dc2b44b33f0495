// Package portfolio implements the position-matching and incremental
// summarization engine: effect normalization, lot matching, balance
// reconstruction, daily summaries, and ROI windows.
package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dandalion98/s-portfolio/internal/models"
)

// ParseEffects normalizes raw ledger effects, preserving input order
// (newest first). Malformed records are dropped; their errors are returned
// for the caller to log. Raw types outside trade/credit/debit carry no
// balance or position information and are skipped silently.
func ParseEffects(raws []models.RawEffect) ([]models.Effect, []error) {
	effects := make([]models.Effect, 0, len(raws))
	var errs []error

	for i := range raws {
		switch raws[i].Type {
		case models.RawTypeTrade, models.RawTypeCredited, models.RawTypeDebited:
		default:
			continue
		}

		effect, err := parseEffect(&raws[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		effects = append(effects, effect)
	}

	return effects, errs
}

func parseEffect(raw *models.RawEffect) (models.Effect, error) {
	e := models.Effect{
		ID:   raw.ID,
		Time: raw.CreatedAt,
	}

	switch raw.Type {
	case models.RawTypeTrade:
		e.Type = models.EffectTrade

		if raw.SoldAssetType == "" || raw.BoughtAssetType == "" {
			return e, fmt.Errorf("%w: trade effect %s missing asset type", models.ErrMalformedEffect, raw.ID)
		}

		sold, err := parseAmount(raw.SoldAmount)
		if err != nil {
			return e, fmt.Errorf("%w: trade effect %s sold_amount %q", models.ErrMalformedEffect, raw.ID, raw.SoldAmount)
		}
		bought, err := parseAmount(raw.BoughtAmount)
		if err != nil {
			return e, fmt.Errorf("%w: trade effect %s bought_amount %q", models.ErrMalformedEffect, raw.ID, raw.BoughtAmount)
		}

		e.SoldAsset = models.AssetID(raw.SoldAssetType, raw.SoldAssetCode, raw.SoldAssetIssuer)
		e.SoldAssetCode = raw.SoldAssetCode
		e.SoldAmount = sold
		e.BoughtAsset = models.AssetID(raw.BoughtAssetType, raw.BoughtAssetCode, raw.BoughtAssetIssuer)
		e.BoughtAssetCode = raw.BoughtAssetCode
		e.BoughtAmount = bought

	case models.RawTypeCredited, models.RawTypeDebited:
		if raw.Type == models.RawTypeCredited {
			e.Type = models.EffectCredit
		} else {
			e.Type = models.EffectDebit
		}

		if raw.AssetType == "" {
			return e, fmt.Errorf("%w: %s effect %s missing asset type", models.ErrMalformedEffect, raw.Type, raw.ID)
		}

		amount, err := parseAmount(raw.Amount)
		if err != nil {
			return e, fmt.Errorf("%w: %s effect %s amount %q", models.ErrMalformedEffect, raw.Type, raw.ID, raw.Amount)
		}

		e.Asset = models.AssetID(raw.AssetType, raw.AssetCode, raw.AssetIssuer)
		e.Amount = amount
	}

	return e, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(s)
}

// MergeEffects collapses multi-fill trades the venue reports as separate
// records for one logical order: consecutive trade effects sharing a
// timestamp and the same (sold code, bought code) pair are summed into the
// first record of their bucket. Merging is transitive within a
// (timestamp, asset-pair) bucket; non-trade effects never merge.
func MergeEffects(effects []models.Effect) []models.Effect {
	out := make([]models.Effect, 0, len(effects))
	buckets := make(map[int64][]int) // timestamp -> indices into out

	for _, effect := range effects {
		ts := effect.Time.UTC().UnixNano()

		merged := false
		for _, idx := range buckets[ts] {
			if mergeable(&out[idx], &effect) {
				out[idx].SoldAmount = models.Round(out[idx].SoldAmount.Add(effect.SoldAmount))
				out[idx].BoughtAmount = models.Round(out[idx].BoughtAmount.Add(effect.BoughtAmount))
				merged = true
				break
			}
		}
		if merged {
			continue
		}

		out = append(out, effect)
		buckets[ts] = append(buckets[ts], len(out)-1)
	}

	return out
}

func mergeable(a, b *models.Effect) bool {
	return a.Type == models.EffectTrade && b.Type == models.EffectTrade &&
		a.SoldAssetCode == b.SoldAssetCode &&
		a.BoughtAssetCode == b.BoughtAssetCode
}

// ComputeBalances annotates each effect with the account's balance
// immediately after it, walking the newest-first sequence and undoing each
// effect's impact to recover earlier balances. Network fees are invisible
// to the effect stream, so reconstructed balances drift slightly from
// ground truth; that is accepted behavior.
func ComputeBalances(effects []models.Effect, endBalance models.Balance) {
	if len(effects) == 0 {
		return
	}

	working := endBalance.Clone()
	for i := range effects {
		effects[i].EndBalance = working.Clone()

		e := &effects[i]
		switch e.Type {
		case models.EffectTrade:
			working.Add(e.SoldAsset, e.SoldAmount)
			working.Sub(e.BoughtAsset, e.BoughtAmount)
		case models.EffectCredit:
			working.Sub(e.Asset, e.Amount)
		case models.EffectDebit:
			working.Add(e.Asset, e.Amount)
		}

		working.RoundAll()
	}
}

// ParsePosition converts a trade effect into an unmatched lot. Openness is
// intrinsic: buying non-native with native opens, selling non-native back
// to native closes, and a trade with both legs non-native is a convert.
func ParsePosition(e *models.Effect) *models.Position {
	p := &models.Position{
		TradeID:      e.ID,
		BoughtAsset:  e.BoughtAsset,
		BoughtAmount: models.Round(e.BoughtAmount),
		SoldAsset:    e.SoldAsset,
		SoldAmount:   models.Round(e.SoldAmount),
		Time:         e.Time,
	}

	if p.BoughtAsset != models.NativeAsset {
		p.OpenAmount = p.BoughtAmount
	}

	switch {
	case p.SoldAsset == models.NativeAsset:
		p.Type = models.PositionOpen
		if !p.BoughtAmount.IsZero() {
			p.BoughtPrice = models.Round(p.SoldAmount.Div(p.BoughtAmount))
		}
	case p.BoughtAsset == models.NativeAsset:
		p.Type = models.PositionClose
		if !p.SoldAmount.IsZero() {
			p.SoldPrice = models.Round(p.BoughtAmount.Div(p.SoldAmount))
		}
	default:
		p.Type = models.PositionConvert
	}

	return p
}

// ParsePositions extracts unmatched lots from the trade effects of a
// newest-first effect sequence, preserving order.
func ParsePositions(effects []models.Effect) []*models.Position {
	var positions []*models.Position
	for i := range effects {
		if effects[i].Type != models.EffectTrade {
			continue
		}
		positions = append(positions, ParsePosition(&effects[i]))
	}
	return positions
}

// FilterNewEffects cuts a newest-first raw effect list at the incremental
// high-water mark: only effects strictly newer than latestEffectID remain.
func FilterNewEffects(raws []models.RawEffect, latestEffectID string) []models.RawEffect {
	if latestEffectID == "" {
		return raws
	}

	for i := range raws {
		if raws[i].ID == latestEffectID {
			return raws[:i]
		}
	}
	return raws
}
