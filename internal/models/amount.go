// Package models defines data structures for s-portfolio
package models

import "github.com/shopspring/decimal"

// AmountScale is the fixed decimal scale for every amount, price, and
// balance in the system (7 fractional digits, the ledger's native
// precision). Rounding is applied after every arithmetic step, not just at
// output, so long chains of partial matches cannot accumulate drift.
const AmountScale = 7

// NativeAsset identifies the ledger's native asset in normalized form.
const NativeAsset = "native"

// Round rounds an amount to the fixed decimal scale.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// AssetID derives the stable asset identifier used throughout the engine:
// "native" for the chain's native asset, otherwise "CODE-ISSUER".
func AssetID(assetType, code, issuer string) string {
	if assetType == NativeAsset {
		return NativeAsset
	}
	return code + "-" + issuer
}

// Balance maps asset identifiers to amounts.
type Balance map[string]decimal.Decimal

// Clone returns an independent copy of the balance.
func (b Balance) Clone() Balance {
	out := make(Balance, len(b))
	for asset, amount := range b {
		out[asset] = amount
	}
	return out
}

// RoundAll rounds every entry to the fixed decimal scale in place.
func (b Balance) RoundAll() {
	for asset, amount := range b {
		b[asset] = Round(amount)
	}
}

// Get returns the balance for an asset, zero when absent.
func (b Balance) Get(asset string) decimal.Decimal {
	return b[asset]
}

// Add adds delta to an asset's balance.
func (b Balance) Add(asset string, delta decimal.Decimal) {
	b[asset] = b[asset].Add(delta)
}

// Sub subtracts delta from an asset's balance.
func (b Balance) Sub(asset string, delta decimal.Decimal) {
	b[asset] = b[asset].Sub(delta)
}
