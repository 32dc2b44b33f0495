package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EffectType classifies a normalized ledger effect.
type EffectType string

const (
	EffectTrade  EffectType = "trade"
	EffectCredit EffectType = "credit"
	EffectDebit  EffectType = "debit"
)

// Raw effect type strings as delivered by the ledger network.
const (
	RawTypeTrade    = "trade"
	RawTypeCredited = "account_credited"
	RawTypeDebited  = "account_debited"
)

// RawEffect is one account effect as delivered by the ledger client,
// before normalization. Amounts arrive as strings.
type RawEffect struct {
	ID          string    `json:"id"`
	PagingToken string    `json:"paging_token"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_at"`

	// credit/debit fields
	Amount      string `json:"amount,omitempty"`
	AssetType   string `json:"asset_type,omitempty"`
	AssetCode   string `json:"asset_code,omitempty"`
	AssetIssuer string `json:"asset_issuer,omitempty"`

	// trade fields
	SoldAmount        string `json:"sold_amount,omitempty"`
	SoldAssetType     string `json:"sold_asset_type,omitempty"`
	SoldAssetCode     string `json:"sold_asset_code,omitempty"`
	SoldAssetIssuer   string `json:"sold_asset_issuer,omitempty"`
	BoughtAmount      string `json:"bought_amount,omitempty"`
	BoughtAssetType   string `json:"bought_asset_type,omitempty"`
	BoughtAssetCode   string `json:"bought_asset_code,omitempty"`
	BoughtAssetIssuer string `json:"bought_asset_issuer,omitempty"`
}

// Effect is one normalized ledger event for an account.
//
// Effects are carried newest-first at every pipeline stage — the order the
// ledger delivers them. Consumers that need chronological processing
// (matching, running totals) iterate the slice from the tail.
type Effect struct {
	ID   string     `json:"id"`
	Type EffectType `json:"type"`
	Time time.Time  `json:"time"`

	// credit/debit
	Asset  string          `json:"asset,omitempty"`
	Amount decimal.Decimal `json:"amount,omitempty"`

	// trade
	SoldAsset       string          `json:"sold_asset,omitempty"`
	SoldAssetCode   string          `json:"sold_asset_code,omitempty"`
	SoldAmount      decimal.Decimal `json:"sold_amount,omitempty"`
	BoughtAsset     string          `json:"bought_asset,omitempty"`
	BoughtAssetCode string          `json:"bought_asset_code,omitempty"`
	BoughtAmount    decimal.Decimal `json:"bought_amount,omitempty"`

	// EndBalance is the account's per-asset balance immediately after this
	// effect, annotated by balance reconstruction.
	EndBalance Balance `json:"end_balance,omitempty"`
}

// Day returns the UTC midnight boundary of the effect's timestamp.
func (e *Effect) Day() time.Time {
	return DayOf(e.Time)
}

// DayOf truncates a timestamp to its UTC midnight boundary.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
