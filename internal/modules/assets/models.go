// Package assets holds the persisted holdings model and its repository.
package assets

import (
	"encoding/json"
	"time"
)

// Asset type vocabulary carried on every holding. The strings match what
// the snapshot normalizer emits, so they round-trip through imports.
const (
	TypeStock      = "Stock"
	TypeMutualFund = "MF"
	TypeBond       = "Bond"
	TypeGovtSec    = "Govt Sec"
)

// Holding represents one persisted asset row for an owner.
// Holdings are fully replaced per owner on every import; the row ID has no
// continuity across imports. ISIN is the stable identity where present.
type Holding struct {
	ID                int64    `json:"id"`
	Owner             string   `json:"owner"`
	Name              string   `json:"name"`
	DPName            string   `json:"dp_name,omitempty"` // Sub-account label (DP or AMC)
	AssetType         string   `json:"asset_type"`
	Currency          string   `json:"currency"`
	Quantity          float64  `json:"quantity"`
	UnitPrice         float64  `json:"unit_price"` // Currency-normalized (INR)
	ISIN              string   `json:"isin,omitempty"`
	Symbol            string   `json:"symbol,omitempty"`
	LastUpdated       *int64   `json:"-"` // Unix timestamp, RFC3339 at the JSON boundary
	OriginalCurrency  string   `json:"original_currency,omitempty"`
	OriginalUnitPrice float64  `json:"original_unit_price,omitempty"`
	DailyChangePct    *float64 `json:"daily_change_pct,omitempty"`
	AvgBuyPrice       *float64 `json:"avg_buy_price,omitempty"`
	Price30D          *float64 `json:"price_30d,omitempty"`
}

// Value returns the holding's current market value.
func (h Holding) Value() float64 {
	return h.Quantity * h.UnitPrice
}

// MarshalJSON customizes JSON serialization to convert Unix timestamp to string
func (h Holding) MarshalJSON() ([]byte, error) {
	type Alias Holding
	aux := &struct {
		LastUpdated string `json:"last_updated,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(&h),
	}

	if h.LastUpdated != nil {
		t := time.Unix(*h.LastUpdated, 0).UTC()
		aux.LastUpdated = t.Format(time.RFC3339)
	}

	return json.Marshal(aux)
}

// PriceUpdate carries the result of one quote refresh for a holding.
type PriceUpdate struct {
	UnitPrice         float64  // Converted to INR
	OriginalUnitPrice float64  // In the quote's native currency
	OriginalCurrency  string
	DailyChangePct    *float64
	Price30D          *float64
}
