// Package transactions holds the append-only investment transaction log.
package transactions

// Transaction types. Only BUY entries are produced by the import
// reconciliation; quantity decreases are intentionally not recorded.
const (
	TypeBuy = "BUY"
)

// Transaction represents one immutable entry in the investment log.
// Transactions accumulate indefinitely and are the only continuity
// record linking import events.
type Transaction struct {
	ID             int64   `json:"id"`
	Date           string  `json:"date"` // YYYY-MM-DD
	AssetName      string  `json:"asset_name"`
	Symbol         string  `json:"symbol,omitempty"`
	Type           string  `json:"transaction_type"`
	QuantityChange float64 `json:"quantity_change"`
	PricePerUnit   float64 `json:"price_per_unit"`
	TotalAmount    float64 `json:"total_amount"`
	Owner          string  `json:"owner"`
}

// MonthlyTotal is the aggregate invested amount for one calendar month.
type MonthlyTotal struct {
	Month       string  `json:"month"` // YYYY-MM
	TotalAmount float64 `json:"total_amount"`
}
