// Package importer implements the snapshot import pipeline: normalize a
// raw holdings snapshot into flat items, aggregate duplicates, reconcile
// against the owner's stored holdings to derive BUY transactions, resolve
// trading symbols, and atomically replace the owner's holdings.
package importer

import (
	"encoding/json"
	"strconv"
	"strings"
)

// quantityEpsilon absorbs floating-point noise when diffing quantities.
// Only increases above this threshold produce a transaction.
const quantityEpsilon = 0.001

// IncomingItem is one line item extracted from a snapshot document.
// Never persisted directly; always passed through the aggregator first.
type IncomingItem struct {
	Name       string
	AssetType  string
	Quantity   float64
	Value      float64 // Aggregate value of the line item, not per unit
	ISIN       string
	SubAccount string // DP or AMC label
}

// AggregatedHolding is one entry per reconciliation key with summed
// quantity and value across all incoming items sharing that key.
type AggregatedHolding struct {
	Key        string
	Name       string
	AssetType  string
	Quantity   float64
	Value      float64
	ISIN       string
	SubAccount string
	Symbol     string // Carried forward from prior state during reconciliation
}

// UnitPrice derives the per-unit price from the summed value.
func (a AggregatedHolding) UnitPrice() float64 {
	if a.Quantity == 0 {
		return 0
	}
	return a.Value / a.Quantity
}

// Result summarizes one completed import.
type Result struct {
	Assets       int      `json:"assets"`
	Transactions int      `json:"transactions"`
	Warnings     []string `json:"warnings,omitempty"`
	Message      string   `json:"message"`
}

// normalizeName produces the fallback reconciliation key for items
// without an identifier: trimmed and case-folded.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// flexFloat tolerates the numeric representations seen across snapshot
// sources: JSON numbers, quoted numbers ("12,345.00" included), and null.
// Anything unparsable decodes to zero, which drops the item downstream
// instead of aborting the snapshot.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}

	// Quoted number, possibly with thousands separators
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			*f = 0
			return nil
		}
		str = strings.ReplaceAll(strings.TrimSpace(str), ",", "")
		if str == "" {
			*f = 0
			return nil
		}
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat(val)
		return nil
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(val)
	return nil
}
