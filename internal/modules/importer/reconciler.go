package importer

import (
	"strings"

	"github.com/vivekn/networth/internal/modules/assets"
)

// priorHolding is the aggregated view of an owner's stored state for one
// reconciliation key: total quantity and the first known symbol.
type priorHolding struct {
	Quantity float64
	Symbol   string
}

// PriorState indexes an owner's stored holdings by ISIN and by normalized
// name. Stored state is itself aggregated under the same key scheme as the
// snapshot, because prior inconsistent imports may have left duplicates.
type PriorState struct {
	byISIN map[string]priorHolding
	byName map[string]priorHolding
}

// BuildPriorState aggregates the owner's current stored holdings.
func BuildPriorState(holdings []assets.Holding) PriorState {
	state := PriorState{
		byISIN: make(map[string]priorHolding),
		byName: make(map[string]priorHolding),
	}

	for _, h := range holdings {
		if isin := strings.TrimSpace(h.ISIN); isin != "" {
			entry := state.byISIN[isin]
			entry.Quantity += h.Quantity
			if entry.Symbol == "" && h.Symbol != "" {
				entry.Symbol = h.Symbol
			}
			state.byISIN[isin] = entry
		}

		if name := normalizeName(h.Name); name != "" {
			entry := state.byName[name]
			entry.Quantity += h.Quantity
			if entry.Symbol == "" && h.Symbol != "" {
				entry.Symbol = h.Symbol
			}
			state.byName[name] = entry
		}
	}

	return state
}

// Lookup finds the prior quantity and symbol for an aggregated holding,
// matching by ISIN first and falling back to normalized name. A holding
// with no prior match has quantity 0.
func (s PriorState) Lookup(agg AggregatedHolding) (float64, string) {
	if agg.ISIN != "" {
		if entry, ok := s.byISIN[agg.ISIN]; ok {
			return entry.Quantity, entry.Symbol
		}
	}
	if entry, ok := s.byName[normalizeName(agg.Name)]; ok {
		return entry.Quantity, entry.Symbol
	}
	return 0, ""
}

// QuantityDelta is the signed difference between the new aggregated
// quantity and the prior aggregated quantity for one key.
func QuantityDelta(newQuantity, priorQuantity float64) float64 {
	return newQuantity - priorQuantity
}

// ShouldRecordBuy reports whether a quantity delta produces a BUY
// transaction. Decreases are intentionally not recorded; this asymmetry
// is a product decision, not an oversight.
func ShouldRecordBuy(delta float64) bool {
	return delta > quantityEpsilon
}
