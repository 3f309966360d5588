package importer

import (
	"sort"
	"strings"
)

// Aggregate collapses incoming items into one holding per reconciliation
// key: the ISIN when present, otherwise the normalized name. Quantities
// and values are summed; the first name and first non-empty sub-account
// label win. Entries whose summed quantity is not positive are dropped.
//
// Apart from the first-label tie-break, the result does not depend on
// input order.
func Aggregate(items []IncomingItem) map[string]AggregatedHolding {
	agg := make(map[string]AggregatedHolding)

	for _, item := range items {
		key := aggregationKey(item)
		if key == "" {
			continue
		}

		entry, ok := agg[key]
		if !ok {
			entry = AggregatedHolding{
				Key:        key,
				Name:       item.Name,
				AssetType:  item.AssetType,
				ISIN:       strings.TrimSpace(item.ISIN),
				SubAccount: item.SubAccount,
			}
		}

		entry.Quantity += item.Quantity
		entry.Value += item.Value
		if entry.SubAccount == "" && item.SubAccount != "" {
			entry.SubAccount = item.SubAccount
		}

		agg[key] = entry
	}

	for key, entry := range agg {
		if entry.Quantity <= 0 {
			delete(agg, key)
		}
	}

	return agg
}

// aggregationKey returns the reconciliation key for one item, or ""
// for items with neither identifier nor usable name.
func aggregationKey(item IncomingItem) string {
	if isin := strings.TrimSpace(item.ISIN); isin != "" {
		return isin
	}
	return normalizeName(item.Name)
}

// sortedKeys returns the aggregation keys in stable order so the commit
// phase inserts holdings deterministically.
func sortedKeys(agg map[string]AggregatedHolding) []string {
	keys := make([]string, 0, len(agg))
	for key := range agg {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
