package importer

import (
	"strings"

	"github.com/vivekn/networth/internal/modules/assets"
)

// ResolveSymbol assigns a trading symbol to an aggregated holding that
// has no carried-forward symbol, in order of preference:
//
//  1. exact ISIN match in the static equity table,
//  2. for fund holdings, the static fund table,
//  3. for equity holdings, a best-effort guess derived from the name.
//
// Returns "" when nothing applies. The guess may be wrong; price fetch
// treats failed lookups as non-fatal.
func ResolveSymbol(agg AggregatedHolding) string {
	if agg.ISIN != "" {
		if symbol, ok := equitySymbolsByISIN[agg.ISIN]; ok {
			return symbol
		}
		if agg.AssetType == assets.TypeMutualFund {
			if symbol, ok := fundSymbolsByISIN[agg.ISIN]; ok {
				return symbol
			}
		}
	}

	if agg.AssetType == assets.TypeStock {
		return GuessEquitySymbol(agg.Name)
	}

	return ""
}

// GuessEquitySymbol derives an NSE symbol guess from an equity name:
// uppercase, drop any trailing disambiguator after "#" or "-", strip
// corporate suffix tokens, then take the first remaining word. Words of
// one or two characters are too ambiguous to guess from.
func GuessEquitySymbol(name string) string {
	if name == "" {
		return ""
	}

	clean := strings.ToUpper(name)
	if idx := strings.Index(clean, "#"); idx >= 0 {
		clean = clean[:idx]
	}
	if idx := strings.Index(clean, "-"); idx >= 0 {
		clean = clean[:idx]
	}
	for _, suffix := range corporateSuffixes {
		clean = strings.ReplaceAll(clean, suffix, "")
	}
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return ""
	}

	firstWord := strings.Fields(clean)[0]
	if len(firstWord) <= 2 {
		return ""
	}

	return firstWord + ".NS"
}
