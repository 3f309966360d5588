package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vivekn/networth/internal/modules/assets"
)

func TestResolveSymbol_KnownEquityISIN(t *testing.T) {
	symbol := ResolveSymbol(AggregatedHolding{
		ISIN:      "INE009A01021",
		Name:      "INFOSYS LIMITED",
		AssetType: assets.TypeStock,
	})
	assert.Equal(t, "INFY.NS", symbol)
}

func TestResolveSymbol_KnownFundISIN(t *testing.T) {
	symbol := ResolveSymbol(AggregatedHolding{
		ISIN:      "INF204KB17I5",
		Name:      "NIPPON INDIA ETF GOLD BEES",
		AssetType: assets.TypeMutualFund,
	})
	assert.Equal(t, "GOLDBEES.NS", symbol)
}

func TestResolveSymbol_UnknownFundHasNoGuess(t *testing.T) {
	// Name guessing only applies to equities; an unlisted fund stays blank.
	symbol := ResolveSymbol(AggregatedHolding{
		ISIN:      "INF999X99999",
		Name:      "SOME OBSCURE DEBT FUND",
		AssetType: assets.TypeMutualFund,
	})
	assert.Equal(t, "", symbol)
}

func TestResolveSymbol_EquityFallsBackToGuess(t *testing.T) {
	symbol := ResolveSymbol(AggregatedHolding{
		ISIN:      "INE_UNMAPPED",
		Name:      "RELIANCE INDUSTRIES LIMITED",
		AssetType: assets.TypeStock,
	})
	assert.Equal(t, "RELIANCE.NS", symbol)
}

func TestGuessEquitySymbol(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain company", "RELIANCE INDUSTRIES LIMITED", "RELIANCE.NS"},
		{"lowercase input", "reliance industries ltd", "RELIANCE.NS"},
		{"hash disambiguator", "TATAMOTORS#PARTLY PAID", "TATAMOTORS.NS"},
		{"dash disambiguator", "IDFCFIRSTB-EQ", "IDFCFIRSTB.NS"},
		{"corporate suffix stripped", "WIPRO LTD", "WIPRO.NS"},
		{"equity shares suffix", "KARNATAKA BANK EQUITY SHARES", "KARNATAKA.NS"},
		{"too short after cleanup", "LT LTD", ""},
		{"empty", "", ""},
		{"only suffix", " LTD", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, GuessEquitySymbol(tc.input))
		})
	}
}
