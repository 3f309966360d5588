package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivekn/networth/internal/modules/assets"
)

func TestAggregate_MergesByISIN(t *testing.T) {
	// Same instrument held in two demat accounts
	items := []IncomingItem{
		{Name: "INFOSYS LIMITED", AssetType: assets.TypeStock, Quantity: 10, Value: 15000, ISIN: "INE009A01021", SubAccount: "DP One"},
		{Name: "INFOSYS LTD", AssetType: assets.TypeStock, Quantity: 5, Value: 7500, ISIN: "INE009A01021", SubAccount: "DP Two"},
	}

	agg := Aggregate(items)
	require.Len(t, agg, 1)

	entry := agg["INE009A01021"]
	assert.Equal(t, 15.0, entry.Quantity)
	assert.Equal(t, 22500.0, entry.Value)
	assert.Equal(t, "INFOSYS LIMITED", entry.Name, "first name wins")
	assert.Equal(t, "DP One", entry.SubAccount, "first label wins")
	assert.Equal(t, 1500.0, entry.UnitPrice())
}

func TestAggregate_NameFallbackIsCaseInsensitive(t *testing.T) {
	items := []IncomingItem{
		{Name: "Parag Parikh Flexi Cap", AssetType: assets.TypeMutualFund, Quantity: 100, Value: 8000},
		{Name: "  parag parikh flexi cap ", AssetType: assets.TypeMutualFund, Quantity: 50, Value: 4000},
	}

	agg := Aggregate(items)
	require.Len(t, agg, 1)
	assert.Equal(t, 150.0, agg["parag parikh flexi cap"].Quantity)
}

func TestAggregate_ISINAndNameDoNotCollide(t *testing.T) {
	// One item has an identifier, the other only a name; different keys
	// even though the instruments might be the same in the real world.
	items := []IncomingItem{
		{Name: "WIPRO LTD", AssetType: assets.TypeStock, Quantity: 10, Value: 4500, ISIN: "INE075A01022"},
		{Name: "WIPRO LTD", AssetType: assets.TypeStock, Quantity: 10, Value: 4500},
	}

	agg := Aggregate(items)
	assert.Len(t, agg, 2)
}

func TestAggregate_DropsNonPositiveQuantities(t *testing.T) {
	items := []IncomingItem{
		{Name: "Zeroed Out", AssetType: assets.TypeStock, Quantity: 0, Value: 0, ISIN: "IN1"},
		{Name: "Offset", AssetType: assets.TypeStock, Quantity: 5, Value: 100, ISIN: "IN2"},
		{Name: "Offset", AssetType: assets.TypeStock, Quantity: -5, Value: -100, ISIN: "IN2"},
		{Name: "Kept", AssetType: assets.TypeStock, Quantity: 1, Value: 10, ISIN: "IN3"},
	}

	agg := Aggregate(items)
	require.Len(t, agg, 1)
	assert.Contains(t, agg, "IN3")
}

func TestAggregate_SkipsItemsWithNoKey(t *testing.T) {
	items := []IncomingItem{
		{Name: "   ", AssetType: assets.TypeStock, Quantity: 10, Value: 100},
		{Name: "", AssetType: assets.TypeStock, Quantity: 10, Value: 100},
	}

	agg := Aggregate(items)
	assert.Empty(t, agg)
}

func TestAggregate_OrderIndependentTotals(t *testing.T) {
	forward := []IncomingItem{
		{Name: "A", Quantity: 1, Value: 10, ISIN: "X"},
		{Name: "B", Quantity: 2, Value: 20, ISIN: "X"},
		{Name: "C", Quantity: 3, Value: 30, ISIN: "Y"},
	}
	reversed := []IncomingItem{forward[2], forward[1], forward[0]}

	a := Aggregate(forward)
	b := Aggregate(reversed)

	require.Len(t, a, 2)
	require.Len(t, b, 2)
	assert.Equal(t, a["X"].Quantity, b["X"].Quantity)
	assert.Equal(t, a["X"].Value, b["X"].Value)
	assert.Equal(t, a["Y"].Quantity, b["Y"].Quantity)
}

func TestUnitPrice_ZeroQuantity(t *testing.T) {
	assert.Equal(t, 0.0, AggregatedHolding{Quantity: 0, Value: 100}.UnitPrice())
}
