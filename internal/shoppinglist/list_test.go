package shoppinglist_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricelist/internal/catalog"
	"github.com/noah-isme/pricelist/internal/pricing"
	"github.com/noah-isme/pricelist/internal/shoppinglist"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func price(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s got %s", want, got)
}

func records() []catalog.ProductRecord {
	return []catalog.ProductRecord{
		{Category: "Clay", Item: "Slab", Size: strPtr("10kg"), Price: price("10"), QuantityMin: 1, QuantityMax: intPtr(9)},
		{Category: "Clay", Item: "Slab", Size: strPtr("10kg"), Price: price("8"), QuantityMin: 10},
		{Category: "Clay", Item: "Bag", Size: strPtr("10kg"), Price: price("25.99"), QuantityMin: 1},
	}
}

func TestAddLinePricesSelection(t *testing.T) {
	var list shoppinglist.List
	line, ok := list.AddLine("Bag", "10kg", 3, pricing.Table(records()))
	require.True(t, ok)
	require.True(t, line.Matched)
	requireDecimal(t, "77.97", line.Price)
	requireDecimal(t, "25.99", line.UnitPrice)
	require.Len(t, list.Lines, 1)
}

func TestAddLineIgnoresEmptyItem(t *testing.T) {
	var list shoppinglist.List
	_, ok := list.AddLine("  ", "10kg", 1, pricing.Table(records()))
	require.False(t, ok)
	require.Empty(t, list.Lines)
}

func TestAddLineKeepsUnpricedSelection(t *testing.T) {
	var list shoppinglist.List
	line, ok := list.AddLine("Bag", "20kg", 2, pricing.Table(records()))
	require.True(t, ok)
	require.False(t, line.Matched)
	require.True(t, line.Price.IsZero())
	require.True(t, list.GrandTotal().IsZero())
}

func TestSetLineQuantityRepricesAcrossTier(t *testing.T) {
	table := pricing.Table(records())
	var list shoppinglist.List
	list.AddLine("Slab", "10kg", 5, table)
	requireDecimal(t, "50", list.Lines[0].Price)

	line, err := list.SetLineQuantity(0, 12, table)
	require.NoError(t, err)
	require.Equal(t, 12, line.Quantity)
	requireDecimal(t, "96", line.Price)
	requireDecimal(t, "96", list.GrandTotal())
}

func TestSetLineQuantityClampsToOne(t *testing.T) {
	table := pricing.Table(records())
	var list shoppinglist.List
	list.AddLine("Slab", "10kg", 5, table)
	line, err := list.SetLineQuantity(0, -3, table)
	require.NoError(t, err)
	require.Equal(t, 1, line.Quantity)
	requireDecimal(t, "10", line.Price)
}

func TestSetLineQuantityUsesCurrentCatalog(t *testing.T) {
	var list shoppinglist.List
	list.AddLine("Bag", "10kg", 1, pricing.Table(records()))

	updated := records()
	updated[2].Price = price("30")
	_, err := list.SetLineQuantity(0, 2, pricing.Table(updated))
	require.NoError(t, err)
	requireDecimal(t, "60", list.GrandTotal())
}

func TestLineIndexOutOfRange(t *testing.T) {
	table := pricing.Table(records())
	var list shoppinglist.List
	list.AddLine("Bag", "10kg", 1, table)

	_, err := list.SetLineQuantity(1, 2, table)
	require.ErrorIs(t, err, shoppinglist.ErrLineNotFound)
	_, err = list.SetLineQuantity(-1, 2, table)
	require.ErrorIs(t, err, shoppinglist.ErrLineNotFound)
	require.ErrorIs(t, list.RemoveLine(3), shoppinglist.ErrLineNotFound)
}

func TestRemoveLineShiftsLaterLines(t *testing.T) {
	table := pricing.Table(records())
	var list shoppinglist.List
	list.AddLine("Slab", "10kg", 2, table)
	list.AddLine("Bag", "10kg", 3, table)
	requireDecimal(t, "97.97", list.GrandTotal())

	require.NoError(t, list.RemoveLine(0))
	require.Len(t, list.Lines, 1)
	require.Equal(t, "Bag", list.Lines[0].Item)
	requireDecimal(t, "77.97", list.GrandTotal())
}
