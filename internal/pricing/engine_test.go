package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricelist/internal/catalog"
	"github.com/noah-isme/pricelist/internal/pricing"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func price(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "want %s got %s", want, got)
}

func tiered() []catalog.ProductRecord {
	return []catalog.ProductRecord{
		{Category: "Clay", Item: "Slab", Size: strPtr("10kg"), Price: price("10"), QuantityMin: 1, QuantityMax: intPtr(9)},
		{Category: "Clay", Item: "Slab", Size: strPtr("10kg"), Price: price("8"), QuantityMin: 10},
	}
}

func TestResolveBagExample(t *testing.T) {
	records := []catalog.ProductRecord{
		{Category: "Clay", Item: "Bag", Size: strPtr("10kg"), Price: price("25.99"), QuantityMin: 1},
	}
	requireDecimal(t, "77.97", pricing.Resolve("Bag", "10kg", 3, records))
	require.True(t, pricing.Resolve("Bag", "20kg", 1, records).IsZero())
	require.True(t, pricing.Resolve("Sack", "10kg", 1, records).IsZero())
}

func TestResolveTierBoundary(t *testing.T) {
	records := tiered()
	requireDecimal(t, "90", pricing.Resolve("Slab", "10kg", 9, records))
	requireDecimal(t, "80", pricing.Resolve("Slab", "10kg", 10, records))
	requireDecimal(t, "10", pricing.Resolve("Slab", "10kg", 1, records))
}

func TestResolveIsLinearWithinTier(t *testing.T) {
	records := tiered()
	base := pricing.Resolve("Slab", "10kg", 2, records)
	for q := 3; q <= 9; q++ {
		got := pricing.Resolve("Slab", "10kg", q, records)
		requireDecimal(t, base.Div(decimal.NewFromInt(2)).Mul(decimal.NewFromInt(int64(q))).String(), got)
	}
}

func TestResolveAppliesDiscount(t *testing.T) {
	discount := dec("0.25")
	plain := []catalog.ProductRecord{{Category: "Glaze", Item: "Clear", Size: strPtr("1L"), Price: price("20"), QuantityMin: 1}}
	discounted := []catalog.ProductRecord{{Category: "Glaze", Item: "Clear", Size: strPtr("1L"), Price: price("20"), QuantityMin: 1, Discount: &discount}}

	full := pricing.Resolve("Clear", "1L", 3, plain)
	got := pricing.Resolve("Clear", "1L", 3, discounted)
	requireDecimal(t, "60", full)
	requireDecimal(t, "45", got)
	require.True(t, got.LessThan(full))

	zero := decimal.Zero
	zeroDiscount := []catalog.ProductRecord{{Category: "Glaze", Item: "Clear", Size: strPtr("1L"), Price: price("20"), QuantityMin: 1, Discount: &zero}}
	requireDecimal(t, "60", pricing.Resolve("Clear", "1L", 3, zeroDiscount))
}

func TestResolveFallsBackToSizelessRecord(t *testing.T) {
	records := []catalog.ProductRecord{
		{Category: "Tools", Item: "Shelf", Size: strPtr("small"), Price: price("30"), QuantityMin: 1},
		{Category: "Tools", Item: "Shelf", Price: price("45.99"), QuantityMin: 1},
	}
	requireDecimal(t, "91.98", pricing.Resolve("Shelf", "large", 2, records))
	requireDecimal(t, "30", pricing.Resolve("Shelf", "small", 1, records))
	requireDecimal(t, "45.99", pricing.Resolve("Shelf", "", 1, records))
}

func TestResolveSizelessDoesNotOutrankEarlierExactSize(t *testing.T) {
	records := []catalog.ProductRecord{
		{Category: "Tools", Item: "Shelf", Size: strPtr("small"), Price: price("30"), QuantityMin: 1},
		{Category: "Tools", Item: "Shelf", Price: price("45"), QuantityMin: 1},
	}
	requireDecimal(t, "30", pricing.Resolve("Shelf", "small", 1, records))

	reversed := []catalog.ProductRecord{records[1], records[0]}
	requireDecimal(t, "45", pricing.Resolve("Shelf", "small", 1, reversed))
}

func TestResolveFirstMatchWinsOnOverlap(t *testing.T) {
	records := []catalog.ProductRecord{
		{Category: "Clay", Item: "Bag", Size: strPtr("10kg"), Price: price("5"), QuantityMin: 1, QuantityMax: intPtr(20)},
		{Category: "Clay", Item: "Bag", Size: strPtr("10kg"), Price: price("4"), QuantityMin: 10},
	}
	requireDecimal(t, "75", pricing.Resolve("Bag", "10kg", 15, records))
	requireDecimal(t, "84", pricing.Resolve("Bag", "10kg", 21, records))
}

func TestResolveInvalidPriceIsNoMatch(t *testing.T) {
	records := []catalog.ProductRecord{
		{Category: "Clay", Item: "Bag", Size: strPtr("10kg"), QuantityMin: 1},
		{Category: "Clay", Item: "Bag", Size: strPtr("10kg"), Price: price("5"), QuantityMin: 1},
	}
	q := pricing.Quote("Bag", "10kg", 2, records)
	require.False(t, q.Matched)
	require.True(t, q.Total.IsZero())
}

func TestResolveQuantityZeroNeverMatches(t *testing.T) {
	require.True(t, pricing.Resolve("Slab", "10kg", 0, tiered()).IsZero())
}

func TestQuoteExposesUnitPriceAndTier(t *testing.T) {
	discount := dec("0.1")
	records := []catalog.ProductRecord{
		{Category: "Clay", Item: "Paper Clay", Size: strPtr("50lb"), Price: price("64.00"), QuantityMin: 1, Discount: &discount},
	}
	q := pricing.Table(records).Quote("Paper Clay", "50lb", 2)
	require.True(t, q.Matched)
	requireDecimal(t, "57.6", q.UnitPrice)
	requireDecimal(t, "115.2", q.Total)
	require.Equal(t, "1+", q.Tier)
	require.Equal(t, "50lb", *q.Size)
	require.Equal(t, "115.20", pricing.Display(q.Total))
}
