package catalog_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricelist/internal/catalog"
)

func browseFixture(t *testing.T) []catalog.ProductRecord {
	t.Helper()
	return catalog.Ingest(context.Background(), []catalog.RawRecord{
		{Category: "Glazes", Item: "Clear Glaze", Size: "1L", Price: 19.99},
		{Category: "Clay", Item: "Stoneware Clay", Size: "20kg", Price: 48.5},
		{Category: "Clay", Item: "Stoneware Clay", Size: "10kg", Price: 25.99, QuantityMax: 9},
		{Category: "Clay", Item: "Stoneware Clay", Size: "10kg", Price: 23.99, QuantityMin: 10},
		{Category: "Clay", Item: "Porcelain Clay", Size: "5kg", Price: 35.99},
		{Category: "Tools", Item: "Kiln Shelf", Price: 45.99},
	})
}

func TestBrowseSortsCategoriesItemsAndVariants(t *testing.T) {
	view := catalog.Browse(context.Background(), browseFixture(t), catalog.BrowseParams{})
	require.Len(t, view, 3)
	require.Equal(t, "Clay", view[0].Name)
	require.Equal(t, "Glazes", view[1].Name)
	require.Equal(t, "Tools", view[2].Name)

	clay := view[0]
	require.Equal(t, "Porcelain Clay", clay.Items[0].Name)
	require.Equal(t, "Stoneware Clay", clay.Items[1].Name)

	variants := clay.Items[1].Variants
	require.Len(t, variants, 3)
	require.Equal(t, "10kg", *variants[0].Size)
	require.Equal(t, "1-9", variants[0].Tier)
	require.Equal(t, "10kg", *variants[1].Size)
	require.Equal(t, "10+", variants[1].Tier)
	require.Equal(t, "20kg", *variants[2].Size)

	require.True(t, view[2].Items[0].Sizeless)
}

func TestBrowseFiltersByCategory(t *testing.T) {
	view := catalog.Browse(context.Background(), browseFixture(t), catalog.ParseBrowseParams(url.Values{"category": {"Glazes"}}))
	require.Len(t, view, 1)
	require.Equal(t, "Glazes", view[0].Name)
}

func TestBrowseSearchIgnoresCategory(t *testing.T) {
	params := catalog.ParseBrowseParams(url.Values{"q": {"PORCELAIN"}, "category": {"Tools"}})
	view := catalog.Browse(context.Background(), browseFixture(t), params)
	require.Len(t, view, 1)
	require.Equal(t, "Clay", view[0].Name)
	require.Len(t, view[0].Items, 1)
	require.Equal(t, "Porcelain Clay", view[0].Items[0].Name)
}

func TestBrowseSearchMatchesSizeAndPrice(t *testing.T) {
	bySize := catalog.Browse(context.Background(), browseFixture(t), catalog.BrowseParams{Query: "1l"})
	require.Len(t, bySize, 1)
	require.Equal(t, "Clear Glaze", bySize[0].Items[0].Name)

	byPrice := catalog.Browse(context.Background(), browseFixture(t), catalog.BrowseParams{Query: "45.99"})
	require.Len(t, byPrice, 1)
	require.Equal(t, "Kiln Shelf", byPrice[0].Items[0].Name)

	none := catalog.Browse(context.Background(), browseFixture(t), catalog.BrowseParams{Query: "raku"})
	require.Empty(t, none)
}

func TestItemSizes(t *testing.T) {
	records := browseFixture(t)
	sizes, sizeless, found := catalog.ItemSizes(context.Background(), records, "Stoneware Clay")
	require.True(t, found)
	require.False(t, sizeless)
	require.Equal(t, []string{"10kg", "20kg"}, sizes)

	sizes, sizeless, found = catalog.ItemSizes(context.Background(), records, "Kiln Shelf")
	require.True(t, found)
	require.True(t, sizeless)
	require.Empty(t, sizes)

	_, _, found = catalog.ItemSizes(context.Background(), records, "Raku Kiln")
	require.False(t, found)
}
