package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricelist/internal/catalog"
)

func rec(category, item string) catalog.ProductRecord {
	return catalog.ProductRecord{Category: category, Item: item, QuantityMin: 1}
}

func TestBuildIndexKeepsFirstSeenOrder(t *testing.T) {
	index := catalog.BuildIndex([]catalog.ProductRecord{
		rec("Clay", "A"),
		rec("Glaze", "B"),
		rec("Clay", "C"),
	})
	require.Len(t, index, 2)
	require.Equal(t, "Clay", index[0].Name)
	require.Equal(t, []string{"A", "C"}, index[0].ItemNames())
	require.Equal(t, "Glaze", index[1].Name)
	require.Equal(t, []string{"B"}, index[1].ItemNames())
}

func TestBuildIndexDeduplicatesItems(t *testing.T) {
	index := catalog.BuildIndex([]catalog.ProductRecord{
		rec("Clay", "Bag"),
		rec("Clay", "Bag"),
		rec("Tools", "Wheel"),
		rec("Clay", "Slip"),
		rec("Clay", "Bag"),
	})
	require.Equal(t, []string{"Bag", "Slip"}, index[0].ItemNames())
	require.Equal(t, []string{"Wheel"}, index[1].ItemNames())
}

func TestBuildIndexEmpty(t *testing.T) {
	index := catalog.BuildIndex(nil)
	require.NotNil(t, index)
	require.Empty(t, index)
}

func TestBuildIndexClayGlaze(t *testing.T) {
	index := catalog.BuildIndex([]catalog.ProductRecord{
		rec("Clay", "Stoneware"),
		rec("Clay", "Porcelain"),
		rec("Glaze", "Clear"),
	})
	require.Equal(t, "Clay", index[0].Name)
	require.Equal(t, "Glaze", index[1].Name)
	require.Equal(t, []string{"Stoneware", "Porcelain"}, index[0].ItemNames())
}
