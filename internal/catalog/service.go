package catalog

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricelist/internal/units"
)

// BrowseParams filters the grouped catalog view.
type BrowseParams struct {
	Query    string
	Category string
}

// ParseBrowseParams reads q and category from the query string.
func ParseBrowseParams(values url.Values) BrowseParams {
	return BrowseParams{
		Query:    strings.TrimSpace(values.Get("q")),
		Category: strings.TrimSpace(values.Get("category")),
	}
}

// BrowseCategory is a category in the grouped catalog view.
type BrowseCategory struct {
	Name  string       `json:"name"`
	Items []BrowseItem `json:"items"`
}

// BrowseItem lists every price variant of one item.
type BrowseItem struct {
	Name     string    `json:"name"`
	Sizeless bool      `json:"sizeless"`
	Variants []Variant `json:"variants"`
}

// Variant is one size and price break of an item.
type Variant struct {
	Size        *string             `json:"size"`
	Price       decimal.NullDecimal `json:"price"`
	QuantityMin int                 `json:"quantity_min"`
	QuantityMax *int                `json:"quantity_max"`
	Discount    *decimal.Decimal    `json:"discount,omitempty"`
	Tier        string              `json:"tier"`
}

// Browse groups records by category and item. Categories and items are sorted
// by name and variants by size magnitude. A non-empty query matches item
// names, sizes and prices case-insensitively and ignores the category filter.
func Browse(ctx context.Context, records []ProductRecord, params BrowseParams) []BrowseCategory {
	query := strings.ToLower(params.Query)
	category := params.Category
	if query != "" {
		category = ""
	}

	matched := make(map[string]bool)
	if query != "" {
		for _, rec := range records {
			if matchesQuery(rec, query) {
				matched[rec.Item] = true
			}
		}
	}

	magnitudes := make(map[string]float64)
	grouped := make(map[string]map[string]*BrowseItem)
	for _, rec := range records {
		if category != "" && rec.Category != category {
			continue
		}
		if query != "" && !matched[rec.Item] {
			continue
		}
		items, ok := grouped[rec.Category]
		if !ok {
			items = make(map[string]*BrowseItem)
			grouped[rec.Category] = items
		}
		item, ok := items[rec.Item]
		if !ok {
			item = &BrowseItem{Name: rec.Item, Sizeless: rec.Size == nil}
			items[rec.Item] = item
		}
		if rec.Size != nil {
			if _, ok := magnitudes[*rec.Size]; !ok {
				magnitudes[*rec.Size] = units.Normalize(ctx, *rec.Size)
			}
		}
		item.Variants = append(item.Variants, Variant{
			Size:        rec.Size,
			Price:       rec.Price,
			QuantityMin: rec.QuantityMin,
			QuantityMax: rec.QuantityMax,
			Discount:    rec.Discount,
			Tier:        rec.TierLabel(),
		})
	}

	out := make([]BrowseCategory, 0, len(grouped))
	for name, items := range grouped {
		bc := BrowseCategory{Name: name, Items: make([]BrowseItem, 0, len(items))}
		for _, item := range items {
			sort.SliceStable(item.Variants, func(i, j int) bool {
				return variantMagnitude(item.Variants[i], magnitudes) < variantMagnitude(item.Variants[j], magnitudes)
			})
			bc.Items = append(bc.Items, *item)
		}
		sort.Slice(bc.Items, func(i, j int) bool { return lessName(bc.Items[i].Name, bc.Items[j].Name) })
		out = append(out, bc)
	}
	sort.Slice(out, func(i, j int) bool { return lessName(out[i].Name, out[j].Name) })
	return out
}

// ItemSizes returns the distinct sizes of item ordered by magnitude. sizeless
// reports whether the item's first record has no size, in which case callers
// skip size selection. found is false when no record names the item.
func ItemSizes(ctx context.Context, records []ProductRecord, item string) (sizes []string, sizeless bool, found bool) {
	sizes = make([]string, 0)
	seen := make(map[string]struct{})
	for _, rec := range records {
		if rec.Item != item {
			continue
		}
		if !found {
			found = true
			sizeless = rec.Size == nil
		}
		if rec.Size == nil {
			continue
		}
		if _, dup := seen[*rec.Size]; dup {
			continue
		}
		seen[*rec.Size] = struct{}{}
		sizes = append(sizes, *rec.Size)
	}
	units.Sort(ctx, sizes)
	return sizes, sizeless, found
}

func matchesQuery(rec ProductRecord, query string) bool {
	if strings.Contains(strings.ToLower(rec.Item), query) {
		return true
	}
	if rec.Size != nil && strings.Contains(strings.ToLower(*rec.Size), query) {
		return true
	}
	return rec.Price.Valid && strings.Contains(rec.Price.Decimal.String(), query)
}

func variantMagnitude(v Variant, magnitudes map[string]float64) float64 {
	if v.Size == nil {
		return 0
	}
	return magnitudes[*v.Size]
}

func lessName(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
