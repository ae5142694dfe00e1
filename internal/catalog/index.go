package catalog

// Category groups the items of one catalog category.
type Category struct {
	Name  string      `json:"name"`
	Items []IndexItem `json:"items"`
}

// IndexItem is one distinct item name within a category.
type IndexItem struct {
	Name string `json:"name"`
}

// BuildIndex groups records by category. Categories and the items within
// each category keep the order in which they first appear in records.
func BuildIndex(records []ProductRecord) []Category {
	out := make([]Category, 0)
	position := make(map[string]int)
	seen := make(map[string]map[string]struct{})
	for _, rec := range records {
		idx, ok := position[rec.Category]
		if !ok {
			idx = len(out)
			position[rec.Category] = idx
			seen[rec.Category] = make(map[string]struct{})
			out = append(out, Category{Name: rec.Category, Items: []IndexItem{}})
		}
		if _, dup := seen[rec.Category][rec.Item]; dup {
			continue
		}
		seen[rec.Category][rec.Item] = struct{}{}
		out[idx].Items = append(out[idx].Items, IndexItem{Name: rec.Item})
	}
	return out
}

// ItemNames returns the item names of c in index order.
func (c Category) ItemNames() []string {
	names := make([]string, len(c.Items))
	for i, item := range c.Items {
		names[i] = item.Name
	}
	return names
}
