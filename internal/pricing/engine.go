package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricelist/internal/catalog"
)

var one = decimal.NewFromInt(1)

// Quotation is the outcome of resolving one selection against the catalog.
// An unmatched quotation carries zero amounts.
type Quotation struct {
	Item      string           `json:"item"`
	Size      *string          `json:"size"`
	Quantity  int              `json:"quantity"`
	Matched   bool             `json:"matched"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Total     decimal.Decimal  `json:"total"`
	Discount  *decimal.Decimal `json:"discount,omitempty"`
	Tier      string           `json:"tier,omitempty"`
}

// Match returns the first record for item whose size equals size, or which is
// sizeless, and whose quantity break contains qty. Records are scanned in
// catalog order so earlier tiers win over later overlapping ones.
func Match(item, size string, qty int, records []catalog.ProductRecord) (catalog.ProductRecord, bool) {
	for _, rec := range records {
		if rec.Item != item {
			continue
		}
		if rec.Size != nil && *rec.Size != size {
			continue
		}
		if qty < rec.QuantityMin {
			continue
		}
		if rec.QuantityMax != nil && qty > *rec.QuantityMax {
			continue
		}
		return rec, true
	}
	return catalog.ProductRecord{}, false
}

// Quote prices qty units of item in size. It reports Matched=false when no
// tier applies or the matched tier has no usable price.
func Quote(item, size string, qty int, records []catalog.ProductRecord) Quotation {
	q := Quotation{Item: item, Quantity: qty, UnitPrice: decimal.Zero, Total: decimal.Zero}
	if size != "" {
		q.Size = &size
	}
	rec, ok := Match(item, size, qty, records)
	if !ok || !rec.Price.Valid {
		return q
	}
	unit := rec.Price.Decimal
	if rec.Discount != nil && !rec.Discount.IsZero() {
		unit = unit.Mul(one.Sub(*rec.Discount))
		q.Discount = rec.Discount
	}
	q.Matched = true
	q.UnitPrice = unit
	q.Total = unit.Mul(decimal.NewFromInt(int64(qty)))
	q.Tier = rec.TierLabel()
	return q
}

// Resolve returns the total price for qty units of item in size, or zero when
// nothing matches. The result is not rounded.
func Resolve(item, size string, qty int, records []catalog.ProductRecord) decimal.Decimal {
	return Quote(item, size, qty, records).Total
}

// Display formats an amount with two decimals for presentation.
func Display(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// Table prices selections against a fixed record set.
type Table []catalog.ProductRecord

// Quote implements the Quote function over t.
func (t Table) Quote(item, size string, qty int) Quotation {
	return Quote(item, size, qty, t)
}
