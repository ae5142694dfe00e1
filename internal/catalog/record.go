package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/noah-isme/pricelist/internal/units"
)

var validate = validator.New()

// ProductRecord is one price tier of one item variant.
type ProductRecord struct {
	Category string `json:"category" validate:"required"`
	Item     string `json:"item" validate:"required"`
	// Size is nil for sizeless items.
	Size        *string             `json:"size" validate:"-"`
	Price       decimal.NullDecimal `json:"price" validate:"-"`
	QuantityMin int                 `json:"quantity_min" validate:"min=1"`
	// QuantityMax is nil for an unbounded tier.
	QuantityMax *int             `json:"quantity_max" validate:"omitempty,min=1"`
	Discount    *decimal.Decimal `json:"discount,omitempty" validate:"-"`
}

// SizeLabel returns the record size or an empty string for sizeless records.
func (r ProductRecord) SizeLabel() string {
	if r.Size == nil {
		return ""
	}
	return *r.Size
}

// TierLabel renders the quantity break as "1-9" or "10+".
func (r ProductRecord) TierLabel() string {
	min := r.QuantityMin
	if min < 1 {
		min = 1
	}
	if r.QuantityMax == nil {
		return strconv.Itoa(min) + "+"
	}
	return strconv.Itoa(min) + "-" + strconv.Itoa(*r.QuantityMax)
}

// RawRecord is a loosely typed record as delivered by a catalog source.
// Numeric fields may arrive as numbers or strings.
type RawRecord struct {
	Category    any            `json:"category"`
	Item        any            `json:"item"`
	Size        any            `json:"size"`
	Price       any            `json:"price"`
	QuantityMin any            `json:"quantity_min"`
	QuantityMax any            `json:"quantity_max"`
	Discount    any            `json:"discount"`
	Prices      map[string]any `json:"prices,omitempty"`
}

// Ingest converts raw records into validated ProductRecords, preserving
// order. Structurally malformed records are dropped and logged. Records whose
// price or discount is not numeric are kept with an invalid price so they
// still take part in tier matching but never produce a price.
func Ingest(ctx context.Context, raws []RawRecord) []ProductRecord {
	logger := zerolog.Ctx(ctx)
	out := make([]ProductRecord, 0, len(raws))
	for i, raw := range raws {
		records, err := ingestOne(ctx, raw)
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("catalog_record_dropped")
			continue
		}
		for _, rec := range records {
			if !rec.Price.Valid {
				logger.Warn().Int("index", i).Str("item", rec.Item).Str("size", rec.SizeLabel()).Msg("catalog_record_invalid_price")
			}
		}
		out = append(out, records...)
	}
	return out
}

func ingestOne(ctx context.Context, raw RawRecord) ([]ProductRecord, error) {
	base := ProductRecord{
		Category: strings.TrimSpace(cast.ToString(raw.Category)),
		Item:     strings.TrimSpace(cast.ToString(raw.Item)),
		Size:     parseSize(raw.Size),
	}
	min, err := parseOptionalInt(raw.QuantityMin)
	if err != nil {
		return nil, fmt.Errorf("quantity_min: %w", err)
	}
	base.QuantityMin = 1
	if min != nil {
		base.QuantityMin = *min
	}
	base.QuantityMax, err = parseOptionalInt(raw.QuantityMax)
	if err != nil {
		return nil, fmt.Errorf("quantity_max: %w", err)
	}

	discountValid := true
	if !isBlank(raw.Discount) {
		d, err := parseDecimal(raw.Discount)
		if err != nil {
			discountValid = false
		} else {
			if d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
				return nil, fmt.Errorf("discount %s outside [0,1)", d.String())
			}
			base.Discount = &d
		}
	}

	var records []ProductRecord
	if isBlank(raw.Price) && len(raw.Prices) > 0 {
		records = expandPrices(ctx, base, raw.Prices)
	} else {
		rec := base
		rec.Price = parsePrice(raw.Price)
		records = []ProductRecord{rec}
	}

	for i := range records {
		if !discountValid {
			records[i].Price = decimal.NullDecimal{}
		}
		if err := validateRecord(records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func validateRecord(rec ProductRecord) error {
	if err := validate.Struct(rec); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	if rec.QuantityMax != nil && *rec.QuantityMax < rec.QuantityMin {
		return fmt.Errorf("quantity_max %d below quantity_min %d", *rec.QuantityMax, rec.QuantityMin)
	}
	if rec.Price.Valid && rec.Price.Decimal.IsNegative() {
		return errors.New("negative price")
	}
	return nil
}

// expandPrices turns a size->price map into one record per size, ordered by
// size magnitude then label so that map iteration order never leaks out.
func expandPrices(ctx context.Context, base ProductRecord, prices map[string]any) []ProductRecord {
	sizes := make([]string, 0, len(prices))
	for size := range prices {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)
	units.Sort(ctx, sizes)
	records := make([]ProductRecord, 0, len(sizes))
	for _, size := range sizes {
		rec := base
		rec.Size = parseSize(size)
		if size == "null" {
			rec.Size = nil
		}
		rec.Price = parsePrice(prices[size])
		records = append(records, rec)
	}
	return records
}

func parseSize(v any) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(cast.ToString(v))
	if s == "" {
		return nil
	}
	return &s
}

func parsePrice(v any) decimal.NullDecimal {
	d, err := parseDecimal(v)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func parseDecimal(v any) (decimal.Decimal, error) {
	if v == nil {
		return decimal.Decimal{}, errors.New("missing number")
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}

// parseOptionalInt reads textual quantities as base 10 so that zero-padded
// values such as "010" are not taken for octal.
func parseOptionalInt(v any) (*int, error) {
	if isBlank(v) {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", s, err)
		}
		if !d.IsInteger() {
			return nil, fmt.Errorf("parse %q: not a whole number", s)
		}
		n := int(d.IntPart())
		return &n, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
