package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

type csvRow struct {
	Category    string `csv:"category"`
	Item        string `csv:"item"`
	Size        string `csv:"size"`
	Price       string `csv:"price"`
	QuantityMin string `csv:"quantity_min"`
	QuantityMax string `csv:"quantity_max"`
	Discount    string `csv:"discount"`
}

// CSVProvider reads a price list file with the header
// category,item,size,price,quantity_min,quantity_max,discount.
type CSVProvider struct {
	Path string
}

// Fetch opens and ingests the configured file.
func (p CSVProvider) Fetch(ctx context.Context) ([]ProductRecord, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog csv: %w", err)
	}
	defer f.Close()
	return DecodeCSV(ctx, f)
}

// DecodeCSV reads CSV price rows and ingests them. Blank cells count as absent.
func DecodeCSV(ctx context.Context, r io.Reader) ([]ProductRecord, error) {
	var rows []csvRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("decode catalog csv: %w", err)
	}
	raws := make([]RawRecord, 0, len(rows))
	for _, row := range rows {
		raws = append(raws, RawRecord{
			Category:    row.Category,
			Item:        row.Item,
			Size:        blankToNil(row.Size),
			Price:       blankToNil(row.Price),
			QuantityMin: blankToNil(row.QuantityMin),
			QuantityMax: blankToNil(row.QuantityMax),
			Discount:    blankToNil(row.Discount),
		})
	}
	return Ingest(ctx, raws), nil
}

// EncodeCSV writes records in the format DecodeCSV reads.
func EncodeCSV(w io.Writer, records []ProductRecord) error {
	rows := make([]csvRow, 0, len(records))
	for _, rec := range records {
		row := csvRow{
			Category:    rec.Category,
			Item:        rec.Item,
			Size:        rec.SizeLabel(),
			QuantityMin: fmt.Sprint(rec.QuantityMin),
		}
		if rec.Price.Valid {
			row.Price = rec.Price.Decimal.String()
		}
		if rec.QuantityMax != nil {
			row.QuantityMax = fmt.Sprint(*rec.QuantityMax)
		}
		if rec.Discount != nil {
			row.Discount = rec.Discount.String()
		}
		rows = append(rows, row)
	}
	return gocsv.Marshal(rows, w)
}

func blankToNil(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
