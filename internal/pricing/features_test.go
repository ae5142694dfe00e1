package pricing_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/noah-isme/pricelist/internal/catalog"
	"github.com/noah-isme/pricelist/internal/pricing"
)

type pricingTestContext struct {
	records []catalog.ProductRecord
	quote   pricing.Quotation
}

func (c *pricingTestContext) reset() {
	c.records = nil
	c.quote = pricing.Quotation{}
}

func (c *pricingTestContext) theCatalog(table *godog.Table) error {
	raws, err := rawRecordsFromTable(table)
	if err != nil {
		return err
	}
	c.records = catalog.Ingest(context.Background(), raws)
	return nil
}

func (c *pricingTestContext) iPriceOfIn(qty int, item, size string) error {
	c.quote = pricing.Quote(item, size, qty, c.records)
	return nil
}

func (c *pricingTestContext) theTotalIs(want string) error {
	if pricing.Display(c.quote.Total) != pricing.Display(dec(want)) {
		return fmt.Errorf("expected total %s, got %s", want, c.quote.Total)
	}
	return nil
}

func (c *pricingTestContext) theQuoteIsMatched() error {
	if !c.quote.Matched {
		return fmt.Errorf("expected a matched quote for %s", c.quote.Item)
	}
	return nil
}

func (c *pricingTestContext) theQuoteIsNotMatched() error {
	if c.quote.Matched {
		return fmt.Errorf("expected no match for %s, got tier %s", c.quote.Item, c.quote.Tier)
	}
	return nil
}

func (c *pricingTestContext) theTierIs(want string) error {
	if c.quote.Tier != want {
		return fmt.Errorf("expected tier %s, got %s", want, c.quote.Tier)
	}
	return nil
}

// rawRecordsFromTable reads a header row followed by one record per row.
// Blank cells are treated as absent fields.
func rawRecordsFromTable(table *godog.Table) ([]catalog.RawRecord, error) {
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("catalog table has no header")
	}
	header := make([]string, len(table.Rows[0].Cells))
	for i, cell := range table.Rows[0].Cells {
		header[i] = strings.TrimSpace(cell.Value)
	}
	raws := make([]catalog.RawRecord, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		var raw catalog.RawRecord
		for i, cell := range row.Cells {
			var v any
			if value := strings.TrimSpace(cell.Value); value != "" {
				v = value
			}
			switch header[i] {
			case "category":
				raw.Category = v
			case "item":
				raw.Item = v
			case "size":
				raw.Size = v
			case "price":
				raw.Price = v
			case "quantity_min":
				raw.QuantityMin = v
			case "quantity_max":
				raw.QuantityMax = v
			case "discount":
				raw.Discount = v
			default:
				return nil, fmt.Errorf("unknown catalog column %q", header[i])
			}
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &pricingTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the catalog:$`, tc.theCatalog)

	// When steps
	ctx.Step(`^I price (\d+) of "([^"]*)" in "([^"]*)"$`, tc.iPriceOfIn)

	// Then steps
	ctx.Step(`^the total is (\d+(?:\.\d+)?)$`, tc.theTotalIs)
	ctx.Step(`^the quote is matched$`, tc.theQuoteIsMatched)
	ctx.Step(`^the quote is not matched$`, tc.theQuoteIsNotMatched)
	ctx.Step(`^the tier is "([^"]*)"$`, tc.theTierIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/resolve_price.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
