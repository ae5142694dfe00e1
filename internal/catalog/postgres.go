package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const listProductPricesSQL = `SELECT category, item, size, price::text, quantity_min, quantity_max, discount::text
FROM product_prices
ORDER BY position, id`

// undefinedTable is the Postgres error code for a missing relation.
const undefinedTable = "42P01"

// ErrSchemaMissing is returned when product_prices has not been migrated.
var ErrSchemaMissing = errors.New("catalog: product_prices table missing")

// Querier is the subset of pgxpool.Pool used by PostgresProvider.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresProvider reads the price list from the product_prices table in
// position order.
type PostgresProvider struct {
	DB Querier
}

// Fetch loads and ingests every row of product_prices.
func (p PostgresProvider) Fetch(ctx context.Context) ([]ProductRecord, error) {
	if p.DB == nil {
		return nil, errors.New("catalog: postgres provider not configured")
	}
	rows, err := p.DB.Query(ctx, listProductPricesSQL)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
			return nil, fmt.Errorf("%w: %v", ErrSchemaMissing, err)
		}
		return nil, fmt.Errorf("query product prices: %w", err)
	}
	defer rows.Close()

	var raws []RawRecord
	for rows.Next() {
		var (
			category, item    string
			size, price, disc *string
			minQty            int32
			maxQty            *int32
		)
		if err := rows.Scan(&category, &item, &size, &price, &minQty, &maxQty, &disc); err != nil {
			return nil, fmt.Errorf("scan product price: %w", err)
		}
		raw := RawRecord{Category: category, Item: item, QuantityMin: int(minQty)}
		if size != nil {
			raw.Size = *size
		}
		if price != nil {
			raw.Price = *price
		}
		if maxQty != nil {
			raw.QuantityMax = int(*maxQty)
		}
		if disc != nil {
			raw.Discount = *disc
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
			return nil, fmt.Errorf("%w: %v", ErrSchemaMissing, err)
		}
		return nil, fmt.Errorf("iterate product prices: %w", err)
	}
	return Ingest(ctx, raws), nil
}
