package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/lib/pq"

	"github.com/noah-isme/pricelist/internal/catalog"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := catalog.Migrate(dbURL); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	ctx := context.Background()
	records, source, err := loadRecords(ctx, os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	if err := seedPrices(ctx, db, records); err != nil {
		log.Fatalf("Failed to seed product prices: %v", err)
	}
	log.Printf("Seeded %d price rows from %s", len(records), source)
}

func loadRecords(ctx context.Context, args []string) ([]catalog.ProductRecord, string, error) {
	if len(args) == 0 {
		records, err := catalog.DefaultRecords(ctx)
		return records, "built-in catalog", err
	}
	records, err := catalog.CSVProvider{Path: args[0]}.Fetch(ctx)
	return records, args[0], err
}

// seedPrices replaces the table contents so repeated runs converge on the
// same rows in the same order.
func seedPrices(ctx context.Context, db *sql.DB, records []catalog.ProductRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM product_prices"); err != nil {
		return fmt.Errorf("clear product_prices: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("product_prices",
		"position", "category", "item", "size", "price", "quantity_min", "quantity_max", "discount"))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}
	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, row(i, rec)...); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("copy row %d (%s): %w", i, rec.Item, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return err
	}
	return tx.Commit()
}

func row(position int, rec catalog.ProductRecord) []any {
	var size, price, max, discount any
	if rec.Size != nil {
		size = *rec.Size
	}
	if rec.Price.Valid {
		price = rec.Price.Decimal.String()
	}
	if rec.QuantityMax != nil {
		max = *rec.QuantityMax
	}
	if rec.Discount != nil {
		discount = rec.Discount.String()
	}
	return []any{position, rec.Category, rec.Item, size, price, rec.QuantityMin, max, discount}
}
