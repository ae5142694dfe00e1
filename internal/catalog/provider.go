package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
)

// Provider supplies the flat, ordered list of price records.
type Provider interface {
	Fetch(ctx context.Context) ([]ProductRecord, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) ([]ProductRecord, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(ctx context.Context) ([]ProductRecord, error) {
	return f(ctx)
}

//go:embed data/default_catalog.json
var defaultCatalog []byte

// StaticProvider serves a fixed catalog. With no Records it serves the
// built-in demonstration catalog.
type StaticProvider struct {
	Records []ProductRecord
}

// Fetch returns a copy of the configured records.
func (p StaticProvider) Fetch(ctx context.Context) ([]ProductRecord, error) {
	if p.Records == nil {
		return DefaultRecords(ctx)
	}
	out := make([]ProductRecord, len(p.Records))
	copy(out, p.Records)
	return out, nil
}

// DefaultRecords decodes the built-in demonstration catalog.
func DefaultRecords(ctx context.Context) ([]ProductRecord, error) {
	return DecodeJSON(ctx, bytes.NewReader(defaultCatalog))
}

// DecodeJSON reads a JSON array of raw records and ingests it.
func DecodeJSON(ctx context.Context, r io.Reader) ([]ProductRecord, error) {
	var raws []RawRecord
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return Ingest(ctx, raws), nil
}
