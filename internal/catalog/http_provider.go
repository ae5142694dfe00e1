package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/noah-isme/pricelist/internal/resilience"
)

// DefaultProductsPath is the WordPress route serving the price list.
const DefaultProductsPath = "/wp-json/cclist/v1/products"

// HTTPProvider fetches the price list as a JSON array from a remote endpoint.
type HTTPProvider struct {
	URL    string
	Client *resilience.HTTPClient
}

// ProductsURL resolves base to the products endpoint. A base that already
// names a path is used as is.
func ProductsURL(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		return ""
	}
	if strings.Contains(strings.TrimPrefix(strings.TrimPrefix(trimmed, "https://"), "http://"), "/") {
		return trimmed
	}
	return trimmed + DefaultProductsPath
}

// Fetch downloads and ingests the remote price list.
func (p HTTPProvider) Fetch(ctx context.Context) ([]ProductRecord, error) {
	if p.URL == "" || p.Client == nil {
		return nil, fmt.Errorf("catalog: http provider not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.Client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch catalog: unexpected status %s", resp.Status)
	}
	return DecodeJSON(ctx, resp.Body)
}
