package pricing_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricelist/internal/catalog"
	"github.com/noah-isme/pricelist/internal/pricing"
)

type quoteResponse struct {
	Data pricing.QuoteResponse `json:"data"`
}

func quote(t *testing.T, h *pricing.Handler, target string) (*httptest.ResponseRecorder, quoteResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Quote(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body quoteResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestQuoteHandler(t *testing.T) {
	holder := catalog.NewLoadedHolder(tiered())
	h := pricing.NewHandler(pricing.HandlerConfig{Holder: holder})

	rec, body := quote(t, h, "/api/v1/pricing/quote?item=Slab&size=10kg&qty=10")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, body.Data.Matched)
	requireDecimal(t, "80", body.Data.Total)
	require.Equal(t, "80.00", body.Data.TotalDisplay)
	require.Equal(t, "8.00", body.Data.UnitPriceDisplay)
	require.Equal(t, "10+", body.Data.Tier)

	_, body = quote(t, h, "/api/v1/pricing/quote?item=Slab&size=20kg&qty=1")
	require.False(t, body.Data.Matched)
	require.Equal(t, "0.00", body.Data.TotalDisplay)
}

func TestQuoteHandlerClampsQuantity(t *testing.T) {
	h := pricing.NewHandler(pricing.HandlerConfig{Holder: catalog.NewLoadedHolder(tiered())})
	for _, target := range []string{
		"/api/v1/pricing/quote?item=Slab&size=10kg",
		"/api/v1/pricing/quote?item=Slab&size=10kg&qty=abc",
		"/api/v1/pricing/quote?item=Slab&size=10kg&qty=-4",
		"/api/v1/pricing/quote?item=Slab&size=10kg&qty=0",
	} {
		_, body := quote(t, h, target)
		require.Equal(t, 1, body.Data.Quantity, target)
		requireDecimal(t, "10", body.Data.Total)
	}
}

func TestQuoteHandlerRequiresItem(t *testing.T) {
	h := pricing.NewHandler(pricing.HandlerConfig{Holder: catalog.NewLoadedHolder(tiered())})
	rec, _ := quote(t, h, "/api/v1/pricing/quote?size=10kg")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "BAD_REQUEST")
}

func TestQuoteHandlerWhileLoading(t *testing.T) {
	holder := catalog.NewHolder(catalog.HolderConfig{Provider: catalog.StaticProvider{}})
	h := pricing.NewHandler(pricing.HandlerConfig{Holder: holder})
	rec, _ := quote(t, h, "/api/v1/pricing/quote?item=Slab")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "CATALOG_LOADING")
}
