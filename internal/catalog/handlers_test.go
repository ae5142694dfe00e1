package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricelist/internal/catalog"
)

type categoriesResponse struct {
	Data []catalog.Category `json:"data"`
}

type browseResponse struct {
	Data []catalog.BrowseCategory `json:"data"`
}

type sizesResponse struct {
	Data catalog.ItemSizesResponse `json:"data"`
}

type statusResponse struct {
	Data catalog.Status `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRouter(holder *catalog.Holder) http.Handler {
	handler := catalog.NewHandler(catalog.HandlerConfig{Holder: holder})
	r := chi.NewRouter()
	r.Get("/api/v1/catalog/status", handler.Status)
	r.Group(func(g chi.Router) {
		g.Use(catalog.RequireReady(holder))
		g.Get("/api/v1/categories", handler.Categories)
		g.Get("/api/v1/catalog", handler.Browse)
		g.Get("/api/v1/items/{item}/sizes", handler.Sizes)
	})
	return r
}

func serve(t *testing.T, h http.Handler, target string, dst any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if dst != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
	}
	return rec.Code
}

func TestCatalogHandlers(t *testing.T) {
	records, err := catalog.DefaultRecords(context.Background())
	require.NoError(t, err)
	router := newRouter(catalog.NewLoadedHolder(records))

	t.Run("categories", func(t *testing.T) {
		var body categoriesResponse
		require.Equal(t, http.StatusOK, serve(t, router, "/api/v1/categories", &body))
		require.Len(t, body.Data, 3)
		require.Equal(t, []string{"Stoneware Clay", "Porcelain Clay", "Paper Clay"}, body.Data[0].ItemNames())
	})

	t.Run("browse with search", func(t *testing.T) {
		var body browseResponse
		require.Equal(t, http.StatusOK, serve(t, router, "/api/v1/catalog?q=glaze&category=Tools", &body))
		require.Len(t, body.Data, 1)
		require.Equal(t, "Glazes", body.Data[0].Name)
		require.Equal(t, "Celadon Glaze", body.Data[0].Items[0].Name)
		require.Equal(t, "Clear Glaze", body.Data[0].Items[1].Name)
		require.Equal(t, "500ml", *body.Data[0].Items[1].Variants[0].Size)
	})

	t.Run("sizes", func(t *testing.T) {
		var body sizesResponse
		require.Equal(t, http.StatusOK, serve(t, router, "/api/v1/items/Stoneware%20Clay/sizes", &body))
		require.Equal(t, "Stoneware Clay", body.Data.Item)
		require.Equal(t, []string{"10kg", "20kg"}, body.Data.Sizes)
		require.False(t, body.Data.Sizeless)

		var wheel sizesResponse
		require.Equal(t, http.StatusOK, serve(t, router, "/api/v1/items/Pottery%20Wheel/sizes", &wheel))
		require.True(t, wheel.Data.Sizeless)
		require.Empty(t, wheel.Data.Sizes)
	})

	t.Run("unknown item", func(t *testing.T) {
		var body errorResponse
		require.Equal(t, http.StatusNotFound, serve(t, router, "/api/v1/items/Raku/sizes", &body))
		require.Equal(t, "NOT_FOUND", body.Error.Code)
	})

	t.Run("status", func(t *testing.T) {
		var body statusResponse
		require.Equal(t, http.StatusOK, serve(t, router, "/api/v1/catalog/status", &body))
		require.Equal(t, catalog.StateReady, body.Data.State)
		require.Equal(t, 11, body.Data.Records)
	})
}

func TestCatalogHandlersWhileLoading(t *testing.T) {
	holder := catalog.NewHolder(catalog.HolderConfig{Provider: catalog.StaticProvider{}})
	router := newRouter(holder)

	for _, target := range []string{"/api/v1/categories", "/api/v1/catalog", "/api/v1/items/Bag/sizes"} {
		var body errorResponse
		require.Equal(t, http.StatusServiceUnavailable, serve(t, router, target, &body), target)
		require.Equal(t, "CATALOG_LOADING", body.Error.Code)
	}

	var status statusResponse
	require.Equal(t, http.StatusOK, serve(t, router, "/api/v1/catalog/status", &status))
	require.Equal(t, catalog.StateLoading, status.Data.State)
}
