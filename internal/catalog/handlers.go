package catalog

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/pricelist/internal/common"
)

// Handler exposes public catalog endpoints.
type Handler struct {
	holder *Holder
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Holder *Holder
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{holder: cfg.Holder}
}

// ItemSizesResponse is the payload of GET /api/v1/items/{item}/sizes.
type ItemSizesResponse struct {
	Item     string   `json:"item"`
	Sizes    []string `json:"sizes"`
	Sizeless bool     `json:"sizeless"`
}

// Status handles GET /api/v1/catalog/status. It answers in every state.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h.holder == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog not configured", nil)
		return
	}
	common.Data(w, http.StatusOK, h.holder.Status())
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot()
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, snap.Index)
}

// Browse handles GET /api/v1/catalog with optional q and category filters.
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot()
	if err != nil {
		h.writeError(w, err)
		return
	}
	params := ParseBrowseParams(r.URL.Query())
	common.Data(w, http.StatusOK, Browse(r.Context(), snap.Records, params))
}

// Sizes handles GET /api/v1/items/{item}/sizes.
func (h *Handler) Sizes(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot()
	if err != nil {
		h.writeError(w, err)
		return
	}
	item, err := url.PathUnescape(chi.URLParam(r, "item"))
	if err != nil || strings.TrimSpace(item) == "" {
		h.writeError(w, common.BadRequest("invalid item", err))
		return
	}
	sizes, sizeless, found := ItemSizes(r.Context(), snap.Records, item)
	if !found {
		h.writeError(w, common.NotFound("item not found", nil))
		return
	}
	common.Data(w, http.StatusOK, ItemSizesResponse{Item: item, Sizes: sizes, Sizeless: sizeless})
}

func (h *Handler) snapshot() (*Snapshot, error) {
	if h.holder == nil {
		return nil, errors.New("catalog not configured")
	}
	return h.holder.Snapshot()
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrLoading) {
		WriteLoading(w)
		return
	}
	common.WriteError(w, err)
}

// RequireReady answers 503 CATALOG_LOADING until the first load completes.
func RequireReady(holder *Holder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := holder.Snapshot(); err != nil {
				WriteLoading(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteLoading answers 503 CATALOG_LOADING with a one second Retry-After.
func WriteLoading(w http.ResponseWriter) {
	common.Unavailable(w, common.CodeCatalogLoading, "catalog is loading", time.Second)
}
