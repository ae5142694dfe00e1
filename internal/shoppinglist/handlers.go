package shoppinglist

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricelist/internal/catalog"
	"github.com/noah-isme/pricelist/internal/common"
	"github.com/noah-isme/pricelist/internal/lock"
	"github.com/noah-isme/pricelist/internal/pricing"
)

// Handler wires shopping list services to HTTP.
type Handler struct {
	Svc *Service
}

// LineView renders a line with its position and display prices.
type LineView struct {
	Index int `json:"index"`
	Line
	UnitPriceDisplay string `json:"unit_price_display"`
	PriceDisplay     string `json:"price_display"`
}

// ListView is the response body for a list.
type ListView struct {
	ID                string          `json:"id"`
	Lines             []LineView      `json:"lines"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	GrandTotalDisplay string          `json:"grand_total_display"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewListView renders list for a response.
func NewListView(list List) ListView {
	lines := make([]LineView, 0, len(list.Lines))
	for i, line := range list.Lines {
		lines = append(lines, LineView{
			Index:            i,
			Line:             line,
			UnitPriceDisplay: pricing.Display(line.UnitPrice),
			PriceDisplay:     pricing.Display(line.Price),
		})
	}
	total := list.GrandTotal()
	return ListView{
		ID:                list.ID,
		Lines:             lines,
		GrandTotal:        total,
		GrandTotalDisplay: pricing.Display(total),
		CreatedAt:         list.CreatedAt,
		UpdatedAt:         list.UpdatedAt,
	}
}

// Create handles POST /lists.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "shopping list service not configured", nil)
		return
	}
	list, err := h.Svc.Create(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, NewListView(list))
}

// Get handles GET /lists/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "shopping list service not configured", nil)
		return
	}
	list, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, NewListView(list))
}

// AddLine handles POST /lists/{id}/lines.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "shopping list service not configured", nil)
		return
	}
	var payload struct {
		Item     string `json:"item"`
		Size     string `json:"size"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	list, err := h.Svc.AddLine(r.Context(), chi.URLParam(r, "id"), payload.Item, payload.Size, payload.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, NewListView(list))
}

// SetLineQuantity handles PATCH /lists/{id}/lines/{index}.
func (h *Handler) SetLineQuantity(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "shopping list service not configured", nil)
		return
	}
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	var payload struct {
		Quantity *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Quantity == nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "quantity is required", nil)
		return
	}
	list, err := h.Svc.SetLineQuantity(r.Context(), chi.URLParam(r, "id"), index, *payload.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, NewListView(list))
}

// RemoveLine handles DELETE /lists/{id}/lines/{index}.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "shopping list service not configured", nil)
		return
	}
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	list, err := h.Svc.RemoveLine(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, NewListView(list))
}

func lineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid line index", nil)
		return 0, false
	}
	return index, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrLineNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, err.Error(), nil)
	case errors.Is(err, catalog.ErrLoading):
		catalog.WriteLoading(w)
	case errors.Is(err, lock.ErrNotAcquired):
		common.Unavailable(w, common.CodeListBusy, "list is being updated, retry shortly", time.Second)
	default:
		common.WriteError(w, err)
	}
}
