package pricing

import (
	"errors"
	"net/http"
	"strings"

	"github.com/noah-isme/pricelist/internal/catalog"
	"github.com/noah-isme/pricelist/internal/common"
	"github.com/noah-isme/pricelist/internal/obs"
)

// Handler exposes the price quote endpoint.
type Handler struct {
	holder *catalog.Holder
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Holder *catalog.Holder
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{holder: cfg.Holder}
}

// QuoteResponse adds two-decimal display strings to a Quotation.
type QuoteResponse struct {
	Quotation
	UnitPriceDisplay string `json:"unit_price_display"`
	TotalDisplay     string `json:"total_display"`
}

// NewQuoteResponse wraps q for rendering.
func NewQuoteResponse(q Quotation) QuoteResponse {
	return QuoteResponse{Quotation: q, UnitPriceDisplay: Display(q.UnitPrice), TotalDisplay: Display(q.Total)}
}

// Quote handles GET /api/v1/pricing/quote?item=&size=&qty=. A missing or
// unparseable qty counts as 1 and smaller values are raised to 1.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.holder == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "pricing not configured", nil)
		return
	}
	query := r.URL.Query()
	item := strings.TrimSpace(query.Get("item"))
	if item == "" {
		common.WriteError(w, common.BadRequest("item is required", nil))
		return
	}
	size := strings.TrimSpace(query.Get("size"))
	qty := common.QueryInt(query, "qty", 1, 1)

	snap, err := h.holder.Snapshot()
	if err != nil {
		if errors.Is(err, catalog.ErrLoading) {
			catalog.WriteLoading(w)
			return
		}
		common.WriteError(w, err)
		return
	}
	q := Quote(item, size, qty, snap.Records)
	obs.RecordPriceQuote(q.Matched)
	common.Data(w, http.StatusOK, NewQuoteResponse(q))
}
