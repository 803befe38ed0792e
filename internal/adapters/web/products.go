package web

import (
	"net/http"

	"docflow/internal/app"
	"docflow/internal/core"
)

// apiListProducts handles GET /api/products.
func (h *Handler) apiListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"products": h.svc.ListProducts()})
}

// apiApplyProduct handles POST /api/products/apply. It fills one line of an
// unsaved document from the catalog and returns the repriced document. Line
// numbers start at 1.
func (h *Handler) apiApplyProduct(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Document  *core.Document `json:"document"`
		Line      int            `json:"line"`
		ProductID string         `json:"productId"`
		Option    string         `json:"option"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Document == nil {
		writeError(w, r, "document is required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	body.Document.DefaultType(core.DocumentTypeQuote)

	result, err := h.svc.ApplyProduct(body.Document, app.ProductRequest{
		Line:      body.Line - 1,
		ProductID: body.ProductID,
		Option:    body.Option,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
