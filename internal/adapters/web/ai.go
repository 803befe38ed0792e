package web

import (
	"net/http"

	"docflow/internal/app"
	"docflow/internal/core"
)

// apiDraftDocument handles POST /api/ai/draft. The draft is returned priced
// and unsaved; the client creates it through the documents API.
func (h *Handler) apiDraftDocument(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
		Type string `json:"type"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.DraftDocument(r.Context(), app.DraftRequest{
		Text: body.Text,
		Type: core.DocumentType(body.Type),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
