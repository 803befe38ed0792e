package web

import (
	"net/http"

	"docflow/internal/app"
	"docflow/internal/core"

	"github.com/go-chi/chi/v5"
)

// unknownListResponse is sent when a list could not be read: the empty list
// means "unknown", never "no documents".
type unknownListResponse struct {
	errorResponse
	Result any `json:"result"`
}

// apiPrice handles POST /api/price.
func (h *Handler) apiPrice(w http.ResponseWriter, r *http.Request) {
	var doc core.Document
	if !decodeJSON(w, r, &doc) {
		return
	}
	doc.DefaultType(core.DocumentTypeQuote)
	if doc.Category == "" {
		doc.Category = core.ClientIndividual
	}
	if !doc.Category.Valid() {
		writeServiceError(w, r, &core.ValidationError{Field: "clientCategory", Err: core.ErrInvalidCategory, Details: string(doc.Category)})
		return
	}
	writeJSON(w, h.svc.PriceDocument(&doc))
}

// apiListDocuments handles GET /api/documents/{type}.
func (h *Handler) apiListDocuments(w http.ResponseWriter, r *http.Request) {
	t, ok := docType(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListDocuments(r.Context(), t)
	if err != nil {
		if result == nil || !result.Unknown {
			writeServiceError(w, r, err)
			return
		}
		status, code := errorStatus(err)
		writeJSONStatus(w, status, unknownListResponse{
			errorResponse: errorResponse{Error: err.Error(), Code: code, RequestID: requestIDFromContext(r.Context())},
			Result:        result,
		})
		return
	}
	writeJSON(w, result)
}

// apiGetDocument handles GET /api/documents/{type}/{id}.
func (h *Handler) apiGetDocument(w http.ResponseWriter, r *http.Request) {
	t, ok := docType(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetDocument(r.Context(), t, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// decodeDocument reads a document body for the {type} route. A body that
// names another type is rejected.
func decodeDocument(w http.ResponseWriter, r *http.Request, t core.DocumentType) (*core.Document, bool) {
	var doc core.Document
	if !decodeJSON(w, r, &doc) {
		return nil, false
	}
	if doc.Type != "" && doc.Type != t {
		writeServiceError(w, r, &core.ValidationError{Field: "type", Err: core.ErrUnknownDocumentType, Details: string(doc.Type) + " posted to " + string(t)})
		return nil, false
	}
	doc.DefaultType(t)
	return &doc, true
}

// apiCreateDocument handles POST /api/documents/{type}.
func (h *Handler) apiCreateDocument(w http.ResponseWriter, r *http.Request) {
	t, ok := docType(w, r)
	if !ok {
		return
	}
	doc, ok := decodeDocument(w, r, t)
	if !ok {
		return
	}
	doc.ID = ""
	result, err := h.svc.CreateDocument(r.Context(), mustCaller(r), doc)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// apiUpdateDocument handles PUT /api/documents/{type}/{id}.
func (h *Handler) apiUpdateDocument(w http.ResponseWriter, r *http.Request) {
	t, ok := docType(w, r)
	if !ok {
		return
	}
	doc, ok := decodeDocument(w, r, t)
	if !ok {
		return
	}
	doc.ID = chi.URLParam(r, "id")
	result, err := h.svc.UpdateDocument(r.Context(), mustCaller(r), doc)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiDeleteDocument handles DELETE /api/documents/{type}/{id}.
func (h *Handler) apiDeleteDocument(w http.ResponseWriter, r *http.Request) {
	t, ok := docType(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteDocument(r.Context(), mustCaller(r), t, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiTransitionDocument handles POST /api/documents/{type}/{id}/status.
func (h *Handler) apiTransitionDocument(w http.ResponseWriter, r *http.Request) {
	t, ok := docType(w, r)
	if !ok {
		return
	}
	var body struct {
		Status core.Status `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.TransitionDocument(r.Context(), mustCaller(r), app.TransitionRequest{
		Type:   t,
		ID:     chi.URLParam(r, "id"),
		Status: body.Status,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiRecordPayment handles POST /api/documents/{type}/{id}/payments.
func (h *Handler) apiRecordPayment(w http.ResponseWriter, r *http.Request) {
	t, ok := docType(w, r)
	if !ok {
		return
	}
	if t != core.DocumentTypePaymentReceipt {
		writeServiceError(w, r, &core.ValidationError{Field: "type", Err: core.ErrNotAReceipt, Details: string(t)})
		return
	}
	var p core.Payment
	if !decodeJSON(w, r, &p) {
		return
	}
	result, err := h.svc.RecordPayment(r.Context(), mustCaller(r), app.PaymentRequest{
		ReceiptID: chi.URLParam(r, "id"),
		Payment:   p,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiExportPDF handles GET /api/documents/{type}/{id}/pdf.
func (h *Handler) apiExportPDF(w http.ResponseWriter, r *http.Request) {
	t, ok := docType(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ExportPDF(r.Context(), t, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeFile(w, "application/pdf", result.Filename, result.Data)
}

// apiConvert handles POST /api/convert.
func (h *Handler) apiConvert(w http.ResponseWriter, r *http.Request) {
	var req core.ConvertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var err error
	if req.SourceType, err = core.ParseDocumentType(string(req.SourceType)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.TargetType, err = core.ParseDocumentType(string(req.TargetType)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	result, err := h.svc.ConvertDocuments(r.Context(), mustCaller(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}
