package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"docflow/internal/app"
	"docflow/internal/core"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// Stateless pricing of an unsaved document.
		r.Post("/api/price", h.apiPrice)

		// ── Catalog ──────────────────────────────────────────────────────────
		r.Get("/api/products", h.apiListProducts)
		r.Post("/api/products/apply", h.apiApplyProduct)

		// ── Documents ────────────────────────────────────────────────────────
		r.Route("/api/documents/{type}", func(r chi.Router) {
			r.Get("/", h.apiListDocuments)
			r.Post("/", h.apiCreateDocument)
			r.Get("/{id}", h.apiGetDocument)
			r.Put("/{id}", h.apiUpdateDocument)
			r.Delete("/{id}", h.apiDeleteDocument)
			r.Post("/{id}/status", h.apiTransitionDocument)
			r.Post("/{id}/payments", h.apiRecordPayment)
			r.Get("/{id}/pdf", h.apiExportPDF)
		})
		r.Post("/api/convert", h.apiConvert)

		// ── Spreadsheet exports ──────────────────────────────────────────────
		r.Get("/api/exports/documents/{type}", h.apiExportDocuments)
		r.Get("/api/exports/ledger", h.apiExportLedger)

		// ── Leave ────────────────────────────────────────────────────────────
		r.Get("/api/leaves", h.apiListLeaves)
		r.Post("/api/leaves", h.apiSubmitLeave)
		r.Get("/api/leaves/ledger", h.apiListLedger)
		r.Get("/api/leaves/{id}", h.apiGetLeave)
		r.Post("/api/leaves/{id}/decision", h.apiDecideLeave)

		// ── AI ───────────────────────────────────────────────────────────────
		r.Post("/api/ai/draft", h.apiDraftDocument)
	})

	h.router = r
	return r
}

// health returns service status and the document types served.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string              `json:"status"`
		Types  []core.DocumentType `json:"types"`
	}
	writeJSON(w, response{Status: "ok", Types: core.DocumentTypes})
}

// docType parses the {type} URL parameter, writing a 400 on failure.
func docType(w http.ResponseWriter, r *http.Request) (core.DocumentType, bool) {
	t, err := core.ParseDocumentType(chi.URLParam(r, "type"))
	if err != nil {
		writeServiceError(w, r, err)
		return "", false
	}
	return t, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
