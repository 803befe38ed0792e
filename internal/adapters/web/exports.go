package web

import (
	"mime"
	"net/http"
	"strconv"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// apiExportDocuments handles GET /api/exports/documents/{type}.
func (h *Handler) apiExportDocuments(w http.ResponseWriter, r *http.Request) {
	t, ok := docType(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ExportDocumentsXLSX(r.Context(), t)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeFile(w, xlsxContentType, result.Filename, result.Data)
}

// apiExportLedger handles GET /api/exports/ledger?employeeId=.
func (h *Handler) apiExportLedger(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ExportLedgerXLSX(r.Context(), r.URL.Query().Get("employeeId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeFile(w, xlsxContentType, result.Filename, result.Data)
}

// writeFile sends data as a download named filename.
func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
