package web

import (
	"net/http"

	"docflow/internal/core"

	"github.com/go-chi/chi/v5"
)

// apiListLeaves handles GET /api/leaves?employeeId=.
func (h *Handler) apiListLeaves(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListLeaves(r.Context(), r.URL.Query().Get("employeeId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListLedger handles GET /api/leaves/ledger?employeeId=.
func (h *Handler) apiListLedger(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListLedger(r.Context(), r.URL.Query().Get("employeeId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetLeave handles GET /api/leaves/{id}.
func (h *Handler) apiGetLeave(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.GetLeave(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, req)
}

// apiSubmitLeave handles POST /api/leaves.
func (h *Handler) apiSubmitLeave(w http.ResponseWriter, r *http.Request) {
	var req core.LeaveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = ""
	created, err := h.svc.SubmitLeave(r.Context(), mustCaller(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, created)
}

// apiDecideLeave handles POST /api/leaves/{id}/decision. When the decision was
// saved but its ledger entry was not, it answers 207 with the saved request.
func (h *Handler) apiDecideLeave(w http.ResponseWriter, r *http.Request) {
	var in core.LeaveDecisionInput
	if !decodeJSON(w, r, &in) {
		return
	}
	result, err := h.svc.DecideLeave(r.Context(), mustCaller(r), chi.URLParam(r, "id"), in)
	if err != nil {
		if core.IsPartialFailure(err) && result != nil {
			writePartial(w, r, err, result)
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
