package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"docflow/internal/app"
	"docflow/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// partialResponse carries the state that was applied before a derived record
// failed, so the client can show it and retry.
type partialResponse struct {
	errorResponse
	Applied any `json:"applied"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps a service error to its HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	case core.IsValidation(err):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case core.IsPartialFailure(err):
		return http.StatusMultiStatus, "PARTIAL_FAILURE"
	case core.IsTransport(err):
		return http.StatusBadGateway, "BACKEND_UNAVAILABLE"
	case errors.Is(err, app.ErrAgentUnavailable):
		return http.StatusServiceUnavailable, "AI_UNAVAILABLE"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// writeServiceError writes err with the status errorStatus assigns. Internal
// errors are logged and their message is not exposed.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[%s] %s %s: %v", requestIDFromContext(r.Context()), r.Method, r.URL.Path, err)
		writeError(w, r, "internal server error", code, status)
		return
	}

	resp := errorResponse{Error: err.Error(), Code: code, RequestID: requestIDFromContext(r.Context())}
	var v *core.ValidationError
	if errors.As(err, &v) {
		resp.Field = v.Field
	}
	writeJSONStatus(w, status, resp)
}

// writePartial answers 207 with the applied state next to the failure.
func writePartial(w http.ResponseWriter, r *http.Request, err error, applied any) {
	log.Printf("[%s] partial failure: %v", requestIDFromContext(r.Context()), err)
	writeJSONStatus(w, http.StatusMultiStatus, partialResponse{
		errorResponse: errorResponse{
			Error:     err.Error(),
			Code:      "PARTIAL_FAILURE",
			RequestID: requestIDFromContext(r.Context()),
		},
		Applied: applied,
	})
}
