package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gc30/certify/internal/submission"
)

const maxSearchBody = 64 << 10

type searchRequest struct {
	RequestID string `json:"requestId"`
}

type searchResponse struct {
	Request *submission.Result `json:"request"`
}

// HandleSearch looks a submission up by the code in a JSON body.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var request searchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSearchBody)).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.search(w, r, request.RequestID)
}

// HandleSearchByCode looks a submission up by the {requestId} path segment.
func (h *Handler) HandleSearchByCode(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, chi.URLParam(r, "requestId"))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request, code string) {
	result, err := h.service.Lookup(r.Context(), code)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, searchResponse{Request: result})
}
