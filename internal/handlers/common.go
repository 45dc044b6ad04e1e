package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gc30/certify/internal/submission"
	"github.com/gc30/certify/internal/uploads"
)

// Handler serves the intake and lookup endpoints.
type Handler struct {
	service   *submission.Service
	area      *uploads.Area
	publicDir string
}

func New(service *submission.Service, area *uploads.Area, publicDir string) *Handler {
	return &Handler{
		service:   service,
		area:      area,
		publicDir: publicDir,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Warn(message)
	}
	h.writeJSON(w, code, errorResponse{Error: message})
}

// writeFailure maps upload and submission errors onto status codes: client
// problems are 400, everything else 500.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	var rejectErr *uploads.RejectError
	if errors.As(err, &rejectErr) {
		h.writeError(w, rejectErr.Reason, http.StatusBadRequest)
		return
	}

	var subErr *submission.Error
	if errors.As(err, &subErr) {
		code := http.StatusInternalServerError
		if submission.KindOf(err) == submission.KindValidation {
			code = http.StatusBadRequest
		}
		slog.Debug("Request failed", "kind", subErr.Kind, "err", err)
		h.writeError(w, subErr.Message, code)
		return
	}

	slog.Error("Unhandled request error", "err", err)
	h.writeError(w, "Internal server error", http.StatusInternalServerError)
}
