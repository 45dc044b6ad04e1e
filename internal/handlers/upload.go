package handlers

import (
	"errors"
	"net/http"

	"github.com/gc30/certify/internal/submission"
)

type uploadResponse struct {
	RequestID string `json:"requestId"`
	Warning   string `json:"warning,omitempty"`
}

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	upload, err := h.area.Receive(w, r)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	images := make([]submission.Image, 0, len(upload.Files))
	for _, f := range upload.Files {
		images = append(images, submission.Image{Name: f.Name, OriginalName: f.OriginalName})
	}

	receipt, err := h.service.Submit(r.Context(), submission.Intake{
		Email:  upload.Email,
		Images: images,
	})
	if err != nil {
		// Nothing was recorded, so the stored files would only be orphans.
		h.area.Remove(upload.Files)
		h.writeFailure(w, err)
		return
	}

	response := uploadResponse{RequestID: receipt.TrackingCode}
	if !receipt.Notified {
		var subErr *submission.Error
		if errors.As(receipt.NotifyErr, &subErr) {
			response.Warning = subErr.Message
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}
