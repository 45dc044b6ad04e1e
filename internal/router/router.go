package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gc30/certify/internal/handlers"
	mw "github.com/gc30/certify/internal/middleware"
)

func New(h *handlers.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	r.Post("/upload", h.HandleUpload)
	r.Post("/search", h.HandleSearch)
	r.Get("/search/{requestId}", h.HandleSearchByCode)

	r.Get("/uploads/*", h.HandleUploadedImage)
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	r.Get("/*", h.HandleStatic)

	return r
}
