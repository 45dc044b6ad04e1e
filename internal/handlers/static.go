package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// HandleUploadedImage serves a stored image from the file area.
func (h *Handler) HandleUploadedImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if !h.area.Exists(name) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, h.area.Path(name))
}

// HandleStatic serves the client UI from the public directory.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		path = "index.html"
	}

	// Prevent directory traversal attacks
	if strings.Contains(path, "..") {
		h.writeError(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	// Set appropriate content type based on file extension
	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".html"):
		w.Header().Set("Content-Type", "text/html")
	}

	http.ServeFile(w, r, filepath.Join(h.publicDir, filepath.FromSlash(path)))
}
