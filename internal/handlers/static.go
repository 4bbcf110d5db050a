package handlers

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

// HandleStatic serves the single-page UI. ?image=<url> preloads a session
// with that image and redirects to it.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	if imageURL := r.URL.Query().Get("image"); imageURL != "" {
		sess, err := h.sessionFromURL(r.Context(), imageURL)
		if err != nil {
			slog.Error("Failed to create session from URL", "url", imageURL, "err", err)
			http.Error(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "/?session="+sess.ID, http.StatusFound)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/")
	name = strings.TrimPrefix(name, "static/")
	if name == "" {
		name = "index.html"
	}

	// Prevent directory traversal attacks
	if strings.Contains(name, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	switch filepath.Ext(name) {
	case ".css":
		w.Header().Set("Content-Type", "text/css")
	case ".js":
		w.Header().Set("Content-Type", "application/javascript")
	case ".html":
		w.Header().Set("Content-Type", "text/html")
	}

	http.ServeFile(w, r, filepath.Join(h.opts.StaticDir, filepath.FromSlash(name)))
}

// HandleHealthcheck answers liveness probes
func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}
