package handlers

import "net/http"

// Routes registers every endpoint on a new mux
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sessions", h.HandleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleDeleteSession)

	mux.HandleFunc("POST /api/sessions/{id}/files", h.HandleUpload)
	mux.HandleFunc("DELETE /api/sessions/{id}/files", h.HandleClearFiles)
	mux.HandleFunc("DELETE /api/sessions/{id}/files/{fileID}", h.HandleRemoveFile)
	mux.HandleFunc("GET /api/sessions/{id}/files/{fileID}/preview", h.HandlePreview)

	mux.HandleFunc("POST /api/sessions/{id}/generate", h.HandleGenerate)
	mux.HandleFunc("GET /api/sessions/{id}/export", h.HandleExport)
	mux.HandleFunc("POST /api/sessions/{id}/chat", h.HandleChat)

	mux.HandleFunc("GET /api/batches", h.HandleListBatches)
	mux.HandleFunc("GET /api/batches/{id}", h.HandleGetBatch)
	mux.HandleFunc("GET /api/batches/{id}/export", h.HandleExportBatch)

	mux.HandleFunc("GET /healthcheck", h.HandleHealthcheck)
	mux.HandleFunc("GET /", h.HandleStatic)

	return mux
}
