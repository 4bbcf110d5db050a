package handlers

import (
	"net/http"
	"strconv"
)

const (
	defaultBatchLimit = 20
	maxBatchLimit     = 200
)

func (h *Handler) historyEnabled(w http.ResponseWriter) bool {
	if h.history == nil {
		h.writeError(w, "history_disabled", "Batch history is not enabled", http.StatusNotFound)
		return false
	}
	return true
}

// HandleListBatches lists persisted batches, newest first
func (h *Handler) HandleListBatches(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}

	limit := defaultBatchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, "bad_request", "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxBatchLimit)
	}

	batches, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, batches)
}

func (h *Handler) HandleGetBatch(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}
	batch, err := h.history.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, batch)
}
