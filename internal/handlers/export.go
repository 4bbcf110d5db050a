package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pixora-ai/pixora/internal/export"
	"github.com/pixora-ai/pixora/internal/models"
)

// HandleExport downloads the session's current result
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	result := sess.Queue.Result()
	if result == nil {
		h.writeError(w, "no_result", "Generate metadata before exporting.", http.StatusConflict)
		return
	}
	h.serveExport(w, r, result)
}

// HandleExportBatch downloads a persisted batch
func (h *Handler) HandleExportBatch(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}
	batch, err := h.history.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.serveExport(w, r, batch.Result)
}

func (h *Handler) serveExport(w http.ResponseWriter, r *http.Request, result *models.AnalysisResult) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, "bad_request", err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, result, format, r.URL.Query().Get("sheet")); err != nil {
		h.writeError(w, "bad_request", err.Error(), http.StatusBadRequest)
		return
	}

	filename := export.Filename(result, format, h.now())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Unable to write export", "format", format, "err", err)
		return
	}
	slog.Info("Export served", "format", format, "filename", filename)
}
