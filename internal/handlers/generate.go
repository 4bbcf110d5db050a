package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pixora-ai/pixora/internal/models"
)

type generateResponse struct {
	BatchID string                 `json:"batch_id,omitempty"`
	Result  *models.AnalysisResult `json:"result"`
	Elapsed string                 `json:"elapsed"`
	Session sessionView            `json:"session"`
}

// HandleGenerate analyzes the queued files as one batch. The batch runs to
// completion even if the client disconnects; the outcome is then visible
// through GET /api/sessions/{id}.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.opts.RequestTimeout)
	defer cancel()

	outcome, err := h.pipeline.Generate(ctx, sess.Queue, sess.ID)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if outcome.BatchID != "" {
		sess.SetBatchID(outcome.BatchID)
	}

	h.writeJSON(w, generateResponse{
		BatchID: outcome.BatchID,
		Result:  outcome.Result,
		Elapsed: outcome.Elapsed.Round(time.Millisecond).String(),
		Session: viewSession(sess),
	})
}
