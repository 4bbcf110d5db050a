package handlers

import (
	"net/http"
)

// HandleCreateSession starts a new visitor session
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.newSession()
	h.writeJSONStatus(w, http.StatusCreated, viewSession(sess))
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, viewSession(sess))
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	sess.Queue.Clear()
	h.sessionStore.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}
