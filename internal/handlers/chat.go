package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pixora-ai/pixora/internal/chat"
	"github.com/pixora-ai/pixora/internal/models"
)

type chatResponse struct {
	Reply   chat.Reply           `json:"reply"`
	History []models.ChatMessage `json:"history"`
}

// HandleChat sends one message to Pixie. A rate-limited message is answered
// with 429 and the warning that was appended to the conversation.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var request struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&request); err != nil {
		h.writeError(w, "bad_request", "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	reply, err := sess.Chat.Send(r.Context(), request.Message)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	code := http.StatusOK
	if reply.RateLimited {
		code = http.StatusTooManyRequests
	}
	h.writeJSONStatus(w, code, chatResponse{Reply: reply, History: sess.Chat.History()})
}
