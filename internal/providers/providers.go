package providers

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"github.com/pixora-ai/pixora/internal/models"
)

// Image is an inline image payload placed in a request
type Image struct {
	MIMEType string
	Data     []byte
}

// BatchRequest represents one multimodal request covering a whole batch
type BatchRequest struct {
	SystemInstruction string
	Images            []Image
	Prompt            string
	Schema            *genai.Schema
	Temperature       float64
}

// ChatRequest represents one support-chat exchange
type ChatRequest struct {
	SystemInstruction string
	History           []models.ChatMessage
	Message           string
	MaxOutputTokens   int
	Temperature       float64
}

// Provider defines the interface for an LLM provider
type Provider interface {
	// Name identifies the provider, e.g. "gemini"
	Name() string
	// Model is the model name requests are sent to
	Model() string
	// GenerateJSON sends every image of the batch in a single call and returns
	// the raw JSON text the model produced under the request schema.
	GenerateJSON(ctx context.Context, req BatchRequest) (string, error)
	// Chat returns one text reply to the new message given the history.
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// NormalizeHistory prepares a conversation for APIs that require it to start
// with a user turn and alternate roles. Leading model turns (the greeting)
// are dropped and consecutive turns by the same role are merged.
func NormalizeHistory(history []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(history))
	for _, msg := range history {
		if msg.Text == "" {
			continue
		}
		if len(out) == 0 && msg.Role != models.RoleUser {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == msg.Role {
			out[n-1].Text += "\n\n" + msg.Text
			continue
		}
		out = append(out, msg)
	}
	return out
}
