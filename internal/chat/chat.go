// Package chat runs the Pixie support conversation for one browser session.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pixora-ai/pixora/internal/models"
	"github.com/pixora-ai/pixora/internal/providers"
	"github.com/pixora-ai/pixora/internal/ratelimit"
)

const (
	Greeting        = "Hi! I'm Pixie. Ask me anything about Pixora AI or how to optimize your e-commerce images!"
	RateLimitNotice = "⚠️ You are sending messages too quickly (limit 60/min). Please wait a moment."
	FailureNotice   = "Sorry, I lost connection. Please try again."

	MaxOutputTokens = 300
	temperature     = 0.7
)

// SystemInstruction is the Pixie persona
const SystemInstruction = `You are Pixie, the friendly support assistant for Pixora AI.

Pixora AI turns batches of up to 10 product photos into ready-to-paste SEO metadata:
SEO filenames, alt text, title tags, meta descriptions, product descriptions and
marketplace fields for Shopify, Etsy and Amazon. Results can be exported to Excel.

Rules:
- Answer briefly, in at most a few short paragraphs.
- Only discuss Pixora AI, product photography and e-commerce image SEO. Politely
  decline anything else.
- When pointing to a page of the site use markdown links: [Help](/help),
  [Home](/), [Shopify guide](/shopify), [Etsy guide](/etsy), [Amazon guide](/amazon).
- Never invent pricing, features or integrations that are not described above.`

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a reply is still pending")
)

// Reply is the outcome of one Send. Message is what was appended to the
// conversation on behalf of the assistant.
type Reply struct {
	Message     models.ChatMessage `json:"message"`
	RateLimited bool               `json:"rate_limited,omitempty"`
	Failed      bool               `json:"failed,omitempty"`
}

// Session is one conversation. History only grows.
type Session struct {
	provider providers.Provider
	limiter  *ratelimit.SlidingWindow
	now      func() time.Time

	mu      sync.Mutex
	history []models.ChatMessage
	busy    bool
}

func New(provider providers.Provider, limiter *ratelimit.SlidingWindow) *Session {
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultLimit, ratelimit.DefaultWindow)
	}
	return &Session{
		provider: provider,
		limiter:  limiter,
		now:      time.Now,
		history:  []models.ChatMessage{{Role: models.RoleModel, Text: Greeting}},
	}
}

// History returns a copy of the conversation so far
func (s *Session) History() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.history...)
}

// Send appends the user's message and the assistant's reply. A rate-limited
// message is answered locally with a warning and never reaches the provider.
func (s *Session) Send(ctx context.Context, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return Reply{}, ErrBusy
	}
	now := s.now()
	if !s.limiter.Admit(now) {
		warning := models.ChatMessage{Role: models.RoleModel, Text: RateLimitNotice}
		s.history = append(s.history, warning)
		s.mu.Unlock()
		slog.Warn("Chat message rate limited", "limit", s.limiter.Limit(), "recent", s.limiter.Count(now))
		return Reply{Message: warning, RateLimited: true}, nil
	}

	prior := append([]models.ChatMessage(nil), s.history...)
	s.history = append(s.history, models.ChatMessage{Role: models.RoleUser, Text: text})
	s.busy = true
	s.mu.Unlock()

	answer, err := s.provider.Chat(ctx, providers.ChatRequest{
		SystemInstruction: SystemInstruction,
		History:           prior,
		Message:           text,
		MaxOutputTokens:   MaxOutputTokens,
		Temperature:       temperature,
	})

	reply := Reply{Message: models.ChatMessage{Role: models.RoleModel, Text: strings.TrimSpace(answer)}}
	if err != nil || reply.Message.Text == "" {
		slog.Error("Chat reply failed", "provider", s.provider.Name(), "err", err)
		reply = Reply{Message: models.ChatMessage{Role: models.RoleModel, Text: FailureNotice}, Failed: true}
	}

	s.mu.Lock()
	s.history = append(s.history, reply.Message)
	s.busy = false
	s.mu.Unlock()

	return reply, nil
}
