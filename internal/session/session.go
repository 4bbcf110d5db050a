// Package session bundles the per-visitor state: the upload queue and the
// support chat.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pixora-ai/pixora/internal/chat"
	"github.com/pixora-ai/pixora/internal/providers"
	"github.com/pixora-ai/pixora/internal/queue"
	"github.com/pixora-ai/pixora/internal/ratelimit"
)

type Session struct {
	ID        string
	CreatedAt time.Time
	Queue     *queue.Queue
	Chat      *chat.Session

	mu       sync.Mutex
	lastSeen time.Time
	// BatchID of the last persisted result, if any
	batchID string
}

// New creates a session with an empty queue and a fresh conversation
func New(provider providers.Provider, chatLimit int, chatWindow time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		Queue:     queue.New(),
		Chat:      chat.New(provider, ratelimit.New(chatLimit, chatWindow)),
		lastSeen:  now,
	}
}

// Touch records activity on the session
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) SetBatchID(id string) {
	s.mu.Lock()
	s.batchID = id
	s.mu.Unlock()
}

func (s *Session) BatchID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchID
}
