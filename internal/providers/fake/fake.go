// Package fake provides an in-memory providers.Provider for tests.
package fake

import (
	"context"
	"sync"

	"github.com/pixora-ai/pixora/internal/providers"
)

// Provider records every call and answers with the configured values
type Provider struct {
	JSON    string
	JSONErr error
	Reply   string
	ChatErr error

	// Block, when set, is waited on before GenerateJSON answers
	Block chan struct{}

	mu           sync.Mutex
	batchCalls   []providers.BatchRequest
	chatRequests []providers.ChatRequest
}

func (p *Provider) Name() string  { return "fake" }
func (p *Provider) Model() string { return "fake-model" }

func (p *Provider) GenerateJSON(ctx context.Context, req providers.BatchRequest) (string, error) {
	p.mu.Lock()
	p.batchCalls = append(p.batchCalls, req)
	p.mu.Unlock()

	if p.Block != nil {
		select {
		case <-p.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return p.JSON, p.JSONErr
}

func (p *Provider) Chat(ctx context.Context, req providers.ChatRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chatRequests = append(p.chatRequests, req)
	return p.Reply, p.ChatErr
}

// BatchCalls returns the batch requests received so far
func (p *Provider) BatchCalls() []providers.BatchRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]providers.BatchRequest(nil), p.batchCalls...)
}

// ChatCalls returns the chat requests received so far
func (p *Provider) ChatCalls() []providers.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]providers.ChatRequest(nil), p.chatRequests...)
}
