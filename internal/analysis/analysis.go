// Package analysis sends a built batch request to the model and turns the
// reply into a validated AnalysisResult, or a classified Error.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pixora-ai/pixora/internal/connectivity"
	"github.com/pixora-ai/pixora/internal/models"
	"github.com/pixora-ai/pixora/internal/prompt"
	"github.com/pixora-ai/pixora/internal/providers"
)

// recheckTimeout bounds the connectivity check made after a failed call
const recheckTimeout = 5 * time.Second

type Client struct {
	provider     providers.Provider
	connectivity connectivity.Checker
}

func New(provider providers.Provider, checker connectivity.Checker) *Client {
	if checker == nil {
		checker = connectivity.Static(true)
	}
	return &Client{
		provider:     provider,
		connectivity: checker,
	}
}

// Online reports the current connectivity signal
func (c *Client) Online(ctx context.Context) bool {
	return c.connectivity.Online(ctx)
}

// Analyze submits the whole batch in one call. It returns either a result
// covering every submitted image or an error; never a partial result.
func (c *Client) Analyze(ctx context.Context, req providers.BatchRequest) (*models.AnalysisResult, error) {
	if len(req.Images) == 0 {
		return nil, prompt.ErrNoImages
	}
	if !c.connectivity.Online(ctx) {
		return nil, Offline()
	}

	start := time.Now()
	slog.Info("Sending batch for analysis",
		"provider", c.provider.Name(),
		"model", c.provider.Model(),
		"images", len(req.Images))

	text, err := c.provider.GenerateJSON(ctx, req)
	if err != nil {
		classified := c.classify(ctx, err)
		slog.Error("Batch analysis failed", "kind", classified.Kind, "err", err, "elapsed", time.Since(start))
		return nil, classified
	}

	result, err := Parse(text, len(req.Images))
	if err != nil {
		slog.Error("Batch analysis returned unusable response", "err", err, "length", len(text))
		return nil, malformed(err)
	}

	slog.Info("Batch analysis complete",
		"images", len(result.Images),
		"preset", result.BatchSummary.Preset,
		"elapsed", time.Since(start))
	return result, nil
}

func (c *Client) classify(ctx context.Context, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return timedOut(err)
	}
	if looksLikeNetworkFailure(err) {
		return networkLost(err)
	}
	// ctx may already be done; the recheck needs its own deadline.
	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recheckTimeout)
	defer cancel()
	if !c.connectivity.Online(checkCtx) {
		return networkLost(err)
	}
	return unknown(err)
}

// Parse decodes the model's JSON text and validates it against the contract
// for a batch of imageCount images.
func Parse(text string, imageCount int) (*models.AnalysisResult, error) {
	text = trimFence(text)
	if text == "" {
		return nil, errors.New("empty response from model")
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if err := result.Validate(imageCount); err != nil {
		return nil, err
	}
	return &result, nil
}

func trimFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
