// Package pipeline runs one queued batch end to end: preprocess, build the
// request, analyze, settle the queue and record the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixora-ai/pixora/internal/analysis"
	"github.com/pixora-ai/pixora/internal/models"
	"github.com/pixora-ai/pixora/internal/preprocess"
	"github.com/pixora-ai/pixora/internal/prompt"
	"github.com/pixora-ai/pixora/internal/providers"
	"github.com/pixora-ai/pixora/internal/queue"
	"github.com/pixora-ai/pixora/internal/storage/sqlite"
)

// ErrDiscarded is returned when the queue was cleared or replaced while the
// batch was being analyzed. The result was not applied.
var ErrDiscarded = errors.New("batch was discarded before its result arrived")

// History records successful batches. *sqlite.Store satisfies it.
type History interface {
	Save(ctx context.Context, batch sqlite.Batch) (sqlite.Batch, error)
}

// Outcome is a completed batch
type Outcome struct {
	Result  *models.AnalysisResult
	BatchID string
	Elapsed time.Duration
}

type Service struct {
	provider providers.Provider
	client   *analysis.Client
	history  History
}

// NewService wires a service. history may be nil.
func NewService(provider providers.Provider, client *analysis.Client, history History) *Service {
	return &Service{
		provider: provider,
		client:   client,
		history:  history,
	}
}

// Generate commits the queue's current files as one batch. When offline the
// queue is left untouched. Any failure after Begin moves every entry to
// error together; success moves every entry to done together.
func (s *Service) Generate(ctx context.Context, q *queue.Queue, sessionID string) (Outcome, error) {
	if !s.client.Online(ctx) {
		slog.Warn("Generate requested while offline", "session_id", sessionID)
		return Outcome{}, analysis.Offline()
	}

	ticket, files, err := q.Begin()
	if err != nil {
		return Outcome{}, err
	}

	start := time.Now()
	slog.Info("Starting batch", "session_id", sessionID, "files", len(files))

	result, err := s.run(ctx, files)
	if err != nil {
		q.Fail(ticket, err)
		return Outcome{}, err
	}
	if !q.Complete(ticket, result) {
		return Outcome{}, ErrDiscarded
	}

	outcome := Outcome{Result: result, Elapsed: time.Since(start)}
	if s.history != nil {
		batch, err := s.history.Save(ctx, sqlite.Batch{
			SessionID: sessionID,
			Provider:  s.provider.Name(),
			Model:     s.provider.Model(),
			Result:    result,
		})
		if err != nil {
			// The batch already succeeded; history is best effort.
			slog.Error("Failed to record batch", "session_id", sessionID, "err", err)
		} else {
			outcome.BatchID = batch.ID
		}
	}

	slog.Info("Batch complete", "session_id", sessionID, "batch_id", outcome.BatchID, "elapsed", outcome.Elapsed)
	return outcome, nil
}

// Run analyzes files without a queue, as the CLI does.
func (s *Service) Run(ctx context.Context, files []models.File) (*models.AnalysisResult, error) {
	images := models.FilterImages(files)
	if len(images) == 0 {
		return nil, queue.ErrNoImageFiles
	}
	if len(images) > queue.MaxBatchSize {
		return nil, queue.ErrBatchLimitExceeded
	}
	if !s.client.Online(ctx) {
		return nil, analysis.Offline()
	}
	return s.run(ctx, images)
}

func (s *Service) run(ctx context.Context, files []models.File) (*models.AnalysisResult, error) {
	images, err := preprocess.ProcessBatch(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess batch: %w", err)
	}
	req, err := prompt.Build(images)
	if err != nil {
		return nil, err
	}
	return s.client.Analyze(ctx, req)
}
