// Package sqlite provides a SQLite-backed history of analyzed batches.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pixora-ai/pixora/internal/models"
	"github.com/pixora-ai/pixora/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("batch not found")

// Batch is one persisted analysis result
type Batch struct {
	ID              string                 `json:"id"`
	SessionID       string                 `json:"session_id,omitempty"`
	Provider        string                 `json:"provider"`
	Model           string                 `json:"model"`
	Preset          models.Preset          `json:"preset"`
	PrimaryCategory string                 `json:"primary_category,omitempty"`
	ImageCount      int                    `json:"image_count"`
	Filenames       []string               `json:"filenames"`
	Result          *models.AnalysisResult `json:"result,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// Store persists batch history in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite batch store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save inserts one batch. A missing ID or CreatedAt is filled in and the
// stored batch is returned.
func (s *Store) Save(ctx context.Context, batch Batch) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	if s == nil || s.sqlDB == nil {
		return Batch{}, fmt.Errorf("storage is not configured")
	}
	if batch.Result == nil || batch.Result.BatchSummary == nil {
		return Batch{}, fmt.Errorf("result is required")
	}
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now()
	}
	batch.CreatedAt = batch.CreatedAt.UTC()
	batch.Preset = batch.Result.BatchSummary.Preset
	batch.PrimaryCategory = batch.Result.BatchSummary.PrimaryCategory
	batch.ImageCount = len(batch.Result.Images)
	if batch.Filenames == nil {
		for _, img := range batch.Result.Images {
			batch.Filenames = append(batch.Filenames, img.InputFilename)
		}
	}

	resultJSON, err := json.Marshal(batch.Result)
	if err != nil {
		return Batch{}, fmt.Errorf("encode result: %w", err)
	}
	filenamesJSON, err := json.Marshal(batch.Filenames)
	if err != nil {
		return Batch{}, fmt.Errorf("encode filenames: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO batches (
		   id,
		   session_id,
		   provider,
		   model,
		   preset,
		   primary_category,
		   image_count,
		   filenames,
		   result_json,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.ID,
		batch.SessionID,
		batch.Provider,
		batch.Model,
		string(batch.Preset),
		batch.PrimaryCategory,
		batch.ImageCount,
		string(filenamesJSON),
		string(resultJSON),
		toMillis(batch.CreatedAt),
	)
	if err != nil {
		return Batch{}, fmt.Errorf("save batch: %w", err)
	}
	return batch, nil
}

// Get returns one batch including its full result.
func (s *Store) Get(ctx context.Context, id string) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	if s == nil || s.sqlDB == nil {
		return Batch{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Batch{}, fmt.Errorf("batch id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, session_id, provider, model, preset, primary_category,
		        image_count, filenames, result_json, created_at
		   FROM batches
		  WHERE id = ?`,
		id,
	)

	var (
		batch         Batch
		preset        string
		filenamesJSON string
		resultJSON    string
		createdAt     int64
	)
	err := row.Scan(
		&batch.ID,
		&batch.SessionID,
		&batch.Provider,
		&batch.Model,
		&preset,
		&batch.PrimaryCategory,
		&batch.ImageCount,
		&filenamesJSON,
		&resultJSON,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Batch{}, ErrNotFound
		}
		return Batch{}, fmt.Errorf("get batch: %w", err)
	}

	batch.Preset = models.Preset(preset)
	batch.CreatedAt = fromMillis(createdAt)
	if err := json.Unmarshal([]byte(filenamesJSON), &batch.Filenames); err != nil {
		return Batch{}, fmt.Errorf("decode filenames: %w", err)
	}
	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return Batch{}, fmt.Errorf("decode result: %w", err)
	}
	batch.Result = &result
	return batch, nil
}

// List returns the most recent batches first, without their results.
func (s *Store) List(ctx context.Context, limit int) ([]Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, session_id, provider, model, preset, primary_category,
		        image_count, filenames, created_at
		   FROM batches
		  ORDER BY created_at DESC, id ASC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	batches := make([]Batch, 0, limit)
	for rows.Next() {
		var (
			batch         Batch
			preset        string
			filenamesJSON string
			createdAt     int64
		)
		if err := rows.Scan(
			&batch.ID,
			&batch.SessionID,
			&batch.Provider,
			&batch.Model,
			&preset,
			&batch.PrimaryCategory,
			&batch.ImageCount,
			&filenamesJSON,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list batches: %w", err)
		}
		batch.Preset = models.Preset(preset)
		batch.CreatedAt = fromMillis(createdAt)
		if err := json.Unmarshal([]byte(filenamesJSON), &batch.Filenames); err != nil {
			return nil, fmt.Errorf("decode filenames: %w", err)
		}
		batches = append(batches, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}
