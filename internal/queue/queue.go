// Package queue tracks the files of one uncommitted batch through
// idle -> analyzing -> done | error.
package queue

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pixora-ai/pixora/internal/models"
)

// MaxBatchSize is the largest number of files one batch may hold
const MaxBatchSize = 10

// Status is the lifecycle state of a queued file
type Status string

const (
	StatusIdle      Status = "idle"
	StatusAnalyzing Status = "analyzing"
	StatusDone      Status = "done"
	StatusError     Status = "error"
)

var (
	ErrBatchLimitExceeded = errors.New("batch limit exceeded: you can only process up to 10 images at once")
	ErrNoImageFiles       = errors.New("no image files selected")
	ErrEmptyQueue         = errors.New("queue is empty")
	ErrInFlight           = errors.New("an analysis is already in progress")
	ErrEntryNotFound      = errors.New("entry not found")
)

// Entry is one accepted file
type Entry struct {
	ID       string      `json:"id"`
	File     models.File `json:"file"`
	Status   Status      `json:"status"`
	Position int         `json:"position,omitempty"` // 1-based index in the last submitted request
}

// Ticket identifies one submitted batch. Results are only applied while the
// queue still holds the batch the ticket was issued for.
type Ticket struct {
	generation uint64
}

// State is a point-in-time copy of the queue
type State struct {
	Entries  []Entry                `json:"entries"`
	Result   *models.AnalysisResult `json:"result,omitempty"`
	Err      error                  `json:"-"`
	InFlight bool                   `json:"in_flight"`
}

type Queue struct {
	mu         sync.Mutex
	entries    []*Entry
	result     *models.AnalysisResult
	err        error
	generation uint64
	inFlight   bool
}

func New() *Queue {
	return &Queue{}
}

// Accept appends files to the batch. Files that are not images are dropped.
// The whole selection is rejected if it would push the batch past
// MaxBatchSize. When the queue holds a completed result, the old entries and
// result are discarded first and the new files start a fresh batch.
func (q *Queue) Accept(files []models.File) ([]Entry, error) {
	images := models.FilterImages(files)
	if len(images) == 0 {
		return nil, ErrNoImageFiles
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.inFlight {
		return nil, ErrInFlight
	}

	current := len(q.entries)
	if q.result != nil {
		current = 0
	}
	if current+len(images) > MaxBatchSize {
		slog.Warn("Rejected files over batch limit", "current", current, "incoming", len(images))
		return nil, ErrBatchLimitExceeded
	}

	if q.result != nil {
		q.reset()
	}

	added := make([]Entry, 0, len(images))
	for _, f := range images {
		e := &Entry{
			ID:     uuid.NewString(),
			File:   f,
			Status: StatusIdle,
		}
		q.entries = append(q.entries, e)
		added = append(added, *e)
	}
	q.err = nil
	return added, nil
}

// Begin commits the batch: every entry moves to analyzing and the files are
// returned in submission order.
func (q *Queue) Begin() (Ticket, []models.File, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.inFlight {
		return Ticket{}, nil, ErrInFlight
	}
	if len(q.entries) == 0 {
		return Ticket{}, nil, ErrEmptyQueue
	}

	q.generation++
	q.inFlight = true
	q.result = nil
	q.err = nil

	files := make([]models.File, len(q.entries))
	for i, e := range q.entries {
		e.Status = StatusAnalyzing
		e.Position = i + 1
		files[i] = e.File
	}
	return Ticket{generation: q.generation}, files, nil
}

// Complete moves every entry to done and stores the result. It reports false,
// changing nothing, when the batch was cleared or replaced since Begin.
func (q *Queue) Complete(t Ticket, result *models.AnalysisResult) bool {
	return q.settle(t, StatusDone, result, nil)
}

// Fail moves every entry to error and records err.
func (q *Queue) Fail(t Ticket, err error) bool {
	return q.settle(t, StatusError, nil, err)
}

func (q *Queue) settle(t Ticket, status Status, result *models.AnalysisResult, err error) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.inFlight || t.generation != q.generation {
		slog.Info("Dropping late analysis outcome", "status", status)
		return false
	}
	for _, e := range q.entries {
		e.Status = status
	}
	q.inFlight = false
	q.result = result
	q.err = err
	return true
}

// Remove drops a single entry. Removing an entry while its batch is being
// analyzed only forgets the local entry; the request is not cancelled.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return nil
		}
	}
	return ErrEntryNotFound
}

// Clear removes all entries, any result and any error.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reset()
}

func (q *Queue) reset() {
	q.entries = nil
	q.result = nil
	q.err = nil
	q.inFlight = false
	// Outstanding tickets become stale.
	q.generation++
}

// Get returns a copy of one entry
func (q *Queue) Get(id string) (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.ID == id {
			return *e, true
		}
	}
	return Entry{}, false
}

// Len returns the number of entries
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Result returns the completed result, if any
func (q *Queue) Result() *models.AnalysisResult {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.result
}

// Snapshot returns a copy of the queue state
func (q *Queue) Snapshot() State {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]Entry, len(q.entries))
	for i, e := range q.entries {
		entries[i] = *e
	}
	return State{
		Entries:  entries,
		Result:   q.result,
		Err:      q.err,
		InFlight: q.inFlight,
	}
}

// ResultFor returns the generated metadata for one entry, matched by the
// entry's position in the request.
func (q *Queue) ResultFor(id string) (*models.ImageResult, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.result == nil {
		return nil, false
	}
	var entry *Entry
	for _, e := range q.entries {
		if e.ID == id {
			entry = e
			break
		}
	}
	if entry == nil {
		return nil, false
	}

	for i := range q.result.Images {
		if q.result.Images[i].ImageIndex == entry.Position {
			return &q.result.Images[i], true
		}
	}
	return nil, false
}
