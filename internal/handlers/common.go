package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pixora-ai/pixora/internal/analysis"
	"github.com/pixora-ai/pixora/internal/chat"
	"github.com/pixora-ai/pixora/internal/images"
	"github.com/pixora-ai/pixora/internal/models"
	"github.com/pixora-ai/pixora/internal/pipeline"
	"github.com/pixora-ai/pixora/internal/preprocess"
	"github.com/pixora-ai/pixora/internal/providers"
	"github.com/pixora-ai/pixora/internal/queue"
	"github.com/pixora-ai/pixora/internal/session"
	"github.com/pixora-ai/pixora/internal/storage"
	"github.com/pixora-ai/pixora/internal/storage/sqlite"
)

// History is the read/write view of persisted batches the handlers need
type History interface {
	Get(ctx context.Context, id string) (sqlite.Batch, error)
	List(ctx context.Context, limit int) ([]sqlite.Batch, error)
}

// Options tune the HTTP surface
type Options struct {
	StaticDir      string
	MaxUploadBytes int64
	RequestTimeout time.Duration
	ChatLimit      int
	ChatWindow     time.Duration
}

type Handler struct {
	sessionStore *storage.SessionStore
	pipeline     *pipeline.Service
	provider     providers.Provider
	history      History
	fetcher      *images.Fetcher
	opts         Options
	now          func() time.Time
}

// New wires the handlers. history may be nil when persistence is disabled.
func New(store *storage.SessionStore, svc *pipeline.Service, provider providers.Provider, history History, fetcher *images.Fetcher, opts Options) *Handler {
	if opts.StaticDir == "" {
		opts.StaticDir = "static"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}
	if fetcher == nil {
		fetcher = images.NewFetcher()
	}
	return &Handler{
		sessionStore: store,
		pipeline:     svc,
		provider:     provider,
		history:      history,
		fetcher:      fetcher,
		opts:         opts,
		now:          time.Now,
	}
}

// errorBody is the JSON shape of every API error
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, kind, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "kind", kind, "status", code)
	} else {
		slog.Warn(message, "kind", kind, "status", code)
	}
	h.writeJSONStatus(w, code, errorBody{Error: kind, Message: message})
}

// writeFailure maps a domain error onto a status code and user-facing copy
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	kind, message, code := describe(err)
	if code >= http.StatusInternalServerError {
		slog.Error("Request failed", "kind", kind, "status", code, "err", err)
	} else {
		slog.Warn("Request rejected", "kind", kind, "status", code, "err", err)
	}
	h.writeJSONStatus(w, code, errorBody{Error: kind, Message: message})
}

func describe(err error) (kind, message string, code int) {
	var ae *analysis.Error
	var pe *preprocess.PreprocessError
	var tooLarge *http.MaxBytesError
	var re *requestError

	switch {
	case errors.As(err, &re):
		return "bad_request", re.message, http.StatusBadRequest
	case errors.As(err, &ae):
		switch ae.Kind {
		case analysis.NetworkLost:
			code = http.StatusServiceUnavailable
		case analysis.Timeout:
			code = http.StatusGatewayTimeout
		default:
			code = http.StatusBadGateway
		}
		return string(ae.Kind), ae.UserMessage(), code
	case errors.As(err, &pe):
		return "preprocess_failed", err.Error(), http.StatusUnprocessableEntity
	case errors.As(err, &tooLarge), errors.Is(err, images.ErrTooLarge):
		return "too_large", "Upload is too large.", http.StatusRequestEntityTooLarge
	case errors.Is(err, queue.ErrBatchLimitExceeded):
		return "batch_limit_exceeded", "Batch limit exceeded: You can only process up to 10 images at once.", http.StatusUnprocessableEntity
	case errors.Is(err, queue.ErrNoImageFiles), errors.Is(err, images.ErrNotImage):
		return "no_image_files", "Please select image files.", http.StatusBadRequest
	case errors.Is(err, queue.ErrEmptyQueue):
		return "empty_queue", "Add at least one image before generating.", http.StatusConflict
	case errors.Is(err, queue.ErrInFlight):
		return "in_flight", "An analysis is already in progress.", http.StatusConflict
	case errors.Is(err, pipeline.ErrDiscarded):
		return "discarded", "The batch was cleared before its results arrived.", http.StatusConflict
	case errors.Is(err, queue.ErrEntryNotFound), errors.Is(err, sqlite.ErrNotFound):
		return "not_found", err.Error(), http.StatusNotFound
	case errors.Is(err, chat.ErrEmptyMessage):
		return "empty_message", "Message is empty.", http.StatusBadRequest
	case errors.Is(err, chat.ErrBusy):
		return "busy", "Please wait for the previous reply.", http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout", "The request timed out. Please try again.", http.StatusGatewayTimeout
	}
	return "internal", "Internal server error", http.StatusInternalServerError
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, exists := h.sessionStore.Get(r.PathValue("id"))
	if !exists {
		h.writeError(w, "not_found", "Session not found", http.StatusNotFound)
		return nil, false
	}
	sess.Touch(h.now())
	return sess, true
}

func (h *Handler) newSession() *session.Session {
	sess := session.New(h.provider, h.opts.ChatLimit, h.opts.ChatWindow)
	h.sessionStore.Set(sess)
	slog.Info("Session created", "session_id", sess.ID)
	return sess
}

// failureView describes the last batch failure
type failureView struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type entryView struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	MIMEType   string       `json:"mime_type"`
	Size       int          `json:"size"`
	Width      int          `json:"width,omitempty"`
	Height     int          `json:"height,omitempty"`
	Status     queue.Status `json:"status"`
	Position   int          `json:"position,omitempty"`
	PreviewURL string       `json:"preview_url"`
}

type sessionView struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	Entries   []entryView            `json:"entries"`
	InFlight  bool                   `json:"in_flight"`
	Result    *models.AnalysisResult `json:"result,omitempty"`
	Error     *failureView           `json:"error,omitempty"`
	BatchID   string                 `json:"batch_id,omitempty"`
	Chat      []models.ChatMessage   `json:"chat"`
}

func viewEntry(sessionID string, e queue.Entry) entryView {
	width, height := imageDimensions(e.File.Data)
	return entryView{
		ID:         e.ID,
		Name:       e.File.Name,
		MIMEType:   e.File.MIMEType,
		Size:       len(e.File.Data),
		Width:      width,
		Height:     height,
		Status:     e.Status,
		Position:   e.Position,
		PreviewURL: "/api/sessions/" + sessionID + "/files/" + e.ID + "/preview",
	}
}

func viewSession(sess *session.Session) sessionView {
	state := sess.Queue.Snapshot()
	view := sessionView{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		Entries:   make([]entryView, 0, len(state.Entries)),
		InFlight:  state.InFlight,
		Result:    state.Result,
		BatchID:   sess.BatchID(),
		Chat:      sess.Chat.History(),
	}
	for _, e := range state.Entries {
		view.Entries = append(view.Entries, viewEntry(sess.ID, e))
	}
	if state.Err != nil {
		kind, message, _ := describe(state.Err)
		view.Error = &failureView{Kind: kind, Message: message}
	}
	return view
}
