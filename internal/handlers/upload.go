package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pixora-ai/pixora/internal/images"
	"github.com/pixora-ai/pixora/internal/models"
	"github.com/pixora-ai/pixora/internal/queue"
)

// multipartMemory is kept in memory before parts spill to temp files
const multipartMemory = 32 << 20

type uploadResponse struct {
	Added   []entryView `json:"added"`
	Session sessionView `json:"session"`
}

// HandleUpload adds files to the session's queue from a multipart form
// ("files") or a JSON body {"image_urls": [...]}.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var (
		files []models.File
		err   error
	)
	if wantsJSON(r) {
		files, err = h.readURLUpload(w, r)
	} else {
		files, err = h.readFileUpload(w, r)
	}
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	added, err := sess.Queue.Accept(files)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	slog.Info("Files queued", "session_id", sess.ID, "added", len(added), "queued", sess.Queue.Len())

	resp := uploadResponse{
		Added:   make([]entryView, 0, len(added)),
		Session: viewSession(sess),
	}
	for _, e := range added {
		resp.Added = append(resp.Added, viewEntry(sess.ID, e))
	}
	h.writeJSONStatus(w, http.StatusCreated, resp)
}

func (h *Handler) readURLUpload(w http.ResponseWriter, r *http.Request) ([]models.File, error) {
	var request struct {
		ImageURLs []string `json:"image_urls"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&request); err != nil {
		return nil, badRequest("Invalid JSON: " + err.Error())
	}
	if len(request.ImageURLs) == 0 {
		return nil, badRequest("image_urls is required")
	}
	if len(request.ImageURLs) > queue.MaxBatchSize {
		return nil, queue.ErrBatchLimitExceeded
	}
	files, err := h.fetcher.FetchAll(r.Context(), request.ImageURLs)
	if err != nil {
		if errors.Is(err, images.ErrTooLarge) || errors.Is(err, images.ErrNotImage) {
			return nil, err
		}
		return nil, badRequest("Failed to process image URL: " + err.Error())
	}
	return files, nil
}

func (h *Handler) readFileUpload(w http.ResponseWriter, r *http.Request) ([]models.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, badRequest("Failed to read upload: " + err.Error())
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		return nil, badRequest("No files in upload")
	}

	files := make([]models.File, 0, len(headers))
	for _, header := range headers {
		file, err := fileFromPart(header)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// HandleClearFiles empties the queue, dropping any result
func (h *Handler) HandleClearFiles(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	sess.Queue.Clear()
	h.writeJSON(w, viewSession(sess))
}

// HandleRemoveFile drops one entry
func (h *Handler) HandleRemoveFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	if err := sess.Queue.Remove(r.PathValue("fileID")); err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, viewSession(sess))
}

// HandlePreview serves the original bytes of an entry
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	entry, found := sess.Queue.Get(r.PathValue("fileID"))
	if !found {
		h.writeFailure(w, queue.ErrEntryNotFound)
		return
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'")

	mimeType, ok := previewType(entry.File.Data)
	if !ok {
		h.writeError(w, "unsupported_preview", "No preview is available for this file type.", http.StatusUnsupportedMediaType)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(entry.File.Data); err != nil {
		slog.Error("Unable to write preview", "err", err)
	}
}

// previewType sniffs data and allows only raster formats browsers render
// inertly. The declared upload type is never trusted here.
func previewType(data []byte) (string, bool) {
	switch mimeType := http.DetectContentType(data); mimeType {
	case "image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp":
		return mimeType, true
	}
	return "", false
}

// requestError is a client error with its own message
type requestError struct {
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(message string) error {
	return &requestError{message: message}
}
