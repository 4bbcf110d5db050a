package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/pixora-ai/pixora/internal/models"
	"github.com/pixora-ai/pixora/internal/session"
)

// fileFromPart reads one multipart upload. The part's declared type is kept
// so non-images can be filtered by the queue; an absent type is sniffed.
func fileFromPart(header *multipart.FileHeader) (models.File, error) {
	file, err := header.Open()
	if err != nil {
		return models.File{}, fmt.Errorf("failed to open upload %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return models.File{}, fmt.Errorf("failed to read upload %s: %w", header.Filename, err)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return models.File{
		Name:     header.Filename,
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

// sessionFromURL creates a session whose queue holds the image at imageURL
func (h *Handler) sessionFromURL(ctx context.Context, imageURL string) (*session.Session, error) {
	file, err := h.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	sess := h.newSession()
	if _, err := sess.Queue.Accept([]models.File{file}); err != nil {
		h.sessionStore.Delete(sess.ID)
		return nil, err
	}

	slog.Info("Session created from URL", "session_id", sess.ID, "url", imageURL)
	return sess, nil
}

// imageDimensions reads the header of an image; unknown formats give 0, 0
func imageDimensions(data []byte) (int, int) {
	if len(data) == 0 {
		return 0, 0
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
