package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/pixora-ai/pixora/internal/models"
)

// DefaultMaxBytes caps a single downloaded image
const DefaultMaxBytes = 20 << 20

var (
	ErrNotImage = errors.New("url does not point to an image")
	ErrTooLarge = errors.New("image exceeds size limit")
)

// Fetcher retrieves product images by URL
type Fetcher struct {
	HTTPClient *http.Client
	MaxBytes   int64
}

// NewFetcher creates a new image fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		MaxBytes: DefaultMaxBytes,
	}
}

// Fetch downloads one image. The media type is sniffed from the body; the
// server's Content-Type is only trusted when sniffing is inconclusive.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (models.File, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.File{}, fmt.Errorf("invalid image url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.File{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return models.File{}, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.File{}, fmt.Errorf("image url returned status %d", resp.StatusCode)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return models.File{}, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > limit {
		return models.File{}, ErrTooLarge
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		if declared, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && strings.HasPrefix(declared, "image/") && mimeType == "application/octet-stream" {
			mimeType = declared
		}
	}

	file := models.File{
		Name:     filenameFromURL(u),
		MIMEType: mimeType,
		Data:     data,
	}
	if !file.IsImage() {
		return models.File{}, fmt.Errorf("%w: %s is %s", ErrNotImage, u.Redacted(), mimeType)
	}

	slog.Debug("Downloaded image", "url", u.Redacted(), "bytes", len(data), "mime_type", mimeType)
	return file, nil
}

// FetchAll downloads every URL in order. It stops at the first failure.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]models.File, error) {
	files := make([]models.File, 0, len(urls))
	for _, u := range urls {
		file, err := f.Fetch(ctx, u)
		if err != nil {
			slog.Warn("Failed to download image", "url", u, "error", err)
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func filenameFromURL(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return u.Hostname() + ".jpg"
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}
