// Package preprocess downscales and re-encodes uploaded photos into bounded
// JPEG payloads before they are sent to the model.
package preprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"runtime"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/pixora-ai/pixora/internal/models"
)

const (
	// MaxEdge is the longest edge, in pixels, of a preprocessed image
	MaxEdge = 1024
	// Quality is the JPEG quality used for every re-encoded image (0.8)
	Quality = 80
	// MaxPixels guards against decompression bombs
	MaxPixels = 100_000_000

	MIMEType = "image/jpeg"
)

// Image is a preprocessed upload ready to be placed in a request
type Image struct {
	Filename string
	MIMEType string
	Data     []byte
	Width    int
	Height   int
}

// PreprocessError reports that one file could not be decoded or encoded
type PreprocessError struct {
	Filename string
	Err      error
}

func (e *PreprocessError) Error() string {
	return fmt.Sprintf("failed to preprocess %s: %v", e.Filename, e.Err)
}

func (e *PreprocessError) Unwrap() error {
	return e.Err
}

// FitWithin returns the dimensions of a w x h image scaled down so that its
// longer edge is at most limit. Images already within the bound are unchanged.
func FitWithin(w, h, limit int) (int, int) {
	if w <= 0 || h <= 0 || limit <= 0 {
		return 0, 0
	}
	longer := max(w, h)
	if longer <= limit {
		return w, h
	}
	scale := float64(limit) / float64(longer)
	nw := min(limit, max(1, int(math.Round(float64(w)*scale))))
	nh := min(limit, max(1, int(math.Round(float64(h)*scale))))
	return nw, nh
}

// Process decodes one file, bounds it to MaxEdge and re-encodes it as JPEG.
func Process(file models.File) (Image, error) {
	fail := func(err error) (Image, error) {
		return Image{}, &PreprocessError{Filename: file.Name, Err: err}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data))
	if err != nil {
		return fail(fmt.Errorf("failed to read image header: %w", err))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fail(fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height))
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fail(fmt.Errorf("image too large: %dx%d", cfg.Width, cfg.Height))
	}

	src, format, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return fail(fmt.Errorf("failed to decode image: %w", err))
	}

	bounds := src.Bounds()
	w, h := FitWithin(bounds.Dx(), bounds.Dy(), MaxEdge)

	// JPEG has no alpha channel, so transparent pixels are flattened onto white.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return fail(fmt.Errorf("failed to encode jpeg: %w", err))
	}

	slog.Debug("Preprocessed image",
		"filename", file.Name,
		"format", format,
		"source_width", bounds.Dx(),
		"source_height", bounds.Dy(),
		"width", w,
		"height", h,
		"bytes_in", len(file.Data),
		"bytes_out", buf.Len())

	return Image{
		Filename: file.Name,
		MIMEType: MIMEType,
		Data:     buf.Bytes(),
		Width:    w,
		Height:   h,
	}, nil
}

// ProcessBatch preprocesses every file independently and in parallel. A
// failing file never stops its siblings, but if any file failed the batch
// yields no images and an error joining every PreprocessError.
func ProcessBatch(ctx context.Context, files []models.File) ([]Image, error) {
	out := make([]Image, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = &PreprocessError{Filename: f.Name, Err: err}
				return nil
			}
			out[i], errs[i] = Process(f)
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}
