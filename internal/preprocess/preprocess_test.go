package preprocess

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"github.com/pixora-ai/pixora/internal/models"
)

func pngFile(t *testing.T, name string, w, h int) models.File {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{200, 30, 30, 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return models.File{Name: name, MIMEType: "image/png", Data: buf.Bytes()}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"already small", 800, 600, 800, 600},
		{"exact bound", 1024, 1024, 1024, 1024},
		{"landscape", 4000, 3000, 1024, 768},
		{"portrait", 3000, 4000, 768, 1024},
		{"extreme panorama", 20000, 10, 1024, 1},
		{"odd ratio", 1500, 1001, 1024, 683},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitWithin(tt.w, tt.h, MaxEdge)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("FitWithin(%d, %d) = %dx%d, expected %dx%d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestFitWithinPreservesAspectRatio(t *testing.T) {
	for w := 1; w <= 5000; w += 37 {
		for h := 1; h <= 5000; h += 53 {
			nw, nh := FitWithin(w, h, MaxEdge)
			if nw > MaxEdge || nh > MaxEdge {
				t.Fatalf("FitWithin(%d, %d) = %dx%d exceeds bound", w, h, nw, nh)
			}
			if nw < 1 || nh < 1 {
				t.Fatalf("FitWithin(%d, %d) = %dx%d collapsed", w, h, nw, nh)
			}
			// Rounding moves the short edge by at most half a pixel.
			expected := float64(h) * float64(nw) / float64(w)
			if w >= h && math.Abs(float64(nh)-expected) > 1 {
				t.Fatalf("FitWithin(%d, %d) = %dx%d distorts aspect ratio", w, h, nw, nh)
			}
		}
	}
}

func TestProcess(t *testing.T) {
	t.Run("downscales and re-encodes as jpeg", func(t *testing.T) {
		out, err := Process(pngFile(t, "big.png", 2048, 1024))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.MIMEType != "image/jpeg" {
			t.Errorf("Expected image/jpeg, got %s", out.MIMEType)
		}
		if out.Width != 1024 || out.Height != 512 {
			t.Errorf("Expected 1024x512, got %dx%d", out.Width, out.Height)
		}

		decoded, format, err := image.Decode(bytes.NewReader(out.Data))
		if err != nil {
			t.Fatalf("failed to decode output: %v", err)
		}
		if format != "jpeg" {
			t.Errorf("Expected jpeg output, got %s", format)
		}
		if b := decoded.Bounds(); b.Dx() != 1024 || b.Dy() != 512 {
			t.Errorf("Expected decoded 1024x512, got %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("keeps small images at their size", func(t *testing.T) {
		out, err := Process(pngFile(t, "small.png", 40, 30))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Width != 40 || out.Height != 30 {
			t.Errorf("Expected 40x30, got %dx%d", out.Width, out.Height)
		}
	})

	t.Run("accepts jpeg input", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 1200, 10))
		buf := new(bytes.Buffer)
		if err := jpeg.Encode(buf, img, nil); err != nil {
			t.Fatalf("failed to encode jpeg: %v", err)
		}
		out, err := Process(models.File{Name: "strip.jpg", MIMEType: "image/jpeg", Data: buf.Bytes()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Width != 1024 {
			t.Errorf("Expected width 1024, got %d", out.Width)
		}
	})

	t.Run("rejects undecodable data", func(t *testing.T) {
		_, err := Process(models.File{Name: "broken.jpg", MIMEType: "image/jpeg", Data: []byte("not an image")})
		var pe *PreprocessError
		if !errors.As(err, &pe) {
			t.Fatalf("Expected PreprocessError, got %v", err)
		}
		if pe.Filename != "broken.jpg" {
			t.Errorf("Expected filename broken.jpg, got %s", pe.Filename)
		}
	})
}

func TestProcessBatch(t *testing.T) {
	t.Run("preserves input order", func(t *testing.T) {
		files := []models.File{
			pngFile(t, "one.png", 10, 10),
			pngFile(t, "two.png", 20, 10),
			pngFile(t, "three.png", 30, 10),
		}
		out, err := ProcessBatch(context.Background(), files)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, img := range out {
			if img.Filename != files[i].Name {
				t.Errorf("Expected %s at %d, got %s", files[i].Name, i, img.Filename)
			}
		}
	})

	t.Run("reports every failed file and no images", func(t *testing.T) {
		files := []models.File{
			pngFile(t, "good.png", 10, 10),
			{Name: "bad-1.jpg", MIMEType: "image/jpeg", Data: []byte("x")},
			{Name: "bad-2.jpg", MIMEType: "image/jpeg", Data: []byte("y")},
		}
		out, err := ProcessBatch(context.Background(), files)
		if err == nil {
			t.Fatal("Expected error for broken files")
		}
		if out != nil {
			t.Errorf("Expected no images, got %d", len(out))
		}
		msg := err.Error()
		if !bytes.Contains([]byte(msg), []byte("bad-1.jpg")) || !bytes.Contains([]byte(msg), []byte("bad-2.jpg")) {
			t.Errorf("Expected both failures in error, got %q", msg)
		}
	})
}
