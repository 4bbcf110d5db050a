package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFetch(t *testing.T) {
	img := pngBytes(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/red%20shoe.png", "/products/red shoe.png":
			// Wrong declared type; the body wins.
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write(img)
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>hi</body></html>"))
		case "/big.png":
			_, _ = w.Write(append(img, make([]byte, 2048)...))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewFetcher()
	f.MaxBytes = 1024

	t.Run("image", func(t *testing.T) {
		file, err := f.Fetch(context.Background(), server.URL+"/products/red%20shoe.png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if file.MIMEType != "image/png" {
			t.Errorf("Expected image/png, got %s", file.MIMEType)
		}
		if file.Name != "red shoe.png" {
			t.Errorf("Expected unescaped filename, got %q", file.Name)
		}
		if !bytes.Equal(file.Data, img) {
			t.Error("Expected body to be returned unchanged")
		}
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), server.URL+"/page.html")
		if !errors.Is(err, ErrNotImage) {
			t.Errorf("Expected ErrNotImage, got %v", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), server.URL+"/big.png")
		if !errors.Is(err, ErrTooLarge) {
			t.Errorf("Expected ErrTooLarge, got %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := f.Fetch(context.Background(), server.URL+"/missing.png"); err == nil {
			t.Error("Expected error for 404")
		}
	})

	t.Run("bad scheme", func(t *testing.T) {
		if _, err := f.Fetch(context.Background(), "file:///etc/passwd"); err == nil {
			t.Error("Expected error for non-http url")
		}
	})

	t.Run("fetch all stops on failure", func(t *testing.T) {
		files, err := f.FetchAll(context.Background(), []string{
			server.URL + "/products/red%20shoe.png",
			server.URL + "/page.html",
		})
		if err == nil || files != nil {
			t.Errorf("Expected failure and no files, got %d files, err %v", len(files), err)
		}
	})
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://cdn.example.com/a/b/shoe.jpg", "shoe.jpg"},
		{"https://cdn.example.com/", "cdn.example.com.jpg"},
		{"https://cdn.example.com", "cdn.example.com.jpg"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.raw)
		if err != nil {
			t.Fatal(err)
		}
		if got := filenameFromURL(u); got != tt.want {
			t.Errorf("filenameFromURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
