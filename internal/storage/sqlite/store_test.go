package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixora-ai/pixora/internal/models"
)

func sampleResult(preset models.Preset, names ...string) *models.AnalysisResult {
	r := &models.AnalysisResult{BatchSummary: &models.BatchSummary{Preset: preset, PrimaryCategory: "Footwear"}}
	for i, name := range names {
		r.Images = append(r.Images, models.ImageResult{
			ImageIndex:    i + 1,
			InputFilename: name,
			SEO: &models.SEOMetadata{
				SEOFilename:        "seo-" + name,
				AltText:            "alt",
				Title:              "title",
				Description:        "desc",
				ProductDescription: "product",
			},
		})
	}
	return r
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 2; i++ {
		store, err := Open(path)
		if err != nil {
			t.Fatalf("open store (attempt %d): %v", i+1, err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.February, 22, 16, 40, 0, 0, time.UTC)

	saved, err := store.Save(context.Background(), Batch{
		SessionID: "sess-1",
		Provider:  "gemini",
		Model:     "gemini-2.5-flash",
		Result:    sampleResult(models.PresetShoes, "a.jpg", "b.jpg"),
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("save batch: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := store.Get(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if got.Preset != models.PresetShoes {
		t.Fatalf("preset = %q, want %q", got.Preset, models.PresetShoes)
	}
	if got.ImageCount != 2 {
		t.Fatalf("image_count = %d, want 2", got.ImageCount)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, now)
	}
	if len(got.Filenames) != 2 || got.Filenames[1] != "b.jpg" {
		t.Fatalf("filenames = %v", got.Filenames)
	}
	if got.Result == nil || got.Result.Images[0].SEO.SEOFilename != "seo-a.jpg" {
		t.Fatalf("result not restored: %+v", got.Result)
	}
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("get error = %v, want %v", err, ErrNotFound)
	}
}

func TestSaveRequiresResult(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.Save(context.Background(), Batch{Provider: "gemini"}); err == nil {
		t.Fatal("expected missing result error")
	}
}

func TestListNewestFirst(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	base := time.Date(2026, time.February, 22, 10, 0, 0, 0, time.UTC)
	for i, preset := range []models.Preset{models.PresetFashion, models.PresetJewelry, models.PresetBeauty} {
		if _, err := store.Save(context.Background(), Batch{
			Provider:  "gemini",
			Model:     "m",
			Result:    sampleResult(preset, "x.jpg"),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("save batch %d: %v", i, err)
		}
	}

	batches, err := store.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("list batches: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("len = %d, want 2", len(batches))
	}
	if batches[0].Preset != models.PresetBeauty || batches[1].Preset != models.PresetJewelry {
		t.Fatalf("unexpected order: %s, %s", batches[0].Preset, batches[1].Preset)
	}
	if batches[0].Result != nil {
		t.Fatal("list should not load results")
	}

	if _, err := store.List(context.Background(), 0); err == nil {
		t.Fatal("expected limit error")
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
