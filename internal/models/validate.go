package models

import (
	"fmt"
	"strings"
)

// SchemaError reports the first place a response departs from the contract
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violation at %s: %s", e.Path, e.Reason)
}

func missing(path string) error {
	return &SchemaError{Path: path, Reason: "required field is missing"}
}

// Validate checks the result against the response contract for a batch of
// imageCount images. Every image must be present exactly once, identified by
// its 1-based image_index, and carry the required seo fields.
func (r *AnalysisResult) Validate(imageCount int) error {
	if r.BatchSummary == nil {
		return missing("batch_summary")
	}
	if r.BatchSummary.Preset == "" {
		return missing("batch_summary.preset")
	}
	if !r.BatchSummary.Preset.IsValid() {
		return &SchemaError{Path: "batch_summary.preset", Reason: fmt.Sprintf("unknown preset %q", r.BatchSummary.Preset)}
	}
	if r.Images == nil {
		return missing("images")
	}
	if len(r.Images) != imageCount {
		return &SchemaError{Path: "images", Reason: fmt.Sprintf("expected %d images, got %d", imageCount, len(r.Images))}
	}

	seen := make(map[int]bool, len(r.Images))
	for i := range r.Images {
		img := &r.Images[i]
		path := fmt.Sprintf("images[%d]", i)

		if img.ImageIndex < 1 || img.ImageIndex > imageCount {
			return &SchemaError{Path: path + ".image_index", Reason: fmt.Sprintf("index %d out of range", img.ImageIndex)}
		}
		if seen[img.ImageIndex] {
			return &SchemaError{Path: path + ".image_index", Reason: fmt.Sprintf("index %d repeated", img.ImageIndex)}
		}
		seen[img.ImageIndex] = true

		if strings.TrimSpace(img.InputFilename) == "" {
			return missing(path + ".input_filename")
		}
		if err := img.SEO.validate(path + ".seo"); err != nil {
			return err
		}
	}
	return nil
}

func (s *SEOMetadata) validate(path string) error {
	if s == nil {
		return missing(path)
	}
	required := []struct {
		name  string
		value string
	}{
		{"seo_filename", s.SEOFilename},
		{"alt_text", s.AltText},
		{"title", s.Title},
		{"description", s.Description},
		{"product_description", s.ProductDescription},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return missing(path + "." + field.name)
		}
	}
	return nil
}
