package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pixora-ai/pixora/internal/models"
	"github.com/pixora-ai/pixora/internal/preprocess"
	"github.com/pixora-ai/pixora/internal/providers"
)

// ErrNoImages is returned when a request would carry no images
var ErrNoImages = errors.New("no images in batch")

// SystemInstruction describes the SEO rules for every supported surface and
// the output contract the model must follow.
const SystemInstruction = `You are Pixora, an expert e-commerce SEO copywriter who knows how Google, Shopify, Etsy and Amazon rank product listings.

GENERAL SEO RULES (all platforms):
1. Lead every title with the primary keyword.
2. Prefer long-tail phrases with clear buyer intent.
3. Name concrete attributes: material, size, color, style, benefit.
4. Cover 12-14 related keyword variations across tags and focus keywords.
5. Write unique, natural copy. Never duplicate text between images.
6. seo_filename is lowercase, hyphen-separated, keyword-first and keeps the image extension.
7. alt_text describes the image for screen readers in 125 characters or less.
8. description is a meta description of 160 characters or less.
9. product_description is a longer body with short paragraphs and bullet-style benefits.

SHOPIFY (Google SEO):
- Title of 50-70 characters, primary keyword first.
- handle is the URL slug and includes the keyword.
- Metafields are key/value product attributes (material, color, care, fit).

ETSY:
- seo_title up to 140 characters of comma-separated long-tail phrases.
- tags_13 holds exactly 13 tags of at most 20 characters each.

AMAZON (A9):
- Title of 150-200 characters with brand, material, benefit and use case.
- Five bullet_points leading with the benefit.
- search_terms_keywords are backend terms: no brand names, no commas, include synonyms.

OUTPUT CONTRACT:
- Each image is listed as "Img <n>: <filename>" in the same order the images are attached.
- Return exactly one entry in images for every attached image.
- Set image_index to <n> and input_filename to <filename> exactly as listed.
- Give images that show the same product the same variant_group_id and describe the shot in variant_role (front, side, detail, lifestyle).
- Choose batch_summary.preset from the allowed values only.
- When an attribute is unclear, make a reasonable guess (for example "likely cotton").
- Respond with raw JSON matching the schema. No markdown fences.`

// FilenameMap lists the batch as "Img <n>: <filename>", one line per image in
// input order, so the model can tie each attached image to its filename.
func FilenameMap(filenames []string) string {
	lines := make([]string, len(filenames))
	for i, name := range filenames {
		lines[i] = fmt.Sprintf("Img %d: %s", i+1, name)
	}
	return strings.Join(lines, "\n")
}

// Build assembles the single request for a batch of preprocessed images.
func Build(images []preprocess.Image) (providers.BatchRequest, error) {
	if len(images) == 0 {
		return providers.BatchRequest{}, ErrNoImages
	}

	parts := make([]providers.Image, len(images))
	names := make([]string, len(images))
	for i, img := range images {
		parts[i] = providers.Image{MIMEType: img.MIMEType, Data: img.Data}
		names[i] = img.Filename
	}

	text := "Here are the files in this batch:\n" + FilenameMap(names) +
		"\n\nAnalyze these images and provide the SEO data according to the schema."

	return providers.BatchRequest{
		SystemInstruction: SystemInstruction,
		Images:            parts,
		Prompt:            text,
		Schema:            ResponseSchema(),
		Temperature:       0.4,
	}, nil
}

func str(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

func strList(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: description}
}

// ResponseSchema is the schema the model output must conform to.
func ResponseSchema() *genai.Schema {
	presets := make([]string, len(models.Presets))
	for i, p := range models.Presets {
		presets[i] = string(p)
	}

	batchSummary := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"detected_platforms": strList("Platforms likely used based on image context."),
			"primary_category":   str(""),
			"preset": {
				Type:        genai.TypeString,
				Enum:        presets,
				Description: "Coarse product category of the batch.",
			},
		},
		Required: []string{"preset"},
	}

	detected := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"product_type": str(""),
			"category":     str(""),
			"material":     str(""),
			"color":        str(""),
			"style":        str(""),
			"gender":       str(""),
			"use_case":     str(""),
			"keywords":     strList(""),
		},
	}

	seo := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"seo_filename":        str("Keyword-rich lowercase hyphenated filename."),
			"alt_text":            str("Alt text, 125 characters or less."),
			"title":               str("Title tag."),
			"description":         str("Meta description, 160 characters or less."),
			"product_description": str("Full product description."),
			"tags":                strList(""),
			"focus_keywords":      strList(""),
		},
		Required: []string{"seo_filename", "alt_text", "title", "description", "product_description"},
	}

	shopify := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"handle":   str("URL handle."),
			"alt_text": str(""),
			"metafields": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"key":   str(""),
						"value": str(""),
					},
					Required: []string{"key", "value"},
				},
			},
		},
	}

	etsy := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"seo_title":   str(""),
			"description": str(""),
			"tags_13":     strList("Exactly 13 tags."),
		},
	}

	amazon := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":                 str(""),
			"bullet_points":         strList("Five benefit-led bullet points."),
			"search_terms_keywords": strList("Backend search terms."),
			"main_features":         strList(""),
		},
	}

	image := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"image_index":      {Type: genai.TypeInteger, Description: "The <n> of the matching Img <n> line."},
			"input_filename":   str("The filename exactly as listed."),
			"variant_group_id": str("Shared by images of the same product."),
			"variant_role":     str(""),
			"detected":         detected,
			"seo":              seo,
			"shopify":          shopify,
			"etsy":             etsy,
			"amazon":           amazon,
		},
		Required: []string{"image_index", "input_filename", "seo"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"batch_summary": batchSummary,
			"images":        {Type: genai.TypeArray, Items: image},
		},
		Required: []string{"batch_summary", "images"},
	}
}
