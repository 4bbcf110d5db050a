// Package export renders an AnalysisResult as marketplace-ready tables and
// writes them as XLSX, CSV, YAML or Parquet.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/pixora-ai/pixora/internal/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sheet names, in workbook order
const (
	SheetGeneral = "General SEO"
	SheetShopify = "Shopify"
	SheetEtsy    = "Etsy"
	SheetAmazon  = "Amazon"
)

// Format is an export file format
type Format string

const (
	FormatXLSX    Format = "xlsx"
	FormatCSV     Format = "csv"
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// ContentType returns the media type served for the format
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatYAML:
		return "application/yaml"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	}
	return "application/octet-stream"
}

// ParseFormat accepts a format name; empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatXLSX, nil
	case FormatXLSX, FormatCSV, FormatYAML, FormatParquet:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported export format: %s", s)
}

// Sheet is one table of the export
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Sheets builds the four marketplace tables. There is one row per image, in
// result order. Missing optional fields render as empty cells.
func Sheets(result *models.AnalysisResult) []Sheet {
	general := Sheet{
		Name: SheetGeneral,
		Headers: []string{
			"Input Filename", "SEO Filename", "Alt Text", "Title Tag",
			"Meta Description (Snippet)", "Product Description (Content)",
			"Focus Keywords", "Category", "Material", "Color", "Style",
		},
	}
	shopify := Sheet{
		Name:    SheetShopify,
		Headers: []string{"Handle", "Title", "Alt Text", "Tags", "Metafields (JSON)"},
	}
	etsy := Sheet{
		Name:    SheetEtsy,
		Headers: []string{"Title", "Description", "Tags (13)", "Materials"},
	}
	amazon := Sheet{
		Name:    SheetAmazon,
		Headers: []string{"Title", "Bullet Points", "Search Terms", "Main Features"},
	}

	if result == nil {
		return []Sheet{general, shopify, etsy, amazon}
	}

	for _, img := range result.Images {
		seo := img.SEO
		if seo == nil {
			seo = &models.SEOMetadata{}
		}
		detected := img.Detected
		if detected == nil {
			detected = &models.DetectedAttributes{}
		}

		general.Rows = append(general.Rows, []string{
			img.InputFilename,
			seo.SEOFilename,
			seo.AltText,
			seo.Title,
			seo.Description,
			seo.ProductDescription,
			strings.Join(seo.FocusKeywords, ", "),
			detected.Category,
			detected.Material,
			detected.Color,
			detected.Style,
		})

		var handle, alt, metafields string
		alt = seo.AltText
		if img.Shopify != nil {
			handle = img.Shopify.Handle
			if img.Shopify.AltText != "" {
				alt = img.Shopify.AltText
			}
			if img.Shopify.Metafields != nil {
				metafields = compactJSON(img.Shopify.Metafields)
			}
		}
		shopify.Rows = append(shopify.Rows, []string{
			handle,
			seo.Title,
			alt,
			strings.Join(seo.Tags, ", "),
			metafields,
		})

		e := img.Etsy
		if e == nil {
			e = &models.EtsyData{}
		}
		etsy.Rows = append(etsy.Rows, []string{
			e.SEOTitle,
			e.Description,
			strings.Join(e.Tags13, ", "),
			detected.Material,
		})

		a := img.Amazon
		if a == nil {
			a = &models.AmazonData{}
		}
		amazon.Rows = append(amazon.Rows, []string{
			a.Title,
			strings.Join(a.BulletPoints, "\n"),
			strings.Join(a.SearchTermsKeywords, " "),
			strings.Join(a.MainFeatures, ", "),
		})
	}

	return []Sheet{general, shopify, etsy, amazon}
}

// Find returns the named sheet, matched case-insensitively
func Find(sheets []Sheet, name string) (Sheet, bool) {
	for _, s := range sheets {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Sheet{}, false
}

func compactJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimRight(buf.String(), "\n")
}

// Filename names an export file, e.g. pixora-seo-batch-1714564800000.xlsx.
// When the batch has a primary category its slug replaces "batch".
func Filename(result *models.AnalysisResult, format Format, now time.Time) string {
	label := "batch"
	if result != nil && result.BatchSummary != nil {
		if s := Slug(result.BatchSummary.PrimaryCategory); s != "" {
			label = s
		}
	}
	return fmt.Sprintf("pixora-seo-%s-%d.%s", label, now.UnixMilli(), format)
}

// Slug lowercases s, strips accents and joins the remaining alphanumeric
// runs with hyphens.
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(plain) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return b.String()
}
