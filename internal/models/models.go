package models

import "strings"

// Preset is a coarse product-category hint returned for a batch
type Preset string

const (
	PresetFashion     Preset = "fashion"
	PresetJewelry     Preset = "jewelry"
	PresetShoes       Preset = "shoes"
	PresetBeauty      Preset = "beauty"
	PresetElectronics Preset = "electronics"
	PresetHomeDecor   Preset = "home_decor"
	PresetGeneric     Preset = "generic"
)

// Presets lists every accepted preset in schema order
var Presets = []Preset{
	PresetFashion,
	PresetJewelry,
	PresetShoes,
	PresetBeauty,
	PresetElectronics,
	PresetHomeDecor,
	PresetGeneric,
}

// IsValid reports whether p is one of the known presets
func (p Preset) IsValid() bool {
	for _, known := range Presets {
		if p == known {
			return true
		}
	}
	return false
}

// BatchSummary describes the batch as a whole
type BatchSummary struct {
	DetectedPlatforms []string `json:"detected_platforms,omitempty" yaml:"detected_platforms,omitempty"`
	PrimaryCategory   string   `json:"primary_category,omitempty" yaml:"primary_category,omitempty"`
	Preset            Preset   `json:"preset" yaml:"preset"`
}

// DetectedAttributes are the product attributes the model read from an image
type DetectedAttributes struct {
	ProductType string   `json:"product_type,omitempty" yaml:"product_type,omitempty"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Material    string   `json:"material,omitempty" yaml:"material,omitempty"`
	Color       string   `json:"color,omitempty" yaml:"color,omitempty"`
	Style       string   `json:"style,omitempty" yaml:"style,omitempty"`
	Gender      string   `json:"gender,omitempty" yaml:"gender,omitempty"`
	UseCase     string   `json:"use_case,omitempty" yaml:"use_case,omitempty"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// SEOMetadata is the platform-neutral metadata every image must carry
type SEOMetadata struct {
	SEOFilename        string   `json:"seo_filename" yaml:"seo_filename"`
	AltText            string   `json:"alt_text" yaml:"alt_text"`
	Title              string   `json:"title" yaml:"title"`
	Description        string   `json:"description" yaml:"description"` // meta description
	ProductDescription string   `json:"product_description" yaml:"product_description"`
	Tags               []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	FocusKeywords      []string `json:"focus_keywords,omitempty" yaml:"focus_keywords,omitempty"`
}

// ShopifyMetafield is a key/value attribute for storefront ingestion
type ShopifyMetafield struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

type ShopifyData struct {
	Handle     string             `json:"handle,omitempty" yaml:"handle,omitempty"`
	AltText    string             `json:"alt_text,omitempty" yaml:"alt_text,omitempty"`
	Metafields []ShopifyMetafield `json:"metafields,omitempty" yaml:"metafields,omitempty"`
}

type EtsyData struct {
	SEOTitle    string   `json:"seo_title,omitempty" yaml:"seo_title,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags13      []string `json:"tags_13,omitempty" yaml:"tags_13,omitempty"`
}

type AmazonData struct {
	Title               string   `json:"title,omitempty" yaml:"title,omitempty"`
	BulletPoints        []string `json:"bullet_points,omitempty" yaml:"bullet_points,omitempty"`
	SearchTermsKeywords []string `json:"search_terms_keywords,omitempty" yaml:"search_terms_keywords,omitempty"`
	MainFeatures        []string `json:"main_features,omitempty" yaml:"main_features,omitempty"`
}

// ImageResult holds the generated metadata for one submitted image
type ImageResult struct {
	ImageIndex     int                 `json:"image_index" yaml:"image_index"` // 1-based position in the request
	InputFilename  string              `json:"input_filename" yaml:"input_filename"`
	VariantGroupID string              `json:"variant_group_id,omitempty" yaml:"variant_group_id,omitempty"`
	VariantRole    string              `json:"variant_role,omitempty" yaml:"variant_role,omitempty"`
	Detected       *DetectedAttributes `json:"detected,omitempty" yaml:"detected,omitempty"`
	SEO            *SEOMetadata        `json:"seo" yaml:"seo"`
	Shopify        *ShopifyData        `json:"shopify,omitempty" yaml:"shopify,omitempty"`
	Etsy           *EtsyData           `json:"etsy,omitempty" yaml:"etsy,omitempty"`
	Amazon         *AmazonData         `json:"amazon,omitempty" yaml:"amazon,omitempty"`
}

// AnalysisResult is the root object returned by one successful analysis call
type AnalysisResult struct {
	BatchSummary *BatchSummary `json:"batch_summary" yaml:"batch_summary"`
	Images       []ImageResult `json:"images" yaml:"images"`
}

// ChatRole identifies the author of a chat message
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ChatMessage is one entry of a support chat conversation
type ChatMessage struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// File is a raw file-like input: a name, a declared media type and its bytes
type File struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// IsImage reports whether the declared media type is an image/* type
func (f File) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.MIMEType), "image/")
}

// FilterImages drops every file whose declared type is not image/*
func FilterImages(files []File) []File {
	images := make([]File, 0, len(files))
	for _, f := range files {
		if f.IsImage() {
			images = append(images, f)
		}
	}
	return images
}
