package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pixora-ai/pixora/internal/models"
	"github.com/pixora-ai/pixora/internal/providers"
)

const (
	DefaultURL   = "https://api.openai.com/v1"
	DefaultModel = "gpt-4o"
)

// OpenAI is a provider for OpenAI-compatible chat completion APIs
type OpenAI struct {
	apiKey     string
	baseURL    string
	model      string
	HTTPClient *http.Client
}

// New returns a new OpenAI provider
func New(apiKey, baseURL, model string) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (o *OpenAI) Name() string  { return "openai" }
func (o *OpenAI) Model() string { return o.model }

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateJSON sends the prompt and every image as data URIs in one user
// message, constrained by the JSON schema.
func (o *OpenAI) GenerateJSON(ctx context.Context, req providers.BatchRequest) (string, error) {
	parts := []contentPart{{Type: "text", Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, contentPart{
			Type: "image_url",
			ImageURL: &imageURL{
				URL: "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}

	body := map[string]interface{}{
		"model": o.model,
		"messages": []message{
			{Role: "system", Content: req.SystemInstruction},
			{Role: "user", Content: parts},
		},
		"temperature": req.Temperature,
	}
	if req.Schema != nil {
		body["response_format"] = map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   "pixora_batch",
				"schema": providers.SchemaToJSON(req.Schema),
			},
		}
	} else {
		body["response_format"] = map[string]string{"type": "json_object"}
	}

	return o.complete(ctx, body)
}

// Chat sends the system persona, the history and the new message
func (o *OpenAI) Chat(ctx context.Context, req providers.ChatRequest) (string, error) {
	messages := []message{{Role: "system", Content: req.SystemInstruction}}
	for _, msg := range req.History {
		messages = append(messages, message{Role: role(msg.Role), Content: msg.Text})
	}
	messages = append(messages, message{Role: "user", Content: req.Message})

	body := map[string]interface{}{
		"model":       o.model,
		"messages":    messages,
		"temperature": req.Temperature,
	}
	if req.MaxOutputTokens > 0 {
		body["max_tokens"] = req.MaxOutputTokens
	}
	return o.complete(ctx, body)
}

func role(r models.ChatRole) string {
	if r == models.RoleModel {
		return "assistant"
	}
	return "user"
}

func (o *OpenAI) complete(ctx context.Context, body map[string]interface{}) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	requestBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return response.Choices[0].Message.Content, nil
}
