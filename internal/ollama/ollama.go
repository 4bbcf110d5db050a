package ollama

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
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "mistral-small3.2:24b"
)

// Ollama is a provider for a local Ollama server
type Ollama struct {
	baseURL    string
	model      string
	HTTPClient *http.Client
}

// New returns a new Ollama provider
func New(baseURL, model string) *Ollama {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Ollama{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		HTTPClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

func (o *Ollama) Name() string  { return "ollama" }
func (o *Ollama) Model() string { return o.model }

// GenerateJSON calls /api/generate with base64 images and the schema as format
func (o *Ollama) GenerateJSON(ctx context.Context, req providers.BatchRequest) (string, error) {
	images := make([]string, len(req.Images))
	for i, img := range req.Images {
		images[i] = base64.StdEncoding.EncodeToString(img.Data)
	}

	body := map[string]interface{}{
		"model":  o.model,
		"system": req.SystemInstruction,
		"prompt": req.Prompt,
		"images": images,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": req.Temperature,
		},
	}
	if req.Schema != nil {
		body["format"] = providers.SchemaToJSON(req.Schema)
	} else {
		body["format"] = "json"
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := o.post(ctx, "/api/generate", body, &response); err != nil {
		return "", err
	}
	return response.Response, nil
}

// Chat calls /api/chat with the persona as the system message
func (o *Ollama) Chat(ctx context.Context, req providers.ChatRequest) (string, error) {
	messages := []map[string]string{{"role": "system", "content": req.SystemInstruction}}
	for _, msg := range req.History {
		role := "user"
		if msg.Role == models.RoleModel {
			role = "assistant"
		}
		messages = append(messages, map[string]string{"role": role, "content": msg.Text})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Message})

	options := map[string]interface{}{"temperature": req.Temperature}
	if req.MaxOutputTokens > 0 {
		options["num_predict"] = req.MaxOutputTokens
	}

	var response struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := o.post(ctx, "/api/chat", map[string]interface{}{
		"model":    o.model,
		"messages": messages,
		"stream":   false,
		"options":  options,
	}, &response); err != nil {
		return "", err
	}
	return response.Message.Content, nil
}

func (o *Ollama) post(ctx context.Context, path string, body any, out any) error {
	requestBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+path, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
