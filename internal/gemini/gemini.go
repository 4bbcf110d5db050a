package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pixora-ai/pixora/internal/models"
	"github.com/pixora-ai/pixora/internal/providers"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.5-flash"

// Gemini is a provider for Google Gemini
type Gemini struct {
	apiKey string
	model  string
	opts   []option.ClientOption
}

// New returns a new Gemini provider. Extra client options are passed to
// every client it creates.
func New(apiKey, model string, opts ...option.ClientOption) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{apiKey: apiKey, model: model, opts: opts}
}

func (g *Gemini) Name() string  { return "gemini" }
func (g *Gemini) Model() string { return g.model }

func (g *Gemini) client(ctx context.Context) (*genai.Client, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	opts := append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	return client, nil
}

// GenerateJSON sends all images and the prompt as one content turn
func (g *Gemini) GenerateJSON(ctx context.Context, req providers.BatchRequest) (string, error) {
	client, err := g.client(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	configureBatch(model, req)

	resp, err := model.GenerateContent(ctx, batchParts(req)...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return responseText(resp)
}

// Chat replays the normalized history and sends the new message
func (g *Gemini) Chat(ctx context.Context, req providers.ChatRequest) (string, error) {
	client, err := g.client(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	configureChat(model, req)

	cs := model.StartChat()
	cs.History = chatHistory(req.History)

	resp, err := cs.SendMessage(ctx, genai.Text(req.Message))
	if err != nil {
		return "", fmt.Errorf("failed to send chat message: %w", err)
	}
	return responseText(resp)
}

func configureBatch(model *genai.GenerativeModel, req providers.BatchRequest) {
	if req.SystemInstruction != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.SystemInstruction))
	}
	model.SetTemperature(float32(req.Temperature))
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = req.Schema
}

func configureChat(model *genai.GenerativeModel, req providers.ChatRequest) {
	if req.SystemInstruction != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.SystemInstruction))
	}
	model.SetTemperature(float32(req.Temperature))
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxOutputTokens))
	}
}

// batchParts places the images first, in request order, then the prompt
func batchParts(req providers.BatchRequest) []genai.Part {
	parts := make([]genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, genai.Blob{MIMEType: img.MIMEType, Data: img.Data})
	}
	return append(parts, genai.Text(req.Prompt))
}

func chatHistory(history []models.ChatMessage) []*genai.Content {
	normalized := providers.NormalizeHistory(history)
	contents := make([]*genai.Content, 0, len(normalized))
	for _, msg := range normalized {
		contents = append(contents, &genai.Content{
			Role:  string(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Text)},
		})
	}
	return contents
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}
	return b.String(), nil
}
