package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pixora-ai/pixora/internal/models"
	"github.com/pixora-ai/pixora/internal/prompt"
	"github.com/pixora-ai/pixora/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJSON(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"response":"{\"images\":[]}","done":true}`))
	}))
	defer server.Close()

	o := New(server.URL+"/", "llava")
	text, err := o.GenerateJSON(context.Background(), providers.BatchRequest{
		SystemInstruction: "rules",
		Images:            []providers.Image{{MIMEType: "image/jpeg", Data: []byte("abc")}},
		Prompt:            "Img 1: a.jpg",
		Schema:            prompt.ResponseSchema(),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"images":[]}`, text)

	assert.Equal(t, "llava", body["model"])
	assert.Equal(t, "rules", body["system"])
	assert.Equal(t, false, body["stream"])
	assert.Equal(t, []any{"YWJj"}, body["images"])
	format := body["format"].(map[string]any)
	assert.Equal(t, "object", format["type"])
}

func TestChat(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Use descriptive names."}}`))
	}))
	defer server.Close()

	text, err := New(server.URL, "").Chat(context.Background(), providers.ChatRequest{
		SystemInstruction: "persona",
		History:           []models.ChatMessage{{Role: models.RoleModel, Text: "Hi!"}},
		Message:           "tips?",
		MaxOutputTokens:   300,
	})
	require.NoError(t, err)
	assert.Equal(t, "Use descriptive names.", text)

	messages := body["messages"].([]any)
	require.Len(t, messages, 3)
	assert.Equal(t, "assistant", messages[1].(map[string]any)["role"])
	options := body["options"].(map[string]any)
	assert.EqualValues(t, 300, options["num_predict"])
}

func TestNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(server.URL, "missing").GenerateJSON(context.Background(), providers.BatchRequest{})
	assert.ErrorContains(t, err, "404")
}
