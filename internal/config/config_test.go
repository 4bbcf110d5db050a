package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PIXORA_PROVIDER", "gemini")
	t.Setenv("PIXORA_MODEL", "")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-flash")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != ProviderGemini {
		t.Errorf("Expected gemini provider, got %q", cfg.Provider)
	}
	if cfg.ModelName() != "gemini-2.5-flash" {
		t.Errorf("Expected default gemini model, got %q", cfg.ModelName())
	}
	if cfg.ChatLimit != 60 || cfg.ChatWindow != time.Minute {
		t.Errorf("Expected 60/1m chat limit, got %d/%s", cfg.ChatLimit, cfg.ChatWindow)
	}
	if cfg.ProbeTarget() != "https://generativelanguage.googleapis.com" {
		t.Errorf("Unexpected probe target %q", cfg.ProbeTarget())
	}
}

func TestLoadProviderSelection(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		wantModel string
		wantErr   string
	}{
		{
			name:      "ollama",
			env:       map[string]string{"PIXORA_PROVIDER": "Ollama", "OLLAMA_MODEL": "llava"},
			wantModel: "llava",
		},
		{
			name:      "openai with override",
			env:       map[string]string{"PIXORA_PROVIDER": "openai", "OPENAI_API_KEY": "k", "PIXORA_MODEL": "gpt-4.1"},
			wantModel: "gpt-4.1",
		},
		{
			name:    "openai without key",
			env:     map[string]string{"PIXORA_PROVIDER": "openai", "OPENAI_API_KEY": ""},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "unknown provider",
			env:     map[string]string{"PIXORA_PROVIDER": "claude"},
			wantErr: "unsupported provider",
		},
		{
			name:    "bad duration",
			env:     map[string]string{"PIXORA_PROVIDER": "ollama", "PIXORA_CHAT_WINDOW": "soon"},
			wantErr: "parse env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PIXORA_MODEL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.ModelName() != tt.wantModel {
				t.Errorf("Expected model %q, got %q", tt.wantModel, cfg.ModelName())
			}
		})
	}
}

func TestParseSkipsValidation(t *testing.T) {
	t.Setenv("PIXORA_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PIXORA_DB_PATH", "/tmp/history.db")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Expected provider to be normalized, got %q", cfg.Provider)
	}
	if cfg.DBPath != "/tmp/history.db" {
		t.Errorf("Unexpected db path %q", cfg.DBPath)
	}
	if _, err := Load(); err == nil {
		t.Error("Expected Load to reject a missing OpenAI key")
	}
}
