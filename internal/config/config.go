// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config is populated from PIXORA_* variables plus the provider SDK
// variables the providers already honor.
type Config struct {
	Provider string `env:"PIXORA_PROVIDER" envDefault:"gemini"`
	Model    string `env:"PIXORA_MODEL"`
	LogLevel string `env:"PIXORA_LOG_LEVEL" envDefault:"INFO"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	OpenAIURL    string `env:"OPENAI_URL" envDefault:"https://api.openai.com/v1"`
	OllamaURL    string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaModel  string `env:"OLLAMA_MODEL" envDefault:"mistral-small3.2:24b"`

	Port           string        `env:"PIXORA_PORT" envDefault:"8888"`
	StaticDir      string        `env:"PIXORA_STATIC_DIR" envDefault:"static"`
	DBPath         string        `env:"PIXORA_DB_PATH" envDefault:"pixora.db"`
	MaxUploadBytes int64         `env:"PIXORA_MAX_UPLOAD_BYTES" envDefault:"52428800"`
	RequestTimeout time.Duration `env:"PIXORA_REQUEST_TIMEOUT" envDefault:"120s"`
	SessionTTL     time.Duration `env:"PIXORA_SESSION_TTL" envDefault:"2h"`

	// ProbeURL is checked to decide whether the service is online. Empty
	// means the provider's own endpoint.
	ProbeURL     string        `env:"PIXORA_PROBE_URL"`
	ProbeTimeout time.Duration `env:"PIXORA_PROBE_TIMEOUT" envDefault:"3s"`

	ChatLimit  int           `env:"PIXORA_CHAT_LIMIT" envDefault:"60"`
	ChatWindow time.Duration `env:"PIXORA_CHAT_WINDOW" envDefault:"1m"`
}

// Load parses the environment into a Config and validates it
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads the environment without validating provider settings, for
// commands that only touch local storage.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	return &cfg, nil
}

// Validate checks that the selected provider can be reached
func (c *Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	case ProviderOllama:
		if c.OllamaURL == "" {
			errs = append(errs, errors.New("OLLAMA_URL is required for the ollama provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported provider: %s", c.Provider))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("PIXORA_MAX_UPLOAD_BYTES must be positive"))
	}
	if c.ChatLimit <= 0 || c.ChatWindow <= 0 {
		errs = append(errs, errors.New("chat limit and window must be positive"))
	}
	return errors.Join(errs...)
}

// ModelName returns the model for the selected provider
func (c *Config) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIModel
	case ProviderOllama:
		return c.OllamaModel
	default:
		return c.GeminiModel
	}
}

// ProbeTarget returns the URL used by the connectivity probe
func (c *Config) ProbeTarget() string {
	if c.ProbeURL != "" {
		return c.ProbeURL
	}
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIURL
	case ProviderOllama:
		return c.OllamaURL
	default:
		return "https://generativelanguage.googleapis.com"
	}
}
