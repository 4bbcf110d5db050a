package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pixora-ai/pixora/internal/config"
	"github.com/pixora-ai/pixora/internal/gemini"
	"github.com/pixora-ai/pixora/internal/ollama"
	"github.com/pixora-ai/pixora/internal/openai"
	"github.com/pixora-ai/pixora/internal/providers"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "pixora",
		Short: "AI image SEO for e-commerce catalogs",
		Long: `Pixora turns batches of product photos into SEO filenames, alt text,
titles, descriptions and marketplace listings for Shopify, Etsy and Amazon.

Run "pixora serve" for the web interface or "pixora analyze" to process
images straight from the terminal.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			setupLogging(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}

// setupLogging installs the default logger. --verbose wins over PIXORA_LOG_LEVEL.
func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	} else if raw := os.Getenv("PIXORA_LOG_LEVEL"); raw != "" {
		if err := logLevel.UnmarshalText([]byte(strings.ToUpper(raw))); err != nil {
			logLevel = slog.LevelInfo
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

// loadConfig applies --provider and --model before reading the environment
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	overrides := map[string]string{
		"provider": "PIXORA_PROVIDER",
		"model":    "PIXORA_MODEL",
	}
	for flag, key := range overrides {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := os.Setenv(key, f.Value.String()); err != nil {
			return nil, fmt.Errorf("failed to apply --%s: %w", flag, err)
		}
	}
	return config.Load()
}

func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "LLM provider: gemini, openai or ollama (default $PIXORA_PROVIDER)")
	cmd.Flags().String("model", "", "Model name (default depends on the provider)")
}

// newProvider builds the configured LLM provider
func newProvider(cfg *config.Config) (providers.Provider, error) {
	model := cfg.ModelName()
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.New(cfg.GeminiAPIKey, model), nil
	case config.ProviderOpenAI:
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIURL, model), nil
	case config.ProviderOllama:
		return ollama.New(cfg.OllamaURL, model), nil
	}
	return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
}
