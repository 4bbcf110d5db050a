package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pixora-ai/pixora/internal/analysis"
	"github.com/pixora-ai/pixora/internal/connectivity"
	"github.com/pixora-ai/pixora/internal/handlers"
	"github.com/pixora-ai/pixora/internal/images"
	"github.com/pixora-ai/pixora/internal/pipeline"
	"github.com/pixora-ai/pixora/internal/storage"
	"github.com/pixora-ai/pixora/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

const pruneInterval = 5 * time.Minute

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Pixora web server",
		Long: `Starts the Pixora web interface and JSON API on the specified port.

Visitors upload up to 10 product images per batch, generate SEO metadata
with the configured vision model, chat with Pixie, and export the results
as XLSX, CSV, YAML or Parquet.`,
		Example: `  # Start server on default port 8888
  pixora serve

  # Start server on custom port with a local Ollama model
  pixora serve --port 3000 --provider ollama`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			provider, err := newProvider(cfg)
			if err != nil {
				return err
			}

			db, err := sqlite.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					slog.Error("Failed to close history store", "err", err)
				}
			}()

			probe := connectivity.NewProbe(cfg.ProbeTarget(), cfg.ProbeTimeout)
			svc := pipeline.NewService(provider, analysis.New(provider, probe), db)
			sessions := storage.New()
			handler := handlers.New(sessions, svc, provider, db, images.NewFetcher(), handlers.Options{
				StaticDir:      cfg.StaticDir,
				MaxUploadBytes: cfg.MaxUploadBytes,
				RequestTimeout: cfg.RequestTimeout,
				ChatLimit:      cfg.ChatLimit,
				ChatWindow:     cfg.ChatWindow,
			})

			go pruneSessions(cmd.Context(), sessions, cfg.SessionTTL)

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Pixora interface available",
					"addr", addr,
					"url", "http://localhost"+addr,
					"provider", provider.Name(),
					"model", provider.Model())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on (default $PIXORA_PORT)")
	addProviderFlags(cmd)

	return cmd
}

// pruneSessions drops sessions idle for longer than ttl until ctx ends
func pruneSessions(ctx context.Context, sessions *storage.SessionStore, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := sessions.Prune(now.Add(-ttl)); n > 0 {
				slog.Info("Pruned idle sessions", "count", n, "remaining", sessions.Len())
			}
		}
	}
}
