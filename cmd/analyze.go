package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pixora-ai/pixora/internal/analysis"
	"github.com/pixora-ai/pixora/internal/connectivity"
	"github.com/pixora-ai/pixora/internal/export"
	"github.com/pixora-ai/pixora/internal/images"
	"github.com/pixora-ai/pixora/internal/models"
	"github.com/pixora-ai/pixora/internal/pipeline"
	"github.com/pixora-ai/pixora/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		format string
		sheet  string
		output string
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <image|url>...",
		Short: "Generate SEO metadata for up to 10 images",
		Long: `Analyzes local image files or image URLs as a single batch and prints
the generated metadata. Non-image files are skipped.`,
		Example: `  # Print YAML for two local photos
  pixora analyze mug.jpg cup.png

  # Write a marketplace workbook
  pixora analyze photos/*.jpg --format xlsx --output listing.xlsx

  # Amazon sheet as CSV, recorded in the batch history
  pixora analyze https://example.com/mug.jpg --format csv --sheet amazon --save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exportFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			provider, err := newProvider(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			files, err := loadInputs(ctx, images.NewFetcher(), args)
			if err != nil {
				return err
			}

			probe := connectivity.NewProbe(cfg.ProbeTarget(), cfg.ProbeTimeout)
			svc := pipeline.NewService(provider, analysis.New(provider, probe), nil)

			start := time.Now()
			result, err := svc.Run(ctx, files)
			if err != nil {
				return err
			}
			slog.Info("Batch analyzed",
				"images", len(result.Images),
				"provider", provider.Name(),
				"model", provider.Model(),
				"elapsed", time.Since(start).Round(time.Millisecond))

			if save {
				if err := saveBatch(ctx, cfg.DBPath, sqlite.Batch{
					Provider: provider.Name(),
					Model:    provider.Model(),
					Result:   result,
				}); err != nil {
					return err
				}
			}

			return writeResult(cmd.OutOrStdout(), result, exportFormat, sheet, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml, csv, xlsx or parquet")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to write when --format is csv (general seo, shopify, etsy, amazon)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout for yaml and csv)")
	cmd.Flags().BoolVar(&save, "save", false, "Record the batch in the history database")
	addProviderFlags(cmd)

	return cmd
}

// loadInputs reads each argument as a URL or a local path
func loadInputs(ctx context.Context, fetcher *images.Fetcher, args []string) ([]models.File, error) {
	files := make([]models.File, 0, len(args))
	for _, arg := range args {
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			file, err := fetcher.Fetch(ctx, arg)
			if err != nil {
				return nil, err
			}
			files = append(files, file)
			continue
		}

		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
		files = append(files, models.File{
			Name:     filepath.Base(arg),
			MIMEType: http.DetectContentType(data),
			Data:     data,
		})
	}
	return files, nil
}

func saveBatch(ctx context.Context, path string, batch sqlite.Batch) error {
	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	saved, err := db.Save(ctx, batch)
	if err != nil {
		return err
	}
	slog.Info("Batch saved", "batch_id", saved.ID, "db", path)
	return nil
}

// writeResult writes to output, or to stdout for the text formats
func writeResult(stdout io.Writer, result *models.AnalysisResult, format export.Format, sheet, output string) error {
	if output == "" {
		if format == export.FormatXLSX || format == export.FormatParquet {
			output = export.Filename(result, format, time.Now())
		} else {
			return export.Write(stdout, result, format, sheet)
		}
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := export.Write(f, result, format, sheet); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", output, err)
	}
	slog.Info("Results written", "file", output, "format", format)
	return nil
}
