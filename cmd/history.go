package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/pixora-ai/pixora/internal/config"
	"github.com/pixora-ai/pixora/internal/export"
	"github.com/pixora-ai/pixora/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse previously generated batches",
	}
	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryExportCmd())
	return cmd
}

// openHistory opens the store named by PIXORA_DB_PATH without requiring
// provider credentials.
func openHistory() (*sqlite.Store, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, err
	}
	return sqlite.Open(cfg.DBPath)
}

func newHistoryListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent batches, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openHistory()
			if err != nil {
				return err
			}
			defer db.Close()

			batches, err := db.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tPROVIDER\tMODEL\tPRESET\tIMAGES\tCATEGORY")
			for _, b := range batches {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					b.ID, b.CreatedAt.Local().Format("2006-01-02 15:04"), b.Provider, b.Model,
					b.Preset, b.ImageCount, b.PrimaryCategory)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of batches to list")
	return cmd
}

func newHistoryExportCmd() *cobra.Command {
	var (
		format string
		sheet  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <batch-id>",
		Short: "Export a saved batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exportFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			db, err := openHistory()
			if err != nil {
				return err
			}
			defer db.Close()

			batch, err := db.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load batch %s: %w", args[0], err)
			}
			return writeResult(cmd.OutOrStdout(), batch.Result, exportFormat, sheet, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "xlsx", "Output format: yaml, csv, xlsx or parquet")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to write when --format is csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout for yaml and csv)")
	return cmd
}
