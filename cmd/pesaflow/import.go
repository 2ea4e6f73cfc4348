package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jkamya/pesaflow/internal/cli"
	"github.com/jkamya/pesaflow/internal/ingest"
	"github.com/jkamya/pesaflow/internal/model"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <statement-file>...",
		Short: "Import CSV or OFX statement files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			var all []model.Transaction
			for _, path := range args {
				transactions, err := parseStatement(path)
				if err != nil {
					return fmt.Errorf("failed to parse %s: %w", path, err)
				}
				all = append(all, transactions...)
			}

			if len(all) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No transactions found in the given files."))
				return nil
			}

			bar := progressbar.Default(int64(len(all)), "importing")
			inserted := 0
			// Batches keep the bar honest on large statements.
			const batchSize = 200
			for start := 0; start < len(all); start += batchSize {
				end := start + batchSize
				if end > len(all) {
					end = len(all)
				}
				n, err := db.SaveTransactions(ctx, all[start:end])
				if err != nil {
					return err
				}
				inserted += n
				_ = bar.Add(end - start)
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Imported %d transactions (%d duplicates skipped).", inserted, len(all)-inserted)))
			return nil
		},
	}
}

func parseStatement(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		return ingest.NewOFXParser().Parse(f)
	case ".csv":
		return ingest.NewCSVParser().Parse(f)
	default:
		return nil, fmt.Errorf("unsupported statement format %q", filepath.Ext(path))
	}
}
