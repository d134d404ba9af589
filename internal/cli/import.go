package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/history"
	"github.com/pricelens/backend/internal/logging"
)

// NewImportCmd creates the 'import' command that loads training CSVs into the historical store.
func NewImportCmd(opts *GlobalOptions) *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load historical prices from CSV files",
		Long: `Create the clothing_items table if needed and append the rows of each CSV.
Expected columns: type,color,brand,material,style,state,price ("condition" is accepted for "state").
Rows with an unparseable price are skipped and reported.`,
		Example: `  pricelens import --csv clothing_data.csv
  pricelens import --csv a.csv --csv b.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg.History)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			return runImport(cmd.Context(), store, files, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVar(&files, "csv", nil, "CSV file to import (repeatable)")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

// runImport loads every file into the store and prints a summary
func runImport(ctx context.Context, store domain.HistoricalImporter, files []string, out io.Writer) error {
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	var total, skipped int
	for _, path := range files {
		imported, rejected, err := importFile(ctx, store, path)
		if err != nil {
			return err
		}
		total += imported
		skipped += rejected
		fmt.Fprintf(out, "  %s: %d rows imported, %d skipped\n", path, imported, rejected)
	}

	count, err := store.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Imported %d rows (%d skipped). Store now holds %d rows.\n", total, skipped, count)
	return nil
}

func importFile(ctx context.Context, store domain.HistoricalImporter, path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, rowErrs, err := history.ReadCSV(f)
	if err != nil {
		return 0, 0, fmt.Errorf("read %s: %w", path, err)
	}
	for _, rowErr := range rowErrs {
		logging.Warn().Str("file", path).Int("line", rowErr.Line).Err(rowErr.Err).Msg("Skipping row")
	}

	imported, err := store.Import(ctx, records)
	if err != nil {
		return 0, 0, fmt.Errorf("import %s: %w", path, err)
	}
	return imported, len(rowErrs), nil
}
