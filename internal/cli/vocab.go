package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/artifacts"
)

// NewVocabCmd creates the 'vocab' command that summarizes the trained vocabularies.
func NewVocabCmd(opts *GlobalOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Print the vocabulary size of each attribute in the model artifacts",
		Example: `  pricelens vocab
  pricelens vocab --artifacts ./model/artifacts.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				path = cfg.Artifacts.Path
			}

			trained, err := artifacts.Load(path)
			if err != nil {
				return err
			}
			printVocab(cmd.OutOrStdout(), trained)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "artifacts", "", "Artifact file (defaults to artifacts.path from config)")
	return cmd
}

func printVocab(out io.Writer, trained *artifacts.Artifacts) {
	fmt.Fprintf(out, "Artifacts %s (%d trees)\n", trained.Version, len(trained.Forest.Trees))
	for _, attr := range domain.FeatureOrder {
		fmt.Fprintf(out, "  %-10s %d\n", attr, trained.Codec.VocabularySize(attr))
	}
}
