package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Running it without a subcommand serves the API.
func NewRootCmd(version string) *cobra.Command {
	opts := &GlobalOptions{}

	root := &cobra.Command{
		Use:   "pricelens",
		Short: "Clothing price resolution engine",
		Long: `pricelens estimates a resale price for a clothing item from six attributes
(type, color, brand, material, style, condition). Exact historical matches are
averaged; otherwise a trained regression model is used. Marketplace links to the
cheapest listings are collected alongside.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunServe(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "Config file (default: ./config.yaml, ./config/config.yaml, /etc/pricelens/config.yaml)")

	root.AddCommand(NewServeCmd(opts))
	root.AddCommand(NewImportCmd(opts))
	root.AddCommand(NewResolveCmd(opts))
	root.AddCommand(NewVocabCmd(opts))

	return root
}
