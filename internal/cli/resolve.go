package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pricelens/backend/internal/domain"
)

// priceResolver is the slice of the price service the resolve command uses
type priceResolver interface {
	ResolvePrice(ctx context.Context, request *domain.ItemDescriptor) (*domain.ResolutionResult, error)
}

// NewResolveCmd creates the 'resolve' command that prices one item from the command line.
func NewResolveCmd(opts *GlobalOptions) *cobra.Command {
	var d domain.ItemDescriptor

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a price for one item and print the JSON result",
		Example: `  pricelens resolve --type jeans --color blue --brand nike \
    --material denim --style casual --condition new`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			eng, err := newEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			return runResolve(cmd.Context(), eng.prices, &d, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&d.Type, "type", "", "Garment type, e.g. jeans")
	flags.StringVar(&d.Color, "color", "", "Color")
	flags.StringVar(&d.Brand, "brand", "", "Brand")
	flags.StringVar(&d.Material, "material", "", "Material")
	flags.StringVar(&d.Style, "style", "", "Style")
	flags.StringVar(&d.Condition, "condition", "", "new or used")
	for _, name := range []string{"type", "color", "brand", "material", "style", "condition"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

// runResolve prints the result even when resolution failed; the failure is in its error field
func runResolve(ctx context.Context, prices priceResolver, d *domain.ItemDescriptor, out io.Writer) error {
	result, err := prices.ResolvePrice(ctx, d)
	if result == nil {
		return err
	}

	data, mErr := json.MarshalIndent(result, "", "  ")
	if mErr != nil {
		return fmt.Errorf("encode result: %w", mErr)
	}
	fmt.Fprintln(out, string(data))
	return err
}
