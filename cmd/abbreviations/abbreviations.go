// Package abbreviations implements the abbreviations command
package abbreviations

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/halias/halias-go/internal/conf"
	"github.com/halias/halias-go/internal/pipeline"
)

// Command creates the abbreviations command
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "abbreviations",
		Short: "Print the resolved abbreviation table",
		Long:  "Resolve the abbreviation table from the taxonomy and report its coverage of the accepted abbreviation list.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(settings)
			if err != nil {
				return err
			}

			coverage, err := p.Abbreviations(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(coverage)
			}
			return coverage.Print(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON")

	return cmd
}
