// Package convert implements the convert command
package convert

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/halias/halias-go/internal/conf"
	"github.com/halias/halias-go/internal/pipeline"
)

// Command creates the convert command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert the taxonomy and observation data to RDF",
		Long: `Load the taxonomy ontologies, resolve the abbreviation table, write the full
and reduced taxonomies and convert the observation CSV into numbered RDF
documents. The end-of-run report is printed even when the run fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := pipeline.New(settings)
			if err != nil {
				return err
			}

			report, err := p.Run(ctx)
			report.Print(cmd.OutOrStdout())
			return err
		},
	}

	if err := setupFlags(cmd); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the convert command
func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().BoolP("dry-run", "d", false, "Run every step without writing any output")
	cmd.Flags().StringP("format", "f", conf.FormatTurtle, "Output format: turtle, ntriples")
	cmd.Flags().Int("batch-size", conf.DefaultBatchSize, "Rows per observation document")
	cmd.Flags().Bool("lenient", false, "Report malformed counts as validation errors instead of aborting")

	for key, name := range map[string]string{
		"dryrun":                   "dry-run",
		"output.format":            "format",
		"output.batchsize":         "batch-size",
		"conversion.lenientcounts": "lenient",
	} {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}
