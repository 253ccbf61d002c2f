// Package config implements the config command
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halias/halias-go/internal/conf"
)

// Command creates the config command. configFile is the value of the
// global --config flag.
func Command(settings *conf.Settings, configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Print the effective configuration as YAML with credentials redacted, or write the default config.yaml with --init.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir, _ := cmd.Flags().GetString("init"); dir != "" {
				path, err := conf.CreateDefaultConfig(dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration file: %s\n", path)
				return nil
			}

			rendered, err := settings.RenderYAML()
			if err != nil {
				return err
			}
			if *configFile != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", *configFile)
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}

	cmd.Flags().String("init", "", "Write the default config.yaml into this directory")

	return cmd
}
