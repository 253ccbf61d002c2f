package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/halias/halias-go/cmd/abbreviations"
	"github.com/halias/halias-go/cmd/config"
	"github.com/halias/halias-go/cmd/convert"
	"github.com/halias/halias-go/internal/buildinfo"
	"github.com/halias/halias-go/internal/conf"
	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/logger"
)

// RootCommand creates and returns the root command. Settings are loaded
// before any subcommand runs and shared with it through settings.
func RootCommand(info *buildinfo.Context) *cobra.Command {
	settings := &conf.Settings{}
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "halias",
		Short:        "Convert Halias bird observation data to RDF",
		Version:      info.String(),
		SilenceUsage: true,
	}

	if err := setupFlags(rootCmd, &configFile); err != nil {
		panic(err) // flag names are static
	}

	configCmd := config.Command(settings, &configFile)
	subcommands := []*cobra.Command{
		convert.Command(settings),
		abbreviations.Command(settings),
		configCmd,
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// config --init must work with a broken or missing config file
		if cmd == configCmd {
			if initDir, _ := cmd.Flags().GetString("init"); initDir != "" {
				return nil
			}
		}
		return initialize(settings, configFile, info)
	}

	return rootCmd
}

// initialize loads the settings and sets up logging and telemetry
func initialize(settings *conf.Settings, configFile string, info *buildinfo.Context) error {
	loaded, err := conf.Load(configFile)
	if err != nil {
		return err
	}
	*settings = *loaded

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	if settings.Telemetry.Enabled {
		if err := errors.InitSentry(settings.Telemetry.DSN, info.Version()); err != nil {
			logger.Global().Module("main").Warn("telemetry disabled", logger.Error(err))
		}
	}
	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, configFile *string) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(configFile, "config", "", "Path to config.yaml (default: search ./ and the user config directory)")
	flags.Bool("debug", false, "Enable debug output")
	flags.String("input-dir", "", "Directory holding the input files")
	flags.String("output-dir", "", "Directory for the generated documents")

	for key, name := range map[string]string{
		"debug":            "debug",
		"input.directory":  "input-dir",
		"output.directory": "output-dir",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}
