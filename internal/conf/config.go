// config.go: settings for the Halias converter and the functions to load them.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/logger"
	"github.com/halias/halias-go/internal/secrets"
)

//go:embed config.yaml
var configFiles embed.FS

// InputSettings locates the conversion inputs. Relative file names are
// resolved against Directory.
type InputSettings struct {
	Directory             string // base directory for all input files
	Taxonomy              string // primary taxonomy ontology (Turtle)
	ExtraTaxa             string // supplementary taxa ontology (Turtle)
	Mappings              string // supplementary mappings ontology (Turtle)
	AcceptedTaxa          string // fixed-column report of accepted species names
	AcceptedAbbreviations string // accepted abbreviation list, one per line
	Observations          string // semicolon-delimited observation CSV
}

// SQLiteSettings configures the optional SQLite archive.
type SQLiteSettings struct {
	Enabled bool   // true to archive records in SQLite
	Path    string // path to the database file
}

// MySQLSettings configures the optional MySQL archive.
type MySQLSettings struct {
	Enabled      bool   // true to archive records in MySQL
	Username     string // database user
	Password     string // database password, may reference ${VAR}
	PasswordFile string // file holding the password, overrides Password
	Database     string // database name
	Host         string // database host
	Port         string // database port
}

// OutputSettings controls where and how RDF documents are written.
type OutputSettings struct {
	Directory         string // directory for all generated documents
	Format            string // "turtle" or "ntriples"
	BatchSize         int    // rows per observation document before rotation
	FullTaxa          string // taxonomy document after preparation
	ReducedTaxa       string // taxonomy document after reduction
	ObservationPrefix string // numbered observation documents are <prefix><n>.<ext>
	SQLite            SQLiteSettings
	MySQL             MySQLSettings
}

// ConversionSettings holds the normalization thresholds.
type ConversionSettings struct {
	CutoffYear      int  // rows dated in this year or later are dropped
	CommonThreshold int  // species with more observations than this are common
	LenientCounts   bool // report malformed counts as validation errors instead of aborting
	IssueHistory    int  // number of validation issues kept for the report
}

// MetricsSettings controls the Prometheus textfile export.
type MetricsSettings struct {
	Textfile string // path for node_exporter textfile output, empty to disable
}

// TelemetrySettings controls Sentry error reporting.
type TelemetrySettings struct {
	Enabled bool   // true to report fatal errors to Sentry
	DSN     string // Sentry DSN, may reference ${VAR}
	DSNFile string // file holding the DSN, overrides DSN
}

// Settings contains all configuration options for a conversion run.
type Settings struct {
	Debug  bool // true to enable debug logging
	DryRun bool // true to run without writing anything

	Input      InputSettings
	Output     OutputSettings
	Conversion ConversionSettings
	Metrics    MetricsSettings
	Telemetry  TelemetrySettings
	Logging    logger.LoggingConfig
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file, environment and bound flags into Settings.
// An empty configFile searches the default config paths; a missing file there
// is not an error and the built-in defaults apply.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal-settings").
			Build()
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// resolveSecrets replaces credential settings with their resolved values
func resolveSecrets(settings *Settings) error {
	password, err := secrets.Resolve(settings.Output.MySQL.PasswordFile, settings.Output.MySQL.Password)
	if err != nil {
		return fmt.Errorf("error resolving output.mysql.password: %w", err)
	}
	settings.Output.MySQL.Password = password

	dsn, err := secrets.Resolve(settings.Telemetry.DSNFile, settings.Telemetry.DSN)
	if err != nil {
		return fmt.Errorf("error resolving telemetry.dsn: %w", err)
	}
	settings.Telemetry.DSN = dsn
	return nil
}

// initViper registers defaults, environment bindings and reads the config file.
func initViper(configFile string) error {
	viper.SetConfigType("yaml")
	setDefaultConfig()
	bindEnvVars()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.New(err).
				Category(errors.CategoryConfiguration).
				FileContext(configFile, 0).
				Context("operation", "read-config").
				Build()
		}
		GetLogger().Debug("configuration loaded", logger.String("path", viper.ConfigFileUsed()))
		return nil
	}

	viper.SetConfigName("config")
	for _, path := range GetDefaultConfigPaths() {
		viper.AddConfigPath(path)
	}

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			GetLogger().Debug("no configuration file found, using defaults")
			return nil
		}
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "read-config").
			Build()
	}

	GetLogger().Debug("configuration loaded", logger.String("path", viper.ConfigFileUsed()))
	return nil
}

// CreateDefaultConfig writes the embedded default config.yaml into dir.
// An existing file is left untouched and its path returned.
func CreateDefaultConfig(dir string) (string, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "create-config-dir").
			Build()
	}

	if err := os.WriteFile(configPath, []byte(getDefaultConfig()), 0o644); err != nil { //nolint:gosec // config is not secret until edited
		return "", errors.New(err).
			Category(errors.CategoryFileIO).
			FileContext(configPath, 0).
			Context("operation", "write-default-config").
			Build()
	}

	return configPath, nil
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, ConfigFileName)
	if err != nil {
		// the file is embedded at build time
		panic(fmt.Sprintf("embedded config missing: %v", err))
	}
	return string(data)
}

// GetSettings returns the settings from the last successful Load
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// RenderYAML returns the settings as YAML with credentials redacted.
func (s *Settings) RenderYAML() (string, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return "", errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "render-settings").
			Build()
	}
	return logger.RedactSensitiveData(string(data)), nil
}

// Path resolves an input file name against the input directory.
func (in *InputSettings) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(in.Directory, name)
}

// Path resolves an output file name against the output directory.
func (out *OutputSettings) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(out.Directory, name)
}

// Extension returns the file extension for the configured RDF format.
func (out *OutputSettings) Extension() string {
	if out.Format == FormatNTriples {
		return "nt"
	}
	return "ttl"
}

// ObservationDocument returns the path of the numbered observation document.
func (out *OutputSettings) ObservationDocument(index int) string {
	return out.Path(fmt.Sprintf("%s%d.%s", out.ObservationPrefix, index, out.Extension()))
}
