// env.go - environment variable configuration
package conf

import (
	"strings"

	"github.com/spf13/viper"
)

// bindEnvVars maps HALIAS_* variables onto config keys, e.g.
// HALIAS_OUTPUT_BATCHSIZE overrides output.batchsize.
func bindEnvVars() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Credentials are bound explicitly so they never have to live in the config file.
	_ = viper.BindEnv("output.mysql.password", EnvPrefix+"_MYSQL_PASSWORD")
	_ = viper.BindEnv("telemetry.dsn", EnvPrefix+"_SENTRY_DSN")
}
