// conf/defaults.go default values for settings
package conf

import "github.com/spf13/viper"

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("dryrun", false)

	viper.SetDefault("input.directory", ".")
	viper.SetDefault("input.taxonomy", "avio.ttl")
	viper.SetDefault("input.extrataxa", "lisataksonit_avioon.ttl")
	viper.SetDefault("input.mappings", "avio_ripustukset_halias.ttl")
	viper.SetDefault("input.acceptedtaxa", "suomen_lintulajit.txt")
	viper.SetDefault("input.acceptedabbreviations", "halias_taksonit.txt")
	viper.SetDefault("input.observations", "HALIAS_Kokodata_20120424_AY.csv")

	viper.SetDefault("output.directory", ".")
	viper.SetDefault("output.format", FormatTurtle)
	viper.SetDefault("output.batchsize", DefaultBatchSize)
	viper.SetDefault("output.fulltaxa", "halias_taxa_full.ttl")
	viper.SetDefault("output.reducedtaxa", "halias_taxa_v2.ttl")
	viper.SetDefault("output.observationprefix", "HALIAS")

	viper.SetDefault("output.sqlite.enabled", false)
	viper.SetDefault("output.sqlite.path", "halias.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.passwordfile", "")
	viper.SetDefault("output.mysql.database", "halias")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("conversion.cutoffyear", DefaultCutoffYear)
	viper.SetDefault("conversion.commonthreshold", DefaultCommonThreshold)
	viper.SetDefault("conversion.lenientcounts", false)
	viper.SetDefault("conversion.issuehistory", DefaultIssueHistory)

	viper.SetDefault("metrics.textfile", "")

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.dsn", "")
	viper.SetDefault("telemetry.dsnfile", "")

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/halias.log")
	viper.SetDefault("logging.file_output.level", "debug")
}
