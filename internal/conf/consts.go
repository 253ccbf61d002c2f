// conf/consts.go hard coded constants
package conf

const (
	ConfigFileName = "config.yaml"
	EnvPrefix      = "HALIAS"

	FormatTurtle   = "turtle"
	FormatNTriples = "ntriples"

	DefaultBatchSize       = 100000
	DefaultCutoffYear      = 2009
	DefaultCommonThreshold = 300
	DefaultIssueHistory    = 100
)
