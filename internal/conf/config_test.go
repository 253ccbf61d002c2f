package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// resetViper isolates tests that go through the global viper instance.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())

	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultBatchSize, settings.Output.BatchSize)
	assert.Equal(t, DefaultCutoffYear, settings.Conversion.CutoffYear)
	assert.Equal(t, DefaultCommonThreshold, settings.Conversion.CommonThreshold)
	assert.Equal(t, FormatTurtle, settings.Output.Format)
	assert.Equal(t, "avio.ttl", settings.Input.Taxonomy)
	assert.False(t, settings.DryRun)
	require.NotNil(t, settings.Logging.Console)
	assert.True(t, settings.Logging.Console.Enabled)
	assert.Same(t, settings, GetSettings())
}

func TestLoadConfigFileAndEnvironment(t *testing.T) {
	resetViper(t)
	t.Setenv("HALIAS_OUTPUT_BATCHSIZE", "500")

	path := writeConfig(t, `
dryrun: true
input:
  directory: /data/halias
output:
  format: ntriples
conversion:
  lenientcounts: true
`)

	settings, err := Load(path)
	require.NoError(t, err)

	assert.True(t, settings.DryRun)
	assert.True(t, settings.Conversion.LenientCounts)
	assert.Equal(t, FormatNTriples, settings.Output.Format)
	assert.Equal(t, 500, settings.Output.BatchSize)
	assert.Equal(t, "/data/halias/avio.ttl", settings.Input.Path(settings.Input.Taxonomy))
	assert.Equal(t, "nt", settings.Output.Extension())
}

func TestLoadDebugRaisesLogLevel(t *testing.T) {
	resetViper(t)

	settings, err := Load(writeConfig(t, "debug: true\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", settings.Logging.DefaultLevel)
	assert.Equal(t, "debug", settings.Logging.Console.Level)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	resetViper(t)

	_, err := Load(writeConfig(t, `
output:
  format: rdfxml
  batchsize: 0
`))
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 1)
	assert.Contains(t, ve.Errors[0], "rdfxml")
	assert.Contains(t, ve.Errors[0], "batch size")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	resetViper(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestObservationDocumentNaming(t *testing.T) {
	t.Parallel()

	out := OutputSettings{Directory: "out", Format: FormatTurtle, ObservationPrefix: "HALIAS"}
	assert.Equal(t, filepath.Join("out", "HALIAS3.ttl"), out.ObservationDocument(3))

	out.Format = FormatNTriples
	assert.Equal(t, filepath.Join("out", "HALIAS0.nt"), out.ObservationDocument(0))
}

func TestRenderYAMLRedactsCredentials(t *testing.T) {
	t.Parallel()

	settings := &Settings{}
	settings.Output.MySQL.Password = "hunter22"
	settings.Telemetry.DSN = "https://key@o1.ingest.sentry.io/1"

	rendered, err := settings.RenderYAML()
	require.NoError(t, err)
	assert.NotContains(t, rendered, "hunter22")
	assert.NotContains(t, rendered, "o1.ingest.sentry.io")
	assert.Contains(t, rendered, "[REDACTED]")
}

func TestEmbeddedDefaultConfigMatchesDefaults(t *testing.T) {
	t.Parallel()

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(getDefaultConfig()), &parsed))

	output, ok := parsed["output"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, DefaultBatchSize, output["batchsize"])

	conversion, ok := parsed["conversion"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, DefaultCutoffYear, conversion["cutoffyear"])
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "halias")
	path, err := CreateDefaultConfig(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, getDefaultConfig(), string(data))

	// A second call keeps the edited file.
	require.NoError(t, os.WriteFile(path, []byte("debug: true\n"), 0o600))
	again, err := CreateDefaultConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug: true\n", string(data))
}

func TestLoadResolvesSecrets(t *testing.T) {
	resetViper(t)
	t.Setenv("HALIAS_TEST_DB_PASSWORD", "s3cret")

	dsnFile := filepath.Join(t.TempDir(), "dsn")
	require.NoError(t, os.WriteFile(dsnFile, []byte("https://key@example.invalid/1\n"), 0o600))

	settings, err := Load(writeConfig(t, `
output:
  mysql:
    password: ${HALIAS_TEST_DB_PASSWORD}
telemetry:
  dsnfile: `+dsnFile+`
`))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", settings.Output.MySQL.Password)
	assert.Equal(t, "https://key@example.invalid/1", settings.Telemetry.DSN)
}

func TestLoadUnsetSecretVariable(t *testing.T) {
	resetViper(t)

	_, err := Load(writeConfig(t, `
output:
  mysql:
    password: ${HALIAS_TEST_UNSET_PASSWORD}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.mysql.password")
}
