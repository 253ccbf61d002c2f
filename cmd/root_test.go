package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halias/halias-go/internal/buildinfo"
)

func TestConfigInitWritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	root := RootCommand(buildinfo.NewContext("test", ""))
	root.SetOut(&out)
	root.SetArgs([]string{"config", "--init", dir})

	require.NoError(t, root.Execute())

	path := filepath.Join(dir, "config.yaml")
	assert.FileExists(t, path)
	assert.Contains(t, out.String(), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "observationprefix: HALIAS")
}

func TestConvertRejectsArguments(t *testing.T) {
	root := RootCommand(buildinfo.NewContext("test", ""))
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"convert", "extra"})

	assert.Error(t, root.Execute())
}
