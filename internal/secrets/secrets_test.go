package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halias/halias-go/internal/errors"
)

func TestExpandString(t *testing.T) {
	t.Setenv("HALIAS_TEST_PASSWORD", "s3cret")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"empty", "", "", false},
		{"literal", "plain", "plain", false},
		{"variable", "${HALIAS_TEST_PASSWORD}", "s3cret", false},
		{"embedded", "user:${HALIAS_TEST_PASSWORD}@db", "user:s3cret@db", false},
		{"fallback unused", "${HALIAS_TEST_PASSWORD:-other}", "s3cret", false},
		{"fallback used", "${HALIAS_TEST_UNSET:-other}", "other", false},
		{"empty fallback", "${HALIAS_TEST_UNSET:-}", "", false},
		{"missing", "${HALIAS_TEST_UNSET}", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
				assert.Contains(t, err.Error(), "HALIAS_TEST_UNSET")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeSecret(t *testing.T, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
	return path
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	t.Run("trims trailing newlines", func(t *testing.T) {
		t.Parallel()
		got, err := ReadFile(writeSecret(t, " pass word \r\n", 0o600))
		require.NoError(t, err)
		assert.Equal(t, " pass word ", got)
	})

	t.Run("permissive mode is accepted", func(t *testing.T) {
		t.Parallel()
		got, err := ReadFile(writeSecret(t, "token\n", 0o644))
		require.NoError(t, err)
		assert.Equal(t, "token", got)
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile(writeSecret(t, "\n", 0o600))
		assert.Error(t, err)
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile(writeSecret(t, strings.Repeat("x", maxSecretFileSize+1), 0o600))
		assert.Error(t, err)
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile(filepath.Join(t.TempDir(), "absent"))
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile("")
		assert.Error(t, err)
	})
}

func TestResolvePrefersFile(t *testing.T) {
	t.Setenv("HALIAS_TEST_DSN", "from-env")
	path := writeSecret(t, "from-file\n", 0o600)

	got, err := Resolve(path, "${HALIAS_TEST_DSN}")
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)

	got, err = Resolve("", "${HALIAS_TEST_DSN}")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	got, err = Resolve("", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}
