package observability

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewMetricsConcurrency verifies that independent registries can be
// created concurrently.
func TestNewMetricsConcurrency(t *testing.T) {
	t.Parallel()

	const numGoroutines = 20

	var wg sync.WaitGroup
	for range numGoroutines {
		wg.Go(func() {
			m, err := NewMetrics()
			if !assert.NoError(t, err) {
				return
			}
			assert.NotNil(t, m.Registry())
			assert.NotNil(t, m.Run)
			assert.NotNil(t, m.Archive)
		})
	}
	wg.Wait()
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.Run.RecordRow()
	m.Run.RecordRow()
	m.Run.AddValidationErrors("unknown_taxon", 1)

	path := filepath.Join(t.TempDir(), "textfile", "halias.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "halias_rows_total 2")
	assert.Contains(t, text, `halias_validation_errors_total{kind="unknown_taxon"} 1`)
	assert.True(t, strings.HasSuffix(text, "\n"))
}
