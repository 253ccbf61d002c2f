package logger

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedFileWriterFlush(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.log")
	writer, err := NewBufferedFileWriter(path, WithFlushInterval(0))
	require.NoError(t, err)
	defer func() { _ = writer.Close() }()

	data := "first line\n"
	n, err := writer.Write([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Positive(t, writer.Buffered())

	require.NoError(t, writer.Flush())
	assert.Zero(t, writer.Buffered())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, string(content))
}

func TestBufferedFileWriterCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.log")
	writer, err := NewBufferedFileWriter(path)
	require.NoError(t, err)

	_, err = writer.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, writer.Close())

	_, err = writer.Write([]byte("late"))
	require.Error(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))
}

func TestBufferedFileWriterConcurrentWrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.log")
	writer, err := NewBufferedFileWriter(path, WithBufferSize(64))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 50 {
				_, _ = writer.Write([]byte("0123456789\n"))
			}
		})
	}
	wg.Wait()
	require.NoError(t, writer.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, content, 8*50*11)
}
