package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/observation"
	"github.com/halias/halias-go/internal/rdfio"
	"github.com/halias/halias-go/internal/triplestore"
	"github.com/halias/halias-go/internal/vocab"
)

func testRecord(v *vocab.Vocabulary, day int) *observation.Record {
	key := fmt.Sprintf("H200001%02danacre", day)
	return &observation.Record{
		Key:       key,
		Subject:   v.ObservationSubject(key),
		Date:      fmt.Sprintf("2000-01-%02d", day),
		Taxon:     "anacre",
		SpeciesID: "FMNH_1",
		Local:     observation.CountOf(day),
		Season:    vocab.Winter,
	}
}

func run(t *testing.T, w *Writer, rows int) {
	t.Helper()
	v := vocab.Default()
	for i := 1; i <= rows; i++ {
		require.NoError(t, w.Advance(t.Context()))
		w.Add(testRecord(v, i))
	}
	require.NoError(t, w.Close(t.Context()))
}

func TestWriterRotatesBatches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	v := vocab.Default()
	var batches []Batch

	w := NewWriter(v, Options{
		Path:      func(n int) string { return filepath.Join(dir, fmt.Sprintf("HALIAS%d.nt", n)) },
		Format:    rdfio.NTriples,
		BatchSize: 2,
		Prefixes:  v.ObservationPrefixes(),
		OnFlush: []FlushFunc{func(_ context.Context, b Batch) error {
			batches = append(batches, b)
			return nil
		}},
	})
	run(t, w, 5)

	require.Len(t, batches, 3)
	assert.Equal(t, []int{1, 2, 2}, []int{len(batches[0].Records), len(batches[1].Records), len(batches[2].Records)})
	assert.Equal(t, []int{1, 2, 2}, []int{batches[0].Rows, batches[1].Rows, batches[2].Rows})
	assert.Equal(t, 3, w.Batches())
	require.Len(t, w.Documents(), 3)

	store, err := rdfio.ParseFile(w.Documents()[1])
	require.NoError(t, err)
	subjects := store.SubjectsOfType(v.Observation)
	assert.Equal(t, []triplestore.Term{
		v.ObservationSubject("H20000102anacre"),
		v.ObservationSubject("H20000103anacre"),
	}, subjects)
}

func TestWriterAnnotationsLandInCurrentBatch(t *testing.T) {
	t.Parallel()

	v := vocab.Default()
	var triples []int
	w := NewWriter(v, Options{
		BatchSize: 10,
		DryRun:    true,
		OnFlush: []FlushFunc{func(_ context.Context, b Batch) error {
			triples = append(triples, b.Triples)
			return nil
		}},
	})

	subject := v.ObservationSubject("H20000101anacre")
	w.Annotate(triplestore.T(subject, v.NonSamplingErr, triplestore.Literal("VALIDATION ERROR: x")))
	require.NoError(t, w.Close(t.Context()))
	assert.Equal(t, []int{1}, triples)
}

func TestWriterDryRunWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewWriter(vocab.Default(), Options{
		Path:      func(n int) string { return filepath.Join(dir, fmt.Sprintf("HALIAS%d.ttl", n)) },
		Format:    rdfio.Turtle,
		BatchSize: 2,
		DryRun:    true,
	})
	run(t, w, 4)

	assert.Equal(t, 3, w.Batches())
	assert.Empty(t, w.Documents())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriterCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	calls := 0
	w := NewWriter(vocab.Default(), Options{DryRun: true, OnFlush: []FlushFunc{
		func(context.Context, Batch) error { calls++; return nil },
	}})
	require.NoError(t, w.Close(t.Context()))
	require.NoError(t, w.Close(t.Context()))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, w.Batches())
}

func TestWriterCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	w := NewWriter(vocab.Default(), Options{DryRun: true, BatchSize: 1})
	err := w.Advance(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
}
