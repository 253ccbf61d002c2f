// Package output collects observation statements into size-bounded batches
// and writes each batch as a numbered RDF document.
package output

import (
	"context"
	"time"

	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/logger"
	"github.com/halias/halias-go/internal/observation"
	"github.com/halias/halias-go/internal/rdfio"
	"github.com/halias/halias-go/internal/triplestore"
	"github.com/halias/halias-go/internal/vocab"
)

// Batch is one flushed working set
type Batch struct {
	Index   int
	Path    string // empty in dry run
	Rows    int
	Triples int
	Records []*observation.Record
}

// FlushFunc is called after each batch is written
type FlushFunc func(ctx context.Context, batch Batch) error

// Options configure a Writer
type Options struct {
	// Path returns the document path of batch n
	Path      func(n int) string
	Format    rdfio.Format
	BatchSize int
	Prefixes  []vocab.Prefix
	DryRun    bool
	// OnFlush hooks run in order after every batch
	OnFlush []FlushFunc
}

// Writer is the current output batch. Rows are counted with Advance and the
// batch rotates every BatchSize rows, so document n holds the statements of
// rows n*BatchSize to (n+1)*BatchSize-1.
type Writer struct {
	opts  Options
	vocab *vocab.Vocabulary
	log   logger.Logger

	store   *triplestore.Store
	records []*observation.Record
	index   int
	rows    int // rows seen in the whole run
	inBatch int

	documents []string
	closed    bool
}

// NewWriter returns a writer positioned at batch 0
func NewWriter(v *vocab.Vocabulary, opts Options) *Writer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100000
	}
	return &Writer{
		opts:  opts,
		vocab: v,
		log:   GetLogger(),
		store: triplestore.New(),
	}
}

// Annotate adds annotation statements to the current batch
func (w *Writer) Annotate(triples ...triplestore.Triple) {
	w.store.Add(triples...)
}

// Add places the record statements in the current batch
func (w *Writer) Add(rec *observation.Record) {
	w.store.Add(rec.Triples(w.vocab)...)
	w.records = append(w.records, rec)
}

// Advance counts one input row and rotates the batch when the row count
// reaches a multiple of the batch size. Call it before processing the row.
func (w *Writer) Advance(ctx context.Context) error {
	w.rows++
	if w.rows%w.opts.BatchSize == 0 {
		if err := w.rotate(ctx); err != nil {
			return err
		}
	}
	w.inBatch++
	return nil
}

// Close writes the final batch. It is written even when empty so that the
// document sequence has no gaps.
func (w *Writer) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.flush(ctx)
}

// Batches returns the number of batches flushed
func (w *Writer) Batches() int {
	if w.closed {
		return w.index + 1
	}
	return w.index
}

// Documents returns the paths written so far
func (w *Writer) Documents() []string {
	return append([]string(nil), w.documents...)
}

func (w *Writer) rotate(ctx context.Context) error {
	if err := w.flush(ctx); err != nil {
		return err
	}
	w.index++
	w.store = triplestore.New()
	w.records = nil
	w.inBatch = 0
	return nil
}

func (w *Writer) flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.New(err).
			Component("output").
			Category(errors.CategoryCancellation).
			Context("batch", w.index).
			Build()
	}

	batch := Batch{
		Index:   w.index,
		Rows:    w.inBatch,
		Triples: w.store.Len(),
		Records: w.records,
	}

	if !w.opts.DryRun {
		start := time.Now()
		batch.Path = w.opts.Path(w.index)
		if err := rdfio.WriteFile(batch.Path, w.opts.Format, w.opts.Prefixes, w.store); err != nil {
			return err
		}
		w.documents = append(w.documents, batch.Path)
		w.log.Info("observation document written",
			logger.Int("batch", w.index),
			logger.String("path", batch.Path),
			logger.Int("triples", batch.Triples),
			logger.Duration("elapsed", time.Since(start)))
	} else {
		w.log.Debug("dry run, observation batch not written",
			logger.Int("batch", w.index),
			logger.Int("triples", batch.Triples))
	}

	for _, hook := range w.opts.OnFlush {
		if err := hook(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}
