// Package pipeline runs one conversion: it loads the ontologies, resolves
// the abbreviation table, writes the full and reduced taxonomies and
// converts the observation file into numbered RDF documents.
package pipeline

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/halias/halias-go/internal/conf"
	"github.com/halias/halias-go/internal/datastore"
	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/logger"
	"github.com/halias/halias-go/internal/observability"
	"github.com/halias/halias-go/internal/observability/metrics"
	"github.com/halias/halias-go/internal/observation"
	"github.com/halias/halias-go/internal/output"
	"github.com/halias/halias-go/internal/rdfio"
	"github.com/halias/halias-go/internal/taxon"
	"github.com/halias/halias-go/internal/triplestore"
	"github.com/halias/halias-go/internal/validation"
	"github.com/halias/halias-go/internal/vocab"
)

// Pipeline converts the inputs named in its settings
type Pipeline struct {
	settings *conf.Settings
	vocab    *vocab.Vocabulary
	metrics  *observability.Metrics
	archive  datastore.Interface
	log      logger.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithMetrics records into m instead of a private registry
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithArchive stores accepted records in archive instead of the database
// selected by the settings
func WithArchive(archive datastore.Interface) Option {
	return func(p *Pipeline) {
		p.archive = archive
	}
}

// New returns a Pipeline for settings. Outside dry run the SQL archive
// enabled in the settings, if any, is attached.
func New(settings *conf.Settings, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		settings: settings,
		vocab:    vocab.Default(),
		log:      GetLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.metrics == nil {
		m, err := observability.NewMetrics()
		if err != nil {
			return nil, errors.New(err).
				Component("pipeline").
				Category(errors.CategoryConfiguration).
				Context("operation", "create-metrics").
				Build()
		}
		p.metrics = m
	}

	if settings.DryRun {
		p.archive = nil
	} else if p.archive == nil {
		p.archive = datastore.New(settings)
	}

	return p, nil
}

// Metrics returns the registry the pipeline records into
func (p *Pipeline) Metrics() *observability.Metrics {
	return p.metrics
}

// taxonomy is the merged ontology with its resolved abbreviation table
type taxonomy struct {
	store    *triplestore.Store
	accepted taxon.Accepted
	codes    []string
	table    *taxon.Table
}

// Run performs a complete conversion. The report is returned even when the
// run fails.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := p.log.WithContext(ctx)

	report := newReport(runID, p.settings.DryRun)
	log.Info("conversion started",
		logger.Bool("dry_run", p.settings.DryRun),
		logger.String("input_dir", p.settings.Input.Directory),
		logger.String("output_dir", p.settings.Output.Directory))

	err := p.run(ctx, report, start)
	report.Elapsed = time.Since(start)

	if textfile := p.settings.Metrics.Textfile; textfile != "" && !p.settings.DryRun {
		if werr := p.metrics.WriteTextfile(textfile); werr != nil {
			log.Warn("metrics textfile not written", logger.Error(werr))
		}
	}

	if err != nil {
		log.Error("conversion failed",
			logger.Error(err),
			logger.Int("rows", report.Rows),
			logger.Duration("elapsed", report.Elapsed))
		return report, err
	}

	log.Info("conversion finished",
		logger.Int("rows", report.Rows),
		logger.Int("records", report.Records),
		logger.Int("validation_errors", report.ValidationErrors),
		logger.Int("batches", report.Batches),
		logger.Duration("elapsed", report.Elapsed))
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, report *Report, start time.Time) (err error) {
	format, err := rdfio.ParseFormat(p.settings.Output.Format)
	if err != nil {
		return err
	}
	rec := p.metrics.Run

	var tax *taxonomy
	if err := metrics.TimePhase(rec, metrics.PhaseLoad, func() error {
		tax, err = p.load(ctx)
		return err
	}); err != nil {
		return err
	}

	if err := metrics.TimePhase(rec, metrics.PhaseResolve, func() error {
		tax.table, err = taxon.Resolve(tax.store, p.vocab, tax.accepted, tax.codes)
		return err
	}); err != nil {
		return err
	}
	report.Abbreviations = tax.table.Len()
	report.Conflicts = len(tax.table.Conflicts())

	reducer := taxon.NewReducer(p.vocab, p.settings.Conversion.CommonThreshold)

	if err := metrics.TimePhase(rec, metrics.PhasePrepare, func() error {
		reducer.Prepare(tax.store, tax.table)
		return p.writeTaxonomy(p.settings.Output.FullTaxa, format, tax.store)
	}); err != nil {
		return err
	}

	if err := metrics.TimePhase(rec, metrics.PhaseReduce, func() error {
		frequencies, err := p.countFrequencies()
		if err != nil {
			return err
		}
		stats := reducer.Reduce(tax.store, tax.table, frequencies)
		report.TaxaRetained = len(stats.Retained)
		rec.SetRarity(string(taxon.Common), stats.Common)
		rec.SetRarity(string(taxon.Rare), stats.Rare)
		return p.writeTaxonomy(p.settings.Output.ReducedTaxa, format, tax.store)
	}); err != nil {
		return err
	}
	rec.SetTaxonomy(report.Abbreviations, report.Conflicts, report.TaxaRetained)

	if p.archive != nil {
		if err := p.archive.Open(); err != nil {
			return err
		}
		defer func() {
			if cerr := p.archive.Close(); cerr != nil {
				p.log.Warn("archive close failed", logger.Error(cerr))
			}
		}()

		run := &datastore.Run{ID: report.RunID, StartedAt: start, Status: datastore.RunStatusRunning}
		if err := metrics.TimePhase(p.metrics.Archive, metrics.OpBeginRun, func() error {
			return p.archive.BeginRun(ctx, run)
		}); err != nil {
			return err
		}
		defer p.finishArchive(ctx, run, report, &err)
	}

	err = metrics.TimePhase(rec, metrics.PhaseConvert, func() error {
		return p.convert(ctx, report, tax.table, format)
	})
	return err
}

// load parses the three ontology documents and both allow-lists
func (p *Pipeline) load(ctx context.Context) (*taxonomy, error) {
	in := &p.settings.Input

	store, err := rdfio.LoadGraph(ctx,
		in.Path(in.Taxonomy),
		in.Path(in.ExtraTaxa),
		in.Path(in.Mappings))
	if err != nil {
		return nil, err
	}

	accepted, err := taxon.LoadAcceptedTaxa(in.Path(in.AcceptedTaxa))
	if err != nil {
		return nil, err
	}

	codes, err := taxon.LoadAcceptedAbbreviations(in.Path(in.AcceptedAbbreviations))
	if err != nil {
		return nil, err
	}

	p.log.Info("inputs loaded",
		logger.Int("triples", store.Len()),
		logger.Int("accepted_taxa", accepted.Len()),
		logger.Int("accepted_abbreviations", len(codes)))

	return &taxonomy{store: store, accepted: accepted, codes: codes}, nil
}

func (p *Pipeline) writeTaxonomy(name string, format rdfio.Format, store *triplestore.Store) error {
	if p.settings.DryRun {
		p.log.Debug("dry run, taxonomy not written", logger.String("document", name))
		return nil
	}
	path := p.settings.Output.Path(name)
	if err := rdfio.WriteFile(path, format, p.vocab.TaxonomyPrefixes(), store); err != nil {
		return err
	}
	p.log.Info("taxonomy written",
		logger.String("path", path),
		logger.Int("triples", store.Len()))
	return nil
}

func (p *Pipeline) countFrequencies() (map[string]int, error) {
	file, err := p.openObservations()
	if err != nil {
		return nil, err
	}
	defer file.Close() //nolint:errcheck // read-only

	frequencies, _, err := observation.CountFrequencies(file)
	return frequencies, err
}

func (p *Pipeline) openObservations() (*os.File, error) {
	path := p.settings.Input.Path(p.settings.Input.Observations)
	file, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, errors.New(err).
			Component("pipeline").
			Category(errors.CategoryFileIO).
			Context("operation", "open-observations").
			Context("file_path", path).
			Build()
	}
	return file, nil
}

// convert streams the observation file through the normalizer into the
// batch writer
func (p *Pipeline) convert(ctx context.Context, report *Report, table *taxon.Table, format rdfio.Format) error {
	file, err := p.openObservations()
	if err != nil {
		return err
	}
	defer file.Close() //nolint:errcheck // read-only

	hooks := []output.FlushFunc{p.recordBatch}
	if p.archive != nil {
		hooks = append(hooks, p.archiveBatch(report.RunID))
	}

	writer := output.NewWriter(p.vocab, output.Options{
		Path:      p.settings.Output.ObservationDocument,
		Format:    format,
		BatchSize: p.settings.Output.BatchSize,
		Prefixes:  p.vocab.ObservationPrefixes(),
		DryRun:    p.settings.DryRun,
		OnFlush:   hooks,
	})
	validator := validation.New(p.vocab, writer, p.settings.Conversion.IssueHistory)
	normalizer := observation.NewNormalizer(table, validator, p.vocab, observation.Options{
		CutoffYear:    p.settings.Conversion.CutoffYear,
		LenientCounts: p.settings.Conversion.LenientCounts,
	})
	reader := observation.NewReader(file)

	defer func() {
		report.Rows = reader.Rows()
		report.Batches = writer.Batches()
		report.Documents = writer.Documents()
		report.ValidationErrors = validator.Count()
		report.Issues = validator.Issues()
		for kind, n := range validator.CountByKind() {
			report.ErrorsByKind[kind] = n
			p.metrics.Run.AddValidationErrors(string(kind), n)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return errors.New(err).
				Component("pipeline").
				Category(errors.CategoryCancellation).
				Context("row", reader.Rows()).
				Build()
		}

		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		p.metrics.Run.RecordRow()

		if err := writer.Advance(ctx); err != nil {
			return err
		}

		record, err := normalizer.Normalize(row)
		if err != nil {
			skip, ok := observation.AsSkip(err)
			if !ok {
				return err
			}
			report.Skipped[skip.Reason]++
			p.metrics.Run.RecordSkip(string(skip.Reason))
			continue
		}

		writer.Add(record)
		report.Records++
		p.metrics.Run.RecordRecord()
	}

	return writer.Close(ctx)
}

func (p *Pipeline) recordBatch(_ context.Context, batch output.Batch) error {
	p.metrics.Run.RecordBatch(batch.Triples)
	return nil
}

// archiveBatch returns a flush hook storing the records of each batch
func (p *Pipeline) archiveBatch(runID string) output.FlushFunc {
	return func(ctx context.Context, batch output.Batch) error {
		if len(batch.Records) == 0 {
			return nil
		}
		if err := metrics.TimePhase(p.metrics.Archive, metrics.OpSave, func() error {
			return p.archive.SaveObservations(ctx, runID, batch.Records)
		}); err != nil {
			return err
		}
		p.metrics.Archive.RecordArchived(len(batch.Records))
		return nil
	}
}

// finishArchive stores the run summary. It runs after cancellation too, so
// it does not inherit ctx's deadline.
func (p *Pipeline) finishArchive(ctx context.Context, run *datastore.Run, report *Report, runErr *error) {
	now := time.Now()
	run.FinishedAt = &now
	run.Rows = report.Rows
	run.Records = report.Records
	run.ValidationErrors = report.ValidationErrors
	run.Batches = report.Batches
	run.Status = datastore.RunStatusCompleted
	if *runErr != nil {
		run.Status = datastore.RunStatusFailed
	}

	if err := metrics.TimePhase(p.metrics.Archive, metrics.OpFinishRun, func() error {
		return p.archive.FinishRun(context.WithoutCancel(ctx), run)
	}); err != nil {
		p.log.Error("run summary not archived", logger.Error(err), logger.String("run_id", run.ID))
		if *runErr == nil {
			*runErr = err
		}
	}
}
