package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halias/halias-go/internal/conf"
	"github.com/halias/halias-go/internal/datastore"
	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/observation"
	"github.com/halias/halias-go/internal/validation"
)

const taxonomyTTL = `@prefix bio: <http://www.yso.fi/onto/bio/> .
@prefix taxmeon: <http://www.yso.fi/onto/taxmeon/> .
@prefix ranks: <http://www.yso.fi/onto/taxonomic-ranks/> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .

bio:G1 a taxmeon:TaxonInChecklist, ranks:Genus ;
    rdfs:label "Anas" .
bio:S1 a taxmeon:TaxonInChecklist, ranks:Species ;
    taxmeon:completeTaxonName "Anas crecca" ;
    rdfs:label "crecca" ;
    rdfs:subClassOf bio:G1 .
bio:S2 a taxmeon:TaxonInChecklist, ranks:Species ;
    taxmeon:completeTaxonName "Anas platyrhynchos" ;
    rdfs:subClassOf bio:G1 .
bio:G2 a taxmeon:TaxonInChecklist, ranks:Genus ;
    rdfs:label "Corvus" .
`

const extraTaxaTTL = `@prefix bio: <http://www.yso.fi/onto/bio/> .
@prefix taxmeon: <http://www.yso.fi/onto/taxmeon/> .
@prefix ranks: <http://www.yso.fi/onto/taxonomic-ranks/> .

bio:S3 a taxmeon:TaxonInChecklist, ranks:Species ;
    taxmeon:completeTaxonName "Parus major" .
`

const mappingsTTL = `@prefix bio: <http://www.yso.fi/onto/bio/> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .

bio:S2 rdfs:label "sinisorsa"@fi .
`

const acceptedTaxa = `SUOMEN LINTULAJIT

  ANACRE  x  Anas crecca  tavi
  ANAPLA  x  Anas platyrhynchos  sinisorsa
`

const acceptedAbbreviations = "ANACRE\nANAPLA\nPARMAJ\n"

// observations covers one row per outcome; ANACRE is seen four times and
// ANAPLA twice
var observations = strings.Join([]string{
	"laji;pvm;paikalliset;muuttavat;lisaalue;arvio",
	"ANACRE;4/15/2005;3;10;;FALSE",
	"ANAPLA;12/31/2008;;2;1;TRUE",
	"ANACRE;4/15/2005;1;;;FALSE",
	"XXXXXX;5/1/2005;1;;;FALSE",
	"ANACRE;1/1/2009;5;;;FALSE",
	"ANACRE;6/1/2005;;;;FALSE",
	`ANAPLA;7/4/2003;"2+3";;;FALSE`,
}, "\n") + "\n"

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func testSettings(t *testing.T, csv string) *conf.Settings {
	t.Helper()

	in := t.TempDir()
	writeFixture(t, in, "avio.ttl", taxonomyTTL)
	writeFixture(t, in, "extra.ttl", extraTaxaTTL)
	writeFixture(t, in, "mappings.ttl", mappingsTTL)
	writeFixture(t, in, "lajit.txt", acceptedTaxa)
	writeFixture(t, in, "taksonit.txt", acceptedAbbreviations)
	writeFixture(t, in, "data.csv", csv)

	return &conf.Settings{
		Input: conf.InputSettings{
			Directory:             in,
			Taxonomy:              "avio.ttl",
			ExtraTaxa:             "extra.ttl",
			Mappings:              "mappings.ttl",
			AcceptedTaxa:          "lajit.txt",
			AcceptedAbbreviations: "taksonit.txt",
			Observations:          "data.csv",
		},
		Output: conf.OutputSettings{
			Directory:         t.TempDir(),
			Format:            conf.FormatTurtle,
			BatchSize:         3,
			FullTaxa:          "taxa_full.ttl",
			ReducedTaxa:       "taxa_v2.ttl",
			ObservationPrefix: "HALIAS",
		},
		Conversion: conf.ConversionSettings{
			CutoffYear:      2009,
			CommonThreshold: 2,
			IssueHistory:    10,
		},
	}
}

func runPipeline(t *testing.T, settings *conf.Settings, opts ...Option) (*Report, error) {
	t.Helper()
	p, err := New(settings, opts...)
	require.NoError(t, err)
	return p.Run(t.Context())
}

func readOutput(t *testing.T, settings *conf.Settings, name string) string {
	t.Helper()
	data, err := os.ReadFile(settings.Output.Path(name))
	require.NoError(t, err)
	return string(data)
}

func TestRunConvertsObservations(t *testing.T) {
	t.Parallel()

	settings := testSettings(t, observations)
	report, err := runPipeline(t, settings)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 8, report.Rows)
	assert.Equal(t, 3, report.Records)
	assert.Equal(t, 2, report.ValidationErrors)
	assert.Equal(t, map[validation.Kind]int{
		validation.KindDuplicateKey: 1,
		validation.KindUnknownTaxon: 1,
	}, report.ErrorsByKind)
	assert.Equal(t, map[observation.SkipReason]int{
		observation.SkipHeader:       1,
		observation.SkipDuplicate:    1,
		observation.SkipUnknownTaxon: 1,
		observation.SkipAfterCutoff:  1,
		observation.SkipEmpty:        1,
	}, report.Skipped)
	assert.Equal(t, 3, report.Batches)
	assert.Len(t, report.Documents, 3)
	assert.Equal(t, 3, report.TaxaRetained)
	assert.Len(t, report.Issues, 2)

	var documents strings.Builder
	for _, path := range report.Documents {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		documents.Write(data)
	}
	text := documents.String()
	assert.Contains(t, text, "H20050415anacre")
	assert.Contains(t, text, "H20081231anapla")
	assert.Contains(t, text, "H20030704anapla")
	assert.NotContains(t, text, "H20090101anacre")
	assert.Contains(t, text, "Date+taxon already exists for")
	assert.Contains(t, text, "winter")

	full := readOutput(t, settings, "taxa_full.ttl")
	assert.Contains(t, full, "Corvus")
	assert.Contains(t, full, "Parus major")

	reduced := readOutput(t, settings, "taxa_v2.ttl")
	assert.NotContains(t, reduced, "Corvus")
	assert.NotContains(t, reduced, "Parus major")
	assert.Contains(t, reduced, "anacre")
	assert.Contains(t, reduced, "Anas platyrhynchos")
}

func TestRunDryRunWritesNothing(t *testing.T) {
	t.Parallel()

	settings := testSettings(t, observations)
	settings.DryRun = true
	settings.Output.SQLite = conf.SQLiteSettings{Enabled: true, Path: "halias.db"}
	settings.Metrics.Textfile = filepath.Join(settings.Output.Directory, "halias.prom")

	report, err := runPipeline(t, settings)
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 3, report.Records)
	assert.Equal(t, 3, report.Batches)
	assert.Empty(t, report.Documents)

	entries, err := os.ReadDir(settings.Output.Directory)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunStrictCountsAbort(t *testing.T) {
	t.Parallel()

	csv := observations + "ANACRE;4/16/2005;many;;;FALSE\n"
	settings := testSettings(t, csv)

	report, err := runPipeline(t, settings)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryObservation))
	assert.Equal(t, 9, report.Rows)
	assert.Equal(t, 3, report.Records)
}

func TestRunLenientCountsReport(t *testing.T) {
	t.Parallel()

	csv := observations + "ANACRE;4/16/2005;many;;;FALSE\n"
	settings := testSettings(t, csv)
	settings.Conversion.LenientCounts = true

	report, err := runPipeline(t, settings)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ErrorsByKind[validation.KindMalformedCount])
	assert.Equal(t, 1, report.Skipped[observation.SkipMalformedCount])
	assert.Equal(t, 3, report.ValidationErrors)
}

func TestRunMissingInput(t *testing.T) {
	t.Parallel()

	settings := testSettings(t, observations)
	settings.Input.Mappings = "missing.ttl"

	_, err := runPipeline(t, settings)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	settings := testSettings(t, observations)
	p, err := New(settings)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err = p.Run(ctx)
	require.Error(t, err)
}

func TestRunArchivesRecords(t *testing.T) {
	t.Parallel()

	settings := testSettings(t, observations)
	settings.Output.SQLite = conf.SQLiteSettings{Enabled: true, Path: "halias.db"}
	settings.Metrics.Textfile = filepath.Join(settings.Output.Directory, "metrics", "halias.prom")

	report, err := runPipeline(t, settings)
	require.NoError(t, err)

	store := &datastore.SQLiteStore{Settings: settings}
	require.NoError(t, store.Open())
	defer func() { _ = store.Close() }()

	count, err := store.CountObservations(t.Context(), report.RunID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	var run datastore.Run
	require.NoError(t, store.DB.First(&run, "id = ?", report.RunID).Error)
	assert.Equal(t, datastore.RunStatusCompleted, run.Status)
	assert.Equal(t, 8, run.Rows)
	assert.Equal(t, 2, run.ValidationErrors)

	prom := readOutput(t, settings, filepath.Join("metrics", "halias.prom"))
	assert.Contains(t, prom, "halias_records_total 3")
	assert.Contains(t, prom, "halias_archive_records_total 3")
}

func TestAbbreviationsCoverage(t *testing.T) {
	t.Parallel()

	p, err := New(testSettings(t, observations))
	require.NoError(t, err)

	coverage, err := p.Abbreviations(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 3, coverage.Accepted)
	assert.Equal(t, []string{"parmaj"}, coverage.Unmapped)
	assert.Empty(t, coverage.Conflicts)

	names := make([]string, 0, len(coverage.Entries))
	for _, e := range coverage.Entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"anas", "anas crecca", "anas platyrhynchos"}, names)

	var buf bytes.Buffer
	require.NoError(t, coverage.Print(&buf))
	assert.Contains(t, buf.String(), "anas crecca")
	assert.Contains(t, buf.String(), "1 of 3 accepted abbreviations unmapped")
}

func TestReportPrint(t *testing.T) {
	t.Parallel()

	report := newReport("run-1", true)
	report.Rows = 10
	report.Records = 7
	report.ValidationErrors = 1
	report.ErrorsByKind[validation.KindDuplicateKey] = 1
	report.Skipped[observation.SkipHeader] = 1

	var buf bytes.Buffer
	report.Print(&buf)
	out := buf.String()

	assert.Contains(t, out, "Run run-1 (dry run)")
	assert.Contains(t, out, "Parsed 10 rows, emitted 7 records")
	assert.Contains(t, out, "Validation errors: 1")
	assert.Contains(t, out, "duplicate_key")
	assert.Contains(t, out, "header")
}
