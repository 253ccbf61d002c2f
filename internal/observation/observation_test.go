package observation

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/taxon"
	"github.com/halias/halias-go/internal/triplestore"
	"github.com/halias/halias-go/internal/validation"
	"github.com/halias/halias-go/internal/vocab"
)

func newTestNormalizer(opts Options) (*Normalizer, *validation.Validator) {
	table := taxon.NewTable(
		map[string]string{"anacre": "anas crecca", "phycol": "phylloscopus collybita"},
		map[string]string{"anas crecca": "FMNH_1", "phylloscopus collybita": "FMNH_2"},
	)
	v := vocab.Default()
	validator := validation.New(v, nil, 0)
	return NewNormalizer(table, validator, v, opts), validator
}

func row(fields ...string) RawRow {
	var f [6]string
	copy(f[:], fields)
	return RawRow{Index: 1, Taxon: f[0], Date: f[1], Local: f[2], Migration: f[3], Additional: f[4], Estimated: f[5]}
}

func requireSkip(t *testing.T, err error, reason SkipReason) {
	t.Helper()
	skip, ok := AsSkip(err)
	require.True(t, ok, "expected skip, got %v", err)
	assert.Equal(t, reason, skip.Reason)
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cell    string
		want    Count
		wantErr bool
	}{
		{"", Count{}, false},
		{`""`, Count{}, false},
		{"0", CountOf(0), false},
		{"17", CountOf(17), false},
		{`"42"`, CountOf(42), false},
		{"2+3", Count{}, true},
		{"-1", Count{}, true},
		{"x", Count{}, true},
		{`"`, Count{}, true},
	}

	for _, tt := range tests {
		got, err := ParseCount(tt.cell)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrMalformedCount, tt.cell)
			continue
		}
		require.NoError(t, err, tt.cell)
		assert.Equal(t, tt.want, got, tt.cell)
	}
}

func TestNormalizeRecord(t *testing.T) {
	t.Parallel()

	n, validator := newTestNormalizer(Options{})
	rec, err := n.Normalize(row("ANACRE ", "3/7/1985", "12", "40", "", "FALSE"))
	require.NoError(t, err)

	assert.Equal(t, "H19850307anacre", rec.Key)
	assert.Equal(t, "1985-03-07", rec.Date)
	assert.Equal(t, "FMNH_1", rec.SpeciesID)
	assert.Equal(t, vocab.Spring, rec.Season)
	assert.Equal(t, CountOf(12), rec.Local)
	assert.Equal(t, CountOf(40), rec.Migration)
	assert.False(t, rec.Additional.Present)
	assert.Zero(t, validator.Count())

	v := vocab.Default()
	s := v.ObservationSubject("H19850307anacre")
	assert.ElementsMatch(t, []triplestore.Triple{
		triplestore.T(s, v.Type, v.Observation),
		triplestore.T(s, v.DataSet, v.HaliasDataSet),
		triplestore.T(s, v.RefTime, triplestore.TypedLiteral("1985-03-07", v.Date)),
		triplestore.T(s, v.ObservedSpecies, v.Taxon("FMNH_1")),
		triplestore.T(s, v.CountAdditionalArea, triplestore.TypedLiteral("0", v.Integer)),
		triplestore.T(s, v.SeasonProperty, v.SeasonTerm(vocab.Spring)),
		triplestore.T(s, v.CountLocal, triplestore.Literal("12")),
		triplestore.T(s, v.CountMigration, triplestore.Literal("40")),
	}, rec.Triples(v))
}

func TestNormalizeEstimatedLocalCountIsNotPublished(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer(Options{})
	rec, err := n.Normalize(row("phycol", "10/1/2000", "0", "0", "3", "TRUE"))
	require.NoError(t, err)

	v := vocab.Default()
	triples := rec.Triples(v)
	for _, tr := range triples {
		assert.NotEqual(t, v.CountLocal, tr.Predicate)
	}
	assert.Contains(t, triples, triplestore.T(rec.Subject, v.CountMigration, triplestore.Literal("0")))
	assert.Contains(t, triples, triplestore.T(rec.Subject, v.CountAdditionalArea, triplestore.TypedLiteral("3", v.Integer)))
}

func TestNormalizeLegacyCount(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer(Options{})
	rec, err := n.Normalize(row("anacre", "5/1/1990", "2+3", "", "", "FALSE"))
	require.NoError(t, err)
	assert.Equal(t, CountOf(5), rec.Local)
}

func TestNormalizeCutoffBoundary(t *testing.T) {
	t.Parallel()

	n, validator := newTestNormalizer(Options{})

	_, err := n.Normalize(row("anacre", "1/1/2009", "1", "", "", "FALSE"))
	requireSkip(t, err, SkipAfterCutoff)
	assert.Zero(t, validator.Count())

	rec, err := n.Normalize(row("anacre", "12/31/2008", "1", "", "", "FALSE"))
	require.NoError(t, err)
	assert.Equal(t, vocab.Winter, rec.Season)
	assert.Equal(t, "H20081231anacre", rec.Key)
}

func TestNormalizeDuplicateKey(t *testing.T) {
	t.Parallel()

	n, validator := newTestNormalizer(Options{})

	first, err := n.Normalize(row("anacre", "4/2/1999", "1", "", "", "FALSE"))
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := n.Normalize(row("ANACRE", "04/02/1999", "", "7", "", "FALSE"))
	assert.Nil(t, second)
	requireSkip(t, err, SkipDuplicate)

	assert.Equal(t, 1, validator.Count())
	assert.Equal(t, 1, validator.CountByKind()[validation.KindDuplicateKey])
	assert.Equal(t, 1, n.Used())
}

func TestNormalizeSkips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		row      RawRow
		reason   SkipReason
		reported bool
	}{
		{"header", row("Laji", "pvm", "paik", "muutto", "lisa", "arvio"), SkipHeader, false},
		{"empty counts", row("anacre", "1/1/2000", "", "", "", "FALSE"), SkipEmpty, false},
		{"quoted empty counts", row("anacre", "1/1/2000", `""`, `""`, `""`, "FALSE"), SkipEmpty, false},
		{"unknown taxon", row("xyzzy", "1/1/2000", "1", "", "", "FALSE"), SkipUnknownTaxon, true},
		{"bad calendar date", row("anacre", "2/30/2000", "1", "", "", "FALSE"), SkipInvalidDate, true},
		{"unsplittable date", row("anacre", "2000-01-01", "1", "", "", "FALSE"), SkipInvalidDate, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n, validator := newTestNormalizer(Options{})
			rec, err := n.Normalize(tt.row)
			assert.Nil(t, rec)
			requireSkip(t, err, tt.reason)
			assert.Equal(t, tt.reason.Reported(), tt.reported)
			if tt.reported {
				assert.Equal(t, 1, validator.Count())
			} else {
				assert.Zero(t, validator.Count())
			}
		})
	}
}

func TestNormalizeMalformedCount(t *testing.T) {
	t.Parallel()

	strict, _ := newTestNormalizer(Options{})
	_, err := strict.Normalize(row("anacre", "1/1/2000", "many", "", "", "FALSE"))
	require.Error(t, err)
	_, isSkip := AsSkip(err)
	assert.False(t, isSkip)
	assert.ErrorIs(t, err, ErrMalformedCount)
	assert.True(t, errors.IsCategory(err, errors.CategoryObservation))

	lenient, validator := newTestNormalizer(Options{LenientCounts: true})
	_, err = lenient.Normalize(row("anacre", "1/1/2000", "many", "", "", "FALSE"))
	requireSkip(t, err, SkipMalformedCount)
	assert.Equal(t, 1, validator.CountByKind()[validation.KindMalformedCount])
}

func TestReader(t *testing.T) {
	t.Parallel()

	input := "laji;pvm;paik;muutto;lisa;arvio\n" +
		"ANACRE;3/7/1985;\"12\";40;;FALSE\n" +
		"\n" +
		"PHYCOL;4/1/1986\n"

	r := NewReader(strings.NewReader(input))

	header, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "laji", header.Taxon)

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, RawRow{Index: 2, Taxon: "ANACRE", Date: "3/7/1985", Local: "12", Migration: "40", Estimated: "FALSE"}, first)

	short, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, RawRow{Index: 3, Taxon: "PHYCOL", Date: "4/1/1986"}, short)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 3, r.Rows())
}

func TestCountFrequencies(t *testing.T) {
	t.Parallel()

	input := "laji;pvm\nANACRE;1/1/2000\nanacre ;1/2/2000\nPhyCol;1/1/2000\n"
	frequencies, rows, err := CountFrequencies(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 4, rows)
	assert.Equal(t, map[string]int{"laji": 1, "anacre": 2, "phycol": 1}, frequencies)
}
