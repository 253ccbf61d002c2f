package rdfio

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/triplestore"
	"github.com/halias/halias-go/internal/vocab"
)

const sampleTurtle = `@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix bio: <http://www.yso.fi/onto/bio/> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

bio:FMNH_1 rdfs:label "Phylloscopus"@la .
bio:FMNH_1 rdfs:label "Phylloscopus" .
bio:FMNH_1 <http://ldf.fi/schema/halias/countLocal> "12"^^xsd:integer .
_:b1 rdfs:label "blank" .
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDecodeTurtle(t *testing.T) {
	t.Parallel()

	store, err := Decode(strings.NewReader(sampleTurtle), Turtle)
	require.NoError(t, err)
	assert.Equal(t, 4, store.Len())

	subject := vocab.Bio.Term("FMNH_1")
	labels := store.Objects(subject, vocab.RDFS.Term("label"))
	assert.ElementsMatch(t, []triplestore.Term{
		triplestore.LangLiteral("Phylloscopus", "la"),
		triplestore.Literal("Phylloscopus"),
	}, labels)

	count, ok := store.Value(subject, vocab.HaliasSchema.Term("countLocal"))
	require.True(t, ok)
	assert.Equal(t, triplestore.TypedLiteral("12", vocab.XSD.IRI("integer")), count)

	blanks := store.Subjects(vocab.RDFS.Term("label"), triplestore.Literal("blank"))
	require.Len(t, blanks, 1)
	assert.True(t, blanks[0].IsBlank())
	assert.Equal(t, "b1", blanks[0].Value)
}

func TestDecodeSyntaxError(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader("this is not turtle"), Turtle)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"turtle", Turtle, false},
		{"TTL", Turtle, false},
		{"ntriples", NTriples, false},
		{" nt ", NTriples, false},
		{"rdfxml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	assert.Equal(t, NTriples, FormatForPath("data/HALIAS0.nt"))
	assert.Equal(t, Turtle, FormatForPath("data/halias_taxa.ttl"))
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	original := triplestore.New()
	original.Add(
		triplestore.T(vocab.Halias.Term("H20080101anacre"), vocab.RDF.Term("type"), vocab.DataCube.Term("Observation")),
		triplestore.T(vocab.Halias.Term("H20080101anacre"), vocab.HaliasSchema.Term("refTime"), triplestore.TypedLiteral("2008-01-01", vocab.XSD.IRI("date"))),
		triplestore.T(vocab.Halias.Term("H20080101anacre"), vocab.HaliasSchema.Term("countLocal"), triplestore.Literal("4")),
		triplestore.T(vocab.Bio.Term("FMNH_1"), vocab.RDFS.Term("label"), triplestore.LangLiteral("tiltaltti", "fi")),
	)

	for _, format := range []Format{Turtle, NTriples} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, format, vocab.Default().ObservationPrefixes(), original.Triples()))

		decoded, err := Decode(&buf, format)
		require.NoError(t, err, string(format))
		assert.Equal(t, original.Triples(), decoded.Triples(), string(format))
	}
}

func TestEncodeRejectsWildcard(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := Encode(&buf, NTriples, nil, []triplestore.Triple{
		{Subject: vocab.Bio.Term("x"), Predicate: vocab.RDFS.Term("label"), Object: triplestore.Any},
	})
	require.Error(t, err)
}

func TestLoadGraphMergesInOrder(t *testing.T) {
	t.Parallel()

	first := writeFile(t, "taxa.ttl", sampleTurtle)
	second := writeFile(t, "mappings.nt",
		"<http://www.yso.fi/onto/bio/FMNH_2> <http://ldf.fi/schema/halias/abbreviation> \"phycol\" .\n"+
			"<http://www.yso.fi/onto/bio/FMNH_1> <http://www.w3.org/2000/01/rdf-schema#label> \"Phylloscopus\" .\n")

	store, err := LoadGraph(t.Context(), first, second)
	require.NoError(t, err)
	// the duplicated label collapses into one triple
	assert.Equal(t, 5, store.Len())
	assert.True(t, store.Contains(triplestore.T(
		vocab.Bio.Term("FMNH_2"), vocab.HaliasSchema.Term("abbreviation"), triplestore.Literal("phycol"))))
}

func TestLoadGraphMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadGraph(context.Background(), filepath.Join(t.TempDir(), "missing.ttl"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	store, err := Decode(strings.NewReader(sampleTurtle), Turtle)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "halias_taxa_full.ttl")
	require.NoError(t, WriteFile(path, Turtle, vocab.Default().TaxonomyPrefixes(), store))

	reread, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, store.Triples(), reread.Triples())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be renamed away")
}
