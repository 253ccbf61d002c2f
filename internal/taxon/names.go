package taxon

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/halias/halias-go/internal/errors"
)

// AbbreviationType selects how the species epithet is shortened
type AbbreviationType int

const (
	// FirstLetters uses the first three letters of genus and epithet
	FirstLetters AbbreviationType = 1
	// LastLetters uses the first three letters of the genus and the last
	// three letters of the epithet
	LastLetters AbbreviationType = 2
)

var (
	// ErrInvalidAbbreviationType is returned for abbreviation types other than 1 and 2
	ErrInvalidAbbreviationType = errors.NewStd("invalid abbreviation type")
	// ErrInvalidSpeciesName is returned for names without a genus and an epithet
	ErrInvalidSpeciesName = errors.NewStd("species name needs a genus and an epithet")
)

// AbbreviateSpecies builds the six letter code of a binomial name. Letter case
// is preserved: AbbreviateSpecies("Phylloscopus collybita", FirstLetters) is "Phycol".
func AbbreviateSpecies(name string, kind AbbreviationType) (string, error) {
	if kind != FirstLetters && kind != LastLetters {
		return "", errors.New(ErrInvalidAbbreviationType).
			Component("taxon").
			Category(errors.CategoryValidation).
			Context("abbreviation_type", int(kind)).
			Build()
	}

	parts := strings.Fields(name)
	if len(parts) < 2 {
		return "", errors.New(ErrInvalidSpeciesName).
			Component("taxon").
			Category(errors.CategoryTaxonomy).
			Context("species", name).
			Build()
	}

	genus, epithet := []rune(parts[0]), []rune(parts[1])
	if kind == FirstLetters {
		return string(head(genus, 3)) + string(head(epithet, 3)), nil
	}
	return string(head(genus, 3)) + string(tail(epithet, 3)), nil
}

// genusBase is the three letter stem shared by both genus code spellings
func genusBase(name string) string {
	return string(head([]rune(name), 3))
}

// genusCodes returns both commonly used spellings of a genus code
func genusCodes(base string) [2]string {
	return [2]string{base + "sp", base + " sp"}
}

func head[T any](r []T, n int) []T {
	if len(r) < n {
		return r
	}
	return r[:n]
}

func tail[T any](r []T, n int) []T {
	if len(r) < n {
		return r
	}
	return r[len(r)-n:]
}

// Fold normalizes a taxon name or code the way table keys are normalized
func Fold(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(s)))
}

// localID returns the last path segment of a taxon IRI
func localID(iri string) string {
	if i := strings.LastIndexByte(iri, '/'); i >= 0 {
		return iri[i+1:]
	}
	return iri
}
