package observation

import (
	"strconv"

	"github.com/halias/halias-go/internal/triplestore"
	"github.com/halias/halias-go/internal/vocab"
)

// Count is an optional non-negative count
type Count struct {
	Value   int
	Present bool
}

// CountOf returns a present count
func CountOf(n int) Count {
	return Count{Value: n, Present: true}
}

// Int returns a pointer to the value, nil when absent
func (c Count) Int() *int {
	if !c.Present {
		return nil
	}
	v := c.Value
	return &v
}

// Record is one accepted observation. Records are never modified after
// Normalize returns them.
type Record struct {
	// Key is H + YYYY + MM + DD + taxon code
	Key     string
	Subject triplestore.Term
	// Date is the ISO reference date
	Date string
	// Taxon is the folded taxon code and SpeciesID the local identifier it resolves to
	Taxon     string
	SpeciesID string

	Local      Count
	Migration  Count
	Additional Count
	// Estimated local counts are not published
	Estimated bool
	// Season is empty when the month is outside the season table
	Season vocab.Season
	Row    int
}

// Triples returns the statements describing the record
func (r *Record) Triples(v *vocab.Vocabulary) []triplestore.Triple {
	s := r.Subject
	triples := []triplestore.Triple{
		triplestore.T(s, v.Type, v.Observation),
		triplestore.T(s, v.DataSet, v.HaliasDataSet),
		triplestore.T(s, v.RefTime, triplestore.TypedLiteral(r.Date, v.Date)),
		triplestore.T(s, v.ObservedSpecies, v.Taxon(r.SpeciesID)),
		// missing additional-area counts are published as zero
		triplestore.T(s, v.CountAdditionalArea, triplestore.TypedLiteral(strconv.Itoa(r.Additional.Value), v.Integer)),
	}

	if r.Season != "" {
		triples = append(triples, triplestore.T(s, v.SeasonProperty, v.SeasonTerm(r.Season)))
	}
	if r.Local.Present && !r.Estimated {
		triples = append(triples, triplestore.T(s, v.CountLocal, triplestore.Literal(strconv.Itoa(r.Local.Value))))
	}
	if r.Migration.Present {
		triples = append(triples, triplestore.T(s, v.CountMigration, triplestore.Literal(strconv.Itoa(r.Migration.Value))))
	}
	return triples
}
