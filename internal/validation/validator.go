// Package validation tallies recoverable data errors met during a run and
// annotates the affected observation subjects in the output graph.
package validation

import (
	"fmt"
	"maps"
	"time"

	"github.com/halias/halias-go/internal/logger"
	"github.com/halias/halias-go/internal/triplestore"
	"github.com/halias/halias-go/internal/vocab"
)

// Kind classifies a validation issue
type Kind string

const (
	KindUnknownTaxon   Kind = "unknown_taxon"
	KindDuplicateKey   Kind = "duplicate_key"
	KindInvalidDate    Kind = "invalid_date"
	KindMalformedCount Kind = "malformed_count"
)

// MessagePrefix starts every validation message
const MessagePrefix = "VALIDATION ERROR: "

// isoDate is the layout of observation reference dates
const isoDate = "2006-01-02"

// DefaultHistory is the number of issues kept when none is configured
const DefaultHistory = 100

// Issue is one reported validation error
type Issue struct {
	Kind     Kind     `json:"kind"`
	Message  string   `json:"message"`
	Subjects []string `json:"subjects,omitempty"`
}

// Annotator receives the annotation triples of reported issues
type Annotator interface {
	Annotate(triples ...triplestore.Triple)
}

// Validator counts issues and writes one nonsamplingErr annotation per
// affected subject. It never stops processing. Like the Normalizer it is
// owned by the single row loop and must not be shared between goroutines.
type Validator struct {
	predicate triplestore.Term
	sink      Annotator
	log       logger.Logger

	total  int
	byKind map[Kind]int

	// ring buffer of the most recent issues
	history []Issue
	next    int
	full    bool
}

// New returns a validator writing annotations to sink, which may be nil.
// history bounds the number of issues kept for Issues.
func New(v *vocab.Vocabulary, sink Annotator, history int) *Validator {
	if history <= 0 {
		history = DefaultHistory
	}
	return &Validator{
		predicate: v.NonSamplingErr,
		sink:      sink,
		log:       GetLogger(),
		byKind:    make(map[Kind]int),
		history:   make([]Issue, history),
	}
}

// ReportError records an issue and annotates each subject with its message.
func (v *Validator) ReportError(kind Kind, subjects []triplestore.Term, format string, args ...any) Issue {
	message := MessagePrefix + fmt.Sprintf(format, args...)

	issue := Issue{Kind: kind, Message: message}
	for _, s := range subjects {
		issue.Subjects = append(issue.Subjects, s.Value)
	}

	v.total++
	v.byKind[kind]++
	v.history[v.next] = issue
	v.next = (v.next + 1) % len(v.history)
	if v.next == 0 {
		v.full = true
	}

	if v.sink != nil && len(subjects) > 0 {
		annotations := make([]triplestore.Triple, 0, len(subjects))
		for _, s := range subjects {
			annotations = append(annotations, triplestore.T(s, v.predicate, triplestore.Literal(message)))
		}
		v.sink.Annotate(annotations...)
	}

	v.log.Warn(message,
		logger.String("kind", string(kind)),
		logger.Strings("subjects", issue.Subjects))

	return issue
}

// ValidateDate checks that iso is a YYYY-MM-DD calendar date. An invalid date
// is reported against subjects and false is returned.
func (v *Validator) ValidateDate(iso string, subjects ...triplestore.Term) bool {
	if _, err := time.Parse(isoDate, iso); err != nil {
		v.ReportError(KindInvalidDate, subjects, "Invalid date: %q", iso)
		return false
	}
	return true
}

// Count returns the number of issues reported so far
func (v *Validator) Count() int {
	return v.total
}

// CountByKind returns the issue count per kind
func (v *Validator) CountByKind() map[Kind]int {
	return maps.Clone(v.byKind)
}

// Issues returns the most recent issues, oldest first
func (v *Validator) Issues() []Issue {
	if !v.full {
		out := make([]Issue, v.next)
		copy(out, v.history[:v.next])
		return out
	}
	out := make([]Issue, 0, len(v.history))
	out = append(out, v.history[v.next:]...)
	return append(out, v.history[:v.next]...)
}
