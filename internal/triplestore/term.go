// Package triplestore is an in-memory, indexed RDF graph.
//
// Terms are plain comparable values so that triples can be used directly as
// map keys. All query results are returned in a stable sorted order, which
// keeps every pass over the ontology deterministic.
package triplestore

import (
	"cmp"
	"strconv"
	"strings"
)

// Well-known IRIs needed by the store itself
const (
	RDFType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	XSDString  = "http://www.w3.org/2001/XMLSchema#string"
	RDFLangStr = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)

// TermKind distinguishes IRIs, blank nodes and literals
type TermKind uint8

const (
	// KindAny is the zero value and acts as a wildcard in patterns
	KindAny TermKind = iota
	KindIRI
	KindBlank
	KindLiteral
)

// Term is an RDF term. Lang and Datatype are only meaningful for literals.
type Term struct {
	Kind     TermKind
	Value    string
	Lang     string
	Datatype string
}

// Any matches every term in a pattern
var Any = Term{}

// IRI returns an IRI term
func IRI(value string) Term {
	return Term{Kind: KindIRI, Value: value}
}

// Blank returns a blank node term with the given label
func Blank(label string) Term {
	return Term{Kind: KindBlank, Value: label}
}

// Literal returns a plain literal
func Literal(value string) Term {
	return Term{Kind: KindLiteral, Value: value}
}

// LangLiteral returns a language-tagged literal
func LangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Lang: strings.ToLower(lang)}
}

// TypedLiteral returns a literal with a datatype IRI. xsd:string is folded
// into the plain literal so both spellings compare equal.
func TypedLiteral(value, datatype string) Term {
	if datatype == XSDString {
		datatype = ""
	}
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

func (t Term) IsIRI() bool     { return t.Kind == KindIRI }
func (t Term) IsBlank() bool   { return t.Kind == KindBlank }
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }
func (t Term) IsAny() bool     { return t.Kind == KindAny }

// LocalName returns the part of an IRI after the last '/' or '#'
func (t Term) LocalName() string {
	if idx := strings.LastIndexAny(t.Value, "/#"); idx >= 0 {
		return t.Value[idx+1:]
	}
	return t.Value
}

// String renders the term in N-Triples syntax, for logs and messages
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		s := strconv.Quote(t.Value)
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return "*"
	}
}

// Compare orders terms by kind, value, language and datatype
func (t Term) Compare(o Term) int {
	return cmp.Or(
		cmp.Compare(t.Kind, o.Kind),
		strings.Compare(t.Value, o.Value),
		strings.Compare(t.Lang, o.Lang),
		strings.Compare(t.Datatype, o.Datatype),
	)
}

// matches reports whether t satisfies the pattern term p
func (t Term) matches(p Term) bool {
	return p.Kind == KindAny || t == p
}

// Triple is one RDF statement
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// T is shorthand for building a triple
func T(s, p, o Term) Triple {
	return Triple{Subject: s, Predicate: p, Object: o}
}

// Compare orders triples by subject, predicate and object
func (t Triple) Compare(o Triple) int {
	return cmp.Or(
		t.Subject.Compare(o.Subject),
		t.Predicate.Compare(o.Predicate),
		t.Object.Compare(o.Object),
	)
}

// String renders the triple as an N-Triples line without the trailing newline
func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}

func (t Triple) matches(p Triple) bool {
	return t.Subject.matches(p.Subject) && t.Predicate.matches(p.Predicate) && t.Object.matches(p.Object)
}

// ground reports whether a pattern has no wildcards
func (t Triple) ground() bool {
	return !t.Subject.IsAny() && !t.Predicate.IsAny() && !t.Object.IsAny()
}
