// Package rdfio reads RDF documents into a triplestore and writes stores
// back out as Turtle or N-Triples.
package rdfio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/knakk/rdf"
	"golang.org/x/sync/errgroup"

	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/logger"
	"github.com/halias/halias-go/internal/triplestore"
	"github.com/halias/halias-go/internal/vocab"
)

// Format is a supported RDF serialization
type Format string

const (
	Turtle   Format = "turtle"
	NTriples Format = "ntriples"
)

var (
	serviceLogger logger.Logger
	initLogger    sync.Once
)

// GetLogger returns the rdfio package logger
func GetLogger() logger.Logger {
	initLogger.Do(func() {
		serviceLogger = logger.Global().Module("rdfio")
	})
	return serviceLogger
}

// ParseFormat maps a configuration value to a Format
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case Turtle, "ttl", "n3":
		return Turtle, nil
	case NTriples, "nt":
		return NTriples, nil
	default:
		return "", errors.Newf("unsupported RDF format %q", name).
			Component("rdfio").
			Category(errors.CategoryConfiguration).
			Context("format", name).
			Build()
	}
}

// FormatForPath picks the format from a file extension, defaulting to Turtle
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".nt") {
		return NTriples
	}
	return Turtle
}

func (f Format) codec() rdf.Format {
	if f == NTriples {
		return rdf.NTriples
	}
	return rdf.Turtle
}

// Decode parses a document from r into a new store
func Decode(r io.Reader, format Format) (*triplestore.Store, error) {
	store := triplestore.New()
	dec := rdf.NewTripleDecoder(r, format.codec())

	for {
		t, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(err).
				Component("rdfio").
				Category(errors.CategoryFileParsing).
				Context("format", string(format)).
				Context("triples_read", store.Len()).
				Build()
		}
		converted, err := fromRDF(t)
		if err != nil {
			return nil, err
		}
		store.Add(converted)
	}

	return store, nil
}

// ParseFile reads one RDF document from disk
func ParseFile(path string) (*triplestore.Store, error) {
	start := time.Now()

	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, errors.New(err).
			Component("rdfio").
			Category(errors.CategoryFileIO).
			Context("operation", "open-ontology").
			Context("file_path", path).
			Build()
	}
	defer func() { _ = f.Close() }()

	store, err := Decode(bufio.NewReader(f), FormatForPath(path))
	if err != nil {
		var ee *errors.EnhancedError
		if errors.As(err, &ee) {
			if ee.Context == nil {
				ee.Context = make(map[string]any)
			}
			ee.Context["file_path"] = path
		}
		return nil, err
	}

	GetLogger().Debug("parsed RDF document",
		logger.String("path", path),
		logger.Int("triples", store.Len()),
		logger.Duration("elapsed", time.Since(start)))

	return store, nil
}

// LoadGraph parses the documents concurrently and merges them into one store
// in argument order, so the result is the same as a sequential load.
func LoadGraph(ctx context.Context, paths ...string) (*triplestore.Store, error) {
	stores := make([]*triplestore.Store, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			store, err := ParseFile(path)
			if err != nil {
				return err
			}
			stores[i] = store
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := triplestore.New()
	for _, store := range stores {
		merged.Merge(store)
	}

	GetLogger().Info("ontology loaded",
		logger.Int("documents", len(paths)),
		logger.Int("triples", merged.Len()))

	return merged, nil
}

// Encode writes triples to w, binding prefixes for Turtle output
func Encode(w io.Writer, format Format, prefixes []vocab.Prefix, triples []triplestore.Triple) error {
	enc := rdf.NewTripleEncoder(w, format.codec())
	if format == Turtle && len(prefixes) > 0 {
		enc.Namespaces = make(map[string]string, len(prefixes))
		for _, p := range prefixes {
			enc.Namespaces[string(p.Namespace)] = p.Name
		}
	}

	for _, t := range triples {
		converted, err := toRDF(t)
		if err != nil {
			return err
		}
		if err := enc.Encode(converted); err != nil {
			return errors.New(err).
				Component("rdfio").
				Category(errors.CategoryOutput).
				Context("triple", t.String()).
				Build()
		}
	}

	if err := enc.Close(); err != nil {
		return errors.New(err).
			Component("rdfio").
			Category(errors.CategoryOutput).
			Build()
	}
	return nil
}

// WriteFile serializes the store to path through a temporary file and rename,
// so a failed write never leaves a truncated document behind.
func WriteFile(path string, format Format, prefixes []vocab.Prefix, store *triplestore.Store) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fileError(err, path, "create-output-dir")
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fileError(err, path, "create-temp")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	buf := bufio.NewWriter(tmp)
	if err := Encode(buf, format, prefixes, store.Triples()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := buf.Flush(); err != nil {
		_ = tmp.Close()
		return fileError(err, path, "flush")
	}
	if err := tmp.Close(); err != nil {
		return fileError(err, path, "close")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fileError(err, path, "rename")
	}

	GetLogger().Info("RDF document written",
		logger.String("path", path),
		logger.String("format", string(format)),
		logger.Int("triples", store.Len()))
	return nil
}

func fileError(err error, path, operation string) error {
	return errors.New(err).
		Component("rdfio").
		Category(errors.CategoryFileIO).
		Context("operation", operation).
		Context("file_path", path).
		Build()
}

// fromRDF converts a decoded knakk triple to a store triple
func fromRDF(t rdf.Triple) (triplestore.Triple, error) {
	s, err := termFromRDF(t.Subj)
	if err != nil {
		return triplestore.Triple{}, err
	}
	p, err := termFromRDF(t.Pred)
	if err != nil {
		return triplestore.Triple{}, err
	}
	o, err := termFromRDF(t.Obj)
	if err != nil {
		return triplestore.Triple{}, err
	}
	return triplestore.T(s, p, o), nil
}

func termFromRDF(term rdf.Term) (triplestore.Term, error) {
	switch v := term.(type) {
	case rdf.IRI:
		return triplestore.IRI(v.String()), nil
	case rdf.Blank:
		return triplestore.Blank(strings.TrimPrefix(v.String(), "_:")), nil
	case rdf.Literal:
		if lang := v.Lang(); lang != "" {
			return triplestore.LangLiteral(v.String(), lang), nil
		}
		return triplestore.TypedLiteral(v.String(), v.DataType.String()), nil
	default:
		return triplestore.Term{}, errors.Newf("unsupported RDF term %T", term).
			Component("rdfio").
			Category(errors.CategoryFileParsing).
			Build()
	}
}

// toRDF converts a store triple to a knakk triple for encoding
func toRDF(t triplestore.Triple) (rdf.Triple, error) {
	s, err := termToRDF(t.Subject)
	if err != nil {
		return rdf.Triple{}, err
	}
	p, err := termToRDF(t.Predicate)
	if err != nil {
		return rdf.Triple{}, err
	}
	o, err := termToRDF(t.Object)
	if err != nil {
		return rdf.Triple{}, err
	}

	subj, ok := s.(rdf.Subject)
	if !ok {
		return rdf.Triple{}, invalidTerm(t, "subject must be an IRI or blank node")
	}
	pred, ok := p.(rdf.Predicate)
	if !ok {
		return rdf.Triple{}, invalidTerm(t, "predicate must be an IRI")
	}
	obj, ok := o.(rdf.Object)
	if !ok {
		return rdf.Triple{}, invalidTerm(t, "invalid object")
	}
	return rdf.Triple{Subj: subj, Pred: pred, Obj: obj}, nil
}

func termToRDF(term triplestore.Term) (rdf.Term, error) {
	switch term.Kind {
	case triplestore.KindIRI:
		iri, err := rdf.NewIRI(term.Value)
		if err != nil {
			return nil, termError(err, term)
		}
		return iri, nil
	case triplestore.KindBlank:
		blank, err := rdf.NewBlank(term.Value)
		if err != nil {
			return nil, termError(err, term)
		}
		return blank, nil
	case triplestore.KindLiteral:
		switch {
		case term.Lang != "":
			lit, err := rdf.NewLangLiteral(term.Value, term.Lang)
			if err != nil {
				return nil, termError(err, term)
			}
			return lit, nil
		case term.Datatype != "":
			dt, err := rdf.NewIRI(term.Datatype)
			if err != nil {
				return nil, termError(err, term)
			}
			return rdf.NewTypedLiteral(term.Value, dt), nil
		default:
			lit, err := rdf.NewLiteral(term.Value)
			if err != nil {
				return nil, termError(err, term)
			}
			return lit, nil
		}
	default:
		return nil, termError(fmt.Errorf("wildcard term cannot be serialized"), term)
	}
}

func termError(err error, term triplestore.Term) error {
	return errors.New(err).
		Component("rdfio").
		Category(errors.CategoryOutput).
		Context("term", term.String()).
		Build()
}

func invalidTerm(t triplestore.Triple, reason string) error {
	return errors.Newf("cannot serialize triple: %s", reason).
		Component("rdfio").
		Category(errors.CategoryOutput).
		Context("triple", t.String()).
		Build()
}
