package taxon

import (
	"maps"
	"slices"
	"time"

	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/logger"
	"github.com/halias/halias-go/internal/triplestore"
	"github.com/halias/halias-go/internal/vocab"
)

// claimState is the state of one candidate code
type claimState uint8

const (
	unclaimed claimState = iota
	claimed
	// conflicted codes stay unusable for the rest of the run
	conflicted
)

type claim struct {
	state claimState
	owner string
}

// resolver carries the state of one Resolve call
type resolver struct {
	vocab    *vocab.Vocabulary
	accepted Accepted

	codes map[string]string // code -> canonical name
	ids   map[string]string // canonical name -> local id
	ranks map[string]Rank

	genusClaims   map[string]claim  // keyed by the three letter base
	speciesClaims map[string]claim  // type 1 and type 2 codes share one namespace
	held          map[string]string // species name -> code it currently owns

	conflicts []Conflict
}

// Resolve builds the abbreviation table from the genus and species nodes of
// the ontology. Genus and species names are processed in lexical order, so
// the table does not depend on triple order. Custom abbreviations declared in
// the ontology are applied last and override generated codes.
//
// acceptedCodes never filters the table; codes it lists that the table cannot
// resolve are only reported.
func Resolve(store *triplestore.Store, v *vocab.Vocabulary, accepted Accepted, acceptedCodes []string) (*Table, error) {
	start := time.Now()

	r := &resolver{
		vocab:         v,
		accepted:      accepted,
		codes:         make(map[string]string),
		ids:           make(map[string]string),
		ranks:         make(map[string]Rank),
		genusClaims:   make(map[string]claim),
		speciesClaims: make(map[string]claim),
		held:          make(map[string]string),
	}

	genera := r.collect(store, v.Genus, v.Label, RankGenus)
	species := r.collect(store, v.Species, v.CompleteTaxonName, RankSpecies)
	if len(genera) == 0 && len(species) == 0 {
		return nil, errors.Newf("ontology declares no genus or species nodes").
			Component("taxon").
			Category(errors.CategoryOntology).
			Context("triples", store.Len()).
			Build()
	}

	for _, name := range genera {
		if r.accepted.Has(name) {
			r.abbreviateGenus(name)
		}
	}

	for _, name := range species {
		if !r.accepted.Has(name) {
			continue
		}
		if err := r.abbreviateSpecies(name); err != nil {
			GetLogger().Warn("species name cannot be abbreviated",
				logger.String("species", name),
				logger.Error(err))
		}
	}

	overrides := r.applyOverrides(store)

	table := &Table{codes: r.codes, ids: r.ids, ranks: r.ranks, conflicts: r.conflicts}

	GetLogger().Info("abbreviation table resolved",
		logger.Int("genera", len(genera)),
		logger.Int("species", len(species)),
		logger.Int("codes", table.Len()),
		logger.Int("custom", overrides),
		logger.Int("conflicts", len(r.conflicts)),
		logger.Duration("elapsed", time.Since(start)))

	if missing := table.Unmapped(acceptedCodes); len(missing) > 0 {
		GetLogger().Info("accepted abbreviations without a taxon",
			logger.Int("count", len(missing)),
			logger.Strings("codes", head(missing, 20)))
	}

	return table, nil
}

// collect returns the sorted distinct folded names of every node of class,
// read from nameProperty, and records their local identifiers
func (r *resolver) collect(store *triplestore.Store, class, nameProperty triplestore.Term, rank Rank) []string {
	seen := make(map[string]struct{})
	for _, node := range store.SubjectsOfType(class) {
		id := localID(node.Value)
		for _, label := range store.Objects(node, nameProperty) {
			name := Fold(label.Value)
			if name == "" {
				continue
			}
			seen[name] = struct{}{}
			r.ids[name] = id
			r.ranks[name] = rank
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// abbreviateGenus claims both spellings of the genus code. A genus that meets
// another genus on the same base demotes both to their full names and the
// base is never handed out again.
func (r *resolver) abbreviateGenus(name string) {
	base := genusBase(name)
	c := r.genusClaims[base]

	switch c.state {
	case unclaimed:
		for _, code := range genusCodes(base) {
			r.codes[code] = name
		}
		r.genusClaims[base] = claim{state: claimed, owner: name}

	case claimed:
		if c.owner == name {
			return
		}
		for _, code := range genusCodes(base) {
			delete(r.codes, code)
		}
		r.codes[c.owner] = c.owner
		r.codes[name] = name
		r.genusClaims[base] = claim{state: conflicted}
		r.conflicts = append(r.conflicts, Conflict{
			Code:  genusCodes(base)[0],
			Names: []string{c.owner, name},
		})
		GetLogger().Debug("genus code conflict, using full names",
			logger.String("code", genusCodes(base)[0]),
			logger.String("first", c.owner),
			logger.String("second", name))

	case conflicted:
		r.codes[name] = name
	}
}

// abbreviateSpecies claims the type 1 code. On collision the previous owner
// is evicted and both species fall back to type 2 codes.
func (r *resolver) abbreviateSpecies(name string) error {
	code, err := AbbreviateSpecies(name, FirstLetters)
	if err != nil {
		return err
	}

	c := r.speciesClaims[code]
	switch c.state {
	case unclaimed:
		r.take(code, name)
		return nil

	case claimed:
		if c.owner == name {
			return nil
		}
		if r.ownsFallback(c.owner, code) {
			// the owner already holds this string as its type 2 code and keeps it
			r.conflicts = append(r.conflicts, Conflict{Code: code, Names: []string{c.owner, name}})
			GetLogger().Debug("species code held as a type 2 code, newcomer uses its type 2 code",
				logger.String("code", code),
				logger.String("owner", c.owner),
				logger.String("species", name))
			return r.fallback(name)
		}
		r.speciesClaims[code] = claim{state: conflicted}
		if !r.owns(c.owner, code) {
			// the owner has already moved to another key
			return r.fallback(name)
		}
		r.release(c.owner)
		r.conflicts = append(r.conflicts, Conflict{Code: code, Names: []string{c.owner, name}})
		GetLogger().Debug("species code conflict, using type 2 codes",
			logger.String("code", code),
			logger.String("first", c.owner),
			logger.String("second", name))

		if err := r.fallback(c.owner); err != nil {
			return err
		}
		return r.fallback(name)

	default:
		return r.fallback(name)
	}
}

// fallback claims the type 2 code. A collision here has no further code to
// fall back to, so both species are keyed by their full names.
func (r *resolver) fallback(name string) error {
	code, err := AbbreviateSpecies(name, LastLetters)
	if err != nil {
		return err
	}

	c := r.speciesClaims[code]
	switch c.state {
	case unclaimed:
		r.take(code, name)

	case claimed:
		if c.owner == name {
			return nil
		}
		r.speciesClaims[code] = claim{state: conflicted}
		if !r.owns(c.owner, code) {
			r.demote(name)
			return nil
		}
		r.demote(c.owner)
		r.demote(name)
		r.conflicts = append(r.conflicts, Conflict{
			Code:        code,
			Names:       []string{c.owner, name},
			SecondOrder: true,
		})
		GetLogger().Warn("type 2 species code conflict, using full names",
			logger.String("code", code),
			logger.String("first", c.owner),
			logger.String("second", name))

	case conflicted:
		r.demote(name)
	}
	return nil
}

func (r *resolver) take(code, name string) {
	r.codes[code] = name
	r.speciesClaims[code] = claim{state: claimed, owner: name}
	r.held[name] = code
}

func (r *resolver) owns(name, code string) bool {
	return r.held[name] == code && r.codes[code] == name
}

// ownsFallback reports whether name currently owns code as its type 2 code
func (r *resolver) ownsFallback(name, code string) bool {
	if !r.owns(name, code) {
		return false
	}
	fallback, err := AbbreviateSpecies(name, LastLetters)
	return err == nil && fallback == code
}

// release drops the code currently owned by a species
func (r *resolver) release(name string) {
	if code, ok := r.held[name]; ok {
		if r.codes[code] == name {
			delete(r.codes, code)
		}
		delete(r.held, name)
	}
}

func (r *resolver) demote(name string) {
	r.release(name)
	r.codes[name] = name
	r.held[name] = name
}

// applyOverrides registers the abbreviations declared in the ontology. Each
// maps to one label of its resource; resources without a label are skipped.
func (r *resolver) applyOverrides(store *triplestore.Store) int {
	applied := 0
	for _, pair := range store.SubjectObjects(r.vocab.Abbreviation) {
		if !pair.Object.IsLiteral() {
			continue
		}
		labels := store.Objects(pair.Subject, r.vocab.Label)
		if len(labels) == 0 {
			GetLogger().Warn("custom abbreviation on taxon without label",
				logger.String("taxon", pair.Subject.Value),
				logger.String("abbreviation", pair.Object.Value))
			continue
		}

		code := Fold(pair.Object.Value)
		name := Fold(labels[0].Value)
		if code == "" || name == "" {
			continue
		}

		r.codes[code] = name
		r.ids[name] = localID(pair.Subject.Value)
		if _, ok := r.ranks[name]; !ok {
			r.ranks[name] = rankOf(store, r.vocab, pair.Subject)
		}
		applied++
	}
	return applied
}

func rankOf(store *triplestore.Store, v *vocab.Vocabulary, node triplestore.Term) Rank {
	switch {
	case store.Contains(triplestore.T(node, v.Type, v.Species)):
		return RankSpecies
	case store.Contains(triplestore.T(node, v.Type, v.Genus)):
		return RankGenus
	default:
		return RankOther
	}
}
