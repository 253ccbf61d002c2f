package triplestore

import (
	"slices"
	"sync"
)

type tripleSet map[Triple]struct{}

// Store is a thread-safe in-memory graph indexed by subject, predicate and object.
type Store struct {
	mu          sync.RWMutex
	triples     tripleSet
	bySubject   map[Term]tripleSet
	byPredicate map[Term]tripleSet
	byObject    map[Term]tripleSet
}

// New creates an empty store
func New() *Store {
	return &Store{
		triples:     make(tripleSet),
		bySubject:   make(map[Term]tripleSet),
		byPredicate: make(map[Term]tripleSet),
		byObject:    make(map[Term]tripleSet),
	}
}

// Len returns the number of triples
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.triples)
}

// Add inserts triples, ignoring ones already present. Triples containing a
// wildcard term are rejected. It returns the number of triples added.
func (s *Store) Add(triples ...Triple) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, t := range triples {
		if !t.ground() {
			continue
		}
		if _, ok := s.triples[t]; ok {
			continue
		}
		s.triples[t] = struct{}{}
		index(s.bySubject, t.Subject, t)
		index(s.byPredicate, t.Predicate, t)
		index(s.byObject, t.Object, t)
		added++
	}
	return added
}

// Contains reports whether the exact triple is present
func (s *Store) Contains(t Triple) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.triples[t]
	return ok
}

// Remove deletes every triple matching pattern, where Any is a wildcard.
// It returns the number of triples removed.
func (s *Store) Remove(pattern Triple) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.matchLocked(pattern)
	for _, t := range matched {
		delete(s.triples, t)
		unindex(s.bySubject, t.Subject, t)
		unindex(s.byPredicate, t.Predicate, t)
		unindex(s.byObject, t.Object, t)
	}
	return len(matched)
}

// Match returns the triples matching pattern in sorted order
func (s *Store) Match(pattern Triple) []Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matchLocked(pattern)
	slices.SortFunc(matched, Triple.Compare)
	return matched
}

// Triples returns every triple in sorted order
func (s *Store) Triples() []Triple {
	return s.Match(T(Any, Any, Any))
}

// Objects returns the distinct objects of (subject, predicate, *)
func (s *Store) Objects(subject, predicate Term) []Term {
	return distinct(s.Match(T(subject, predicate, Any)), func(t Triple) Term { return t.Object })
}

// Subjects returns the distinct subjects of (*, predicate, object)
func (s *Store) Subjects(predicate, object Term) []Term {
	return distinct(s.Match(T(Any, predicate, object)), func(t Triple) Term { return t.Subject })
}

// Value returns the first object of (subject, predicate, *) in sort order
func (s *Store) Value(subject, predicate Term) (Term, bool) {
	objects := s.Objects(subject, predicate)
	if len(objects) == 0 {
		return Term{}, false
	}
	return objects[0], true
}

// SubjectsOfType returns the distinct subjects with rdf:type class
func (s *Store) SubjectsOfType(class Term) []Term {
	return s.Subjects(IRI(RDFType), class)
}

// Pair is a subject and object sharing a predicate
type Pair struct {
	Subject Term
	Object  Term
}

// SubjectObjects returns every (subject, object) joined by predicate, sorted
func (s *Store) SubjectObjects(predicate Term) []Pair {
	matched := s.Match(T(Any, predicate, Any))
	pairs := make([]Pair, 0, len(matched))
	for _, t := range matched {
		pairs = append(pairs, Pair{Subject: t.Subject, Object: t.Object})
	}
	return pairs
}

// TransitiveSubjects returns object followed by every subject that reaches it
// through one or more predicate edges, breadth first. Cycles are visited once.
func (s *Store) TransitiveSubjects(predicate, object Term) []Term {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[Term]struct{}{object: {}}
	result := []Term{object}
	for queue := []Term{object}; len(queue) > 0; {
		current := queue[0]
		queue = queue[1:]

		var next []Term
		for t := range s.byObject[current] {
			if t.Predicate != predicate {
				continue
			}
			if _, ok := seen[t.Subject]; ok {
				continue
			}
			seen[t.Subject] = struct{}{}
			next = append(next, t.Subject)
		}
		slices.SortFunc(next, Term.Compare)
		result = append(result, next...)
		queue = append(queue, next...)
	}
	return result
}

// Merge adds every triple of other to s
func (s *Store) Merge(other *Store) int {
	if other == nil || other == s {
		return 0
	}
	return s.Add(other.Triples()...)
}

// matchLocked picks the smallest index that covers the pattern (caller holds a lock)
func (s *Store) matchLocked(pattern Triple) []Triple {
	if pattern.ground() {
		if _, ok := s.triples[pattern]; ok {
			return []Triple{pattern}
		}
		return nil
	}

	candidates := s.triples
	for _, idx := range []struct {
		term  Term
		index map[Term]tripleSet
	}{
		{pattern.Subject, s.bySubject},
		{pattern.Object, s.byObject},
		{pattern.Predicate, s.byPredicate},
	} {
		if idx.term.IsAny() {
			continue
		}
		set := idx.index[idx.term]
		if len(set) < len(candidates) {
			candidates = set
		}
	}

	var matched []Triple
	for t := range candidates {
		if t.matches(pattern) {
			matched = append(matched, t)
		}
	}
	return matched
}

func index(idx map[Term]tripleSet, key Term, t Triple) {
	set, ok := idx[key]
	if !ok {
		set = make(tripleSet)
		idx[key] = set
	}
	set[t] = struct{}{}
}

func unindex(idx map[Term]tripleSet, key Term, t Triple) {
	set := idx[key]
	delete(set, t)
	if len(set) == 0 {
		delete(idx, key)
	}
}

func distinct(triples []Triple, pick func(Triple) Term) []Term {
	terms := make([]Term, 0, len(triples))
	for _, t := range triples {
		terms = append(terms, pick(t))
	}
	slices.SortFunc(terms, Term.Compare)
	return slices.Compact(terms)
}
