package taxon

import (
	"maps"
	"slices"
)

// Rank is the taxonomic rank of a table entry
type Rank string

const (
	RankGenus   Rank = "genus"
	RankSpecies Rank = "species"
	// RankOther marks custom override targets that are neither genus nor species
	RankOther Rank = "other"
)

// Entry is one canonical taxon with every code that resolves to it
type Entry struct {
	Name          string   `json:"name"`
	Rank          Rank     `json:"rank"`
	LocalID       string   `json:"local_id"`
	Abbreviations []string `json:"abbreviations"`
}

// Conflict records a code that more than one taxon competed for
type Conflict struct {
	Code  string   `json:"code"`
	Names []string `json:"names"`
	// SecondOrder is set when the fallback codes collided as well and the
	// taxa were demoted to their full names
	SecondOrder bool `json:"second_order"`
}

// Table maps lower-case codes to canonical names and names to local
// identifiers. It is read-only once built.
type Table struct {
	codes     map[string]string
	ids       map[string]string
	ranks     map[string]Rank
	conflicts []Conflict
}

// NewTable builds a table from prepared maps. Every value of codes must be a
// key of ids.
func NewTable(codes, ids map[string]string) *Table {
	return &Table{
		codes: maps.Clone(codes),
		ids:   maps.Clone(ids),
		ranks: make(map[string]Rank),
	}
}

// Lookup returns the canonical name for a code
func (t *Table) Lookup(code string) (string, bool) {
	name, ok := t.codes[code]
	return name, ok
}

// LocalID returns the local identifier of a canonical name
func (t *Table) LocalID(name string) (string, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// Species resolves a code straight to the local identifier of its taxon
func (t *Table) Species(code string) (string, bool) {
	name, ok := t.codes[code]
	if !ok {
		return "", false
	}
	return t.LocalID(name)
}

// Len returns the number of codes
func (t *Table) Len() int {
	return len(t.codes)
}

// Codes returns every code in lexical order
func (t *Table) Codes() []string {
	return slices.Sorted(maps.Keys(t.codes))
}

// Conflicts returns the code collisions met while resolving
func (t *Table) Conflicts() []Conflict {
	return slices.Clone(t.conflicts)
}

// Unmapped returns the accepted codes that the table cannot resolve
func (t *Table) Unmapped(accepted []string) []string {
	var missing []string
	for _, code := range accepted {
		if _, ok := t.codes[code]; !ok {
			missing = append(missing, code)
		}
	}
	slices.Sort(missing)
	return slices.Compact(missing)
}

// Entries groups the codes by canonical name, ordered by name
func (t *Table) Entries() []Entry {
	byName := make(map[string]*Entry)
	for code, name := range t.codes {
		e, ok := byName[name]
		if !ok {
			rank, known := t.ranks[name]
			if !known {
				rank = RankOther
			}
			e = &Entry{Name: name, Rank: rank, LocalID: t.ids[name]}
			byName[name] = e
		}
		e.Abbreviations = append(e.Abbreviations, code)
	}

	entries := make([]Entry, 0, len(byName))
	for _, name := range slices.Sorted(maps.Keys(byName)) {
		e := byName[name]
		slices.Sort(e.Abbreviations)
		entries = append(entries, *e)
	}
	return entries
}
