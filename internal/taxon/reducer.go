package taxon

import (
	"slices"
	"time"

	"github.com/halias/halias-go/internal/logger"
	"github.com/halias/halias-go/internal/triplestore"
	"github.com/halias/halias-go/internal/vocab"
)

// Rarity classifies a species by how often it was observed
type Rarity string

const (
	Common Rarity = "common"
	Rare   Rarity = "rare"
)

// DefaultCommonThreshold is the observation count above which a species is common
const DefaultCommonThreshold = 300

// Reducer rewrites the merged ontology into the published taxonomy
type Reducer struct {
	vocab     *vocab.Vocabulary
	threshold int
}

// NewReducer returns a reducer. A threshold of zero or less uses DefaultCommonThreshold.
func NewReducer(v *vocab.Vocabulary, commonThreshold int) *Reducer {
	if commonThreshold <= 0 {
		commonThreshold = DefaultCommonThreshold
	}
	return &Reducer{vocab: v, threshold: commonThreshold}
}

// Classify returns the rarity for a summed observation frequency
func (r *Reducer) Classify(frequency int) Rarity {
	if frequency > r.threshold {
		return Common
	}
	return Rare
}

func (r *Reducer) rarityTerm(rarity Rarity) triplestore.Term {
	if rarity == Common {
		return r.vocab.Common
	}
	return r.vocab.Rare
}

// PrepareStats summarizes a Prepare pass
type PrepareStats struct {
	LabelsRemoved  int
	NamesCopied    int
	HierarchyEdges int
	Abbreviations  int
	TriplesRemoved int
}

// Prepare normalizes labels, turns the subclass hierarchy into
// isPartOfHigherTaxon edges and attaches every table code to its taxon.
// Resolve must have read the store before Prepare rewrites it.
func (r *Reducer) Prepare(store *triplestore.Store, table *Table) PrepareStats {
	v := r.vocab
	var stats PrepareStats

	// untagged labels are redundant where a complete name exists
	for _, taxon := range store.SubjectsOfType(v.TaxonInChecklist) {
		if _, ok := store.Value(taxon, v.CompleteTaxonName); !ok {
			continue
		}
		for _, label := range store.Objects(taxon, v.Label) {
			if label.IsLiteral() && label.Lang == "" {
				stats.LabelsRemoved += store.Remove(triplestore.T(taxon, v.Label, label))
			}
		}
	}

	for _, pair := range store.SubjectObjects(v.CompleteTaxonName) {
		stats.NamesCopied += store.Add(
			triplestore.T(pair.Subject, v.Label, pair.Object),
			triplestore.T(pair.Subject, v.ScientificName, pair.Object),
		)
	}

	// codes were read by Resolve; they are rewritten in their folded form below
	stats.TriplesRemoved += store.Remove(triplestore.T(triplestore.Any, v.CompleteTaxonName, triplestore.Any))
	stats.TriplesRemoved += store.Remove(triplestore.T(triplestore.Any, v.Abbreviation, triplestore.Any))
	stats.TriplesRemoved += store.Remove(triplestore.T(triplestore.Any, v.StatuslessVernacularName, triplestore.Any))

	for _, pair := range store.SubjectObjects(v.SubClassOf) {
		stats.HierarchyEdges += store.Add(triplestore.T(pair.Subject, v.IsPartOfHigherTaxon, pair.Object))
	}
	stats.TriplesRemoved += store.Remove(triplestore.T(triplestore.Any, v.Type, v.OWLClass))
	stats.TriplesRemoved += store.Remove(triplestore.T(triplestore.Any, v.SubClassOf, triplestore.Any))

	for _, code := range table.Codes() {
		id, ok := table.Species(code)
		if !ok {
			continue
		}
		stats.Abbreviations += store.Add(triplestore.T(v.Taxon(id), v.Abbreviation, triplestore.Literal(code)))
	}

	GetLogger().Info("taxonomy prepared",
		logger.Int("labels_removed", stats.LabelsRemoved),
		logger.Int("names_copied", stats.NamesCopied),
		logger.Int("hierarchy_edges", stats.HierarchyEdges),
		logger.Int("abbreviations", stats.Abbreviations),
		logger.Int("triples", store.Len()))

	return stats
}

// ReduceStats summarizes a Reduce pass
type ReduceStats struct {
	Retained []triplestore.Term // retained checklist taxa, sorted
	Removed  int                // removed checklist taxa
	Common   int
	Rare     int
}

// Reduce deletes every checklist taxon that neither it nor any descendant has
// a table code for, along with its satellite nodes, and tags the retained
// species with a rarity. frequencies counts rows per code.
//
// The retained set is computed before anything is deleted and rarity
// replaces earlier values, so reducing a reduced store changes nothing.
func (r *Reducer) Reduce(store *triplestore.Store, table *Table, frequencies map[string]int) ReduceStats {
	start := time.Now()
	v := r.vocab

	codes := r.codesByTaxon(table)
	taxa := store.SubjectsOfType(v.TaxonInChecklist)
	retained := make(map[triplestore.Term]bool, len(taxa))
	for _, taxon := range taxa {
		retained[taxon] = r.hasAbbreviation(store, taxon, codes)
	}

	var stats ReduceStats
	for _, taxon := range taxa {
		if !retained[taxon] {
			r.remove(store, taxon, retained)
			stats.Removed++
			continue
		}

		stats.Retained = append(stats.Retained, taxon)
		if !store.Contains(triplestore.T(taxon, v.Type, v.Species)) {
			continue
		}

		total := 0
		for _, code := range codes[taxon] {
			total += frequencies[code]
		}
		rarity := r.Classify(total)
		store.Remove(triplestore.T(taxon, v.Rarity, triplestore.Any))
		store.Add(triplestore.T(taxon, v.Rarity, r.rarityTerm(rarity)))
		if rarity == Common {
			stats.Common++
		} else {
			stats.Rare++
		}
	}
	slices.SortFunc(stats.Retained, triplestore.Term.Compare)

	GetLogger().Info("taxonomy reduced",
		logger.Int("retained", len(stats.Retained)),
		logger.Int("removed", stats.Removed),
		logger.Int("common", stats.Common),
		logger.Int("rare", stats.Rare),
		logger.Int("triples", store.Len()),
		logger.Duration("elapsed", time.Since(start)))

	return stats
}

// codesByTaxon inverts the table onto taxon IRIs
func (r *Reducer) codesByTaxon(table *Table) map[triplestore.Term][]string {
	byTaxon := make(map[triplestore.Term][]string)
	for _, code := range table.Codes() {
		if id, ok := table.Species(code); ok {
			node := r.vocab.Taxon(id)
			byTaxon[node] = append(byTaxon[node], code)
		}
	}
	return byTaxon
}

// hasAbbreviation reports whether taxon or any transitive descendant has a code
func (r *Reducer) hasAbbreviation(store *triplestore.Store, taxon triplestore.Term, codes map[triplestore.Term][]string) bool {
	for _, node := range store.TransitiveSubjects(r.vocab.IsPartOfHigherTaxon, taxon) {
		if len(codes[node]) > 0 {
			return true
		}
	}
	return false
}

// remove deletes taxon and the nodes that only describe it. Satellites that
// are themselves retained taxa are kept.
func (r *Reducer) remove(store *triplestore.Store, taxon triplestore.Term, retained map[triplestore.Term]bool) {
	v := r.vocab
	for _, predicate := range []triplestore.Term{v.RefersToTaxon, v.HasVernacularName, v.HasNameStatus} {
		for _, satellite := range store.Objects(taxon, predicate) {
			if satellite.IsLiteral() || retained[satellite] {
				continue
			}
			store.Remove(triplestore.T(satellite, triplestore.Any, triplestore.Any))
		}
	}
	store.Remove(triplestore.T(taxon, triplestore.Any, triplestore.Any))
}
