// Package vocab holds the fixed RDF vocabulary of the Halias dataset:
// namespaces, class and predicate terms, and the month to season table.
//
// The vocabulary is an immutable value built once per process; use Default.
package vocab

import (
	"slices"
	"sync"

	"github.com/halias/halias-go/internal/triplestore"
)

// Namespace is a base IRI that terms are appended to
type Namespace string

// Term returns the IRI term for local within the namespace
func (ns Namespace) Term(local string) triplestore.Term {
	return triplestore.IRI(string(ns) + local)
}

// IRI returns the IRI string for local within the namespace
func (ns Namespace) IRI(local string) string {
	return string(ns) + local
}

// Namespaces used by the taxonomy and observation documents
const (
	RDF           Namespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS          Namespace = "http://www.w3.org/2000/01/rdf-schema#"
	OWL           Namespace = "http://www.w3.org/2002/07/owl#"
	XSD           Namespace = "http://www.w3.org/2001/XMLSchema#"
	TaxMeOn       Namespace = "http://www.yso.fi/onto/taxmeon/"
	Bio           Namespace = "http://www.yso.fi/onto/bio/"
	Ranks         Namespace = "http://www.yso.fi/onto/taxonomic-ranks/"
	DGUIntervals  Namespace = "http://reference.data.gov.uk/def/intervals/"
	DataCube      Namespace = "http://purl.org/linked-data/cube#"
	DWC           Namespace = "http://rs.tdwg.org/dwc/terms/"
	SDMXAttribute Namespace = "http://purl.org/linked-data/sdmx/2009/attribute#"
	Halias        Namespace = "http://ldf.fi/halias/observations/birds/"
	HaliasSchema  Namespace = "http://ldf.fi/schema/halias/"

	// HaliasTaxa is where taxon local identifiers live
	HaliasTaxa = Bio
)

// Season is the season tag attached to an observation
type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
)

// Prefix binds a short name to a namespace in serialized documents
type Prefix struct {
	Name      string
	Namespace Namespace
}

// Vocabulary is the complete set of terms used by the converter
type Vocabulary struct {
	// rdf, rdfs, owl
	Type       triplestore.Term
	Label      triplestore.Term
	SubClassOf triplestore.Term
	OWLClass   triplestore.Term

	// taxmeon
	TaxonInChecklist         triplestore.Term
	CompleteTaxonName        triplestore.Term
	StatuslessVernacularName triplestore.Term
	IsPartOfHigherTaxon      triplestore.Term
	RefersToTaxon            triplestore.Term
	HasVernacularName        triplestore.Term
	HasNameStatus            triplestore.Term

	// taxonomic ranks
	Genus   triplestore.Term
	Species triplestore.Term

	ScientificName triplestore.Term
	NonSamplingErr triplestore.Term

	// data cube
	Observation triplestore.Term
	DataSet     triplestore.Term

	// halias-schema
	Abbreviation        triplestore.Term
	Rarity              triplestore.Term
	Common              triplestore.Term
	Rare                triplestore.Term
	HaliasDataSet       triplestore.Term
	RefTime             triplestore.Term
	ObservedSpecies     triplestore.Term
	CountAdditionalArea triplestore.Term
	CountLocal          triplestore.Term
	CountMigration      triplestore.Term
	SeasonProperty      triplestore.Term

	// datatypes
	Date    string
	Integer string

	seasons           map[string]Season
	taxonomyPrefixes  []Prefix
	observationPrefix []Prefix
}

var defaultVocabulary = sync.OnceValue(build)

// Default returns the process-wide vocabulary
func Default() *Vocabulary {
	return defaultVocabulary()
}

func build() *Vocabulary {
	return &Vocabulary{
		Type:       RDF.Term("type"),
		Label:      RDFS.Term("label"),
		SubClassOf: RDFS.Term("subClassOf"),
		OWLClass:   OWL.Term("Class"),

		TaxonInChecklist:         TaxMeOn.Term("TaxonInChecklist"),
		CompleteTaxonName:        TaxMeOn.Term("completeTaxonName"),
		StatuslessVernacularName: TaxMeOn.Term("hasStatuslessVernacularName"),
		IsPartOfHigherTaxon:      TaxMeOn.Term("isPartOfHigherTaxon"),
		RefersToTaxon:            TaxMeOn.Term("refersToTaxon"),
		HasVernacularName:        TaxMeOn.Term("hasVernacularName"),
		HasNameStatus:            TaxMeOn.Term("hasNameStatus"),

		Genus:   Ranks.Term("Genus"),
		Species: Ranks.Term("Species"),

		ScientificName: DWC.Term("scientificName"),
		NonSamplingErr: SDMXAttribute.Term("nonsamplingErr"),

		Observation: DataCube.Term("Observation"),
		DataSet:     DataCube.Term("dataSet"),

		Abbreviation:        HaliasSchema.Term("abbreviation"),
		Rarity:              HaliasSchema.Term("rarity"),
		Common:              HaliasSchema.Term("common"),
		Rare:                HaliasSchema.Term("rare"),
		HaliasDataSet:       HaliasSchema.Term("haliasDataSet"),
		RefTime:             HaliasSchema.Term("refTime"),
		ObservedSpecies:     HaliasSchema.Term("observedSpecies"),
		CountAdditionalArea: HaliasSchema.Term("countAdditionalArea"),
		CountLocal:          HaliasSchema.Term("countLocal"),
		CountMigration:      HaliasSchema.Term("countMigration"),
		SeasonProperty:      HaliasSchema.Term("season"),

		Date:    XSD.IRI("date"),
		Integer: XSD.IRI("integer"),

		seasons: map[string]Season{
			"12": Winter, "01": Winter, "02": Winter,
			"03": Spring, "04": Spring, "05": Spring,
			"06": Summer, "07": Summer, "08": Summer,
			"09": Autumn, "10": Autumn, "11": Autumn,
		},
		taxonomyPrefixes: []Prefix{
			{"bio", Bio},
			{"xsd", XSD},
			{"taxmeon", TaxMeOn},
			{"dgu-intervals", DGUIntervals},
			{"qb", DataCube},
			{"dwc", DWC},
			{"halias-schema", HaliasSchema},
			{"halias", Halias},
			{"rdfs", RDFS},
		},
		observationPrefix: []Prefix{
			{"bio", Bio},
			{"xsd", XSD},
			{"dgu-intervals", DGUIntervals},
			{"qb", DataCube},
			{"dwc", DWC},
			{"sdmx-a", SDMXAttribute},
			{"halias-schema", HaliasSchema},
			{"halias", Halias},
		},
	}
}

// SeasonOf returns the season for a two-digit month such as "03"
func (v *Vocabulary) SeasonOf(month string) (Season, bool) {
	s, ok := v.seasons[month]
	return s, ok
}

// SeasonTerm returns the halias-schema IRI for a season
func (v *Vocabulary) SeasonTerm(s Season) triplestore.Term {
	return HaliasSchema.Term(string(s))
}

// Taxon returns the IRI of a taxon local identifier
func (v *Vocabulary) Taxon(localID string) triplestore.Term {
	return HaliasTaxa.Term(localID)
}

// ObservationSubject returns the IRI of an observation key
func (v *Vocabulary) ObservationSubject(key string) triplestore.Term {
	return Halias.Term(key)
}

// TaxonomyPrefixes returns the prefixes bound in taxonomy documents
func (v *Vocabulary) TaxonomyPrefixes() []Prefix {
	return slices.Clone(v.taxonomyPrefixes)
}

// ObservationPrefixes returns the prefixes bound in observation documents
func (v *Vocabulary) ObservationPrefixes() []Prefix {
	return slices.Clone(v.observationPrefix)
}
