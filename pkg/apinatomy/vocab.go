package apinatomy

import "github.com/matzehuels/mapknowledge/pkg/simplify"

// ApiNATOMY predicates and markers.
const (
	Annotates          = "apinatomy:annotates"
	CloneOf            = "apinatomy:cloneOf"
	ConveyingLyph      = "apinatomy:conveyingLyph"
	Conveys            = "apinatomy:conveys"
	EndsIn             = "apinatomy:endsIn"
	FasciculatesIn     = "apinatomy:fasciculatesIn"
	InheritedExternal  = "apinatomy:inheritedExternal"
	InheritedExternalS = "apinatomy:inheritedExternal*"
	InternalIn         = "apinatomy:internalIn"
	LayerIn            = "apinatomy:layerIn"
	Levels             = "apinatomy:levels"
	Lyphs              = "apinatomy:lyphs"
	Next               = "apinatomy:next"
	NextS              = "apinatomy:next*"
	OntologyTerms      = "apinatomy:ontologyTerms"
	References         = "apinatomy:references"
	RootOf             = "apinatomy:rootOf"
	Source             = "apinatomy:source"
	SourceOf           = "apinatomy:sourceOf"
	Target             = "apinatomy:target"
	Topology           = "apinatomy:topology"
	TopologyS          = "apinatomy:topology*"

	// BAG marks a lyph that ends freely rather than conducting onwards.
	BAG = "apinatomy:BAG"

	// Axon and Dendrite are the neuron process types terminals are
	// inherited from.
	Axon     = "SAO:280355188"
	Dendrite = "SAO:420754792"
)

// Phenotype predicates.
const (
	HasPhenotype            = "ilxtr:hasPhenotype"
	HasCircuitRolePhenotype = "ilxtr:hasCircuitRolePhenotype"
)

// ModelPrefix starts the IRI of every ApiNATOMY model.
const ModelPrefix = "https://apinatomy.org/uris/models/"

// ConnectivityOntologies are the CURIE prefixes of entities whose knowledge
// is a neuron path.
var ConnectivityOntologies = []string{"ilxtr"}

// ExcludedLayers never appear in the layer list of an anatomical node.
// UBERON:0005844 (spinal cord) shows up as a layer through an upstream
// modelling issue.
var ExcludedLayers = []string{"", "UBERON:0005844"}

// CollapsePatterns is the chain catalogue applied while deblobbing.
var CollapsePatterns = []simplify.Pattern{
	{Target, RootOf, Levels},
	{ConveyingLyph, Topology},
	{Conveys, Source, SourceOf},
	{Conveys, Target, SourceOf},
	{CloneOf, InheritedExternal},
	{ConveyingLyph, InheritedExternal},
}

// renames maps the predicates synthesized from [CollapsePatterns] onto the
// relation each chain stands for.
var renames = map[string]string{
	CollapsePatterns[0].Predicate(): NextS,
	CollapsePatterns[2].Predicate(): NextS,
	CollapsePatterns[3].Predicate(): NextS,
	CollapsePatterns[1].Predicate(): TopologyS,
	CollapsePatterns[4].Predicate(): InheritedExternalS,
	CollapsePatterns[5].Predicate(): InheritedExternalS,
}

// Rename returns the canonical predicate for a synthesized chain predicate,
// or pred itself.
func Rename(pred string) string {
	if r, ok := renames[pred]; ok {
		return r
	}
	return pred
}

// structural predicates climb from a path node towards the region it lies in.
var structural = []string{LayerIn, FasciculatesIn, EndsIn, InternalIn}

// externals resolve a node to an ontology term.
var externals = []string{OntologyTerms, InheritedExternal, InheritedExternalS}
