package apinatomy

import "fmt"

// NeuronEBM is the class every ApiNATOMY neuron population descends from.
const NeuronEBM = "http://uri.interlex.org/tgbugs/uris/readable/NeuronEBM"

// NeuronsForModelCypher returns the query listing the neuron populations
// defined by an ApiNATOMY model. The result is read by [ModelKnowledge].
func NeuronsForModelCypher(model string) string {
	return fmt.Sprintf(`MATCH (start:Ontology {iri: %q})
<-[:isDefinedBy]-(external:Class)
-[:subClassOf*]->(:Class {iri: %q})
RETURN external`, model, NeuronEBM)
}

// PhenotypeForNeuronCypher returns the query listing a neuron population's
// phenotype edges. The result is read by [Phenotypes].
func PhenotypeForNeuronCypher(neuron string) string {
	return fmt.Sprintf(`MATCH (neupop:Class{iri: %q})-[e:ilxtr:hasPhenotype!]->(phenotype) RETURN e`, neuron)
}
