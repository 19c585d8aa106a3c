package apinatomy

import (
	"slices"

	"github.com/matzehuels/mapknowledge/pkg/blob"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
)

// NeuronKnowledge builds the knowledge record of a neuron population from
// the result of its connectivity query.
//
// The label is the neuron's first synonym and the long label its ontology
// label; both fall back to the neuron id. References come from the
// ApiNATOMY neuron the population annotates.
func NeuronKnowledge(neuron string, data blob.Blob) (knowledge.Record, error) {
	rec := knowledge.Record{ID: neuron, Label: neuron}
	if n, ok := data.Node(neuron); ok {
		if syn := n.Meta.Strings("synonym"); len(syn) > 0 {
			rec.Label = syn[0]
		}
		rec.LongLabel = n.Label
	}

	if i := slices.IndexFunc(data.Edges, func(e blob.Edge) bool {
		return e.Sub == neuron && e.Pred == Annotates
	}); i >= 0 {
		annotated := data.Edges[i].Obj
		rec.References = []string{}
		for _, e := range data.Edges {
			if e.Sub == annotated && e.Pred == References {
				rec.References = append(rec.References, e.Obj)
			}
		}
	}

	conn, err := ParseConnectivity(data)
	if err != nil {
		return knowledge.Record{}, err
	}
	rec.Connectivity = &conn
	return rec, nil
}

// ModelKnowledge lists the neuron paths of an ApiNATOMY model from the
// result of [NeuronsForModelCypher]: every Class node is a path.
func ModelKnowledge(model string, data blob.Blob) knowledge.Record {
	rec := knowledge.Record{ID: model, Paths: []knowledge.PathRef{}}
	for _, n := range data.Nodes {
		if slices.Contains(n.Meta.Strings("types"), "Class") {
			rec.Paths = append(rec.Paths, knowledge.PathRef{ID: n.ID, Models: n.ID})
		}
	}
	return rec
}

// Phenotypes returns the phenotype and circuit-role terms of a neuron, in
// edge order.
func Phenotypes(data blob.Blob) []string {
	var out []string
	for _, e := range data.EdgesWith(HasPhenotype, HasCircuitRolePhenotype) {
		out = append(out, e.Obj)
	}
	return out
}
