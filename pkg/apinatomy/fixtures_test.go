package apinatomy

import (
	"slices"

	"github.com/matzehuels/mapknowledge/pkg/blob"
)

func edge(s, p, o string) blob.Edge { return blob.Edge{Sub: s, Pred: p, Obj: o} }

// graphOf builds a blob from edges with a node for every id they mention.
func graphOf(edges ...blob.Edge) blob.Blob {
	var b blob.Blob
	for _, e := range edges {
		for _, id := range []string{e.Sub, e.Obj} {
			if !slices.ContainsFunc(b.Nodes, func(n blob.Node) bool { return n.ID == id }) {
				b.Nodes = append(b.Nodes, blob.Node{ID: id})
			}
		}
	}
	b.Edges = edges
	return b
}

func keysOf(edges []blob.Edge) []blob.Key {
	out := make([]blob.Key, len(edges))
	for i, e := range edges {
		out[i] = e.Key()
	}
	return out
}

// pathABC is a single path A -lyphs-> B -next-> C where B lies in region R1
// and C in region R2.
func pathABC() blob.Blob {
	return graphOf(
		edge("A", Lyphs, "B"),
		edge("B", Next, "C"),
		edge("B", InternalIn, "X"),
		edge("X", OntologyTerms, "R1"),
		edge("C", InternalIn, "Y"),
		edge("Y", OntologyTerms, "R2"),
	)
}

// axonTerminal is a raw blob whose lyph T is a BAG carrying an axon, placed
// in layer W of region R.
func axonTerminal() blob.Blob {
	return graphOf(
		edge("T", ConveyingLyph, "K"),
		edge("K", Topology, BAG),
		edge("T", CloneOf, "P"),
		edge("P", InheritedExternal, Axon),
		edge("T", LayerIn, "W"),
		edge("W", OntologyTerms, "R"),
	)
}
