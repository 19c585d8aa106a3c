package apinatomy

import (
	"slices"

	"github.com/matzehuels/mapknowledge/pkg/blob"
)

// FindTerminals returns the inheritedExternal* edges to processType whose
// subject is a BAG, that is, the lyphs where an axon or dendrite ends.
// Topology is read from the node property set by [Deblob].
func FindTerminals(b blob.Blob, processType string) []blob.Edge {
	bags := make(map[string]bool)
	for _, n := range b.Nodes {
		if n.Topology == BAG {
			bags[n.ID] = true
		}
	}
	var out []blob.Edge
	for _, e := range b.Edges {
		if e.Pred == InheritedExternalS && e.Obj == processType && bags[e.Sub] {
			out = append(out, e)
		}
	}
	return out
}

// FindRegion returns the region nodes a terminal edge ends in. It climbs
// from the edge's subject through layerIn, fasciculatesIn and endsIn; the
// first node on each branch with ontologyTerms edges contributes those terms
// and the climb stops there.
func FindRegion(b blob.Blob, e blob.Edge) []blob.Node {
	return findRegion(b, newIndex(b), e.Sub)
}

func findRegion(b blob.Blob, idx *index, start string) []blob.Node {
	var regions []blob.Node
	stack := []string{start}
	seen := map[string]bool{start: true}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if terms := idx.objects(id, OntologyTerms); len(terms) > 0 {
			for _, t := range terms {
				for _, n := range b.Nodes {
					if n.ID == t {
						regions = append(regions, n)
					}
				}
			}
			continue
		}

		up := idx.objects(id, LayerIn, FasciculatesIn, EndsIn)
		for i := len(up) - 1; i >= 0; i-- {
			if !seen[up[i]] {
				seen[up[i]] = true
				stack = append(stack, up[i])
			}
		}
	}
	return regions
}

// FindTerminalRegions returns the regions of every processType terminal in
// b, in terminal order.
func FindTerminalRegions(b blob.Blob, processType string) []blob.Node {
	idx := newIndex(b)
	var regions []blob.Node
	for _, e := range FindTerminals(b, processType) {
		regions = append(regions, findRegion(b, idx, e.Sub)...)
	}
	return regions
}

// terminalIDs returns the distinct, sorted ids of the processType terminal
// regions.
func terminalIDs(b blob.Blob, processType string) []string {
	ids := []string{}
	for _, n := range FindTerminalRegions(b, processType) {
		if !slices.Contains(ids, n.ID) {
			ids = append(ids, n.ID)
		}
	}
	slices.Sort(ids)
	return ids
}
