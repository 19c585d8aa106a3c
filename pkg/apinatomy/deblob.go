package apinatomy

import (
	"slices"

	"github.com/matzehuels/mapknowledge/pkg/blob"
	"github.com/matzehuels/mapknowledge/pkg/simplify"
)

// DeblobOptions configures [Deblob].
type DeblobOptions struct {
	// RemoveConvergence drops topology edges and edges to the axon and
	// dendrite markers, leaving a view suited to layout rather than to
	// connectivity.
	RemoveConvergence bool
}

// Deblobbed is the simplified form of a path blob.
type Deblobbed struct {
	// Blob holds the deduplicated edges, sorted by (Sub, Pred, Obj), and only
	// the nodes they reference.
	Blob blob.Blob

	// Edges are the renamed edges before deduplication, in blob order and
	// with their metadata. Structural duplicates are still present.
	Edges []blob.Edge

	// Somas are the internalIn edges of Blob.
	Somas []blob.Edge

	// Terms are the ontologyTerms edges of Blob.
	Terms []blob.Edge

	// OrderingEdges are the next edges of Blob.
	OrderingEdges []blob.Edge

	// Collapse reports what chain collapsing changed.
	Collapse simplify.Result
}

// Deblob simplifies a path blob returned by the knowledge service.
//
// Level edges that point into the middle of a chain are dropped, the chains
// in [CollapsePatterns] are collapsed and renamed onto next*, topology* and
// inheritedExternal*, and every topology* object is copied onto its subject
// node as [blob.Node.Topology]. The result is then deduplicated and pruned.
//
// The input blob is not modified.
func Deblob(data blob.Blob, opts DeblobOptions) Deblobbed {
	b := data.Clone()
	b.Edges = dropInteriorLevels(b.Edges)

	b, res := simplify.Collapse(CollapsePatterns, b)

	idx := b.NodeIndex()
	for i := range b.Edges {
		e := &b.Edges[i]
		e.Pred = Rename(e.Pred)
		if e.Pred == TopologyS {
			if n, ok := idx[e.Sub]; ok {
				b.Nodes[n].Topology = e.Obj
			}
		}
	}

	if opts.RemoveConvergence {
		b.Edges = slices.DeleteFunc(b.Edges, func(e blob.Edge) bool {
			return e.Pred == Topology || e.Pred == TopologyS || e.Obj == Axon || e.Obj == Dendrite
		})
	}

	edges := slices.Clone(b.Edges)
	b = b.Dedupe().Prune()
	return Deblobbed{
		Blob:          b,
		Edges:         edges,
		Somas:         b.EdgesWith(InternalIn),
		Terms:         b.EdgesWith(OntologyTerms),
		OrderingEdges: b.EdgesWith(Next),
		Collapse:      res,
	}
}

// dropInteriorLevels removes levels edges whose object is also reached by a
// next edge: such a level is a link inside the chain, not one of its roots.
func dropInteriorLevels(edges []blob.Edge) []blob.Edge {
	nexted := make(map[string]bool)
	for _, e := range edges {
		if e.Pred == Next {
			nexted[e.Obj] = true
		}
	}
	return slices.DeleteFunc(edges, func(e blob.Edge) bool {
		return e.Pred == Levels && nexted[e.Obj]
	})
}
