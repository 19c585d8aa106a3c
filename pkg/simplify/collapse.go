package simplify

import (
	"slices"
	"strings"

	"github.com/matzehuels/mapknowledge/pkg/blob"
	"github.com/matzehuels/mapknowledge/pkg/graph"
)

// Pattern is an ordered list of predicates describing a chain of edges that
// should be rewritten as one edge. The rewritten edge is labelled with
// [Pattern.Predicate].
type Pattern []string

// Predicate is the label of edges synthesized for p: its predicates joined
// with "-".
func (p Pattern) Predicate() string { return strings.Join(p, "-") }

// Contains reports whether pred occurs anywhere in p.
func (p Pattern) Contains(pred string) bool { return slices.Contains(p, pred) }

// Result reports what [Collapse] changed.
type Result struct {
	// Synthesized is the number of chain edges appended to the blob. The same
	// chain matched along two paths is counted, and appended, twice.
	Synthesized int

	// Removed is the number of original edges deleted once all patterns had
	// been processed.
	Removed int

	// CyclicComponents counts candidate components that were skipped because
	// they contain a directed cycle and so cannot be a chain.
	CyclicComponents int
}

// Collapse rewrites every chain of edges matching one of patterns into a
// single synthesized edge spanning the chain's first and last node.
//
// For each pattern of k predicates, the edges whose predicate occurs in the
// pattern are gathered into a multigraph and split into weakly connected
// components. Within an acyclic component every simple path of exactly k
// edges that ends on the object of a last-predicate edge is a candidate.
// Candidates are visited in lexicographic order of their node IDs. A
// candidate whose edges spell the pattern exactly is replaced whole; one that
// merely contains the pattern has only the matching sub-chain replaced, see
// [IndexSublist].
//
// Edges are only removed after all patterns have run, and a scheduled removal
// deletes one structurally equal edge if any is still present. Candidate edges
// lose their metadata so that the removals can match them.
//
// The input blob is not modified.
func Collapse(patterns []Pattern, b blob.Blob) (blob.Blob, Result) {
	out := b.Clone()
	var (
		res      Result
		removals []blob.Key
	)

	for _, p := range patterns {
		if len(p) == 0 {
			continue
		}

		var candidates []blob.Triple
		for i := range out.Edges {
			if p.Contains(out.Edges[i].Pred) {
				out.Edges[i].Meta = nil
				candidates = append(candidates, blob.TripleFromEdge(out.Edges[i]))
			}
		}
		if len(candidates) == 0 {
			continue
		}

		g, err := graph.FromEdges(graphEdges(candidates))
		if err != nil {
			continue
		}
		ends := endNodes(candidates, p[len(p)-1])

		for _, comp := range g.WeakComponents() {
			sub := g.Subgraph(comp)
			if err := sub.Validate(); err != nil {
				res.CyclicComponents++
				continue
			}
			for _, path := range chainPaths(sub, comp, ends, len(p)) {
				chain := inducedTriples(sub, path)
				preds := predicates(chain)

				if slices.Equal(preds, p) {
					out.Edges = append(out.Edges, synthesize(path, p))
					removals = append(removals, keys(chain)...)
					res.Synthesized++
					continue
				}

				i, ok := IndexSublist(preds, p, true)
				if !ok {
					continue
				}
				j := i + len(p)
				npath := path[min(i, len(path)):min(j+1, len(path))]
				if len(npath) < 2 {
					continue
				}
				out.Edges = append(out.Edges, synthesize(npath, p))
				removals = append(removals, keys(chain[i:j])...)
				res.Synthesized++
			}
		}
	}

	for _, k := range removals {
		if i := slices.IndexFunc(out.Edges, func(e blob.Edge) bool { return e.Key() == k }); i >= 0 {
			out.Edges = slices.Delete(out.Edges, i, i+1)
			res.Removed++
		}
	}
	return out, res
}

// endNodes returns the distinct objects of triples labelled last.
func endNodes(triples []blob.Triple, last string) []string {
	var ends []string
	for _, t := range triples {
		if t.P == last && !slices.Contains(ends, t.O) {
			ends = append(ends, t.O)
		}
	}
	slices.Sort(ends)
	return ends
}

// graphEdges places triples in the multigraph as subject, predicate, object.
// Triples missing an endpoint cannot join a chain and are left out.
func graphEdges(triples []blob.Triple) []graph.Edge {
	edges := make([]graph.Edge, 0, len(triples))
	for _, t := range triples {
		spo := t.Tuple()
		if spo[0] == "" || spo[2] == "" {
			continue
		}
		edges = append(edges, graph.Edge{From: spo[0], Label: spo[1], To: spo[2]})
	}
	return edges
}

// tripleOf reads a multigraph edge back as an RDF triple.
func tripleOf(e graph.Edge) blob.Triple {
	return blob.TripleFromRDF(blob.RDFTriple{blob.IRI(e.From), blob.IRI(e.Label), blob.IRI(e.To)})
}

// chainPaths returns the distinct simple paths of exactly k edges from any
// node of comp to any of ends, sorted by node IDs.
func chainPaths(g *graph.Multigraph, comp, ends []string, k int) [][]string {
	seen := make(map[string]bool)
	var paths [][]string
	for _, n := range comp {
		for _, end := range ends {
			for _, p := range g.SimplePaths(n, end, k) {
				if len(p) != k+1 {
					continue
				}
				id := strings.Join(p, "\x00")
				if seen[id] {
					continue
				}
				seen[id] = true
				paths = append(paths, p)
			}
		}
	}
	slices.SortFunc(paths, slices.Compare[[]string])
	return paths
}

// inducedTriples lists, for each node of path in order, its outgoing edges
// that land on another node of the path.
func inducedTriples(g *graph.Multigraph, path []string) []blob.Triple {
	on := make(map[string]bool, len(path))
	for _, n := range path {
		on[n] = true
	}
	var triples []blob.Triple
	for _, n := range path {
		for _, e := range g.OutEdges(n) {
			if on[e.To] {
				triples = append(triples, tripleOf(e))
			}
		}
	}
	return triples
}

func predicates(triples []blob.Triple) []string {
	out := make([]string, len(triples))
	for i, t := range triples {
		out[i] = t.P
	}
	return out
}

func keys(triples []blob.Triple) []blob.Key {
	out := make([]blob.Key, len(triples))
	for i, t := range triples {
		out[i] = t.Edge().Key()
	}
	return out
}

func synthesize(path []string, p Pattern) blob.Edge {
	return tripleOf(graph.Edge{From: path[0], Label: p.Predicate(), To: path[len(path)-1]}).Edge()
}
