// Package graph provides a small labelled directed multigraph and the
// traversal algorithms the chain-collapsing engine needs.
//
// # Overview
//
// A [Multigraph] stores subject, predicate, object facts as labelled edges.
// Several edges may join the same pair of nodes as long as their labels
// differ; re-adding an identical edge is a no-op, which mirrors the set
// semantics of an RDF graph.
//
//	g := graph.New()
//	g.AddEdge(graph.Edge{From: "lyph:1", To: "lyph:2", Label: "apinatomy:next"})
//
// # Algorithms
//
//   - [Multigraph.WeakComponents]: groups of nodes connected when direction
//     is ignored
//   - [Multigraph.Validate]: [ErrGraphHasCycle] when a directed cycle exists
//   - [Multigraph.SimplePaths]: every non-repeating path between two nodes,
//     bounded by an edge count
//
// All results are deterministic for a given insertion order.
package graph
