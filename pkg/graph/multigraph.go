package graph

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Multigraph.AddEdge] when an endpoint
	// is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrGraphHasCycle is returned by [Multigraph.Validate] when the graph
	// contains a directed cycle.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Edge is a directed, labelled connection. In an RDF reading From is the
// subject, Label the predicate and To the object.
type Edge struct {
	From  string
	To    string
	Label string
}

// Multigraph is a directed graph that allows several differently labelled
// edges between the same pair of nodes. Adding an edge that is identical in
// From, To and Label to an existing one is a no-op, so the graph behaves like
// a set of RDF triples.
//
// Node and edge iteration follows insertion order. The zero value is not
// usable; create graphs with [New]. A Multigraph is not safe for concurrent
// use.
type Multigraph struct {
	nodes    []string
	index    map[string]int
	edges    []Edge
	seen     map[Edge]struct{}
	outgoing map[string][]int // nodeID -> indices into edges
	incoming map[string][]int
}

// New creates an empty multigraph.
func New() *Multigraph {
	return &Multigraph{
		index:    make(map[string]int),
		seen:     make(map[Edge]struct{}),
		outgoing: make(map[string][]int),
		incoming: make(map[string][]int),
	}
}

// FromEdges builds a multigraph from edges, creating endpoints as needed.
func FromEdges(edges []Edge) (*Multigraph, error) {
	g := New()
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Multigraph) addNode(id string) {
	if _, ok := g.index[id]; ok {
		return
	}
	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, id)
}

// AddEdge adds e, creating its endpoints if they are not yet present.
func (g *Multigraph) AddEdge(e Edge) error {
	if e.From == "" || e.To == "" {
		return ErrInvalidNodeID
	}
	if _, dup := g.seen[e]; dup {
		return nil
	}
	g.addNode(e.From)
	g.addNode(e.To)
	g.seen[e] = struct{}{}
	g.edges = append(g.edges, e)
	i := len(g.edges) - 1
	g.outgoing[e.From] = append(g.outgoing[e.From], i)
	g.incoming[e.To] = append(g.incoming[e.To], i)
	return nil
}

// HasNode reports whether id is a node of g.
func (g *Multigraph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// OutEdges returns the edges leaving id, in insertion order.
func (g *Multigraph) OutEdges(id string) []Edge {
	out := make([]Edge, 0, len(g.outgoing[id]))
	for _, i := range g.outgoing[id] {
		out = append(out, g.edges[i])
	}
	return out
}

// Children returns the distinct targets of edges leaving id, in the order
// they were first connected.
func (g *Multigraph) Children(id string) []string {
	return g.neighbours(g.outgoing[id], func(e Edge) string { return e.To })
}

// Parents returns the distinct sources of edges entering id.
func (g *Multigraph) Parents(id string) []string {
	return g.neighbours(g.incoming[id], func(e Edge) string { return e.From })
}

func (g *Multigraph) neighbours(idx []int, end func(Edge) string) []string {
	var out []string
	for _, i := range idx {
		if n := end(g.edges[i]); !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

// Subgraph returns the graph induced by ids: those nodes and every edge
// whose endpoints are both among them.
func (g *Multigraph) Subgraph(ids []string) *Multigraph {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	sub := New()
	for _, id := range g.nodes {
		if keep[id] {
			sub.addNode(id)
		}
	}
	for _, e := range g.edges {
		if keep[e.From] && keep[e.To] {
			_ = sub.AddEdge(e)
		}
	}
	return sub
}

// Validate returns ErrGraphHasCycle if g contains a directed cycle.
func (g *Multigraph) Validate() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.Children(id) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for _, id := range g.nodes {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}
