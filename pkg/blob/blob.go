package blob

import (
	"cmp"
	"maps"
	"slices"
)

// Meta holds the free-form metadata attached to nodes and edges. Keys are
// ontology annotation names (e.g. "synonym", "types"); values are whatever the
// knowledge service returned, usually lists of strings.
type Meta map[string]any

// Strings returns the string values stored under key. A scalar string is
// returned as a one-element slice; anything else yields nil.
func (m Meta) Strings(key string) []string {
	switch v := m[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Node is a term in the knowledge graph.
//
// Nodes are never edited after they are read except for Topology, which the
// deblobbing stage fills in from collapsed topology chains.
type Node struct {
	ID       string `json:"id"`
	Label    string `json:"lbl,omitempty"`
	Meta     Meta   `json:"meta,omitempty"`
	Topology string `json:"topology,omitempty"`
}

// Edge is a directed, predicate-labelled fact between two nodes.
//
// Two edges are structurally the same when Sub, Pred and Obj match; Meta is
// carried along but ignored by [Edge.Equal] and [Edge.Key].
type Edge struct {
	Sub  string `json:"sub"`
	Pred string `json:"pred"`
	Obj  string `json:"obj"`
	Meta Meta   `json:"meta,omitempty"`
}

// Key is the structural identity of an edge.
type Key struct {
	Sub, Pred, Obj string
}

// Key returns the (Sub, Pred, Obj) identity of e.
func (e Edge) Key() Key { return Key{e.Sub, e.Pred, e.Obj} }

// Equal reports whether e and o describe the same fact.
func (e Edge) Equal(o Edge) bool { return e.Key() == o.Key() }

// Stripped returns e without metadata.
func (e Edge) Stripped() Edge { return Edge{Sub: e.Sub, Pred: e.Pred, Obj: e.Obj} }

// CompareKeys orders keys by subject, then predicate, then object.
func CompareKeys(a, b Key) int {
	if c := cmp.Compare(a.Sub, b.Sub); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Pred, b.Pred); c != 0 {
		return c
	}
	return cmp.Compare(a.Obj, b.Obj)
}

// CompareEdges orders edges structurally, see [CompareKeys].
func CompareEdges(a, b Edge) int { return CompareKeys(a.Key(), b.Key()) }

// Blob is the unit of exchange between processing stages: the nodes and edges
// returned by one knowledge-graph query.
//
// Stages treat a Blob as a value. They work on a [Blob.Clone] and return the
// result, so the caller's slices are never modified.
type Blob struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep copy of b. Metadata maps are copied one level deep,
// which is enough for every stage since none of them edits metadata values.
func (b Blob) Clone() Blob {
	out := Blob{
		Nodes: make([]Node, len(b.Nodes)),
		Edges: make([]Edge, len(b.Edges)),
	}
	for i, n := range b.Nodes {
		n.Meta = maps.Clone(n.Meta)
		out.Nodes[i] = n
	}
	for i, e := range b.Edges {
		e.Meta = maps.Clone(e.Meta)
		out.Edges[i] = e
	}
	return out
}

// Node returns the first node with the given id.
func (b Blob) Node(id string) (Node, bool) {
	for _, n := range b.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodeIndex maps node ids to their position in b.Nodes. When ids repeat the
// first occurrence wins.
func (b Blob) NodeIndex() map[string]int {
	idx := make(map[string]int, len(b.Nodes))
	for i, n := range b.Nodes {
		if _, ok := idx[n.ID]; !ok {
			idx[n.ID] = i
		}
	}
	return idx
}

// EdgesWith returns the edges whose predicate is one of preds, in blob order.
func (b Blob) EdgesWith(preds ...string) []Edge {
	var out []Edge
	for _, e := range b.Edges {
		if slices.Contains(preds, e.Pred) {
			out = append(out, e)
		}
	}
	return out
}

// Dedupe returns b with structurally duplicate edges removed. The surviving
// edges are sorted by [CompareEdges] and carry no metadata.
func (b Blob) Dedupe() Blob {
	seen := make(map[Key]struct{}, len(b.Edges))
	edges := make([]Edge, 0, len(b.Edges))
	for _, e := range b.Edges {
		if _, ok := seen[e.Key()]; ok {
			continue
		}
		seen[e.Key()] = struct{}{}
		edges = append(edges, e.Stripped())
	}
	slices.SortFunc(edges, CompareEdges)
	return Blob{Nodes: b.Nodes, Edges: edges}
}

// Prune drops every node that is not the subject or object of some edge.
// Node order is preserved.
func (b Blob) Prune() Blob {
	used := make(map[string]struct{}, 2*len(b.Edges))
	for _, e := range b.Edges {
		used[e.Sub] = struct{}{}
		used[e.Obj] = struct{}{}
	}
	nodes := make([]Node, 0, len(b.Nodes))
	for _, n := range b.Nodes {
		if _, ok := used[n.ID]; ok {
			nodes = append(nodes, n)
		}
	}
	return Blob{Nodes: nodes, Edges: b.Edges}
}
