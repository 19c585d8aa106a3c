package apinatomy

import (
	"cmp"
	"slices"

	"github.com/matzehuels/mapknowledge/pkg/blob"
	"github.com/matzehuels/mapknowledge/pkg/errors"
)

// LayerRegion is one step of a path node's anatomical position: a region,
// optionally qualified by the layer of it the node lies in. Layer is empty
// when the region was reached without passing through a layer.
type LayerRegion struct {
	Layer  string
	Region string
}

func compareLayerRegions(a, b LayerRegion) int {
	if c := cmp.Compare(a.Layer, b.Layer); c != 0 {
		return c
	}
	return cmp.Compare(a.Region, b.Region)
}

// ResolvedNode is a path node together with its layer regions, innermost
// first.
type ResolvedNode struct {
	ID    string
	Pairs []LayerRegion
}

// CompareResolved orders resolved nodes by ID, then by their pairs.
func CompareResolved(a, b ResolvedNode) int {
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return slices.CompareFunc(a.Pairs, b.Pairs, compareLayerRegions)
}

// index is the adjacency view of a blob used by the resolvers.
type index struct {
	out    map[string][]blob.Edge
	layers map[string]bool
	nodes  map[string]bool
}

func newIndex(b blob.Blob) *index {
	idx := &index{
		out:    make(map[string][]blob.Edge),
		layers: make(map[string]bool),
		nodes:  make(map[string]bool, len(b.Nodes)),
	}
	for _, n := range b.Nodes {
		idx.nodes[n.ID] = true
	}
	for _, e := range b.Edges {
		idx.out[e.Sub] = append(idx.out[e.Sub], e)
		if e.Pred == LayerIn {
			idx.layers[e.Sub] = true
		}
	}
	return idx
}

// objects returns the objects of id's edges labelled with one of preds.
func (idx *index) objects(id string, preds ...string) []string {
	var out []string
	for _, e := range idx.out[id] {
		if slices.Contains(preds, e.Pred) {
			out = append(out, e.Obj)
		}
	}
	return out
}

// IsLayer reports whether id is the subject of a layerIn edge.
func IsLayer(b blob.Blob, id string) bool {
	return slices.ContainsFunc(b.Edges, func(e blob.Edge) bool {
		return e.Sub == id && e.Pred == LayerIn
	})
}

// frame is a position in the out-edges of a node during a walk.
type frame struct {
	node string
	next int
}

// resolver holds the state of one upward walk.
//
// External terms found below a layer are stacked; the next term found
// outside a layer closes the innermost open layer into a LayerRegion.
type resolver struct {
	idx        *index
	results    []LayerRegion
	layers     []string
	collecting bool
}

// walk climbs from start through structural edges, depth first and in edge
// order, resolving the external terms of every node it reaches. A node
// already on the current ancestry is resolved again but not re-entered.
func (r *resolver) walk(start string) {
	stack := []frame{{node: start}}
	onPath := map[string]bool{start: true}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		edges := r.idx.out[top.node]
		if top.next >= len(edges) {
			delete(onPath, top.node)
			stack = stack[:len(stack)-1]
			continue
		}
		e := edges[top.next]
		top.next++
		if !slices.Contains(structural, e.Pred) {
			continue
		}

		r.collecting = !r.idx.layers[e.Obj]
		r.resolve(e.Obj)

		if onPath[e.Obj] {
			continue
		}
		onPath[e.Obj] = true
		stack = append(stack, frame{node: e.Obj})
	}
}

// resolve visits the external terms of id, following cloneOf edges to the
// lyphs id was cloned from.
func (r *resolver) resolve(id string) {
	stack := []frame{{node: id}}
	seen := map[string]bool{id: true}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		edges := r.idx.out[top.node]
		if top.next >= len(edges) {
			stack = stack[:len(stack)-1]
			continue
		}
		e := edges[top.next]
		top.next++
		switch {
		case e.Pred == CloneOf:
			if !seen[e.Obj] {
				seen[e.Obj] = true
				stack = append(stack, frame{node: e.Obj})
			}
		case slices.Contains(externals, e.Pred):
			r.emit(e.Obj)
		}
	}
}

func (r *resolver) emit(term string) {
	if !r.idx.nodes[term] {
		return
	}
	if !r.collecting {
		r.layers = append(r.layers, term)
		return
	}
	var layer string
	if n := len(r.layers); n > 0 {
		layer = r.layers[n-1]
		r.layers = r.layers[:n-1]
	}
	r.results = append(r.results, LayerRegion{Layer: layer, Region: term})
}

// Reclr resolves the layer regions of start by climbing the layerIn,
// fasciculatesIn, endsIn and internalIn hierarchy above it.
//
// At every node reached, the node's ontologyTerms, inheritedExternal and
// inheritedExternal* terms are resolved, with cloneOf followed through. If
// the node is itself a layer its terms are held as open layers; otherwise
// each term becomes a region paired with the most recent open layer. Terms
// that are not nodes of b are ignored.
func Reclr(b blob.Blob, start string) []LayerRegion {
	return reclr(newIndex(b), start)
}

func reclr(idx *index, start string) []LayerRegion {
	r := &resolver{idx: idx, collecting: true}
	r.walk(start)
	return r.results
}

// LayerRegions resolves start with [Reclr].
//
// A node is expected to lie either directly in regions or in layers of
// regions, never both. LayerRegions checks this against the nodes start is
// directly internalIn, endsIn or fasciculatesIn and returns an
// ErrCodeOntologyShape error when both forms are present.
func LayerRegions(b blob.Blob, start string) (ResolvedNode, error) {
	return layerRegions(newIndex(b), start)
}

func layerRegions(idx *index, start string) (ResolvedNode, error) {
	direct := idx.objects(start, InternalIn, EndsIn, FasciculatesIn)

	var layers, regions, layerRegs []string
	for _, d := range direct {
		if idx.layers[d] {
			layers = append(layers, idx.objects(d, externals...)...)
		} else {
			regions = append(regions, idx.objects(d, externals...)...)
		}
	}
	if len(layers) > 0 {
		for _, d := range direct {
			for _, l := range idx.objects(d, LayerIn) {
				if !idx.layers[l] {
					layerRegs = append(layerRegs, idx.objects(l, externals...)...)
				}
			}
		}
	}

	if len(layerRegs) > 0 && len(regions) > 0 {
		return ResolvedNode{}, errors.New(errors.ErrCodeOntologyShape,
			"%s lies both in layers of %v and directly in %v", start, layerRegs, regions)
	}
	return ResolvedNode{ID: start, Pairs: reclr(idx, start)}, nil
}
