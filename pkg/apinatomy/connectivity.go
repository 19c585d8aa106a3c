package apinatomy

import (
	"slices"

	"github.com/matzehuels/mapknowledge/pkg/blob"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
)

// hop is a next or next* edge with both ends resolved.
type hop [2]ResolvedNode

func compareHops(a, b hop) int {
	if c := CompareResolved(a[0], b[0]); c != 0 {
		return c
	}
	return CompareResolved(a[1], b[1])
}

// ParseConnectivity derives the connectivity of the neuron path described by
// data.
//
// The blob is deblobbed, every next and next* edge is resolved at both ends
// with [LayerRegions], and each edge whose ends resolve to different
// non-empty layer regions becomes a connectivity pair. Axons and dendrites
// are the terminal regions of the path's axon and dendrite processes.
//
// A blob without lyphs edges has no path and yields empty lists. The only
// error is an ErrCodeOntologyShape error from [LayerRegions].
func ParseConnectivity(data blob.Blob) (knowledge.Connectivity, error) {
	b := Deblob(data, DeblobOptions{}).Blob
	idx := newIndex(b)

	resolved := make(map[string]ResolvedNode)
	resolve := func(id string) (ResolvedNode, error) {
		if rn, ok := resolved[id]; ok {
			return rn, nil
		}
		rn, err := layerRegions(idx, id)
		if err != nil {
			return ResolvedNode{}, err
		}
		resolved[id] = rn
		return rn, nil
	}

	var hops []hop
	for _, h := range pathHops(b) {
		from, err := resolve(h.Sub)
		if err != nil {
			return knowledge.Connectivity{}, err
		}
		to, err := resolve(h.Obj)
		if err != nil {
			return knowledge.Connectivity{}, err
		}
		hops = append(hops, hop{from, to})
	}
	slices.SortFunc(hops, compareHops)
	hops = slices.CompactFunc(hops, func(a, b hop) bool { return compareHops(a, b) == 0 })

	pairs := []knowledge.ConnectivityPair{}
	for _, h := range hops {
		from, to := h[0].Pairs, h[1].Pairs
		if len(from) == 0 || len(to) == 0 || slices.Equal(from, to) {
			continue
		}
		pairs = append(pairs, knowledge.ConnectivityPair{anatomicalNode(from), anatomicalNode(to)})
	}
	slices.SortFunc(pairs, knowledge.ComparePairs)
	pairs = slices.CompactFunc(pairs, func(a, b knowledge.ConnectivityPair) bool {
		return knowledge.ComparePairs(a, b) == 0
	})

	return knowledge.Connectivity{
		Axons:        terminalIDs(b, Axon),
		Dendrites:    terminalIDs(b, Dendrite),
		Connectivity: pairs,
	}, nil
}

// pathHops returns the next and next* edges of b, once for each lyphs edge
// that starts a path. Hops are not restricted to those reachable from the
// start, so a blob holding several paths yields every hop for each of them.
func pathHops(b blob.Blob) []blob.Edge {
	var hops []blob.Edge
	for _, s := range b.Edges {
		if s.Pred != Lyphs {
			continue
		}
		hops = append(hops, b.EdgesWith(Next, NextS)...)
	}
	return hops
}

// anatomicalNode folds resolved layer regions into one anatomical node. The
// first pair names the structure; every other term found along the climb is
// a layer unless it is one of [ExcludedLayers].
func anatomicalNode(pairs []LayerRegion) knowledge.AnatomicalNode {
	var n knowledge.AnatomicalNode
	first := pairs[0]
	if first.Layer == "" {
		n.ID = first.Region
	} else {
		n.ID = first.Layer
		n.Layers = appendLayer(n.Layers, first.Region)
	}
	for _, p := range pairs[1:] {
		n.Layers = appendLayer(n.Layers, p.Layer)
		n.Layers = appendLayer(n.Layers, p.Region)
	}
	return n
}

func appendLayer(layers []string, l string) []string {
	if slices.Contains(ExcludedLayers, l) {
		return layers
	}
	return append(layers, l)
}
