package graph

import (
	"slices"
)

// WeakComponents partitions the nodes into weakly connected components, that
// is groups reachable from one another when edge direction is ignored.
//
// Each component lists its nodes sorted by ID. Components are ordered by the
// insertion position of their earliest node, so the result is deterministic
// for a given sequence of AddEdge calls.
func (g *Multigraph) WeakComponents() [][]string {
	visited := make(map[string]bool, len(g.nodes))
	var components [][]string

	for _, root := range g.nodes {
		if visited[root] {
			continue
		}
		visited[root] = true
		var comp []string
		queue := []string{root}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			comp = append(comp, id)
			for _, n := range append(g.Children(id), g.Parents(id)...) {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		slices.Sort(comp)
		components = append(components, comp)
	}
	return components
}

// SimplePaths returns every directed path from source to target that visits
// no node twice and uses at most cutoff edges. A negative cutoff means no
// limit. Each path lists its nodes from source to target.
//
// Paths are discovered depth first following [Multigraph.Children] order.
// Parallel edges do not produce duplicate paths. No paths are returned when
// source equals target or either node is missing.
func (g *Multigraph) SimplePaths(source, target string, cutoff int) [][]string {
	if source == target || !g.HasNode(source) || !g.HasNode(target) {
		return nil
	}
	if cutoff < 0 {
		cutoff = len(g.nodes) - 1
	}
	if cutoff < 1 {
		return nil
	}

	type frame struct {
		children []string
		next     int
	}

	var paths [][]string
	path := []string{source}
	onPath := map[string]bool{source: true}
	stack := []*frame{{children: g.Children(source)}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.children) {
			stack = stack[:len(stack)-1]
			last := path[len(path)-1]
			path = path[:len(path)-1]
			delete(onPath, last)
			continue
		}
		child := top.children[top.next]
		top.next++
		if onPath[child] {
			continue
		}
		if child == target {
			paths = append(paths, append(slices.Clone(path), child))
			continue
		}
		if len(path) < cutoff {
			path = append(path, child)
			onPath[child] = true
			stack = append(stack, &frame{children: g.Children(child)})
		}
	}
	return paths
}
