package render

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/mapknowledge/pkg/apinatomy"
	"github.com/matzehuels/mapknowledge/pkg/blob"
)

// Options configures DOT generation.
type Options struct {
	// Title is drawn above the graph when set.
	Title string

	// Detailed adds each node's label and metadata below its id.
	Detailed bool

	// EdgeLabels writes each edge's predicate on the edge.
	EdgeLabels bool
}

// topologyShapes maps lyph topologies to Graphviz node shapes.
var topologyShapes = map[string]string{
	apinatomy.BAG:    "house",
	"apinatomy:BAG2": "doublecircle",
	"apinatomy:TUBE": "box",
	"apinatomy:CYST": "circle",
}

// ToDOT converts b to Graphviz DOT. Nodes and edges are written in blob
// order, so equal blobs give identical output.
func ToDOT(b blob.Blob, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", opts.Title)
	}
	buf.WriteString("\n")

	for _, n := range b.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range b.Edges {
		attrs := edgeAttrs(e.Pred)
		if opts.EdgeLabels {
			attrs = append(attrs, fmt.Sprintf("label=%q", shortPred(e.Pred)))
		}
		fmt.Fprintf(&buf, "  %q -> %q", e.Sub, e.Obj)
		if len(attrs) > 0 {
			fmt.Fprintf(&buf, " [%s]", strings.Join(attrs, ", "))
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n blob.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n, detailed))}
	if shape, ok := topologyShapes[n.Topology]; ok && shape != "box" {
		attrs = append(attrs, "shape="+shape)
	}
	if n.Topology == apinatomy.BAG {
		attrs = append(attrs, "fillcolor=lightyellow")
	}
	if isOntologyTerm(n.ID) {
		attrs = append(attrs, "style=\"filled\"", "fillcolor=lightblue")
	}
	return attrs
}

// isOntologyTerm reports whether id is in a known ontology namespace, as
// opposed to a model-local lyph.
func isOntologyTerm(id string) bool {
	prefix := blob.Prefix(id)
	_, known := blob.Namespaces[prefix]
	return known && prefix != "apinatomy"
}

func nodeLabel(n blob.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	parts := []string{n.ID}
	if n.Label != "" {
		parts = append(parts, n.Label)
	}
	if n.Topology != "" {
		parts = append(parts, "topology: "+shortPred(n.Topology))
	}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	return strings.Join(parts, "\n")
}

func edgeAttrs(pred string) []string {
	switch pred {
	case apinatomy.Next, apinatomy.NextS:
		return []string{"style=bold"}
	case apinatomy.LayerIn, apinatomy.FasciculatesIn, apinatomy.EndsIn, apinatomy.InternalIn:
		return []string{"style=dashed", "constraint=false"}
	case apinatomy.OntologyTerms, apinatomy.InheritedExternal, apinatomy.InheritedExternalS:
		return []string{"style=dotted", "color=blue", "constraint=false"}
	}
	return []string{"color=grey"}
}

func shortPred(pred string) string {
	_, local, ok := strings.Cut(pred, ":")
	if !ok {
		return pred
	}
	return local
}
