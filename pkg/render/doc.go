// Package render draws deblobbed neuron-path blobs as node-link diagrams.
//
// [ToDOT] converts a blob to Graphviz DOT. Path ordering edges (next and
// next*) are drawn bold and define the ranks; structural edges (layerIn,
// internalIn, ...) are dashed, and ontology links are dotted. A node's
// topology sets its shape, so terminal BAG lyphs stand out:
//
//	d := apinatomy.Deblob(b, apinatomy.DeblobOptions{RemoveConvergence: true})
//	dot := render.ToDOT(d.Blob, render.Options{})
//	svg, err := render.Render(ctx, dot, render.FormatSVG)
//
// [Render] runs Graphviz in-process through go-graphviz; no external
// binaries are needed.
package render
