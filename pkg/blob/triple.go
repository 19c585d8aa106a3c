package blob

// IRI is an RDF resource identifier. Terms of an [RDFTriple] that are IRIs are
// coerced to plain strings when they enter the graph model.
type IRI string

// RDFTriple is a subject, predicate, object triple in RDF form. Each term is
// either an [IRI] or a plain string.
type RDFTriple [3]any

// Triple is one fact of the graph viewed as an ordered (subject, predicate,
// object) tuple. It converts between the edge records of a [Blob] and RDF
// triples.
//
// No CURIE expansion or compaction happens here: callers that need full IRIs
// must apply [Expand] or [Compact] consistently before constructing triples.
type Triple struct {
	S, P, O string

	edge *Edge
}

// TripleFromEdge builds a triple from an edge record. The record is kept so
// that [Triple.Edge] returns it unchanged, metadata included.
func TripleFromEdge(e Edge) Triple {
	kept := e
	return Triple{S: e.Sub, P: e.Pred, O: e.Obj, edge: &kept}
}

// TripleFromRDF builds a triple from an RDF triple. Note the argument order
// is (subject, predicate, object).
func TripleFromRDF(t RDFTriple) Triple {
	return Triple{S: termString(t[0]), P: termString(t[1]), O: termString(t[2])}
}

func termString(v any) string {
	switch t := v.(type) {
	case IRI:
		return string(t)
	case string:
		return t
	case nil:
		return ""
	default:
		if s, ok := v.(interface{ String() string }); ok {
			return s.String()
		}
		return ""
	}
}

// Tuple returns the triple as (subject, predicate, object).
func (t Triple) Tuple() [3]string { return [3]string{t.S, t.P, t.O} }

// RDF returns the triple with every term typed as an [IRI].
func (t Triple) RDF() RDFTriple { return RDFTriple{IRI(t.S), IRI(t.P), IRI(t.O)} }

// Edge returns the edge record the triple was built from, or a minimal
// record without metadata when it was built from RDF.
func (t Triple) Edge() Edge {
	if t.edge != nil {
		return *t.edge
	}
	return Edge{Sub: t.S, Pred: t.P, Obj: t.O}
}
