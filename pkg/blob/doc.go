// Package blob models the knowledge-graph fragments exchanged between the
// processing stages of mapknowledge.
//
// # Overview
//
// A [Blob] is the node and edge document returned by one Cypher query against
// a SciGraph-style knowledge service. Nodes are ontology terms identified by
// CURIEs such as "UBERON:0001021"; edges are predicate-labelled facts between
// them, for example
//
//	{"sub": "ilxtr:neuron-type-1", "pred": "apinatomy:annotates", "obj": "..."}
//
// Edges are compared structurally: two edges are the same fact when subject,
// predicate and object match, regardless of any attached metadata. See
// [Edge.Key] and [Blob.Dedupe].
//
// # Triples
//
// [Triple] converts between edge records and RDF-style triples so graph
// algorithms can work on (subject, predicate, object) tuples and hand the
// original record back afterwards.
//
// # Value Semantics
//
// Processing stages never mutate the blob they are given. They call
// [Blob.Clone] and return the transformed copy.
package blob
