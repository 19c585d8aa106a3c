// Package simplify collapses chains of ontology edges into single edges.
//
// # Overview
//
// Ontology exports spell many relations as multi-hop chains. A path segment
// that is a "bag" terminal, for example, is recorded as
//
//	lyph -conveyingLyph-> link -topology-> BAG
//
// while downstream code wants the single fact lyph -topology*-> BAG.
// [Collapse] takes a list of [Pattern] values, finds every chain whose
// predicates follow a pattern along one directed path, and replaces it with
// an edge labelled by the joined predicates.
//
// Matching is path exact: predicates that merely co-occur in one connected
// component are not merged. Components containing a directed cycle are
// skipped and reported in [Result.CyclicComponents].
package simplify
