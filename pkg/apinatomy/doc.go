// Package apinatomy turns ApiNATOMY neuron path blobs into connectivity
// knowledge.
//
// # Pipeline
//
// A path blob, as returned by the knowledge service's connectivity query,
// is first reduced by [Deblob]: multi-hop chains such as
//
//	lyph -conveyingLyph-> link -topology-> BAG
//
// become single next*, topology* and inheritedExternal* edges, duplicates are
// removed and unreferenced nodes pruned.
//
// [LayerRegions] then places each path node in anatomy by climbing its
// layerIn, fasciculatesIn, endsIn and internalIn edges to ontology terms,
// and [FindTerminalRegions] locates where axons and dendrites end.
// [ParseConnectivity] combines both into a [knowledge.Connectivity].
//
// # Entry points
//
// [NeuronKnowledge], [ModelKnowledge] and [Phenotypes] build knowledge
// records from query results. [NeuronsForModelCypher] and
// [PhenotypeForNeuronCypher] produce the queries they read.
//
// Every function is pure: blobs are taken by value and never modified, and
// results are sorted wherever their order would otherwise depend on map
// iteration.
package apinatomy
