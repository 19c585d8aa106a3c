// Package scicrunch looks up anatomical knowledge in SciCrunch's SciGraph
// service, the host of the SCKAN connectivity knowledge base.
//
// # Lookups
//
// [Client.Knowledge] dispatches on the entity's CURIE prefix:
//
//   - ILX and NLX terms are labelled from InterLex
//   - ilxtr neuron populations are fetched with the connectivity query and
//     parsed by [apinatomy.NeuronKnowledge]
//   - ApiNATOMY model IRIs list their paths with [apinatomy.ModelKnowledge]
//   - anything else is labelled from the SciGraph vocabulary
//
// Every response is cached through a [cache.Cache], and transient failures
// are retried with backoff.
//
// # API key
//
// SciCrunch requires an API key, taken from [Options.APIKey] or the
// SCICRUNCH_API_KEY environment variable. Without one the client logs a
// warning and every lookup comes back empty.
//
// [apinatomy.NeuronKnowledge]: github.com/matzehuels/mapknowledge/pkg/apinatomy.NeuronKnowledge
// [apinatomy.ModelKnowledge]: github.com/matzehuels/mapknowledge/pkg/apinatomy.ModelKnowledge
// [cache.Cache]: github.com/matzehuels/mapknowledge/pkg/cache.Cache
package scicrunch
