// Package knowledge defines the knowledge records produced for neuron paths,
// ApiNATOMY models and anatomical terms, and the batch format used to move
// them between stores.
//
// A neuron [Record] carries its [Connectivity]: pairs of [AnatomicalNode]
// values, each encoded as [id, [layers...]], for example
//
//	{
//	  "id": "ilxtr:neuron-type-keast-1",
//	  "axons": ["UBERON:0001255"],
//	  "dendrites": [],
//	  "connectivity": [[["UBERON:0016508", []], ["UBERON:0001255", ["UBERON:0000416"]]]]
//	}
package knowledge
