package apinatomy

import (
	"reflect"
	"testing"

	"github.com/matzehuels/mapknowledge/pkg/blob"
)

func nodeIDs(nodes []blob.Node) []string {
	var ids []string
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestFindTerminals(t *testing.T) {
	b := graphOf(
		edge("T", InheritedExternalS, Axon),
		edge("U", InheritedExternalS, Axon),
		edge("V", InheritedExternalS, Dendrite),
	)
	for i := range b.Nodes {
		if b.Nodes[i].ID == "T" || b.Nodes[i].ID == "V" {
			b.Nodes[i].Topology = BAG
		}
	}

	got := FindTerminals(b, Axon)
	if want := []blob.Key{{Sub: "T", Pred: InheritedExternalS, Obj: Axon}}; !reflect.DeepEqual(keysOf(got), want) {
		t.Errorf("FindTerminals(axon) = %v, want %v", keysOf(got), want)
	}
	if got := FindTerminals(b, Dendrite); len(got) != 1 || got[0].Sub != "V" {
		t.Errorf("FindTerminals(dendrite) = %v", got)
	}
}

func TestFindRegion(t *testing.T) {
	b := graphOf(
		edge("T", LayerIn, "W"),
		edge("T", EndsIn, "E"),
		edge("W", OntologyTerms, "R1"),
		edge("W", LayerIn, "Above"),
		edge("Above", OntologyTerms, "R0"),
		edge("E", FasciculatesIn, "F"),
		edge("F", OntologyTerms, "R2"),
	)
	got := FindRegion(b, edge("T", InheritedExternalS, Axon))
	if want := []string{"R1", "R2"}; !reflect.DeepEqual(nodeIDs(got), want) {
		t.Errorf("FindRegion() = %v, want %v", nodeIDs(got), want)
	}
}

func TestFindTerminalRegions(t *testing.T) {
	b := Deblob(axonTerminal(), DeblobOptions{}).Blob

	if got := nodeIDs(FindTerminalRegions(b, Axon)); !reflect.DeepEqual(got, []string{"R"}) {
		t.Errorf("FindTerminalRegions(axon) = %v, want [R]", got)
	}
	if got := FindTerminalRegions(b, Dendrite); len(got) != 0 {
		t.Errorf("FindTerminalRegions(dendrite) = %v, want none", nodeIDs(got))
	}
}
