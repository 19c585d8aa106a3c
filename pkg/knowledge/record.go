package knowledge

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// AnatomicalNode is a point on a neuron path: an anatomical structure and the
// layers within it, outer to inner, that the path passes through. It encodes
// as the JSON pair [id, [layer, ...]].
type AnatomicalNode struct {
	ID     string
	Layers []string
}

// MarshalJSON encodes n as [id, [layers...]].
func (n AnatomicalNode) MarshalJSON() ([]byte, error) {
	layers := n.Layers
	if layers == nil {
		layers = []string{}
	}
	return json.Marshal([]any{n.ID, layers})
}

// UnmarshalJSON decodes the [id, [layers...]] form.
func (n *AnatomicalNode) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("anatomical node: want [id, layers], got %d elements", len(raw))
	}
	var node AnatomicalNode
	if err := json.Unmarshal(raw[0], &node.ID); err != nil {
		return fmt.Errorf("anatomical node id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &node.Layers); err != nil {
		return fmt.Errorf("anatomical node layers: %w", err)
	}
	if len(node.Layers) == 0 {
		node.Layers = nil
	}
	*n = node
	return nil
}

// Features returns the node's structure followed by its layers.
func (n AnatomicalNode) Features() []string {
	return append([]string{n.ID}, n.Layers...)
}

// String renders n as id or id[layer,...].
func (n AnatomicalNode) String() string {
	if len(n.Layers) == 0 {
		return n.ID
	}
	return n.ID + "[" + strings.Join(n.Layers, ",") + "]"
}

// Equal reports whether a and b name the same structure and layers.
func (n AnatomicalNode) Equal(o AnatomicalNode) bool {
	return n.ID == o.ID && slices.Equal(n.Layers, o.Layers)
}

// CompareNodes orders nodes by ID, then by layers.
func CompareNodes(a, b AnatomicalNode) int {
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return slices.Compare(a.Layers, b.Layers)
}

// ConnectivityPair is one directed hop of a neuron path.
type ConnectivityPair [2]AnatomicalNode

// ComparePairs orders pairs by their first node, then their second.
func ComparePairs(a, b ConnectivityPair) int {
	if c := CompareNodes(a[0], b[0]); c != 0 {
		return c
	}
	return CompareNodes(a[1], b[1])
}

// Connectivity is the structure of one neuron path: its axon and dendrite
// terminal regions and the hops between anatomical nodes.
type Connectivity struct {
	Axons        []string           `json:"axons"`
	Dendrites    []string           `json:"dendrites"`
	Connectivity []ConnectivityPair `json:"connectivity"`
}

// Nodes returns the distinct nodes named by c's hops, sorted.
func (c Connectivity) Nodes() []AnatomicalNode {
	var nodes []AnatomicalNode
	for _, pair := range c.Connectivity {
		for _, n := range pair {
			if !slices.ContainsFunc(nodes, n.Equal) {
				nodes = append(nodes, n)
			}
		}
	}
	slices.SortFunc(nodes, CompareNodes)
	return nodes
}

// PathRef links a model to one of the neuron paths it defines.
type PathRef struct {
	ID     string `json:"id"`
	Models string `json:"models"`
}

// Record is the knowledge held about one entity: a neuron path, an ApiNATOMY
// model or a plain anatomical term.
//
// Neuron records carry a non-nil Connectivity; its fields are then always
// encoded, possibly as empty lists. Model records list their Paths. Term
// records have only an ID and a Label.
type Record struct {
	ID         string   `json:"id"`
	Label      string   `json:"label,omitempty"`
	LongLabel  string   `json:"long-label,omitempty"`
	References []string `json:"references,omitempty"`

	*Connectivity

	Paths      []PathRef `json:"paths,omitempty"`
	Phenotypes []string  `json:"phenotypes,omitempty"`

	Source             string                      `json:"source,omitempty"`
	Type               string                      `json:"type,omitempty"`
	Taxons             []string                    `json:"taxons,omitempty"`
	ForwardConnections []string                    `json:"forward-connections,omitempty"`
	NodePhenotypes     map[string][]AnatomicalNode `json:"node-phenotypes,omitempty"`
	Nerves             []AnatomicalNode            `json:"nerves,omitempty"`
	BiologicalSex      string                      `json:"biologicalSex,omitempty"`
	Alert              string                      `json:"alert,omitempty"`
	PathDisconnected   *bool                       `json:"pathDisconnected,omitempty"`
}

// IsEmpty reports whether r carries nothing beyond its ID.
func (r Record) IsEmpty() bool {
	return r.Label == "" && r.Connectivity == nil && len(r.Paths) == 0
}

// DefaultTaxon is assumed for paths that do not name a species.
const DefaultTaxon = "NCBITaxon:40674"

// SpeciesTaxons returns r.Taxons, or [DefaultTaxon] when none are recorded.
func (r Record) SpeciesTaxons() []string {
	if len(r.Taxons) == 0 {
		return []string{DefaultTaxon}
	}
	return r.Taxons
}
