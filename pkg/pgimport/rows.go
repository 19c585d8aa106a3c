package pgimport

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/matzehuels/mapknowledge/pkg/knowledge"
)

// NerveType is the anatomical type recorded for a path's nerves.
const NerveType = "UBERON:0001021"

// NodePhenotypes are the per-node phenotype relations of a path.
var NodePhenotypes = []string{
	"ilxtr:hasSomaLocatedIn",
	"ilxtr:hasAxonPresynapticElementIn",
	"ilxtr:hasAxonSensorySubcellularElementIn",
	"ilxtr:hasAxonLeadingToSensorySubcellularElementIn",
	"ilxtr:hasAxonLocatedIn",
	"ilxtr:hasDendriteLocatedIn",
}

// AnatomicalTypes are the node type ids every database must know.
func AnatomicalTypes() []string {
	return append(slices.Clone(NodePhenotypes), NerveType)
}

type anatomicalType struct {
	TypeID string `gorm:"column:type_id"`
	Label  string `gorm:"column:label"`
}

func (anatomicalType) TableName() string { return "anatomical_types" }

type knowledgeSource struct {
	SourceID string `gorm:"column:source_id"`
}

func (knowledgeSource) TableName() string { return "knowledge_sources" }

type featureTerm struct {
	SourceID    string  `gorm:"column:source_id"`
	TermID      string  `gorm:"column:term_id"`
	Label       *string `gorm:"column:label"`
	Description *string `gorm:"column:description"`
}

func (featureTerm) TableName() string { return "feature_terms" }

type featureType struct {
	SourceID string `gorm:"column:source_id"`
	TermID   string `gorm:"column:term_id"`
	TypeID   string `gorm:"column:type_id"`
}

func (featureType) TableName() string { return "feature_types" }

type taxon struct {
	TaxonID string `gorm:"column:taxon_id"`
}

func (taxon) TableName() string { return "taxons" }

type pathTaxon struct {
	SourceID string `gorm:"column:source_id"`
	PathID   string `gorm:"column:path_id"`
	TaxonID  string `gorm:"column:taxon_id"`
}

func (pathTaxon) TableName() string { return "path_taxons" }

type evidence struct {
	EvidenceID string `gorm:"column:evidence_id"`
}

func (evidence) TableName() string { return "evidence" }

type featureEvidence struct {
	SourceID   string `gorm:"column:source_id"`
	TermID     string `gorm:"column:term_id"`
	EvidenceID string `gorm:"column:evidence_id"`
}

func (featureEvidence) TableName() string { return "feature_evidence" }

type pathNode struct {
	SourceID string `gorm:"column:source_id"`
	PathID   string `gorm:"column:path_id"`
	NodeID   string `gorm:"column:node_id"`
}

func (pathNode) TableName() string { return "path_nodes" }

type pathNodeFeature struct {
	SourceID  string `gorm:"column:source_id"`
	PathID    string `gorm:"column:path_id"`
	NodeID    string `gorm:"column:node_id"`
	FeatureID string `gorm:"column:feature_id"`
}

func (pathNodeFeature) TableName() string { return "path_node_features" }

type pathEdge struct {
	SourceID string `gorm:"column:source_id"`
	PathID   string `gorm:"column:path_id"`
	Node0    string `gorm:"column:node_0"`
	Node1    string `gorm:"column:node_1"`
}

func (pathEdge) TableName() string { return "path_edges" }

type pathFeature struct {
	SourceID  string `gorm:"column:source_id"`
	PathID    string `gorm:"column:path_id"`
	FeatureID string `gorm:"column:feature_id"`
}

func (pathFeature) TableName() string { return "path_features" }

type forwardConnection struct {
	SourceID      string `gorm:"column:source_id"`
	PathID        string `gorm:"column:path_id"`
	ForwardPathID string `gorm:"column:forward_path_id"`
}

func (forwardConnection) TableName() string { return "path_forward_connections" }

type pathNodeType struct {
	SourceID string `gorm:"column:source_id"`
	PathID   string `gorm:"column:path_id"`
	NodeID   string `gorm:"column:node_id"`
	TypeID   string `gorm:"column:type_id"`
}

func (pathNodeType) TableName() string { return "path_node_types" }

type pathPhenotype struct {
	SourceID  string `gorm:"column:source_id"`
	PathID    string `gorm:"column:path_id"`
	Phenotype string `gorm:"column:phenotype"`
}

func (pathPhenotype) TableName() string { return "path_phenotypes" }

type pathProperties struct {
	SourceID      string  `gorm:"column:source_id"`
	PathID        string  `gorm:"column:path_id"`
	BiologicalSex *string `gorm:"column:biological_sex"`
	Alert         *string `gorm:"column:alert"`
	Disconnected  *bool   `gorm:"column:disconnected"`
}

func (pathProperties) TableName() string { return "path_properties" }

// sourceTables are cleared, in this order, before a source is imported.
var sourceTables = []string{
	"path_taxons",
	"feature_evidence",
	"path_edges",
	"path_features",
	"path_node_features",
	"path_forward_connections",
	"path_node_types",
	"path_phenotypes",
	"path_properties",
	"path_nodes",
	"feature_types",
	"feature_terms",
}

// NodeID is the key of an anatomical node in the path tables: its
// [id, [layers...]] form written with ", " separators.
func NodeID(n knowledge.AnatomicalNode) string {
	layers := make([]string, len(n.Layers))
	for i, l := range n.Layers {
		layers[i] = quote(l)
	}
	return "[" + quote(n.ID) + ", [" + strings.Join(layers, ", ") + "]]"
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// featureRows are the term rows of one record.
type featureRows struct {
	term  featureTerm
	types []featureType
}

func buildFeatureRows(source string, rec knowledge.Record) featureRows {
	rows := featureRows{term: featureTerm{
		SourceID:    source,
		TermID:      rec.ID,
		Label:       optional(rec.Label),
		Description: optional(rec.LongLabel),
	}}
	if rec.Type != "" {
		rows.types = append(rows.types, featureType{SourceID: source, TermID: rec.ID, TypeID: rec.Type})
	}
	return rows
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// pathRows are the rows describing one neuron path.
type pathRows struct {
	taxons       []taxon
	pathTaxons   []pathTaxon
	evidence     []evidence
	pathEvidence []featureEvidence
	nodes        []pathNode
	nodeFeatures []pathNodeFeature
	edges        []pathEdge
	features     []pathFeature
	forward      []forwardConnection
	nodeTypes    []pathNodeType
	phenotypes   []pathPhenotype
	properties   pathProperties
}

// buildPathRows derives the path tables' rows from a record with
// connectivity. Set-valued rows come out sorted.
func buildPathRows(source string, rec knowledge.Record) pathRows {
	path := rec.ID
	var rows pathRows

	for _, t := range rec.SpeciesTaxons() {
		rows.taxons = append(rows.taxons, taxon{TaxonID: t})
		rows.pathTaxons = append(rows.pathTaxons, pathTaxon{SourceID: source, PathID: path, TaxonID: t})
	}
	for _, ref := range rec.References {
		rows.evidence = append(rows.evidence, evidence{EvidenceID: ref})
		rows.pathEvidence = append(rows.pathEvidence, featureEvidence{SourceID: source, TermID: path, EvidenceID: ref})
	}

	nodes := map[string]knowledge.AnatomicalNode{}
	for _, pair := range rec.Connectivity.Connectivity {
		n0, n1 := NodeID(pair[0]), NodeID(pair[1])
		nodes[n0], nodes[n1] = pair[0], pair[1]
		rows.edges = append(rows.edges, pathEdge{SourceID: source, PathID: path, Node0: n0, Node1: n1})
	}

	features := map[string]bool{}
	for _, id := range sortedKeys(nodes) {
		rows.nodes = append(rows.nodes, pathNode{SourceID: source, PathID: path, NodeID: id})
		seen := map[string]bool{}
		for _, f := range nodes[id].Features() {
			if seen[f] {
				continue
			}
			seen[f] = true
			features[f] = true
			rows.nodeFeatures = append(rows.nodeFeatures, pathNodeFeature{SourceID: source, PathID: path, NodeID: id, FeatureID: f})
		}
	}
	for _, f := range sortedKeys(features) {
		rows.features = append(rows.features, pathFeature{SourceID: source, PathID: path, FeatureID: f})
	}

	for _, fwd := range rec.ForwardConnections {
		rows.forward = append(rows.forward, forwardConnection{SourceID: source, PathID: path, ForwardPathID: fwd})
	}

	for _, typ := range sortedKeys(rec.NodePhenotypes) {
		for _, n := range rec.NodePhenotypes[typ] {
			rows.nodeTypes = append(rows.nodeTypes, pathNodeType{SourceID: source, PathID: path, NodeID: NodeID(n), TypeID: typ})
		}
	}
	for _, n := range rec.Nerves {
		rows.nodeTypes = append(rows.nodeTypes, pathNodeType{SourceID: source, PathID: path, NodeID: NodeID(n), TypeID: NerveType})
	}

	for _, p := range rec.Phenotypes {
		rows.phenotypes = append(rows.phenotypes, pathPhenotype{SourceID: source, PathID: path, Phenotype: p})
	}

	rows.properties = pathProperties{
		SourceID:      source,
		PathID:        path,
		BiologicalSex: optional(rec.BiologicalSex),
		Alert:         optional(rec.Alert),
		Disconnected:  rec.PathDisconnected,
	}
	return rows
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
