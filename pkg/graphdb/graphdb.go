// Package graphdb runs Cypher queries directly against a Neo4j-compatible
// graph database holding SciGraph data, returning results as blobs.
//
// It is an alternative to the SciCrunch HTTP API for deployments with their
// own copy of the SCKAN graph.
package graphdb

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/matzehuels/mapknowledge/pkg/apinatomy"
	"github.com/matzehuels/mapknowledge/pkg/blob"
	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
)

// Node properties with a fixed meaning.
const (
	PropIRI   = "iri"
	PropLabel = "rdfs:label"
)

// Options locates the database.
type Options struct {
	URI      string
	User     string
	Password string
	Database string
	Logger   *log.Logger
}

// Client is a connection to the graph database.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *log.Logger
}

// New connects to the database and verifies it can be reached.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no graph database URI")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	auth := neo4j.NoAuth()
	if opts.User != "" {
		auth = neo4j.BasicAuth(opts.User, opts.Password, "")
	}
	driver, err := neo4j.NewDriverWithContext(opts.URI, auth)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "graph database driver")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to %s", opts.URI)
	}
	opts.Logger.Debug("connected to graph database", "uri", opts.URI)
	return &Client{driver: driver, database: opts.Database, logger: opts.Logger}, nil
}

// Close closes the connection.
func (c *Client) Close(ctx context.Context) error { return c.driver.Close(ctx) }

// Query runs cypher and collects every node, relationship and path it
// returns into a blob.
func (c *Client) Query(ctx context.Context, cypher string, params map[string]any) (blob.Blob, error) {
	var opts []neo4j.ExecuteQueryConfigurationOption
	if c.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(c.database))
	}
	result, err := neo4j.ExecuteQuery(ctx, c.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return blob.Blob{}, errors.Wrap(errors.ErrCodeNetwork, err, "cypher query failed")
	}
	var rs resultSet
	for _, rec := range result.Records {
		for _, v := range rec.Values {
			rs.add(v)
		}
	}
	b := rs.blob()
	c.logger.Debug("cypher query", "nodes", len(b.Nodes), "edges", len(b.Edges))
	return b, nil
}

// ModelKnowledge lists the neuron paths of an ApiNATOMY model.
func (c *Client) ModelKnowledge(ctx context.Context, model string) (knowledge.Record, error) {
	if err := errors.ValidateEntity(model); err != nil {
		return knowledge.Record{}, err
	}
	data, err := c.Query(ctx, apinatomy.NeuronsForModelCypher(model), nil)
	if err != nil {
		return knowledge.Record{}, err
	}
	return apinatomy.ModelKnowledge(model, data), nil
}

// resultSet accumulates graph values from query records. Relationship
// endpoints are stored as element ids and resolved to node ids when the
// blob is built.
type resultSet struct {
	nodes map[string]blob.Node // by element id
	rels  map[string]neo4j.Relationship
}

func (rs *resultSet) add(v any) {
	if rs.nodes == nil {
		rs.nodes = map[string]blob.Node{}
		rs.rels = map[string]neo4j.Relationship{}
	}
	switch x := v.(type) {
	case neo4j.Node:
		rs.nodes[x.ElementId] = nodeFromGraph(x)
	case neo4j.Relationship:
		rs.rels[x.ElementId] = x
	case neo4j.Path:
		for _, n := range x.Nodes {
			rs.add(n)
		}
		for _, r := range x.Relationships {
			rs.add(r)
		}
	case []any:
		for _, y := range x {
			rs.add(y)
		}
	}
}

func (rs *resultSet) blob() blob.Blob {
	var b blob.Blob
	for _, n := range rs.nodes {
		b.Nodes = append(b.Nodes, n)
	}
	slices.SortFunc(b.Nodes, func(x, y blob.Node) int { return cmp.Compare(x.ID, y.ID) })

	id := func(elementID string) string {
		if n, ok := rs.nodes[elementID]; ok {
			return n.ID
		}
		return elementID
	}
	for _, r := range rs.rels {
		e := blob.TripleFromRDF(blob.RDFTriple{blob.IRI(id(r.StartElementId)), r.Type, blob.IRI(id(r.EndElementId))}).Edge()
		if len(r.Props) > 0 {
			e.Meta = blob.Meta(maps.Clone(r.Props))
		}
		b.Edges = append(b.Edges, e)
	}
	slices.SortFunc(b.Edges, blob.CompareEdges)
	return b
}

// nodeFromGraph converts a database node: its IRI, compacted, becomes the
// id and its label the blob label. Other properties become metadata, with
// the node's labels under "types".
func nodeFromGraph(n neo4j.Node) blob.Node {
	out := blob.Node{ID: n.ElementId, Meta: blob.Meta{}}
	for k, v := range n.Props {
		switch k {
		case PropIRI:
			out.ID = blob.Compact(fmt.Sprint(v))
		case PropLabel:
			out.Label = firstString(v)
		default:
			out.Meta[k] = v
		}
	}
	if len(n.Labels) > 0 {
		types := make([]any, len(n.Labels))
		for i, l := range n.Labels {
			types[i] = l
		}
		out.Meta["types"] = types
	}
	if len(out.Meta) == 0 {
		out.Meta = nil
	}
	return out
}

func firstString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		if len(x) > 0 {
			return fmt.Sprint(x[0])
		}
	case []string:
		if len(x) > 0 {
			return x[0]
		}
	}
	return ""
}
