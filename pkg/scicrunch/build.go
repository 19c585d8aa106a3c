package scicrunch

import (
	"context"

	"github.com/matzehuels/mapknowledge/pkg/blob"
	"github.com/matzehuels/mapknowledge/pkg/errors"
)

const (
	buildQuery = "MATCH (p)-[i:build:id]-(), (p)-[e]-() RETURN i, e"
	buildNode  = "build:prov"

	releaseURL = "https://github.com/SciCrunch/NIF-Ontology/releases/tag/sckan-"
	historyURL = "https://github.com/SciCrunch/sparc-curation/blob/master/docs/sckan/CHANGELOG.org#"
)

// BuildInfo describes the SCKAN build behind a SciGraph release.
type BuildInfo struct {
	Created  string `json:"created"`
	Released string `json:"released"`
	Release  string `json:"release"`
	History  string `json:"history"`
}

// Source is the knowledge source id records of this build are stored under.
func (b BuildInfo) Source() string { return "sckan-" + b.Released }

// Build returns the provenance of the release's SCKAN build.
func (c *Client) Build(ctx context.Context) (BuildInfo, error) {
	data, err := c.Query(ctx, buildQuery, nil)
	if err != nil {
		return BuildInfo{}, err
	}
	return parseBuild(data)
}

// Source returns the knowledge source of the release's current build, or ""
// when the client is disabled.
func (c *Client) Source(ctx context.Context) (string, error) {
	if !c.Enabled() {
		return "", nil
	}
	info, err := c.Build(ctx)
	if err != nil {
		return "", err
	}
	return info.Source(), nil
}

func parseBuild(data blob.Blob) (BuildInfo, error) {
	n, ok := data.Node(buildNode)
	if !ok {
		return BuildInfo{}, errors.New(errors.ErrCodeNotFound, "no %s node in build query result", buildNode)
	}
	dates := n.Meta.Strings(blob.Expand("ilxtr:build/date"))
	if len(dates) == 0 {
		return BuildInfo{}, errors.New(errors.ErrCodeNotFound, "build has no release date")
	}
	info := BuildInfo{
		Released: dates[0],
		Release:  releaseURL + dates[0],
		History:  historyURL + dates[0],
	}
	if created := n.Meta.Strings(blob.Expand("ilxtr:build/datetime")); len(created) > 0 {
		info.Created = created[0]
	}
	return info, nil
}

// ModelInfo is the label and version of an ApiNATOMY model.
type ModelInfo struct {
	Label   string `json:"label"`
	Version string `json:"version"`
}

// ConnectivityModels returns the versioned ApiNATOMY models of the release,
// keyed by model IRI. A disabled client returns no models.
func (c *Client) ConnectivityModels(ctx context.Context) (map[string]ModelInfo, error) {
	models := map[string]ModelInfo{}
	if !c.Enabled() {
		return models, nil
	}
	var data blob.Blob
	if err := c.get(ctx, c.apinatAPI()+"/graphList.json", &data); err != nil {
		return nil, err
	}
	return parseModels(data), nil
}

func parseModels(data blob.Blob) map[string]ModelInfo {
	uris := map[string]string{}
	for _, e := range data.EdgesWith("apinatomy:hasGraph") {
		uris[e.Obj] = e.Sub
	}
	models := map[string]ModelInfo{}
	versionKey := blob.Expand("apinatomy:version")
	for _, n := range data.Nodes {
		version := n.Meta.Strings(versionKey)
		uri, ok := uris[n.ID]
		if len(version) == 0 || !ok {
			continue
		}
		models[uri] = ModelInfo{Label: n.Label, Version: version[0]}
	}
	return models
}
