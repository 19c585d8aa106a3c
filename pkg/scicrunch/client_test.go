package scicrunch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/mapknowledge/pkg/apinatomy"
	"github.com/matzehuels/mapknowledge/pkg/cache"
	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/integrations"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
)

const neuronBlob = `{
	"nodes": [
		{"id": "ilxtr:neuron-type-keast-1", "lbl": "neuron type kblad 1", "meta": {"synonym": ["pelvic ganglion neuron"]}},
		{"id": "A"}, {"id": "B"}, {"id": "C"}, {"id": "X"}, {"id": "Y"},
		{"id": "UBERON:0016508"}, {"id": "UBERON:0001255"}
	],
	"edges": [
		{"sub": "A", "pred": "apinatomy:lyphs", "obj": "B"},
		{"sub": "B", "pred": "apinatomy:next", "obj": "C"},
		{"sub": "B", "pred": "apinatomy:internalIn", "obj": "X"},
		{"sub": "X", "pred": "apinatomy:ontologyTerms", "obj": "UBERON:0016508"},
		{"sub": "C", "pred": "apinatomy:internalIn", "obj": "Y"},
		{"sub": "Y", "pred": "apinatomy:ontologyTerms", "obj": "UBERON:0001255"}
	]
}`

const phenotypeBlob = `{
	"nodes": [{"id": "ilxtr:neuron-type-keast-1"}, {"id": "ilxtr:SympatheticPhenotype"}],
	"edges": [{"sub": "ilxtr:neuron-type-keast-1", "pred": "ilxtr:hasPhenotype", "obj": "ilxtr:SympatheticPhenotype"}]
}`

const buildBlob = `{
	"nodes": [
		{"id": "build:prov", "meta": {
			"http://uri.interlex.org/tgbugs/uris/readable/build/date": ["2024-09-21"],
			"http://uri.interlex.org/tgbugs/uris/readable/build/datetime": ["2024-09-21T13:24:01Z"]
		}},
		{"id": "build:id"}
	],
	"edges": [{"sub": "build:prov", "pred": "build:id", "obj": "build:id"}]
}`

const graphListBlob = `{
	"nodes": [
		{"id": "local:keast", "lbl": "Keast bladder", "meta": {"https://apinatomy.org/uris/readable/version": ["v1.2"]}},
		{"id": "local:orphan", "lbl": "Orphan", "meta": {"https://apinatomy.org/uris/readable/version": ["v0"]}},
		{"id": "local:nover", "lbl": "No version"}
	],
	"edges": [
		{"sub": "https://apinatomy.org/uris/models/keast-bladder", "pred": "apinatomy:hasGraph", "obj": "local:keast"},
		{"sub": "https://apinatomy.org/uris/models/nover", "pred": "apinatomy:hasGraph", "obj": "local:nover"}
	]
}`

const modelBlob = `{
	"nodes": [
		{"id": "ilxtr:neuron-type-keast-1", "meta": {"types": ["Class"]}},
		{"id": "keast:model", "meta": {"types": ["Ontology"]}}
	],
	"edges": []
}`

// fakeSciCrunch serves a canned SciGraph release and counts requests.
type fakeSciCrunch struct {
	*httptest.Server
	requests atomic.Int32
}

func newFakeSciCrunch(t *testing.T) *fakeSciCrunch {
	t.Helper()
	f := &fakeSciCrunch{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		q := r.URL.Query()
		if q.Get("api_key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if q.Get("limit") != "9999" {
			t.Errorf("limit = %q, want 9999", q.Get("limit"))
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		switch p := r.URL.EscapedPath(); p {
		case "/ilx/search/curie/ILX:0793082":
			w.Write([]byte(`{"data": {"label": "pelvic splanchnic nerve"}}`))
		case "/ilx/search/curie/NLX:1":
			w.Write([]byte(`{"data": {}}`))
		case "/sckan-scigraph/vocabulary/id/UBERON:0001255.json":
			w.Write([]byte(`{"labels": ["urinary bladder", "bladder"]}`))
		case "/sckan-scigraph/vocabulary/id/UBERON:9.json":
			w.Write([]byte(`{"labels": []}`))
		case "/sckan-scigraph/dynamic/demos/apinat/neru-7/ilxtr:neuron-type-keast-1.json":
			w.Write([]byte(neuronBlob))
		case "/sckan-scigraph/dynamic/demos/apinat/modelPopulationsReferences/https:%2F%2Fapinatomy.org%2Furis%2Fmodels%2Fkeast-bladder.json":
			w.Write([]byte(modelBlob))
		case "/sckan-scigraph/dynamic/demos/apinat/graphList.json":
			w.Write([]byte(graphListBlob))
		case "/sckan-scigraph/cypher/execute.json":
			switch cypher := q.Get("cypherQuery"); {
			case cypher == buildQuery:
				w.Write([]byte(buildBlob))
			case strings.Contains(cypher, "hasPhenotype"):
				w.Write([]byte(phenotypeBlob))
			default:
				t.Errorf("unexpected cypher %q", cypher)
				w.WriteHeader(http.StatusBadRequest)
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func newTestClient(t *testing.T, f *fakeSciCrunch, key string) *Client {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	client := New(Options{Endpoint: f.URL, APIKey: key, Cache: c})
	client.SetHTTPClient(f.Client())
	return client
}

func TestNewDefaults(t *testing.T) {
	t.Setenv(APIKeyEnv, "from-env")
	c := New(Options{})
	if c.SparcAPI() != DefaultEndpoint+"/"+Production {
		t.Errorf("SparcAPI() = %q", c.SparcAPI())
	}
	if c.Release() != Production {
		t.Errorf("Release() = %q", c.Release())
	}
	if !c.Enabled() {
		t.Error("key from environment should enable the client")
	}

	c = New(Options{Endpoint: "http://example.org/api/", Release: Staging, APIKey: "k"})
	if c.SparcAPI() != "http://example.org/api/"+Staging {
		t.Errorf("SparcAPI() = %q", c.SparcAPI())
	}
}

func TestKnowledge(t *testing.T) {
	f := newFakeSciCrunch(t)
	client := newTestClient(t, f, "secret")

	tests := []struct {
		name   string
		entity string
		want   knowledge.Record
	}{
		{"interlex", "ILX:0793082", knowledge.Record{ID: "ILX:0793082", Label: "pelvic splanchnic nerve"}},
		{"interlex without label", "NLX:1", knowledge.Record{ID: "NLX:1", Label: "NLX:1"}},
		{"vocabulary", "UBERON:0001255", knowledge.Record{ID: "UBERON:0001255", Label: "urinary bladder"}},
		{"vocabulary without label", "UBERON:9", knowledge.Record{ID: "UBERON:9", Label: "UBERON:9"}},
		{"model", apinatomy.ModelPrefix + "keast-bladder", knowledge.Record{
			ID:    apinatomy.ModelPrefix + "keast-bladder",
			Paths: []knowledge.PathRef{{ID: "ilxtr:neuron-type-keast-1", Models: "ilxtr:neuron-type-keast-1"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.Knowledge(context.Background(), tt.entity)
			if err != nil {
				t.Fatalf("Knowledge() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Knowledge() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestKnowledgeNeuron(t *testing.T) {
	f := newFakeSciCrunch(t)
	client := newTestClient(t, f, "secret")

	got, err := client.Knowledge(context.Background(), "ilxtr:neuron-type-keast-1")
	if err != nil {
		t.Fatalf("Knowledge() error: %v", err)
	}
	if got.Label != "pelvic ganglion neuron" || got.LongLabel != "neuron type kblad 1" {
		t.Errorf("labels = %q, %q", got.Label, got.LongLabel)
	}
	want := []knowledge.ConnectivityPair{{{ID: "UBERON:0016508"}, {ID: "UBERON:0001255"}}}
	if got.Connectivity == nil || !reflect.DeepEqual(got.Connectivity.Connectivity, want) {
		t.Errorf("connectivity = %+v, want %v", got.Connectivity, want)
	}
	if !reflect.DeepEqual(got.Phenotypes, []string{"ilxtr:SympatheticPhenotype"}) {
		t.Errorf("phenotypes = %v", got.Phenotypes)
	}
}

func TestKnowledgeCached(t *testing.T) {
	f := newFakeSciCrunch(t)
	client := newTestClient(t, f, "secret")
	ctx := context.Background()

	if _, err := client.Knowledge(ctx, "UBERON:0001255"); err != nil {
		t.Fatal(err)
	}
	before := f.requests.Load()
	if _, err := client.Knowledge(ctx, "UBERON:0001255"); err != nil {
		t.Fatal(err)
	}
	if after := f.requests.Load(); after != before {
		t.Errorf("second lookup made %d requests, want a cache hit", after-before)
	}
}

func TestKnowledgeUnknown(t *testing.T) {
	f := newFakeSciCrunch(t)
	client := newTestClient(t, f, "secret")

	for range 2 {
		got, err := client.Knowledge(context.Background(), "ilxtr:missing")
		if err != nil {
			t.Fatalf("Knowledge() error: %v", err)
		}
		if !got.IsEmpty() || got.ID != "ilxtr:missing" {
			t.Errorf("Knowledge() = %+v, want an empty record", got)
		}
	}
	if got := client.Unknown(); !reflect.DeepEqual(got, []string{"ilxtr:missing"}) {
		t.Errorf("Unknown() = %v", got)
	}
}

func TestKnowledgeDisabled(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	f := newFakeSciCrunch(t)
	client := newTestClient(t, f, "")

	got, err := client.Knowledge(context.Background(), "UBERON:0001255")
	if err != nil {
		t.Fatalf("Knowledge() error: %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("Knowledge() = %+v, want empty without an API key", got)
	}
	if n := f.requests.Load(); n != 0 {
		t.Errorf("disabled client made %d requests", n)
	}
	if _, err := client.Query(context.Background(), "MATCH (n) RETURN n", nil); err != ErrNoAPIKey {
		t.Errorf("Query() error = %v, want ErrNoAPIKey", err)
	}
	if models, err := client.ConnectivityModels(context.Background()); err != nil || len(models) != 0 {
		t.Errorf("ConnectivityModels() = %v, %v", models, err)
	}
}

func TestKnowledgeRejectedKey(t *testing.T) {
	f := newFakeSciCrunch(t)
	client := newTestClient(t, f, "wrong")

	_, err := client.Knowledge(context.Background(), "UBERON:0001255")
	if !errors.Is(err, errors.ErrCodeUnauthorized) {
		t.Errorf("Knowledge() error = %v, want %s", err, errors.ErrCodeUnauthorized)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want errors.Code
	}{
		{integrations.ErrNotFound, errors.ErrCodeNotFound},
		{fmt.Errorf("%w: status 403", integrations.ErrUnauthorized), errors.ErrCodeUnauthorized},
		{fmt.Errorf("%w: %w", integrations.ErrNetwork, &errors.RateLimitedError{RetryAfter: 5}), errors.ErrCodeRateLimited},
		{fmt.Errorf("%w: status 502", integrations.ErrNetwork), errors.ErrCodeNetwork},
	}
	for _, tt := range tests {
		if got := errors.GetCode(classify(tt.err)); got != tt.want {
			t.Errorf("classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
	if err := classify(context.Canceled); err != context.Canceled {
		t.Errorf("classify(context.Canceled) = %v", err)
	}
}

func TestKnowledgeInvalidEntity(t *testing.T) {
	client := New(Options{APIKey: "secret"})
	_, err := client.Knowledge(context.Background(), "not an entity")
	if !errors.Is(err, errors.ErrCodeInvalidEntity) {
		t.Errorf("Knowledge() error = %v, want %s", err, errors.ErrCodeInvalidEntity)
	}
}

func TestBuild(t *testing.T) {
	f := newFakeSciCrunch(t)
	client := newTestClient(t, f, "secret")

	got, err := client.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	want := BuildInfo{
		Created:  "2024-09-21T13:24:01Z",
		Released: "2024-09-21",
		Release:  "https://github.com/SciCrunch/NIF-Ontology/releases/tag/sckan-2024-09-21",
		History:  "https://github.com/SciCrunch/sparc-curation/blob/master/docs/sckan/CHANGELOG.org#2024-09-21",
	}
	if got != want {
		t.Errorf("Build() = %+v, want %+v", got, want)
	}
	if got.Source() != "sckan-2024-09-21" {
		t.Errorf("Source() = %q", got.Source())
	}

	source, err := client.Source(context.Background())
	if err != nil || source != "sckan-2024-09-21" {
		t.Errorf("client.Source() = %q, %v", source, err)
	}
	t.Setenv(APIKeyEnv, "")
	if source, err := newTestClient(t, f, "").Source(context.Background()); err != nil || source != "" {
		t.Errorf("disabled client.Source() = %q, %v", source, err)
	}
}

func TestConnectivityModels(t *testing.T) {
	f := newFakeSciCrunch(t)
	client := newTestClient(t, f, "secret")

	got, err := client.ConnectivityModels(context.Background())
	if err != nil {
		t.Fatalf("ConnectivityModels() error: %v", err)
	}
	want := map[string]ModelInfo{
		"https://apinatomy.org/uris/models/keast-bladder": {Label: "Keast bladder", Version: "v1.2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConnectivityModels() = %v, want %v", got, want)
	}
}
