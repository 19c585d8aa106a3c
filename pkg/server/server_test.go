package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
	"github.com/matzehuels/mapknowledge/pkg/observability"
	"github.com/matzehuels/mapknowledge/pkg/pipeline"
	"github.com/matzehuels/mapknowledge/pkg/store"
)

const (
	testSource = "sckan-2024-09-21"
	modelIRI   = "https://apinatomy.org/uris/models/keast-bladder"
)

type fakeService struct{}

func (fakeService) Knowledge(_ context.Context, entity string) (knowledge.Record, error) {
	switch entity {
	case "UBERON:0001255":
		return knowledge.Record{ID: entity, Label: "urinary bladder"}, nil
	case modelIRI:
		return knowledge.Record{ID: entity, Label: "Keast bladder",
			Paths: []knowledge.PathRef{{ID: "ilxtr:neuron-type-keast-1", Models: entity}}}, nil
	case "UBERON:0000001":
		return knowledge.Record{}, errors.New(errors.ErrCodeNetwork, "SciCrunch unreachable")
	}
	return knowledge.Record{ID: entity}, nil
}

func (fakeService) Source(context.Context) (string, error) { return testSource, nil }

func newTestServer(t *testing.T) (*httptest.Server, *observability.Collector) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "knowledge.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	metrics := observability.NewCollector("mapknowledge")
	logger := log.New(io.Discard)
	s := New(Options{
		Runner:  pipeline.NewRunner(fakeService{}, st, logger),
		Metrics: metrics,
		Logger:  logger,
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, metrics
}

func get(t *testing.T, ts *httptest.Server, path string, v any) *http.Response {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	var body map[string]string
	resp := get(t, ts, "/healthz", &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz = %d %v", resp.StatusCode, body)
	}
}

func TestKnowledge(t *testing.T) {
	ts, metrics := newTestServer(t)

	var rec knowledge.Record
	resp := get(t, ts, "/knowledge/UBERON:0001255", &rec)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if rec.Label != "urinary bladder" || rec.Source != testSource {
		t.Errorf("record = %+v", rec)
	}
	if got := resp.Header.Get(OriginHeader); got != observability.OriginSciCrunch {
		t.Errorf("%s = %q", OriginHeader, got)
	}

	resp = get(t, ts, "/knowledge/UBERON:0001255", &rec)
	if got := resp.Header.Get(OriginHeader); got != observability.OriginStore {
		t.Errorf("second lookup %s = %q", OriginHeader, got)
	}

	if n := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "/knowledge/*", "200")); n != 2 {
		t.Errorf("http_requests_total = %v, want 2", n)
	}
}

func TestKnowledgeIRI(t *testing.T) {
	ts, _ := newTestServer(t)
	var rec knowledge.Record
	resp := get(t, ts, "/knowledge/"+url.PathEscape(modelIRI), &rec)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if rec.ID != modelIRI || len(rec.Paths) != 1 {
		t.Errorf("record = %+v", rec)
	}
}

func TestKnowledgeErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	tests := []struct {
		path   string
		status int
		code   errors.Code
	}{
		{"/knowledge/not%20an%20entity", http.StatusBadRequest, errors.ErrCodeInvalidEntity},
		{"/knowledge/UBERON:0000001", http.StatusBadGateway, errors.ErrCodeNetwork},
		{"/knowledge/UBERON:0001255?source=a%2Fb", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/nowhere", http.StatusNotFound, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var body errorBody
			resp := get(t, ts, tt.path, &body)
			if resp.StatusCode != tt.status || body.Error.Code != tt.code {
				t.Errorf("GET %s = %d %+v, want %d %s", tt.path, resp.StatusCode, body, tt.status, tt.code)
			}
		})
	}
}

func TestSources(t *testing.T) {
	ts, _ := newTestServer(t)

	var sources map[string][]string
	get(t, ts, "/sources", &sources)
	if len(sources["sources"]) != 0 {
		t.Errorf("sources before lookup = %v", sources)
	}

	get(t, ts, "/knowledge/UBERON:0001255", nil)
	get(t, ts, "/sources", &sources)
	if got := sources["sources"]; len(got) != 1 || got[0] != testSource {
		t.Errorf("sources = %v", got)
	}

	var l knowledge.List
	resp := get(t, ts, "/sources/"+testSource, &l)
	if resp.StatusCode != http.StatusOK || len(l.Knowledge) != 1 || l.Source != testSource {
		t.Errorf("GET /sources/%s = %d %+v", testSource, resp.StatusCode, l)
	}

	resp = get(t, ts, "/sources/sckan-1999-01-01", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown source status = %d", resp.StatusCode)
	}
}

func TestLoad(t *testing.T) {
	ts, _ := newTestServer(t)

	body := `{"entities": ["UBERON:0001255", "UBERON:0000001", "UBERON:9999999", "UBERON:0001255"]}`
	resp, err := ts.Client().Post(ts.URL+"/knowledge", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var got loadResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got.Source != testSource || got.Loaded != 1 || got.Batch == "" {
		t.Errorf("load = %+v", got)
	}
	if len(got.Unknown) != 1 || got.Unknown[0] != "UBERON:9999999" {
		t.Errorf("unknown = %v", got.Unknown)
	}
	if got.Failed["UBERON:0000001"] != "SciCrunch unreachable" {
		t.Errorf("failed = %v", got.Failed)
	}

	for _, bad := range []string{`{"entities": []}`, `not json`} {
		resp, err := ts.Client().Post(ts.URL+"/knowledge", "application/json", strings.NewReader(bad))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("POST %s status = %d", bad, resp.StatusCode)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	get(t, ts, "/healthz", nil)

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if want := `mapknowledge_http_requests_total{method="GET",route="/healthz",status="200"} 1`; !strings.Contains(string(data), want) {
		t.Errorf("metrics missing %s", want)
	}
}

func TestCORS(t *testing.T) {
	s := New(Options{Runner: pipeline.NewRunner(fakeService{}, nil, nil), AllowedOrigins: []string{"https://map.example.org"}})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://map.example.org")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://map.example.org" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
