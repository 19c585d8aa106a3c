package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mapknowledge/pkg/blob"
	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
	"github.com/matzehuels/mapknowledge/pkg/observability"
	"github.com/matzehuels/mapknowledge/pkg/store"
)

// fakeService answers from a fixed table and counts calls per entity.
type fakeService struct {
	mu      sync.Mutex
	records map[string]knowledge.Record
	fail    map[string]error
	source  string
	calls   map[string]int
}

func newFakeService() *fakeService {
	return &fakeService{
		records: map[string]knowledge.Record{
			"UBERON:0001255": {ID: "UBERON:0001255", Label: "urinary bladder"},
			"ilxtr:neuron-type-keast-1": {
				ID:    "ilxtr:neuron-type-keast-1",
				Label: "neuron type kblad 1",
				Connectivity: &knowledge.Connectivity{
					Axons:     []string{"UBERON:0001255"},
					Dendrites: []string{},
					Connectivity: []knowledge.ConnectivityPair{
						{{ID: "UBERON:0016508"}, {ID: "UBERON:0001255"}},
					},
				},
			},
		},
		fail:   map[string]error{},
		source: "sckan-2024-09-21",
		calls:  map[string]int{},
	}
}

func (s *fakeService) Knowledge(_ context.Context, entity string) (knowledge.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[entity]++
	if err, ok := s.fail[entity]; ok {
		return knowledge.Record{}, err
	}
	if rec, ok := s.records[entity]; ok {
		return rec, nil
	}
	return knowledge.Record{ID: entity}, nil
}

func (s *fakeService) Source(context.Context) (string, error) { return s.source, nil }

func (s *fakeService) callCount(entity string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[entity]
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "knowledge.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestRunner(t *testing.T) (*Runner, *fakeService, store.Store) {
	t.Helper()
	svc := newFakeService()
	st := newTestStore(t)
	return NewRunner(svc, st, log.New(io.Discard)), svc, st
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    Options
		wantErr bool
	}{
		{"defaults", Options{}, Options{Concurrency: DefaultConcurrency}, false},
		{"npo source", Options{Source: "sckan-2024-09-21-npo", Concurrency: 2}, Options{Source: "sckan-2024-09-21", Concurrency: 2}, false},
		{"bad source", Options{Source: "a/b"}, Options{}, true},
		{"negative", Options{Concurrency: -1}, Options{}, true},
		{"too many", Options{Concurrency: MaxConcurrency + 1}, Options{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAndSetDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !reflect.DeepEqual(tt.opts, tt.want) {
				t.Errorf("options = %+v, want %+v", tt.opts, tt.want)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestKnowledgeSavesToStore(t *testing.T) {
	r, svc, st := newTestRunner(t)
	ctx := context.Background()

	res, err := r.Knowledge(ctx, "UBERON:0001255", Options{})
	if err != nil {
		t.Fatalf("Knowledge() error: %v", err)
	}
	if res.Origin != observability.OriginSciCrunch || res.Record.Label != "urinary bladder" {
		t.Errorf("first lookup = %+v", res)
	}
	if res.Record.Source != "sckan-2024-09-21" {
		t.Errorf("Source = %q, want service source", res.Record.Source)
	}

	stored, ok, err := st.Get(ctx, "sckan-2024-09-21", "UBERON:0001255")
	if err != nil || !ok || stored.Label != "urinary bladder" {
		t.Fatalf("stored = %+v, %v, %v", stored, ok, err)
	}

	res, err = r.Knowledge(ctx, "UBERON:0001255", Options{})
	if err != nil {
		t.Fatalf("Knowledge() error: %v", err)
	}
	if res.Origin != observability.OriginStore {
		t.Errorf("second lookup origin = %q, want store", res.Origin)
	}
	if n := svc.callCount("UBERON:0001255"); n != 1 {
		t.Errorf("service called %d times, want 1", n)
	}

	if _, err := r.Knowledge(ctx, "UBERON:0001255", Options{Refresh: true}); err != nil {
		t.Fatal(err)
	}
	if n := svc.callCount("UBERON:0001255"); n != 2 {
		t.Errorf("refresh: service called %d times, want 2", n)
	}
}

func TestKnowledgeUnknownNotStored(t *testing.T) {
	r, svc, st := newTestRunner(t)
	ctx := context.Background()

	res, err := r.Knowledge(ctx, "UBERON:9999999", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Record.IsEmpty() {
		t.Errorf("record = %+v, want empty", res.Record)
	}
	if _, ok, _ := st.Get(ctx, svc.source, "UBERON:9999999"); ok {
		t.Error("empty record was stored")
	}
}

func TestKnowledgeErrors(t *testing.T) {
	r, svc, _ := newTestRunner(t)
	svc.fail["UBERON:1"] = errors.New(errors.ErrCodeNetwork, "unreachable")

	if _, err := r.Knowledge(context.Background(), "UBERON:1", Options{}); !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("Knowledge() error = %v, want %s", err, errors.ErrCodeNetwork)
	}
	if _, err := r.Knowledge(context.Background(), "not an entity", Options{}); !errors.Is(err, errors.ErrCodeInvalidEntity) {
		t.Errorf("Knowledge() error = %v, want %s", err, errors.ErrCodeInvalidEntity)
	}
}

func TestKnowledgeStoreOnly(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	if err := st.Put(ctx, "sckan-2024-01-01", knowledge.Record{ID: "UBERON:1", Label: "one"}); err != nil {
		t.Fatal(err)
	}
	r := NewRunner(nil, st, log.New(io.Discard))

	res, err := r.Knowledge(ctx, "UBERON:1", Options{})
	if err != nil || res.Record.Label != "one" || res.Origin != observability.OriginStore {
		t.Errorf("Knowledge() = %+v, %v", res, err)
	}
	if _, err := r.Knowledge(ctx, "UBERON:2", Options{}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Knowledge() error = %v, want %s", err, errors.ErrCodeNotFound)
	}
}

func TestResolveSource(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	if err := st.Put(ctx, "sckan-2023-01-01", knowledge.Record{ID: "UBERON:1"}); err != nil {
		t.Fatal(err)
	}
	svc := newFakeService()

	tests := []struct {
		name   string
		runner *Runner
		opts   Options
		want   string
	}{
		{"explicit", NewRunner(svc, st, nil), Options{Source: "sckan-x-npo"}, "sckan-x"},
		{"service", NewRunner(svc, st, nil), Options{}, "sckan-2024-09-21"},
		{"store", NewRunner(nil, st, nil), Options{}, "sckan-2023-01-01"},
		{"none", NewRunner(nil, nil, nil), Options{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.runner.ResolveSource(ctx, tt.opts)
			if err != nil || got != tt.want {
				t.Errorf("ResolveSource() = %q, %v, want %q", got, err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	r, svc, st := newTestRunner(t)
	ctx := context.Background()
	svc.fail["UBERON:1"] = fmt.Errorf("boom")
	if err := st.Put(ctx, svc.source, knowledge.Record{ID: "UBERON:0016508", Label: "pelvic ganglion"}); err != nil {
		t.Fatal(err)
	}

	entities := []string{
		"ilxtr:neuron-type-keast-1",
		"UBERON:0016508",
		"UBERON:1",
		"UBERON:0001255",
		"UBERON:9999999",
		"ilxtr:neuron-type-keast-1",
		"bad entity",
	}
	res, err := r.Load(ctx, entities, Options{Concurrency: 2})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	var ids []string
	for _, rec := range res.List.Knowledge {
		ids = append(ids, rec.ID)
	}
	if want := []string{"ilxtr:neuron-type-keast-1", "UBERON:0016508", "UBERON:0001255"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("loaded = %v, want %v", ids, want)
	}
	if !reflect.DeepEqual(res.Unknown, []string{"UBERON:9999999"}) {
		t.Errorf("Unknown = %v", res.Unknown)
	}
	if len(res.Failed) != 2 || res.Failed["UBERON:1"] == nil || res.Failed["bad entity"] == nil {
		t.Errorf("Failed = %v", res.Failed)
	}
	want := LoadStats{Requested: 6, FromStore: 1, Fetched: 2}
	res.Stats.Duration = 0
	if res.Stats != want {
		t.Errorf("Stats = %+v, want %+v", res.Stats, want)
	}
	if res.Batch == "" {
		t.Error("Batch is empty")
	}
	if n := svc.callCount("ilxtr:neuron-type-keast-1"); n != 1 {
		t.Errorf("duplicate entity looked up %d times", n)
	}

	l, err := st.List(ctx, svc.source)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Knowledge) != 3 {
		t.Errorf("store holds %d records, want 3", len(l.Knowledge))
	}
}

func TestLoadCancelled(t *testing.T) {
	r, _, _ := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Service = cancelledService{}
	if _, err := r.Load(ctx, []string{"UBERON:1"}, Options{Source: "s"}); err == nil {
		t.Error("Load() with cancelled context succeeded")
	}
}

type cancelledService struct{}

func (cancelledService) Knowledge(ctx context.Context, _ string) (knowledge.Record, error) {
	return knowledge.Record{}, ctx.Err()
}

// recordingHooks captures pipeline events.
type recordingHooks struct {
	observability.NoopPipelineHooks
	mu        sync.Mutex
	origins   []string
	pairs     []int
	loaded    int
	completed bool
}

func (h *recordingHooks) OnKnowledgeComplete(_ context.Context, _, origin string, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.origins = append(h.origins, origin)
}

func (h *recordingHooks) OnConnectivity(_ context.Context, pairs int, _ time.Duration) {
	h.pairs = append(h.pairs, pairs)
}

func (h *recordingHooks) OnLoadComplete(_ context.Context, loaded, _ int, _ time.Duration) {
	h.loaded, h.completed = loaded, true
}

func TestHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	r, _, _ := newTestRunner(t)
	ctx := context.Background()
	if _, err := r.Knowledge(ctx, "UBERON:0001255", Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Knowledge(ctx, "UBERON:0001255", Options{}); err != nil {
		t.Fatal(err)
	}
	if want := []string{observability.OriginSciCrunch, observability.OriginStore}; !reflect.DeepEqual(hooks.origins, want) {
		t.Errorf("origins = %v, want %v", hooks.origins, want)
	}

	if _, err := r.Load(ctx, []string{"UBERON:0001255"}, Options{}); err != nil {
		t.Fatal(err)
	}
	if !hooks.completed || hooks.loaded != 1 {
		t.Errorf("load hook = %v, %d", hooks.completed, hooks.loaded)
	}

	conn, err := r.Connectivity(ctx, blob.Blob{})
	if err != nil {
		t.Fatal(err)
	}
	if len(conn.Connectivity) != 0 || !reflect.DeepEqual(hooks.pairs, []int{0}) {
		t.Errorf("Connectivity() = %+v, hook pairs %v", conn, hooks.pairs)
	}
}
