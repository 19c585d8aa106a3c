package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "knowledge.db"))
	if err != nil {
		t.Fatalf("NewSQLite() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func neuron(id string) knowledge.Record {
	return knowledge.Record{
		ID:    id,
		Label: id + " label",
		Connectivity: &knowledge.Connectivity{
			Axons:     []string{"UBERON:0001255"},
			Dendrites: []string{},
			Connectivity: []knowledge.ConnectivityPair{
				{{ID: "UBERON:0016508"}, {ID: "ILX:0793559", Layers: []string{"UBERON:0001255"}}},
			},
		},
	}
}

func TestSQLStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := neuron("ilxtr:neuron-type-keast-1")
	if err := s.Put(ctx, "sckan-2024-09-21-npo", rec); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, ok, err := s.Get(ctx, "sckan-2024-09-21", rec.ID)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("Get() = %+v, want %+v", got, rec)
	}

	if _, ok, err := s.Get(ctx, "sckan-2024-09-21", "ilxtr:other"); ok || err != nil {
		t.Errorf("Get(missing) = %v, %v, want a miss", ok, err)
	}
}

func TestSQLStorePutReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := knowledge.Record{ID: "UBERON:0001255", Label: "bladder"}
	if err := s.Put(ctx, "src", rec); err != nil {
		t.Fatal(err)
	}
	rec.Label = "urinary bladder"
	if err := s.Put(ctx, "src", rec); err != nil {
		t.Fatal(err)
	}

	l, err := s.List(ctx, "src")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(l.Knowledge) != 1 || l.Knowledge[0].Label != "urinary bladder" {
		t.Errorf("List() = %+v, want the replaced record only", l.Knowledge)
	}
}

func TestSQLStorePutList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	l := knowledge.NewList("sckan-2024-03-04")
	l.Append(neuron("ilxtr:b"))
	l.Append(neuron("ilxtr:a"))

	batch, err := s.PutList(ctx, l)
	if err != nil {
		t.Fatalf("PutList() error: %v", err)
	}
	if _, err := uuid.Parse(batch); err != nil {
		t.Errorf("batch id %q is not a uuid: %v", batch, err)
	}

	got, err := s.List(ctx, "sckan-2024-03-04")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if got.Source != "sckan-2024-03-04" || len(got.Knowledge) != 2 {
		t.Fatalf("List() = %+v", got)
	}
	if got.Knowledge[0].ID != "ilxtr:a" || got.Knowledge[1].ID != "ilxtr:b" {
		t.Errorf("List() order = %s, %s", got.Knowledge[0].ID, got.Knowledge[1].ID)
	}
}

func TestSQLStorePutListRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	l := knowledge.NewList("src")
	l.Append(neuron("ilxtr:a"))
	l.Append(knowledge.Record{ID: "not valid"})

	if _, err := s.PutList(ctx, l); !errors.Is(err, errors.ErrCodeInvalidEntity) {
		t.Fatalf("PutList() error = %v, want %s", err, errors.ErrCodeInvalidEntity)
	}
	if got, _ := s.List(ctx, "src"); len(got.Knowledge) != 0 {
		t.Errorf("a rejected batch wrote %d records", len(got.Knowledge))
	}
}

func TestSQLStoreSources(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if latest, err := LatestSource(ctx, s); err != nil || latest != "" {
		t.Errorf("LatestSource(empty) = %q, %v", latest, err)
	}

	for _, src := range []string{"sckan-2023-10-19", "sckan-2024-09-21", "sckan-2024-03-04"} {
		if err := s.Put(ctx, src, neuron("ilxtr:a")); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Put(ctx, "sckan-2024-09-21", neuron("ilxtr:b")); err != nil {
		t.Fatal(err)
	}

	sources, err := s.Sources(ctx)
	if err != nil {
		t.Fatalf("Sources() error: %v", err)
	}
	want := []string{"sckan-2024-09-21", "sckan-2024-03-04", "sckan-2023-10-19"}
	if !reflect.DeepEqual(sources, want) {
		t.Errorf("Sources() = %v, want %v", sources, want)
	}
	if latest, _ := LatestSource(ctx, s); latest != "sckan-2024-09-21" {
		t.Errorf("LatestSource() = %q", latest)
	}

	if err := s.DeleteSource(ctx, "sckan-2024-09-21"); err != nil {
		t.Fatalf("DeleteSource() error: %v", err)
	}
	if latest, _ := LatestSource(ctx, s); latest != "sckan-2024-03-04" {
		t.Errorf("LatestSource() after delete = %q", latest)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Options{Path: filepath.Join(t.TempDir(), "kb.db")})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLStore); !ok {
		t.Errorf("Open() = %T, want *SQLStore", s)
	}

	if _, err := Open(ctx, Options{Backend: "leveldb"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Open(leveldb) error = %v", err)
	}
	if _, err := Open(ctx, Options{Backend: BackendMongo}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Open(mongo without uri) error = %v", err)
	}
}

func TestDecodeRecordTakesRowID(t *testing.T) {
	rec, err := decodeRecord("UBERON:1", []byte(`{"label":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != "UBERON:1" || rec.Label != "x" {
		t.Errorf("decodeRecord() = %+v", rec)
	}
	if _, err := decodeRecord("UBERON:1", []byte(`{`)); !errors.Is(err, errors.ErrCodeStore) {
		t.Errorf("decodeRecord(invalid) error = %v", err)
	}
}

func TestMongoDoc(t *testing.T) {
	doc, err := newDoc("sckan-2024-09-21-npo", neuron("ilxtr:a"), "batch")
	if err != nil {
		t.Fatalf("newDoc() error: %v", err)
	}
	if doc.Source != "sckan-2024-09-21" || doc.Entity != "ilxtr:a" || doc.BatchID != "batch" {
		t.Errorf("newDoc() = %+v", doc)
	}
	rec, err := decodeRecord(doc.Entity, []byte(doc.Knowledge))
	if err != nil || !reflect.DeepEqual(rec, neuron("ilxtr:a")) {
		t.Errorf("stored record = %+v, %v", rec, err)
	}

	want := bson.D{{Key: "source", Value: "sckan-2024-09-21"}, {Key: "entity", Value: "ilxtr:a"}}
	if got := recordFilter("sckan-2024-09-21-npo", "ilxtr:a"); !reflect.DeepEqual(got, want) {
		t.Errorf("recordFilter() = %v, want %v", got, want)
	}
	if got := distinctStrings([]any{"b", 3, "a"}); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("distinctStrings() = %v", got)
	}
}
