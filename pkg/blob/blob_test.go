package blob

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestEdgeEqualIgnoresMeta(t *testing.T) {
	a := Edge{Sub: "a", Pred: "p", Obj: "b", Meta: Meta{"owlType": "x"}}
	b := Edge{Sub: "a", Pred: "p", Obj: "b"}
	if !a.Equal(b) {
		t.Error("edges differing only in meta should be equal")
	}
	if a.Equal(Edge{Sub: "a", Pred: "q", Obj: "b"}) {
		t.Error("edges with different predicates should differ")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := Blob{
		Nodes: []Node{{ID: "a", Meta: Meta{"k": "v"}}},
		Edges: []Edge{{Sub: "a", Pred: "p", Obj: "a", Meta: Meta{"k": "v"}}},
	}
	c := orig.Clone()
	c.Nodes[0].Topology = "apinatomy:BAG"
	c.Nodes[0].Meta["k"] = "changed"
	c.Edges[0].Pred = "q"
	delete(c.Edges[0].Meta, "k")

	if orig.Nodes[0].Topology != "" || orig.Nodes[0].Meta["k"] != "v" {
		t.Errorf("clone mutated original node: %+v", orig.Nodes[0])
	}
	if orig.Edges[0].Pred != "p" || orig.Edges[0].Meta["k"] != "v" {
		t.Errorf("clone mutated original edge: %+v", orig.Edges[0])
	}
}

func TestDedupe(t *testing.T) {
	b := Blob{Edges: []Edge{
		{Sub: "c", Pred: "p", Obj: "d"},
		{Sub: "a", Pred: "p", Obj: "b", Meta: Meta{"x": 1}},
		{Sub: "a", Pred: "p", Obj: "b"},
		{Sub: "a", Pred: "o", Obj: "z"},
	}}
	got := b.Dedupe().Edges
	want := []Edge{
		{Sub: "a", Pred: "o", Obj: "z"},
		{Sub: "a", Pred: "p", Obj: "b"},
		{Sub: "c", Pred: "p", Obj: "d"},
	}
	if len(got) != len(want) {
		t.Fatalf("Dedupe() = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) || got[i].Meta != nil {
			t.Errorf("edge %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPrune(t *testing.T) {
	b := Blob{
		Nodes: []Node{{ID: "c"}, {ID: "orphan"}, {ID: "a"}, {ID: "b"}},
		Edges: []Edge{{Sub: "a", Pred: "p", Obj: "b"}, {Sub: "b", Pred: "p", Obj: "c"}},
	}
	var ids []string
	for _, n := range b.Prune().Nodes {
		ids = append(ids, n.ID)
	}
	if !slices.Equal(ids, []string{"c", "a", "b"}) {
		t.Errorf("Prune() nodes = %v, want [c a b]", ids)
	}
}

func TestMetaStrings(t *testing.T) {
	tests := []struct {
		name string
		meta Meta
		want []string
	}{
		{"missing", Meta{}, nil},
		{"scalar", Meta{"synonym": "vagus"}, []string{"vagus"}},
		{"typed", Meta{"synonym": []string{"a", "b"}}, []string{"a", "b"}},
		{"decoded", Meta{"synonym": []any{"a", 1, "b"}}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.Strings("synonym"); !slices.Equal(got, tt.want) {
				t.Errorf("Strings() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadWrite(t *testing.T) {
	in := `{"nodes":[{"id":"a","lbl":"A","meta":{"synonym":["alpha"]}}],
	        "edges":[{"sub":"a","pred":"p","obj":"a","meta":{"k":"v"}}]}`
	b, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if b.Nodes[0].Label != "A" || b.Edges[0].Meta["k"] != "v" {
		t.Fatalf("unexpected blob: %+v", b)
	}
	if got := b.Nodes[0].Meta.Strings("synonym"); !slices.Equal(got, []string{"alpha"}) {
		t.Errorf("synonym = %v", got)
	}

	path := filepath.Join(t.TempDir(), "blob.json")
	if err := Export(path, b); err != nil {
		t.Fatalf("Export: %v", err)
	}
	back, err := Import(path)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if back.Nodes[0].ID != "a" || !back.Edges[0].Equal(b.Edges[0]) {
		t.Errorf("round trip changed blob: %+v", back)
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Blob{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"nodes": []`) || !strings.Contains(buf.String(), `"edges": []`) {
		t.Errorf("empty blob should encode empty arrays, got %s", buf.String())
	}
}

func TestReadInvalid(t *testing.T) {
	if _, err := Read(strings.NewReader("{")); err == nil {
		t.Error("expected error for truncated JSON")
	}
}
