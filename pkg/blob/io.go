package blob

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Read decodes a JSON blob from r.
//
// The input is the node/edge document returned by a Cypher query against the
// knowledge service:
//
//	{
//	  "nodes": [{"id": "UBERON:0001021", "lbl": "nerve", "meta": {...}}],
//	  "edges": [{"sub": "...", "pred": "apinatomy:next", "obj": "..."}]
//	}
//
// Missing arrays decode as empty. No referential checks are made: edges may
// name nodes that are absent from the node list.
func Read(r io.Reader) (Blob, error) {
	var b Blob
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return Blob{}, fmt.Errorf("decode: %w", err)
	}
	return b, nil
}

// Import reads a JSON blob from the file at path.
func Import(path string) (Blob, error) {
	f, err := os.Open(path)
	if err != nil {
		return Blob{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	b, err := Read(f)
	if err != nil {
		return Blob{}, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

// Write encodes b as indented JSON. Empty node and edge lists are written as
// [] rather than null.
func Write(w io.Writer, b Blob) error {
	if b.Nodes == nil {
		b.Nodes = []Node{}
	}
	if b.Edges == nil {
		b.Edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// Export writes b as JSON to the file at path.
func Export(path string, b Blob) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, b); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Unmarshal decodes a JSON blob held in memory.
func Unmarshal(data []byte) (Blob, error) {
	var b Blob
	if err := json.Unmarshal(data, &b); err != nil {
		return Blob{}, err
	}
	return b, nil
}
