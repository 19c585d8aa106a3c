package knowledge

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// List is a batch of records that all come from one knowledge source, such
// as a SCKAN release.
type List struct {
	Source    string   `json:"source"`
	Knowledge []Record `json:"knowledge"`
}

// NewList creates an empty list for source. The source name is cleaned with
// [CleanSource].
func NewList(source string) *List {
	return &List{Source: CleanSource(source)}
}

// Append adds r to the list.
func (l *List) Append(r Record) { l.Knowledge = append(l.Knowledge, r) }

// FromSource reports whether r was produced by the list's source.
func (l *List) FromSource(r Record) bool { return CleanSource(r.Source) == l.Source }

// CleanSource strips the "-npo" suffix that marks NPO-derived releases, so
// both variants of a release share one source id.
func CleanSource(source string) string {
	return strings.TrimSuffix(source, "-npo")
}

// ReadList decodes a {"source": ..., "knowledge": [...]} document.
func ReadList(r io.Reader) (*List, error) {
	var l List
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode knowledge: %w", err)
	}
	l.Source = CleanSource(l.Source)
	return &l, nil
}

// ImportList reads a knowledge list from the JSON file at path.
func ImportList(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadList(f)
}

// WriteList encodes l as indented JSON.
func WriteList(w io.Writer, l *List) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}
