// Package store keeps knowledge records locally, grouped by the knowledge
// source (SCKAN release) they were read from.
//
// Two backends implement [Store]: an SQL database through gorm (SQLite by
// default) and MongoDB. Records are stored as their JSON encoding, so both
// backends return exactly what was put.
package store

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"

	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
)

// Store is a knowledge store.
type Store interface {
	// Get returns the record of entity from source. The boolean is false
	// when the store has no such record.
	Get(ctx context.Context, source, entity string) (knowledge.Record, bool, error)

	// Put saves a record under source, replacing any earlier one.
	Put(ctx context.Context, source string, rec knowledge.Record) error

	// PutList saves every record of l atomically and returns the id of
	// the write batch.
	PutList(ctx context.Context, l *knowledge.List) (string, error)

	// List returns every record of source, ordered by entity.
	List(ctx context.Context, source string) (*knowledge.List, error)

	// Sources returns the stored knowledge sources, newest first.
	Sources(ctx context.Context) ([]string, error)

	// DeleteSource removes every record of source.
	DeleteSource(ctx context.Context, source string) error

	Close() error
}

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// DefaultPath is the SQLite database file used when none is configured.
const DefaultPath = "knowledgebase.db"

// Options selects and configures a backend.
type Options struct {
	Backend       string
	Path          string
	MongoURI      string
	MongoDatabase string
}

// Open connects to the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		path := cmp.Or(opts.Path, DefaultPath)
		s, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMongo:
		s, err := NewMongo(ctx, opts.MongoURI, cmp.Or(opts.MongoDatabase, "mapknowledge"))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", opts.Backend)
	}
}

// LatestSource returns the newest source in s, or "" when s is empty.
func LatestSource(ctx context.Context, s Store) (string, error) {
	sources, err := s.Sources(ctx)
	if err != nil || len(sources) == 0 {
		return "", err
	}
	return sources[0], nil
}

func encodeRecord(rec knowledge.Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", rec.ID)
	}
	return data, nil
}

// decodeRecord decodes a stored record, taking its id from the row when
// the JSON lacks one.
func decodeRecord(entity string, data []byte) (knowledge.Record, error) {
	var rec knowledge.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return knowledge.Record{}, errors.Wrap(errors.ErrCodeStore, err, "decode %s", entity)
	}
	if rec.ID == "" {
		rec.ID = entity
	}
	return rec, nil
}

// newestFirst sorts source names so the latest release comes first. SCKAN
// sources embed their ISO release date, so this is reverse name order.
func newestFirst(sources []string) []string {
	slices.SortFunc(sources, func(a, b string) int { return cmp.Compare(b, a) })
	return slices.Compact(sources)
}
