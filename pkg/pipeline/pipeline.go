// Package pipeline looks up knowledge about entities, asking the remote
// knowledge service only for what the local store does not already hold.
//
// # Usage
//
// Create a Runner over a service and an optional store:
//
//	client := scicrunch.New(scicrunch.Options{Cache: c, Logger: logger})
//	st, _ := store.Open(ctx, store.Options{Path: "knowledgebase.db"})
//	runner := pipeline.NewRunner(client, st, logger)
//
//	res, err := runner.Knowledge(ctx, "ilxtr:neuron-type-keast-1", pipeline.Options{})
//	fmt.Println(res.Record.Label, res.Origin)
//
// Load many entities at once; the records are fetched concurrently and
// written to the store as one batch:
//
//	res, err := runner.Load(ctx, entities, pipeline.Options{Concurrency: 8})
//
// # Sources
//
// Records are kept per knowledge source (a SCKAN release such as
// sckan-2024-09-21). When [Options.Source] is empty the runner asks the
// service which source it serves, falling back to the newest source in the
// store.
package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
)

// Service is a remote source of knowledge records.
type Service interface {
	Knowledge(ctx context.Context, entity string) (knowledge.Record, error)
}

// SourceNamer is implemented by services that can name the knowledge source
// their records come from. A service that cannot tell returns "".
type SourceNamer interface {
	Source(ctx context.Context) (string, error)
}

// Concurrency limits.
const (
	DefaultConcurrency = 8
	MaxConcurrency     = 64
)

// Options configures a lookup or a load.
type Options struct {
	// Source is the knowledge source records are read from and saved to.
	Source string `json:"source,omitempty"`

	// Refresh skips the store and always asks the service.
	Refresh bool `json:"refresh,omitempty"`

	// Concurrency bounds the parallel service requests of a load.
	Concurrency int `json:"concurrency,omitempty"`

	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Source != "" {
		o.Source = knowledge.CleanSource(o.Source)
		if err := errors.ValidateSource(o.Source); err != nil {
			return err
		}
	}
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Concurrency < 1 || o.Concurrency > MaxConcurrency {
		return errors.New(errors.ErrCodeInvalidInput, "concurrency must be between 1 and %d, got %d",
			MaxConcurrency, o.Concurrency)
	}
	return nil
}

// Result is the outcome of one lookup.
type Result struct {
	Record knowledge.Record

	// Origin is observability.OriginStore or observability.OriginSciCrunch.
	Origin string

	Duration time.Duration
}

// LoadResult is the outcome of a load.
type LoadResult struct {
	// List holds the records found, in request order. Entities the service
	// knows nothing about are left out.
	List *knowledge.List

	// Batch is the store's id for the write, empty without a store.
	Batch string

	// Unknown lists the entities with no knowledge.
	Unknown []string

	// Failed maps entities whose lookup failed to the error.
	Failed map[string]error

	Stats LoadStats
}

// LoadStats contains load statistics.
type LoadStats struct {
	Requested int
	FromStore int
	Fetched   int
	Duration  time.Duration
}
