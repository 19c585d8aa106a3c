package pipeline

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mapknowledge/pkg/apinatomy"
	"github.com/matzehuels/mapknowledge/pkg/blob"
	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
	"github.com/matzehuels/mapknowledge/pkg/observability"
	"github.com/matzehuels/mapknowledge/pkg/store"
)

// Runner combines a knowledge service with a local store.
//
// The Runner holds no per-call state, so multiple goroutines can share one.
// Either the service or the store may be nil: without a store every lookup
// goes to the service, without a service only stored records are found.
type Runner struct {
	Service Service
	Store   store.Store
	Logger  *log.Logger
}

// NewRunner creates a runner. A nil logger uses log.Default().
func NewRunner(svc Service, st store.Store, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Service: svc, Store: st, Logger: logger}
}

// ResolveSource returns opts.Source, or when it is empty the service's
// current source, or the newest stored source. It returns "" when none of
// them can name one.
func (r *Runner) ResolveSource(ctx context.Context, opts Options) (string, error) {
	if opts.Source != "" {
		return knowledge.CleanSource(opts.Source), nil
	}
	if namer, ok := r.Service.(SourceNamer); ok {
		source, err := namer.Source(ctx)
		if err != nil {
			r.logger(opts).Warn("cannot determine knowledge source", "error", err)
		} else if source != "" {
			return knowledge.CleanSource(source), nil
		}
	}
	if r.Store == nil {
		return "", nil
	}
	return store.LatestSource(ctx, r.Store)
}

// Knowledge returns what is known about entity. A record found in the store
// is returned unless opts.Refresh is set; otherwise the service is asked and
// a non-empty answer is saved to the store.
func (r *Runner) Knowledge(ctx context.Context, entity string, opts Options) (Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return Result{}, err
	}
	if err := errors.ValidateEntity(entity); err != nil {
		return Result{}, err
	}
	source, err := r.ResolveSource(ctx, opts)
	if err != nil {
		return Result{}, err
	}
	opts.Source = source

	res, err := r.lookup(ctx, entity, opts)
	if err != nil {
		return Result{}, err
	}
	if res.Origin == observability.OriginSciCrunch && r.Store != nil && source != "" && !res.Record.IsEmpty() {
		if err := r.Store.Put(ctx, source, res.Record); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

// lookup finds entity without saving it, emitting the pipeline hooks.
func (r *Runner) lookup(ctx context.Context, entity string, opts Options) (res Result, err error) {
	hooks := observability.Pipeline()
	hooks.OnKnowledgeStart(ctx, entity)
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		hooks.OnKnowledgeComplete(ctx, entity, res.Origin, res.Duration, err)
	}()

	if r.Store != nil && opts.Source != "" && !opts.Refresh {
		rec, ok, err := r.Store.Get(ctx, opts.Source, entity)
		if err != nil {
			return Result{}, err
		}
		if ok {
			r.logger(opts).Debug("knowledge from store", "entity", entity, "source", opts.Source)
			return Result{Record: rec, Origin: observability.OriginStore}, nil
		}
	}
	if r.Service == nil {
		return Result{}, errors.New(errors.ErrCodeNotFound, "no stored knowledge of %s", entity)
	}

	rec, err := r.Service.Knowledge(ctx, entity)
	if err != nil {
		return Result{}, err
	}
	if rec.Source == "" {
		rec.Source = opts.Source
	}
	r.logger(opts).Debug("knowledge from service", "entity", entity, "empty", rec.IsEmpty())
	return Result{Record: rec, Origin: observability.OriginSciCrunch}, nil
}

// Load looks up every entity, at most opts.Concurrency at a time, and saves
// the records found to the store in one batch. Duplicate entities are looked
// up once. A failed lookup is recorded in the result rather than stopping
// the load; only a store failure or a cancelled context aborts it.
func (r *Runner) Load(ctx context.Context, entities []string, opts Options) (*LoadResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	start := time.Now()
	source, err := r.ResolveSource(ctx, opts)
	if err != nil {
		return nil, err
	}
	opts.Source = source

	entities = dedupe(entities)
	results := make([]Result, len(entities))
	failed := map[string]error{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, entity := range entities {
		g.Go(func() error {
			if err := errors.ValidateEntity(entity); err != nil {
				mu.Lock()
				failed[entity] = err
				mu.Unlock()
				return nil
			}
			res, err := r.lookup(gctx, entity, opts)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.logger(opts).Warn("knowledge lookup failed", "entity", entity, "error", err)
				mu.Lock()
				failed[entity] = err
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &LoadResult{
		List:   knowledge.NewList(source),
		Failed: failed,
		Stats:  LoadStats{Requested: len(entities)},
	}
	fetched := knowledge.NewList(source)
	for i, res := range results {
		if _, ok := failed[entities[i]]; ok {
			continue
		}
		if res.Record.IsEmpty() {
			out.Unknown = append(out.Unknown, entities[i])
			continue
		}
		out.List.Append(res.Record)
		if res.Origin == observability.OriginStore {
			out.Stats.FromStore++
		} else {
			out.Stats.Fetched++
			fetched.Append(res.Record)
		}
	}

	if r.Store != nil && source != "" && len(fetched.Knowledge) > 0 {
		out.Batch, err = r.Store.PutList(ctx, fetched)
		if err != nil {
			return nil, err
		}
	}

	out.Stats.Duration = time.Since(start)
	observability.Pipeline().OnLoadComplete(ctx, len(out.List.Knowledge), len(failed), out.Stats.Duration)
	r.logger(opts).Info("loaded knowledge",
		"source", source,
		"records", len(out.List.Knowledge),
		"stored", out.Stats.FromStore,
		"fetched", out.Stats.Fetched,
		"unknown", len(out.Unknown),
		"failed", len(failed),
		"duration", out.Stats.Duration)
	return out, nil
}

// Connectivity parses the neuron path of a blob, reporting it to the
// pipeline hooks.
func (r *Runner) Connectivity(ctx context.Context, data blob.Blob) (knowledge.Connectivity, error) {
	start := time.Now()
	conn, err := apinatomy.ParseConnectivity(data)
	if err != nil {
		return knowledge.Connectivity{}, err
	}
	observability.Pipeline().OnConnectivity(ctx, len(conn.Connectivity), time.Since(start))
	return conn, nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

func dedupe(entities []string) []string {
	seen := make(map[string]bool, len(entities))
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return slices.Clip(out)
}
