package scicrunch

import (
	"context"
	"slices"
	"strings"

	"github.com/matzehuels/mapknowledge/pkg/apinatomy"
	"github.com/matzehuels/mapknowledge/pkg/blob"
	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/integrations"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
)

type interlexTerm struct {
	Data struct {
		Label string `json:"label"`
	} `json:"data"`
}

type vocabularyTerm struct {
	Labels []string `json:"labels"`
}

// Knowledge looks up what SciCrunch knows about entity.
//
// An entity SciCrunch has nothing on, or any entity when the client is
// disabled, yields a record with only its ID set (see
// [knowledge.Record.IsEmpty]) and a one-time warning. Transport failures
// are returned as coded errors.
func (c *Client) Knowledge(ctx context.Context, entity string) (knowledge.Record, error) {
	if err := errors.ValidateEntity(entity); err != nil {
		return knowledge.Record{}, err
	}

	rec := knowledge.Record{ID: entity}
	if c.Enabled() {
		var err error
		rec, err = c.lookup(ctx, entity)
		if errors.Is(err, errors.ErrCodeNotFound) {
			rec, err = knowledge.Record{ID: entity}, nil
		}
		if err != nil {
			return knowledge.Record{}, err
		}
	}
	if rec.IsEmpty() {
		c.warnUnknown(entity)
	}
	return rec, nil
}

func (c *Client) lookup(ctx context.Context, entity string) (knowledge.Record, error) {
	prefix, _, _ := strings.Cut(entity, ":")
	switch {
	case slices.Contains(InterlexOntologies, prefix):
		var term interlexTerm
		if err := c.get(ctx, c.endpoint+"/ilx/search/curie/"+entity, &term); err != nil {
			return knowledge.Record{}, err
		}
		rec := knowledge.Record{ID: entity, Label: term.Data.Label}
		if rec.Label == "" {
			rec.Label = entity
		}
		return rec, nil

	case slices.Contains(apinatomy.ConnectivityOntologies, prefix):
		return c.neuronKnowledge(ctx, entity)

	case strings.HasPrefix(entity, apinatomy.ModelPrefix):
		var data blob.Blob
		u := c.apinatAPI() + "/modelPopulationsReferences/" + integrations.PathEscape(entity) + ".json"
		if err := c.get(ctx, u, &data); err != nil {
			return knowledge.Record{}, err
		}
		return apinatomy.ModelKnowledge(entity, data), nil

	default:
		var term vocabularyTerm
		if err := c.get(ctx, c.SparcAPI()+"/vocabulary/id/"+entity+".json", &term); err != nil {
			return knowledge.Record{}, err
		}
		rec := knowledge.Record{ID: entity, Label: entity}
		if len(term.Labels) > 0 {
			rec.Label = term.Labels[0]
		}
		return rec, nil
	}
}

func (c *Client) neuronKnowledge(ctx context.Context, neuron string) (knowledge.Record, error) {
	var data blob.Blob
	u := c.apinatAPI() + "/" + ConnectivityQuery + "/" + neuron + ".json"
	if err := c.get(ctx, u, &data); err != nil {
		return knowledge.Record{}, err
	}
	rec, err := apinatomy.NeuronKnowledge(neuron, data)
	if err != nil {
		return knowledge.Record{}, err
	}

	phenotypes, err := c.Query(ctx, apinatomy.PhenotypeForNeuronCypher(neuron), nil)
	if err != nil {
		c.logger.Debug("no phenotypes", "neuron", neuron, "err", err)
	} else {
		rec.Phenotypes = apinatomy.Phenotypes(phenotypes)
	}
	return rec, nil
}

// warnUnknown logs entity the first time it turns out to be unknown.
func (c *Client) warnUnknown(entity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unknown[entity] {
		return
	}
	c.unknown[entity] = true
	c.logger.Warn("unknown anatomical entity", "entity", entity)
}

// Unknown returns the entities found unknown so far, sorted.
func (c *Client) Unknown() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.unknown))
	for e := range c.unknown {
		out = append(out, e)
	}
	slices.Sort(out)
	return out
}
