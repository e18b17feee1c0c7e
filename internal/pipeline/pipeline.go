// Package pipeline wires retrieval, enrichment and ranking into the
// recommendation flow behind the API.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/glamapp/product-recs/internal/model"
	"github.com/glamapp/product-recs/internal/rank"
	"github.com/glamapp/product-recs/internal/retrieval"
)

const defaultLimit = 8

// Enricher is the enrichment surface the pipeline needs.
type Enricher interface {
	EnrichAll(ctx context.Context, candidates []model.ProductCandidate) ([]model.EnrichedProduct, error)
}

// Pipeline answers product queries end to end.
type Pipeline struct {
	search   retrieval.Searcher
	enricher Enricher
	limit    int
}

// New creates a Pipeline. limit caps retrieved candidates per query;
// 0 selects the default.
func New(search retrieval.Searcher, enricher Enricher, limit int) *Pipeline {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Pipeline{search: search, enricher: enricher, limit: limit}
}

// Run retrieves candidates for the query, enriches them and returns the
// ranked response. Retrieval and cache failures are systemic and returned
// as errors; individual products lacking enrichment are normal output.
func (p *Pipeline) Run(ctx context.Context, query string) (model.Response, error) {
	candidates, err := p.search.Search(ctx, query, p.limit)
	if err != nil {
		return model.Response{}, eris.Wrap(err, "pipeline: search")
	}

	zap.L().Info("pipeline: candidates retrieved",
		zap.String("query", query),
		zap.Int("count", len(candidates)))

	enriched, err := p.enricher.EnrichAll(ctx, candidates)
	if err != nil {
		return model.Response{}, eris.Wrap(err, "pipeline: enrich")
	}

	return rank.BuildResponse(query, enriched), nil
}
