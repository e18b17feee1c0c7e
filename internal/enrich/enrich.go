// Package enrich orchestrates the per-candidate enrichment pass: cache
// lookup, fetcher waterfall, image resolution, validation, cache write.
package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/glamapp/product-recs/internal/cache"
	"github.com/glamapp/product-recs/internal/model"
	"github.com/glamapp/product-recs/internal/source"
	"github.com/glamapp/product-recs/internal/validate"
)

const (
	defaultMaxResults  = 3
	defaultConcurrency = 4
)

// ImageResolver picks the best renderable image for a fetched result.
type ImageResolver interface {
	BestImage(ctx context.Context, productURL, thumbnailURL string) string
}

// Options tunes the enricher. Zero values select defaults.
type Options struct {
	MaxAgeDays  int // cache staleness window, 0 = cache default
	MaxResults  int // per-fetcher result cap
	Concurrency int // parallel candidates in EnrichAll
}

// Enricher runs candidates through the enrichment state machine.
type Enricher struct {
	store       cache.Store
	fetchers    []source.Fetcher
	images      ImageResolver
	maxAgeDays  int
	maxResults  int
	concurrency int
}

// New creates an Enricher.
func New(store cache.Store, fetchers []source.Fetcher, images ImageResolver, opts Options) *Enricher {
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Enricher{
		store:       store,
		fetchers:    fetchers,
		images:      images,
		maxAgeDays:  opts.MaxAgeDays,
		maxResults:  opts.MaxResults,
		concurrency: opts.Concurrency,
	}
}

// Enrich resolves one candidate to a terminal outcome. Fetcher failures
// are logged and swallowed; cache failures are returned because they mean
// every candidate is about to fail the same way.
func (e *Enricher) Enrich(ctx context.Context, c model.ProductCandidate) (model.EnrichedProduct, model.Outcome, error) {
	key := cache.Key(c)
	product := bareProduct(key, c)

	cached, err := e.store.Get(ctx, key, e.maxAgeDays)
	if err != nil {
		return product, model.OutcomeFailed, eris.Wrap(err, "enrich: cache get")
	}
	if cached != nil {
		return *cached, model.OutcomeCached, nil
	}

	if !c.HasRequiredFields() {
		zap.L().Info("enrich: skipping candidate with missing fields",
			zap.String("key", key),
			zap.String("brand", c.Brand),
			zap.String("name", c.Name))
		if err := e.store.Set(ctx, key, &product, time.Now()); err != nil {
			return product, model.OutcomeFailed, eris.Wrap(err, "enrich: cache set")
		}
		return product, model.OutcomeSkipped, nil
	}

	product.Enrichment = e.fromSources(ctx, c)

	// A cancelled pass proves nothing about the product; return it bare
	// and leave the cache alone so the next request retries.
	if ctx.Err() != nil {
		return bareProduct(key, c), model.OutcomeCancelled, nil
	}

	if err := e.store.Set(ctx, key, &product, time.Now()); err != nil {
		return product, model.OutcomeFailed, eris.Wrap(err, "enrich: cache set")
	}

	if product.Enrichment == nil {
		return product, model.OutcomeFailed, nil
	}
	return product, model.OutcomeEnriched, nil
}

// EnrichAll enriches candidates with bounded parallelism, preserving
// input order in the result slice.
func (e *Enricher) EnrichAll(ctx context.Context, candidates []model.ProductCandidate) ([]model.EnrichedProduct, error) {
	results := make([]model.EnrichedProduct, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, c := range candidates {
		g.Go(func() error {
			product, outcome, err := e.Enrich(gctx, c)
			if err != nil {
				return err
			}
			zap.L().Debug("enrich: candidate done",
				zap.String("key", product.ID),
				zap.String("outcome", string(outcome)))
			results[i] = product
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fromSources walks the fetcher waterfall and returns the first validated
// non-empty enrichment, or nil when every source comes up empty.
func (e *Enricher) fromSources(ctx context.Context, c model.ProductCandidate) *model.Enrichment {
	for _, f := range e.fetchers {
		if ctx.Err() != nil {
			return nil
		}

		raw, err := f.Fetch(ctx, c, e.maxResults)
		if err != nil {
			zap.L().Warn("enrich: fetcher failed, trying next",
				zap.String("fetcher", f.Name()),
				zap.String("brand", c.Brand),
				zap.String("name", c.Name),
				zap.Error(err))
			continue
		}
		if raw == nil {
			continue
		}

		// Without a product page the result can't be clicked through and
		// the og:image lookup is impossible.
		productURL := strings.TrimSpace(raw.ProductURL)
		if productURL == "" {
			zap.L().Debug("enrich: result without product url discarded",
				zap.String("fetcher", f.Name()))
			continue
		}

		raw.ImageURL = e.images.BestImage(ctx, productURL, raw.ImageURL)

		validated := validate.Clean(raw.Fields())
		if validated == nil {
			continue
		}

		zap.L().Info("enrich: candidate enriched",
			zap.String("fetcher", f.Name()),
			zap.String("brand", c.Brand),
			zap.String("name", c.Name))
		return validated
	}
	return nil
}

func bareProduct(key string, c model.ProductCandidate) model.EnrichedProduct {
	return model.EnrichedProduct{
		ID:          key,
		Brand:       c.Brand,
		Name:        c.Name,
		ProductType: c.ProductType,
		Description: c.Description,
	}
}
