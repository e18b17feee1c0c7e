package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/glamapp/product-recs/internal/cache"
	"github.com/glamapp/product-recs/internal/enrich"
	"github.com/glamapp/product-recs/internal/extract"
	"github.com/glamapp/product-recs/internal/imagery"
	"github.com/glamapp/product-recs/internal/pipeline"
	"github.com/glamapp/product-recs/internal/retrieval"
	"github.com/glamapp/product-recs/internal/source"
	"github.com/glamapp/product-recs/pkg/serpapi"
	"github.com/glamapp/product-recs/pkg/tavily"
)

// appEnv holds the initialized cache, catalog, and pipeline shared by the
// serve and recommend commands.
type appEnv struct {
	Store    cache.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initCache opens the configured cache backend and runs migrations.
func initCache(ctx context.Context) (cache.Store, error) {
	var (
		store cache.Store
		err   error
	)
	switch cfg.Cache.Driver {
	case "postgres":
		store, err = cache.NewPostgres(ctx, cfg.Cache.DatabaseURL)
	case "sqlite", "":
		store, err = cache.NewSQLite(cfg.Cache.DSN)
	default:
		return nil, eris.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open cache")
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, eris.Wrap(err, "migrate cache")
	}
	return store, nil
}

// initEnv sets up the cache, API clients, fetchers and catalog, and builds
// the pipeline. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	store, err := initCache(ctx)
	if err != nil {
		return nil, err
	}

	catalog, err := retrieval.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	zap.L().Info("catalog loaded",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("products", catalog.Len()))

	serpClient := serpapi.NewClient(cfg.SerpAPI.Key,
		serpapi.WithRateLimit(cfg.SerpAPI.RPS, cfg.SerpAPI.Burst))
	tavilyClient := tavily.NewClient(cfg.Tavily.Key)
	extractor := extract.New(extract.NewAnthropic(cfg.Anthropic.Key, cfg.Anthropic.Model))

	sourceCfg, err := source.LoadConfig(cfg.Sources.ConfigPath)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	fetchers, err := source.Build(sourceCfg, serpClient, tavilyClient, extractor)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	zap.L().Info("fetchers configured", zap.Strings("order", sourceCfg.Order))

	enricher := enrich.New(store, fetchers, imagery.NewResolver(), enrich.Options{
		MaxAgeDays:  cfg.Cache.MaxAgeDays,
		MaxResults:  cfg.Enrich.MaxResults,
		Concurrency: cfg.Enrich.Concurrency,
	})

	return &appEnv{
		Store:    store,
		Pipeline: pipeline.New(catalog, enricher, cfg.Catalog.Limit),
	}, nil
}
