// Package app is the composition root shared by the flyerdex binary and the
// embedded SDK: it turns a config into a ready retrieval pipeline.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/flyerdex/internal/config"
	"github.com/kailas-cloud/flyerdex/internal/db"
	dbRedis "github.com/kailas-cloud/flyerdex/internal/db/redis"
	"github.com/kailas-cloud/flyerdex/internal/domain"
	"github.com/kailas-cloud/flyerdex/internal/index"
	"github.com/kailas-cloud/flyerdex/internal/metrics"
	"github.com/kailas-cloud/flyerdex/internal/repository/catalog"
	"github.com/kailas-cloud/flyerdex/internal/repository/embcache"
	"github.com/kailas-cloud/flyerdex/internal/repository/resultcache"
	openaiT "github.com/kailas-cloud/flyerdex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/flyerdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/flyerdex/internal/usecase/health"
	intentuc "github.com/kailas-cloud/flyerdex/internal/usecase/intent"
	"github.com/kailas-cloud/flyerdex/internal/usecase/relevance"
	searchuc "github.com/kailas-cloud/flyerdex/internal/usecase/search"
)

// App is the assembled pipeline.
type App struct {
	Search  *searchuc.Service
	Health  *healthuc.Service
	Results *resultcache.Cache
	store   db.Store
}

// Close releases the shared cache connection, if any.
func (a *App) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// Option customizes Build.
type Option func(*options)

type options struct {
	embedder domain.Embedder
}

// WithEmbedder replaces the provider embedding client. The caching and
// dimension-guard decorators still wrap it.
func WithEmbedder(e domain.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// Build wires every component from cfg. Catalog artifacts are loaded once;
// the returned App already serves the first snapshot.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// Pipeline collectors only; the HTTP ones belong to the serve command.
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	// Pass nil interface (not typed nil pointer!) when the memory backend is used.
	var store db.Store
	if cfg.Cache.Backend == config.CacheBackendRedis {
		rs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := rs.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			rs.Close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		store = rs
		logger.Info("Connected to shared cache", zap.Strings("addrs", cfg.Database.Addrs))
	}

	loader := catalog.New(catalog.Paths{
		Items:           cfg.Catalog.Items,
		Taxonomy:        cfg.Catalog.Taxonomy,
		IntentRegistry:  cfg.Catalog.IntentRegistry,
		DerivedRegistry: cfg.Catalog.DerivedRegistry,
		OfferEmbeddings: cfg.Catalog.OfferEmbeddings,
		Synonyms:        cfg.Catalog.Synonyms,
	}, logger, catalog.WithTaxonomyDerivation(cfg.Intent.DeriveFromTaxonomy))

	registry, err := loader.Registry()
	if err != nil {
		return nil, fmt.Errorf("load intent registry: %w", err)
	}
	synonyms, err := loader.Synonyms()
	if err != nil {
		return nil, fmt.Errorf("load synonyms: %w", err)
	}
	snap, err := loader.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	// Provider: absent API key leaves completer and embedder nil; lexical tiers keep working.
	var (
		completer domain.Completer
		embedder  searchuc.Embedder
		provider  healthuc.ProviderChecker
	)
	if cfg.Provider.Enabled() {
		c := openaiT.NewCompleter(&openaiT.CompleterConfig{
			APIKey:         cfg.Provider.APIKey,
			BaseURL:        cfg.Provider.BaseURL,
			Model:          cfg.Provider.ChatModel,
			FallbackModels: cfg.Provider.FallbackModels,
			MaxAttempts:    cfg.Provider.MaxAttempts,
			Logger:         logger,
		})
		completer, provider = c, c
		if o.embedder == nil && cfg.Provider.EmbeddingModel != "" {
			o.embedder = openaiT.NewEmbedder(&openaiT.Config{
				APIKey:     cfg.Provider.APIKey,
				BaseURL:    cfg.Provider.BaseURL,
				Model:      cfg.Provider.EmbeddingModel,
				Dimensions: cfg.Provider.Dimensions,
				Provider:   cfg.Provider.Name,
				Logger:     logger,
			})
		}
		logger.Info("Provider configured",
			zap.String("provider", cfg.Provider.Name),
			zap.Strings("chat_models", c.Models()),
			zap.String("embedding_model", cfg.Provider.EmbeddingModel),
		)
	} else {
		logger.Warn("No provider API key: relevance runs on lexical heuristics only")
	}
	if o.embedder != nil {
		embedder = decorateEmbedder(o.embedder, &cfg.Provider, cfg.Cache.EmbeddingSize, store, logger)
	}

	filter := relevance.New(completer, relevance.Config{
		Model:          cfg.Provider.ChatModel,
		Timeout:        cfg.Provider.Timeout(),
		MaxTokens:      cfg.Provider.MaxTokens,
		IDPrefix:       cfg.Provider.IDPrefix,
		DesperateLimit: cfg.Search.DesperateLimit,
	}, relevance.Synonyms(synonyms), metrics.RelevanceOutcomesTotal, logger)

	cacheOpts := []resultcache.Option{resultcache.WithMetrics(metrics.ResultCacheTotal)}
	if store != nil {
		cacheOpts = append(cacheOpts, resultcache.WithStore(store))
	}
	results := resultcache.New(cfg.Cache.ResultSize, cfg.Cache.ResultTTL(), logger, cacheOpts...)

	searchOpts := []searchuc.Option{
		searchuc.WithResultCache(results),
		searchuc.WithSnapshotSource(loader),
		searchuc.WithConfig(searchuc.Config{
			AICandidateLimit:  cfg.Search.AICandidateLimit,
			SemanticTopN:      cfg.Search.SemanticTopN,
			SemanticMinScore:  cfg.Search.SemanticMinScore,
			RecipeConcurrency: cfg.Search.RecipeConcurrency,
		}),
		searchuc.WithMetrics(searchuc.Metrics{
			Requests:     metrics.SearchRequestsTotal,
			Duration:     metrics.SearchDuration,
			CatalogItems: metrics.CatalogItems,
		}),
	}
	if embedder != nil {
		searchOpts = append(searchOpts, searchuc.WithEmbedder(embedder))
	}

	holder := index.NewHolder(nil)
	classifier := intentuc.NewClassifier(registry, cfg.Intent.MinConfidence)
	searchSvc := searchuc.New(holder, classifier, filter, logger, searchOpts...)
	searchSvc.Publish(snap)

	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}

	return &App{
		Search:  searchSvc,
		Health:  healthuc.New(holder, pinger, provider),
		Results: results,
		store:   store,
	}, nil
}

// decorateEmbedder assembles the decorator chain: base -> Cached -> Instrumented -> Instruction
func decorateEmbedder(
	base domain.Embedder,
	provCfg *config.ProviderConfig,
	cacheSize int,
	store db.Store,
	logger *zap.Logger,
) domain.Embedder {
	// Cached (L1 always, L2 when a shared store exists)
	var embedder domain.Embedder = embcache.New(base, cacheSize, store, metrics.EmbeddingCacheTotal, logger)

	// Instrumented (logging + dimension guard)
	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, provCfg.Name, provCfg.EmbeddingModel, provCfg.Dimensions, logger,
	)

	// Instruction prefix (outermost, cache key includes instruction)
	if provCfg.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, provCfg.QueryInstruction)
	}

	return embedder
}
