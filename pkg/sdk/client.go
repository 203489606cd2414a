package flyerdex

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/flyerdex/internal/app"
	"github.com/kailas-cloud/flyerdex/internal/config"
	"github.com/kailas-cloud/flyerdex/internal/domain"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/request"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/result"
	"github.com/kailas-cloud/flyerdex/internal/index"
	searchuc "github.com/kailas-cloud/flyerdex/internal/usecase/search"
)

// Internal interfaces for substitution in tests.
type searchUseCase interface {
	Search(ctx context.Context, req request.Request) (result.Response, error)
	SearchRecipe(ctx context.Context, ingredients []string, base request.Request) ([]searchuc.RecipeResult, error)
	Reload(ctx context.Context) (*index.Snapshot, error)
}

// Client is the flyerdex SDK entry point. It is safe for concurrent use.
type Client struct {
	closer    func()
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New loads the catalog and wires the retrieval pipeline.
// The provided context bounds the initial load and the Redis readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.artifacts.Items == "" {
		return nil, errors.New("flyerdex: items artifact required (use WithArtifacts)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	appCfg := cfg.toConfig()
	if err := appCfg.ValidatePipeline(); err != nil {
		return nil, fmt.Errorf("flyerdex: %w", err)
	}

	var appOpts []app.Option
	if cfg.embedder != nil {
		appOpts = append(appOpts, app.WithEmbedder(&embedderAdapter{inner: cfg.embedder}))
	}

	a, err := app.Build(ctx, &appCfg, zap.NewNop(), appOpts...)
	if err != nil {
		return nil, fmt.Errorf("flyerdex: %w", err)
	}

	return &Client{
		closer:    a.Close,
		searchSvc: a.Search,
		healthSvc: a.Health,
		obs:       obs,
	}, nil
}

// toConfig maps options onto the service config; unset values take service defaults.
func (c *clientConfig) toConfig() config.Config {
	var cfg config.Config
	cfg.Catalog = config.CatalogConfig{
		Items:           c.artifacts.Items,
		Taxonomy:        c.artifacts.Taxonomy,
		IntentRegistry:  c.artifacts.IntentRegistry,
		DerivedRegistry: c.artifacts.DerivedRegistry,
		OfferEmbeddings: c.artifacts.OfferEmbeddings,
		Synonyms:        c.artifacts.Synonyms,
	}
	cfg.Intent = config.IntentConfig{
		MinConfidence:      c.minConfidence,
		DeriveFromTaxonomy: c.deriveFromTaxonomy,
	}
	cfg.Provider = config.ProviderConfig{
		APIKey:         c.apiKey,
		BaseURL:        c.baseURL,
		ChatModel:      c.chatModel,
		EmbeddingModel: c.embeddingModel,
		Dimensions:     c.dimensions,
	}
	cfg.Search.AICandidateLimit = c.candidateLimit
	cfg.Cache.ResultTTLSec = c.resultTTLSec
	if len(c.redisAddrs) > 0 {
		cfg.Cache.Backend = config.CacheBackendRedis
		cfg.Database.Addrs = c.redisAddrs
		cfg.Database.Password = c.redisPassword
	}
	cfg.ApplyDefaults()
	return cfg
}

// Close releases all resources.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
