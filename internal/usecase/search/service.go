// Package search is the hybrid retrieval orchestrator: intent pre-filtering,
// result caching, candidate pruning and relevance filtering over the current
// catalog snapshot.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/flyerdex/internal/domain"
	domintent "github.com/kailas-cloud/flyerdex/internal/domain/intent"
	"github.com/kailas-cloud/flyerdex/internal/domain/item"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/mode"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/request"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/result"
	"github.com/kailas-cloud/flyerdex/internal/index"
	"github.com/kailas-cloud/flyerdex/internal/logger"
	"github.com/kailas-cloud/flyerdex/internal/repository/resultcache"
	"github.com/kailas-cloud/flyerdex/internal/usecase/vector"
)

// Pipeline defaults.
const (
	DefaultAICandidateLimit  = 150
	DefaultSemanticTopN      = 50
	DefaultRecipeConcurrency = 4
)

// Config tunes the pipeline. Zero values select the defaults.
type Config struct {
	AICandidateLimit  int
	SemanticTopN      int
	SemanticMinScore  float64
	RecipeConcurrency int
}

func (c *Config) applyDefaults() {
	if c.AICandidateLimit <= 0 {
		c.AICandidateLimit = DefaultAICandidateLimit
	}
	if c.SemanticTopN <= 0 {
		c.SemanticTopN = DefaultSemanticTopN
	}
	if c.RecipeConcurrency <= 0 {
		c.RecipeConcurrency = DefaultRecipeConcurrency
	}
}

// Metrics are the optional pipeline collectors.
type Metrics struct {
	Requests     *prometheus.CounterVec   // labels: mode, strategy
	Duration     *prometheus.HistogramVec // labels: mode
	CatalogItems prometheus.Gauge
}

// Service runs retrievals against the published snapshot.
type Service struct {
	snapshots  *index.Holder
	classifier Classifier
	relevance  RelevanceFilter
	embedder   Embedder
	cache      ResultCache
	source     SnapshotSource
	cfg        Config
	metrics    Metrics
	now        func() time.Time
	logger     *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithEmbedder enables vector pruning and semantic mode.
func WithEmbedder(e Embedder) Option {
	return func(s *Service) { s.embedder = e }
}

// WithResultCache enables result caching.
func WithResultCache(c ResultCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithSnapshotSource enables Reload.
func WithSnapshotSource(src SnapshotSource) Option {
	return func(s *Service) { s.source = src }
}

// WithConfig overrides the pipeline limits.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the elapsed-time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates the orchestrator.
func New(
	snapshots *index.Holder,
	classifier Classifier,
	relevance RelevanceFilter,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		snapshots:  snapshots,
		classifier: classifier,
		relevance:  relevance,
		now:        time.Now,
		logger:     logger,
	}
	for _, o := range opts {
		o(s)
	}
	s.cfg.applyDefaults()
	return s
}

// Search executes one retrieval. Provider failures are absorbed by fallbacks;
// only a vector dimension mismatch or a missing catalog is returned as an error.
// An empty result set is not an error.
func (s *Service) Search(ctx context.Context, req request.Request) (result.Response, error) {
	start := s.now()

	snap, err := s.snapshots.Load()
	if err != nil {
		return result.Response{}, err
	}

	var resp result.Response
	if req.Normalized() == "" {
		resp = s.browse(snap, &req)
	} else {
		resp, err = s.retrieve(ctx, snap, &req)
		if err != nil {
			return result.Response{}, err
		}
	}

	resp.Elapsed = s.now().Sub(start)
	s.observe(&req, &resp)

	logger.FromContext(ctx, s.logger).Debug("Search completed",
		zap.String("query", req.Normalized()),
		zap.String("mode", string(req.Mode())),
		zap.String("strategy", string(resp.Strategy)),
		zap.Bool("cache_hit", resp.CacheHit),
		zap.Int("total", resp.Total),
		zap.Duration("elapsed", resp.Elapsed),
	)
	return resp, nil
}

func (s *Service) browse(snap *index.Snapshot, req *request.Request) result.Response {
	valid := validItems(snap.Index)
	items := filterItems(snap.Index, valid, req)
	resp := paginate(items, req)
	resp.Reduction = result.NewReductionStats(len(valid), len(valid))
	resp.Strategy = result.StrategyBrowse
	return resp
}

func (s *Service) retrieve(ctx context.Context, snap *index.Snapshot, req *request.Request) (result.Response, error) {
	q := req.Normalized()
	log := logger.FromContext(ctx, s.logger)

	in := s.classifier.Classify(q)
	valid := validItems(snap.Index)
	pool, aiIntent := intentPool(valid, in)
	reduction := result.NewReductionStats(len(valid), len(pool))

	intentKey := ""
	if in != nil {
		intentKey = in.Key
	}
	key := resultcache.Key(req.Mode(), q, intentKey)

	var (
		ids      []string
		strategy result.Strategy
		cacheHit bool
	)
	if entry, ok := s.cacheGet(ctx, key); ok {
		ids, strategy, cacheHit = entry.IDs, result.StrategyCache, true
		log.Debug("Result cache hit", zap.String("key", key), zap.Int("ids", len(ids)))
	} else {
		var err error
		ids, strategy, err = s.run(ctx, snap, req, pool, aiIntent)
		if err != nil {
			return result.Response{}, err
		}
		s.cachePut(ctx, key, resultcache.Entry{
			IDs:        ids,
			IntentKey:  intentKey,
			Strategy:   string(strategy),
			InsertedAt: s.now(),
		})
	}

	items := filterItems(snap.Index, resolve(snap.Index, ids), req)
	resp := paginate(items, req)
	resp.Intent = in
	resp.Reduction = reduction
	resp.CacheHit = cacheHit
	resp.Strategy = strategy
	return resp, nil
}

// run dispatches on mode and returns the raw ordered id list.
func (s *Service) run(
	ctx context.Context, snap *index.Snapshot, req *request.Request,
	pool []item.Item, in *domintent.Intent,
) ([]string, result.Strategy, error) {
	q := req.Normalized()

	switch req.Mode() {
	case mode.Keyword:
		return snap.Index.Search(q, idSet(pool)), result.StrategyKeyword, nil

	case mode.Semantic:
		ids, err := s.rankByVector(ctx, snap, q, pool, s.cfg.SemanticTopN, s.cfg.SemanticMinScore)
		if err == nil {
			return ids, result.StrategySemantic, nil
		}
		if errors.Is(err, domain.ErrVectorDimMismatch) {
			return nil, "", err
		}
		logger.FromContext(ctx, s.logger).Warn("Semantic search fell back to keyword", zap.Error(err))
		return snap.Index.Search(q, idSet(pool)), result.StrategyKeyword, nil

	case mode.Hybrid:
		candidates, err := s.prune(ctx, snap, q, pool)
		if err != nil {
			return nil, "", err
		}
		out := s.relevance.Filter(ctx, req.Query(), candidates, in)
		return out.IDs, out.Tier, nil

	default:
		return nil, "", fmt.Errorf("%w: unsupported search mode %q", domain.ErrInvalidRequest, req.Mode())
	}
}

// prune bounds the relevance candidates: vector TopN when possible, otherwise
// lexical narrowing, truncated to the AI candidate limit.
func (s *Service) prune(ctx context.Context, snap *index.Snapshot, q string, pool []item.Item) ([]item.Item, error) {
	limit := s.cfg.AICandidateLimit
	if len(pool) <= limit {
		return pool, nil
	}

	ids, err := s.rankByVector(ctx, snap, q, pool, limit, 0)
	switch {
	case err == nil && len(ids) > 0:
		return resolve(snap.Index, ids), nil
	case errors.Is(err, domain.ErrVectorDimMismatch):
		return nil, err
	case err != nil && !errors.Is(err, domain.ErrProviderNotConfigured):
		logger.FromContext(ctx, s.logger).Warn("Vector pruning failed, narrowing lexically", zap.Error(err))
	}

	if lexical := snap.Index.Search(q, idSet(pool)); len(lexical) > 0 {
		return truncate(resolve(snap.Index, lexical), limit), nil
	}
	return truncate(pool, limit), nil
}

// rankByVector embeds q and scores the pool. ErrProviderNotConfigured means
// there is no embedder or no offer vectors.
func (s *Service) rankByVector(
	ctx context.Context, snap *index.Snapshot, q string, pool []item.Item, n int, minScore float64,
) ([]string, error) {
	if s.embedder == nil || len(snap.Vectors) == 0 {
		return nil, domain.ErrProviderNotConfigured
	}

	emb, err := s.embedder.Embed(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates := make(map[string][]float32, len(pool))
	for i := range pool {
		if v, ok := snap.Vectors[pool[i].ID()]; ok {
			candidates[pool[i].ID()] = v
		}
	}

	scored, err := vector.TopN(emb.Embedding, candidates, n, minScore)
	if err != nil {
		return nil, fmt.Errorf("rank offers: %w", err)
	}
	return vector.IDs(scored), nil
}

// Reload rebuilds the snapshot from artifacts, publishes it and clears the
// result cache. On error the current snapshot stays in place.
func (s *Service) Reload(ctx context.Context) (*index.Snapshot, error) {
	if s.source == nil {
		return nil, fmt.Errorf("reload: no snapshot source configured")
	}

	next, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reload: %w", err)
	}
	s.Publish(next)

	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			// New snapshot is already live; stale shared entries expire on their own.
			s.logger.Warn("Result cache clear failed", zap.Error(err))
		}
	}

	s.logger.Info("Catalog reloaded", zap.Int("items", next.Index.Len()), zap.Time("loaded_at", next.LoadedAt))
	return next, nil
}

// Publish swaps in a snapshot without touching the cache.
func (s *Service) Publish(next *index.Snapshot) {
	s.snapshots.Swap(next)
	if s.metrics.CatalogItems != nil {
		s.metrics.CatalogItems.Set(float64(next.Index.Len()))
	}
}

func (s *Service) cacheGet(ctx context.Context, key string) (resultcache.Entry, bool) {
	if s.cache == nil {
		return resultcache.Entry{}, false
	}
	return s.cache.Get(ctx, key)
}

func (s *Service) cachePut(ctx context.Context, key string, e resultcache.Entry) {
	if s.cache == nil || len(e.IDs) == 0 {
		return
	}
	s.cache.Put(ctx, key, e)
}

func (s *Service) observe(req *request.Request, resp *result.Response) {
	m := string(req.Mode())
	if s.metrics.Requests != nil {
		s.metrics.Requests.WithLabelValues(m, string(resp.Strategy)).Inc()
	}
	if s.metrics.Duration != nil {
		s.metrics.Duration.WithLabelValues(m).Observe(resp.Elapsed.Seconds())
	}
}
