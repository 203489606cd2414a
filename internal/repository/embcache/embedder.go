package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/flyerdex/internal/db"
	"github.com/kailas-cloud/flyerdex/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "emb_cache:"

// DefaultSize is the in-process cache capacity.
const DefaultSize = 1000

// store is the consumer interface for the shared embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CachedEmbedder caches embeddings in process (LRU) and optionally in a
// shared key-value store. Keys are normalized: trimmed and lowercased.
type CachedEmbedder struct {
	inner      domain.Embedder
	local      *lru.Cache[string, []float32]
	store      store
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. s may be nil (in-process cache only).
// cacheTotal is a counter vec with labels "tier" ("local"/"shared") and
// "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Embedder,
	size int,
	s store,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if size <= 0 {
		size = DefaultSize
	}
	local, _ := lru.New[string, []float32](size) //nolint:errcheck // size > 0
	return &CachedEmbedder{
		inner:      inner,
		local:      local,
		store:      s,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
// Cache miss: full EmbeddingResult from inner.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	norm := normalize(text)

	if vec, ok := c.Get(norm); ok {
		c.incCache("local", "hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.incCache("local", "miss")

	key := cacheKey(norm)
	if c.store != nil {
		if vec, ok := c.getFromStore(ctx, key); ok {
			c.incCache("shared", "hit")
			c.local.Add(norm, vec)
			return domain.EmbeddingResult{Embedding: vec}, nil
		}
		c.incCache("shared", "miss")
	}

	result, err := c.inner.Embed(ctx, norm)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.Put(norm, result.Embedding)
	if c.store != nil {
		c.putToStore(ctx, key, result.Embedding)
	}
	return result, nil
}

// Get returns a copy of the in-process vector for text.
func (c *CachedEmbedder) Get(text string) ([]float32, bool) {
	vec, ok := c.local.Get(normalize(text))
	if !ok {
		return nil, false
	}
	return append([]float32(nil), vec...), true
}

// Put stores a copy of vec for text in process, replacing any previous value.
func (c *CachedEmbedder) Put(text string, vec []float32) {
	c.local.Add(normalize(text), append([]float32(nil), vec...))
}

// Len returns the number of in-process entries.
func (c *CachedEmbedder) Len() int { return c.local.Len() }

// Clear drops every in-process entry. The shared store is left intact.
func (c *CachedEmbedder) Clear() { c.local.Purge() }

func (c *CachedEmbedder) incCache(tier, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(tier, result).Inc()
	}
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func cacheKey(norm string) string {
	h := sha256.Sum256([]byte(norm))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromStore(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return vec, true
}

func (c *CachedEmbedder) putToStore(ctx context.Context, key string, vec []float32) {
	data := vectorToCacheBytes(vec)
	if err := c.store.Set(ctx, key, data); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
