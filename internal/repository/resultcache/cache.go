// Package resultcache stores ordered item-id lists of finished retrievals.
package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/flyerdex/internal/cache"
	"github.com/kailas-cloud/flyerdex/internal/db"
	"github.com/kailas-cloud/flyerdex/internal/domain"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/mode"
)

var keyPrefix = domain.KeyPrefix + "result_cache:"

// Defaults match the in-process cache limits.
const (
	DefaultSize = 100
	DefaultTTL  = 30 * time.Minute
)

// store is the consumer interface for the shared result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Entry is a cached retrieval: ids in result order plus the intent that shaped them.
type Entry struct {
	IDs        []string  `json:"ids"`
	IntentKey  string    `json:"intent,omitempty"`
	Strategy   string    `json:"strategy,omitempty"`
	InsertedAt time.Time `json:"inserted_at"`
}

// Cache is an insertion-ordered TTL cache with an optional shared tier.
// Entries are evicted oldest-inserted first; reads do not refresh them.
type Cache struct {
	local      *cache.FIFO[string, Entry]
	store      store
	ttl        time.Duration
	now        func() time.Time
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithStore enables the shared tier.
func WithStore(s store) Option {
	return func(c *Cache) { c.store = s }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics sets the hit/miss counter (labels "tier", "result").
func WithMetrics(cacheTotal *prometheus.CounterVec) Option {
	return func(c *Cache) { c.cacheTotal = cacheTotal }
}

// New creates a result cache. size <= 0 and ttl <= 0 select the defaults.
func New(size int, ttl time.Duration, logger *zap.Logger, opts ...Option) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{ttl: ttl, now: time.Now, logger: logger}
	for _, o := range opts {
		o(c)
	}
	c.local = cache.NewFIFO[string, Entry](size, ttl).WithClock(c.now)
	return c
}

// Key builds the cache key for a normalized query under mode and intent.
func Key(m mode.Mode, normalizedQuery, intentKey string) string {
	return string(m) + ":" + normalizedQuery + "|" + intentKey
}

// Get returns the entry for key. A shared hit is copied into the local tier
// and keeps its original insertion time, so it expires when the shared entry does.
func (c *Cache) Get(ctx context.Context, key string) (Entry, bool) {
	if e, ok := c.local.Get(key); ok {
		c.inc("local", "hit")
		return e, true
	}
	c.inc("local", "miss")

	if c.store == nil {
		return Entry{}, false
	}

	data, err := c.store.Get(ctx, sharedKey(key))
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached result", zap.String("key", key), zap.Error(err))
		}
		c.inc("shared", "miss")
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("Failed to parse cached result", zap.String("key", key), zap.Error(err))
		c.inc("shared", "miss")
		return Entry{}, false
	}
	if c.now().Sub(e.InsertedAt) >= c.ttl {
		c.inc("shared", "miss")
		return Entry{}, false
	}

	c.inc("shared", "hit")
	c.local.PutAt(key, e, e.InsertedAt)
	return e, true
}

// Put stores ids under key in both tiers.
func (c *Cache) Put(ctx context.Context, key string, e Entry) {
	e.IDs = append([]string(nil), e.IDs...)
	if e.InsertedAt.IsZero() {
		e.InsertedAt = c.now()
	}
	c.local.Put(key, e)

	if c.store == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		c.logger.Warn("Failed to encode result", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, sharedKey(key), data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache result", zap.String("key", key), zap.Error(err))
	}
}

// Len returns the number of local entries.
func (c *Cache) Len() int { return c.local.Len() }

// Clear drops every entry in both tiers.
func (c *Cache) Clear(ctx context.Context) error {
	c.local.Clear()
	if c.store == nil {
		return nil
	}

	keys, err := c.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return err
	}
	return c.store.Del(ctx, keys...)
}

// CleanupExpired drops expired local entries and returns how many were removed.
func (c *Cache) CleanupExpired() int { return c.local.CleanupExpired() }

func (c *Cache) inc(tier, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(tier, result).Inc()
	}
}

// sharedKey hashes the logical key so arbitrary query text stays a safe Redis key.
func sharedKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return keyPrefix + hex.EncodeToString(h[:])
}
