package search

import (
	"context"

	"github.com/kailas-cloud/flyerdex/internal/domain"
	domintent "github.com/kailas-cloud/flyerdex/internal/domain/intent"
	"github.com/kailas-cloud/flyerdex/internal/domain/item"
	"github.com/kailas-cloud/flyerdex/internal/index"
	"github.com/kailas-cloud/flyerdex/internal/repository/resultcache"
	"github.com/kailas-cloud/flyerdex/internal/usecase/relevance"
)

// Classifier maps a normalized query to a shopping intent (nil = none).
type Classifier interface {
	Classify(query string) *domintent.Intent
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// RelevanceFilter narrows candidates to the relevant subset. It never fails.
type RelevanceFilter interface {
	Filter(ctx context.Context, query string, candidates []item.Item, in *domintent.Intent) relevance.Outcome
}

// ResultCache stores raw id lists of finished retrievals.
type ResultCache interface {
	Get(ctx context.Context, key string) (resultcache.Entry, bool)
	Put(ctx context.Context, key string, e resultcache.Entry)
	Clear(ctx context.Context) error
}

// SnapshotSource rebuilds the catalog snapshot from artifacts.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*index.Snapshot, error)
}
