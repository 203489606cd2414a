package search

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/flyerdex/internal/domain"
	domintent "github.com/kailas-cloud/flyerdex/internal/domain/intent"
	"github.com/kailas-cloud/flyerdex/internal/domain/item"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/mode"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/result"
	"github.com/kailas-cloud/flyerdex/internal/index"
	"github.com/kailas-cloud/flyerdex/internal/repository/resultcache"
	"github.com/kailas-cloud/flyerdex/internal/usecase/relevance"
)

func TestSearch_Butter_IntentPreFilter(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Search(context.Background(), query(t, "Butter"))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// p2 (Süßwaren) is excluded before the relevance filter; p5 is a placeholder.
	if got := f.relevance.lastIDs(); !equalIDs(got, []string{"p1", "p3"}) {
		t.Errorf("candidates: got %v, want [p1 p3]", got)
	}
	if !equalIDs(ids(&resp), []string{"p1", "p3"}) {
		t.Errorf("ids: got %v", ids(&resp))
	}
	if resp.Intent == nil || resp.Intent.Key != "butter" {
		t.Fatalf("expected butter intent, got %+v", resp.Intent)
	}
	if resp.Reduction.Before != 5 || resp.Reduction.After != 2 {
		t.Errorf("reduction: got %+v", resp.Reduction)
	}
	if resp.Reduction.ReductionPercent != 60 {
		t.Errorf("reduction percent: got %v, want 60", resp.Reduction.ReductionPercent)
	}
	if resp.CacheHit {
		t.Error("first call must not be a cache hit")
	}
	if resp.Strategy != result.StrategyAI {
		t.Errorf("strategy: got %q", resp.Strategy)
	}
}

func TestSearch_RepeatedQueryHitsCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Search(ctx, query(t, "butter"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.Search(ctx, query(t, "  BUTTER "))
	if err != nil {
		t.Fatal(err)
	}

	if !second.CacheHit {
		t.Error("expected cache hit")
	}
	if second.Strategy != result.StrategyCache {
		t.Errorf("strategy: got %q", second.Strategy)
	}
	if !equalIDs(ids(&first), ids(&second)) {
		t.Errorf("ids differ: %v vs %v", ids(&first), ids(&second))
	}
	if f.relevance.callCount() != 1 {
		t.Errorf("expected 1 relevance call, got %d", f.relevance.callCount())
	}
	if second.Intent == nil || second.Reduction.After != 2 {
		t.Errorf("cache hit must still report intent and reduction: %+v", second)
	}
}

func TestSearch_CacheKeyIncludesMode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Search(ctx, query(t, "butter")); err != nil {
		t.Fatal(err)
	}
	resp, err := f.svc.Search(ctx, newRequest(t, "butter", mode.Keyword, nil, 0, 0, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if resp.CacheHit {
		t.Error("keyword mode must not reuse the hybrid entry")
	}
}

func TestSearch_MarketFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Search(ctx, newRequest(t, "butter", "", []string{"aldi"}, 0, 0, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(&resp), []string{"p1"}) {
		t.Errorf("ids: got %v, want [p1]", ids(&resp))
	}

	// Cached raw list is pre-market-filter: a different market reuses it.
	resp, err = f.svc.Search(ctx, newRequest(t, "butter", "", []string{"LIDL"}, 0, 0, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !resp.CacheHit || !equalIDs(ids(&resp), []string{"p3"}) {
		t.Errorf("expected cached [p3], got hit=%v ids=%v", resp.CacheHit, ids(&resp))
	}
}

func TestSearch_PriceFilter(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Search(context.Background(), newRequest(t, "butter", "", nil, 2.5, 3, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(&resp), []string{"p3"}) {
		t.Errorf("ids: got %v, want [p3]", ids(&resp))
	}
}

func TestSearch_PriceInvariant_AllPaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.relevance.fn = func(string, []item.Item, *domintent.Intent) relevance.Outcome {
		return relevance.Outcome{IDs: []string{"p5", "p1", "ghost"}, Tier: result.StrategyAI}
	}

	// A poisoned cache entry must be filtered too.
	f.cache.Put(ctx, resultcache.Key(mode.Keyword, "platzhalter", ""), resultcache.Entry{IDs: []string{"p5", "p4"}})

	tests := []struct {
		name string
		q    string
		m    mode.Mode
	}{
		{"hybrid", "butter", mode.Hybrid},
		{"keyword", "butter", mode.Keyword},
		{"semantic fallback", "butter", mode.Semantic},
		{"cache hit", "platzhalter", mode.Keyword},
		{"browse", "", mode.Hybrid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.svc.Search(ctx, newRequest(t, tt.q, tt.m, nil, 0, 0, 0, 0))
			if err != nil {
				t.Fatal(err)
			}
			for _, it := range resp.Items {
				if it.Price() <= 0 {
					t.Errorf("placeholder %s returned", it.ID())
				}
			}
		})
	}
}

func TestSearch_IntentSafetyNet(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Search(context.Background(), query(t, "gemüse"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Intent == nil || resp.Intent.Key != "gemuese" {
		t.Fatalf("expected gemuese intent, got %+v", resp.Intent)
	}
	if resp.Reduction.Before != resp.Reduction.After || resp.Reduction.After != 5 {
		t.Errorf("safety net must keep the unfiltered set: %+v", resp.Reduction)
	}
	f.relevance.mu.Lock()
	defer f.relevance.mu.Unlock()
	if f.relevance.intent != nil {
		t.Error("relevance filter must run without the empty intent")
	}
	if len(f.relevance.last) != 5 {
		t.Errorf("expected 5 candidates, got %d", len(f.relevance.last))
	}
}

func TestSearch_NoIntent_Permissive(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Search(context.Background(), query(t, "hackfleisch"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Intent != nil {
		t.Errorf("expected no intent, got %+v", resp.Intent)
	}
	if resp.Reduction.ReductionPercent != 0 {
		t.Errorf("expected no reduction, got %+v", resp.Reduction)
	}
}

func TestSearch_FallbackChainCompleteness(t *testing.T) {
	holder := index.NewHolder(newSnapshot(t, fixtureItems(), nil))
	// No completer: every call takes the heuristic tiers.
	filter := relevance.New(nil, relevance.Config{}, nil, nil, zap.NewNop())
	svc := New(holder, fixtureClassifier(t), filter, zap.NewNop())

	resp, err := svc.Search(context.Background(), query(t, "butter"))
	if err != nil {
		t.Fatalf("Search must not fail on provider absence: %v", err)
	}
	if resp.Strategy != result.StrategyHeuristic {
		t.Errorf("strategy: got %q, want heuristic", resp.Strategy)
	}
	if !equalIDs(ids(&resp), []string{"p1", "p3"}) {
		t.Errorf("ids: got %v", ids(&resp))
	}
}

func TestSearch_Browse(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Search(context.Background(), newRequest(t, "", "", nil, 0, 0, 1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Strategy != result.StrategyBrowse {
		t.Errorf("strategy: got %q", resp.Strategy)
	}
	if resp.Total != 5 {
		t.Errorf("total: got %d, want 5", resp.Total)
	}
	if !equalIDs(ids(&resp), []string{"p2", "p3"}) {
		t.Errorf("page: got %v", ids(&resp))
	}
	if !resp.HasMore {
		t.Error("expected hasMore")
	}
	if f.relevance.callCount() != 0 {
		t.Error("browse must not call the relevance filter")
	}
}

func TestSearch_Pagination_LastPage(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Search(context.Background(), newRequest(t, "", "", []string{"Aldi"}, 0, 0, 2, 5))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 3 || resp.HasMore || !equalIDs(ids(&resp), []string{"p6"}) {
		t.Errorf("unexpected page: total=%d hasMore=%v ids=%v", resp.Total, resp.HasMore, ids(&resp))
	}

	resp, err = f.svc.Search(context.Background(), newRequest(t, "", "", nil, 0, 0, 50, 5))
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 0 || resp.HasMore {
		t.Errorf("offset past end: %+v", resp)
	}
}

func TestSearch_KeywordMode(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Search(context.Background(), newRequest(t, "hack", mode.Keyword, nil, 0, 0, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Strategy != result.StrategyKeyword || !equalIDs(ids(&resp), []string{"p6"}) {
		t.Errorf("got strategy=%q ids=%v", resp.Strategy, ids(&resp))
	}
	if f.relevance.callCount() != 0 {
		t.Error("keyword mode must not call the relevance filter")
	}
}

func TestSearch_SemanticMode(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{0, 1, 0}}
	f := newFixture(t, WithEmbedder(emb), WithConfig(Config{SemanticTopN: 1}))

	resp, err := f.svc.Search(context.Background(), newRequest(t, "butter", mode.Semantic, nil, 0, 0, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Strategy != result.StrategySemantic || !equalIDs(ids(&resp), []string{"p3"}) {
		t.Errorf("got strategy=%q ids=%v", resp.Strategy, ids(&resp))
	}
}

func TestSearch_SemanticFallsBackToKeyword(t *testing.T) {
	emb := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	f := newFixture(t, WithEmbedder(emb))

	resp, err := f.svc.Search(context.Background(), newRequest(t, "hack", mode.Semantic, nil, 0, 0, 0, 0))
	if err != nil {
		t.Fatalf("embedding failure must be absorbed: %v", err)
	}
	if resp.Strategy != result.StrategyKeyword || !equalIDs(ids(&resp), []string{"p6"}) {
		t.Errorf("got strategy=%q ids=%v", resp.Strategy, ids(&resp))
	}
}

func TestSearch_DimMismatchPropagates(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	f := newFixture(t, WithEmbedder(emb))

	_, err := f.svc.Search(context.Background(), newRequest(t, "butter", mode.Semantic, nil, 0, 0, 0, 0))
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestSearch_HybridPrunesByVector(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{0, 1, 0}}
	f := newFixture(t, WithEmbedder(emb), WithConfig(Config{AICandidateLimit: 1}))

	if _, err := f.svc.Search(context.Background(), query(t, "butter")); err != nil {
		t.Fatal(err)
	}
	if got := f.relevance.lastIDs(); !equalIDs(got, []string{"p3"}) {
		t.Errorf("candidates: got %v, want [p3]", got)
	}
}

func TestSearch_HybridPrunesLexically(t *testing.T) {
	f := newFixture(t, WithConfig(Config{AICandidateLimit: 2}))

	if _, err := f.svc.Search(context.Background(), query(t, "vollmilch")); err != nil {
		t.Fatal(err)
	}
	if got := f.relevance.lastIDs(); !equalIDs(got, []string{"p4"}) {
		t.Errorf("candidates: got %v, want [p4]", got)
	}
}

func TestSearch_EmptyResultNotCached(t *testing.T) {
	f := newFixture(t)
	f.relevance.fn = func(string, []item.Item, *domintent.Intent) relevance.Outcome {
		return relevance.Outcome{Tier: result.StrategyDesperate}
	}

	resp, err := f.svc.Search(context.Background(), query(t, "zahnpasta"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 0 || len(resp.Items) != 0 {
		t.Errorf("expected empty result, got %+v", resp)
	}
	if f.cache.Len() != 0 {
		t.Errorf("expected nothing cached, got %d", f.cache.Len())
	}
}

func TestSearch_CatalogNotLoaded(t *testing.T) {
	svc := New(index.NewHolder(nil), fixtureClassifier(t), &mockRelevance{}, zap.NewNop())
	_, err := svc.Search(context.Background(), query(t, "butter"))
	if !errors.Is(err, domain.ErrCatalogNotLoaded) {
		t.Fatalf("expected ErrCatalogNotLoaded, got %v", err)
	}
}

func TestReload_SwapsSnapshotAndClearsCache(t *testing.T) {
	next := newSnapshot(t, fixtureItems()[:1], nil)
	f := newFixture(t, WithSnapshotSource(&mockSource{snap: next}))
	ctx := context.Background()

	if _, err := f.svc.Search(ctx, query(t, "butter")); err != nil {
		t.Fatal(err)
	}
	if f.cache.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", f.cache.Len())
	}

	if _, err := f.svc.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if f.cache.Len() != 0 {
		t.Errorf("expected cache cleared, got %d", f.cache.Len())
	}

	resp, err := f.svc.Search(ctx, query(t, "butter"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.CacheHit || !equalIDs(ids(&resp), []string{"p1"}) {
		t.Errorf("expected fresh [p1], got hit=%v ids=%v", resp.CacheHit, ids(&resp))
	}
}

func TestReload_ErrorKeepsSnapshot(t *testing.T) {
	f := newFixture(t, WithSnapshotSource(&mockSource{err: errors.New("disk gone")}))

	if _, err := f.svc.Reload(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	snap, err := f.holder.Load()
	if err != nil || snap.Index.Len() != 6 {
		t.Errorf("expected original snapshot, got %v, %v", snap, err)
	}
}

func TestReload_NoSource(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Reload(context.Background()); err == nil {
		t.Fatal("expected error without snapshot source")
	}
}
