package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/flyerdex/internal/domain"
	domintent "github.com/kailas-cloud/flyerdex/internal/domain/intent"
	"github.com/kailas-cloud/flyerdex/internal/domain/item"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/mode"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/request"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/result"
	"github.com/kailas-cloud/flyerdex/internal/index"
	"github.com/kailas-cloud/flyerdex/internal/repository/resultcache"
	ucintent "github.com/kailas-cloud/flyerdex/internal/usecase/intent"
	"github.com/kailas-cloud/flyerdex/internal/usecase/relevance"
)

// --- Mocks ---

type mockRelevance struct {
	mu     sync.Mutex
	fn     func(query string, candidates []item.Item, in *domintent.Intent) relevance.Outcome
	calls  int
	last   []item.Item
	intent *domintent.Intent
}

func (m *mockRelevance) Filter(
	_ context.Context, query string, candidates []item.Item, in *domintent.Intent,
) relevance.Outcome {
	m.mu.Lock()
	m.calls++
	m.last = candidates
	m.intent = in
	fn := m.fn
	m.mu.Unlock()

	if fn != nil {
		return fn(query, candidates, in)
	}
	// Accept every candidate.
	ids := make([]string, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].ID()
	}
	return relevance.Outcome{IDs: ids, Tier: result.StrategyAI}
}

func (m *mockRelevance) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockRelevance) lastIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.last))
	for i := range m.last {
		ids[i] = m.last[i].ID()
	}
	return ids
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockSource struct {
	snap *index.Snapshot
	err  error
}

func (m *mockSource) Snapshot(_ context.Context) (*index.Snapshot, error) {
	return m.snap, m.err
}

// --- Fixtures ---

func fixtureItems() []item.Item {
	var zero time.Time
	return []item.Item{
		item.Reconstruct("p1", "Deutsche Markenbutter", "Molkereiprodukte", "Butter", "Aldi", 2.29, zero, zero),
		item.Reconstruct("p2", "Butterkekse", "Süßwaren", "Kekse", "Lidl", 1.19, zero, zero),
		item.Reconstruct("p3", "Kerrygold Butter", "Molkereiprodukte", "Butter", "Lidl", 2.99, zero, zero),
		item.Reconstruct("p4", "Vollmilch", "Molkereiprodukte", "Milch", "Aldi", 0.99, zero, zero),
		item.Reconstruct("p5", "Butter Platzhalter", "Molkereiprodukte", "Butter", "Rewe", 0, zero, zero),
		item.Reconstruct("p6", "Rinderhackfleisch", "Fleisch", "Hackfleisch", "Aldi", 4.99, zero, zero),
	}
}

func fixtureVectors() map[string][]float32 {
	return map[string][]float32{
		"p1": {1, 0, 0},
		"p2": {0.7, 0.7, 0},
		"p3": {0, 1, 0},
		"p4": {0, 0, 1},
		"p6": {0.5, 0, 0.5},
	}
}

func fixtureClassifier(t *testing.T) *ucintent.Classifier {
	t.Helper()
	reg, skipped := domintent.Merge([]domintent.Definition{
		{
			Key:               "butter",
			Patterns:          []string{"butter"},
			IncludeCategories: []string{"Butter"},
			ExcludeCategories: []string{"Süßwaren", "Kekse"},
			Priority:          10,
		},
		{
			Key:               "gemuese",
			Patterns:          []string{"gemüse"},
			IncludeCategories: []string{"Gemüse"},
			Priority:          10,
		},
	}, nil)
	if len(skipped) > 0 {
		t.Fatalf("unexpected skipped definitions: %v", skipped)
	}
	return ucintent.NewClassifier(reg, ucintent.DefaultMinConfidence)
}

func newSnapshot(t *testing.T, items []item.Item, vectors map[string][]float32) *index.Snapshot {
	t.Helper()
	snap, err := index.NewSnapshot(items, vectors, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return snap
}

type fixture struct {
	svc       *Service
	relevance *mockRelevance
	cache     *resultcache.Cache
	holder    *index.Holder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	holder := index.NewHolder(newSnapshot(t, fixtureItems(), fixtureVectors()))
	rel := &mockRelevance{}
	rc := resultcache.New(10, time.Minute, zap.NewNop())
	opts = append([]Option{WithResultCache(rc)}, opts...)
	svc := New(holder, fixtureClassifier(t), rel, zap.NewNop(), opts...)
	return &fixture{svc: svc, relevance: rel, cache: rc, holder: holder}
}

func newRequest(t *testing.T, q string, m mode.Mode, markets []string, minPrice, maxPrice float64, offset, limit int) request.Request {
	t.Helper()
	req, err := request.New(q, m, markets, minPrice, maxPrice, offset, limit)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return req
}

func query(t *testing.T, q string) request.Request {
	t.Helper()
	return newRequest(t, q, "", nil, 0, 0, 0, 0)
}

func ids(resp *result.Response) []string { return resp.IDs() }

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
