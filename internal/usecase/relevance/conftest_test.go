package relevance

import (
	"context"
	"time"

	"github.com/kailas-cloud/flyerdex/internal/domain"
	"github.com/kailas-cloud/flyerdex/internal/domain/item"
)

type mockCompleter struct {
	completeFn func(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
	calls      int
	lastReq    domain.CompletionRequest
}

func (m *mockCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	m.calls++
	m.lastReq = req
	if m.completeFn != nil {
		return m.completeFn(ctx, req)
	}
	return domain.CompletionResult{}, nil
}

func reply(content string) func(context.Context, domain.CompletionRequest) (domain.CompletionResult, error) {
	return func(context.Context, domain.CompletionRequest) (domain.CompletionResult, error) {
		return domain.CompletionResult{Content: content}, nil
	}
}

func mk(id, name, cat, sub string) item.Item {
	return item.Reconstruct(id, name, cat, sub, "Aldi", 1.99, time.Time{}, time.Time{})
}

func candidates() []item.Item {
	return []item.Item{
		mk("p1", "Kerrygold Butter", "Milchprodukte", "Butter"),
		mk("p2", "Gouda jung", "Käse", "Schnittkäse"),
		mk("p3", "Vollmilch", "Milchprodukte", "Milch"),
		mk("p4", "Rinderhackfleisch", "Fleisch", "Hackfleisch"),
		mk("p5", "Erdbeeren", "Obst", "Beeren"),
	}
}
