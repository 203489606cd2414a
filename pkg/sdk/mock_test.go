package flyerdex

import (
	"context"

	"github.com/kailas-cloud/flyerdex/internal/domain/search/request"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/result"
	"github.com/kailas-cloud/flyerdex/internal/index"
	healthuc "github.com/kailas-cloud/flyerdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/flyerdex/internal/usecase/search"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, req request.Request) (result.Response, error)
	recipeFn func(ctx context.Context, ingredients []string, base request.Request) ([]searchuc.RecipeResult, error)
	reloadFn func(ctx context.Context) (*index.Snapshot, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req request.Request) (result.Response, error) {
	return m.searchFn(ctx, req)
}

func (m *mockSearchUC) SearchRecipe(
	ctx context.Context, ingredients []string, base request.Request,
) ([]searchuc.RecipeResult, error) {
	return m.recipeFn(ctx, ingredients, base)
}

func (m *mockSearchUC) Reload(ctx context.Context) (*index.Snapshot, error) {
	return m.reloadFn(ctx)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- helpers ---

func testClient(searchSvc searchUseCase, healthSvc healthUseCase) *Client {
	return &Client{
		searchSvc: searchSvc,
		healthSvc: healthSvc,
	}
}
