package search

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/flyerdex/internal/domain/search/request"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/result"
)

// RecipeResult is the retrieval for one ingredient.
type RecipeResult struct {
	Ingredient string
	Response   result.Response
}

// SearchRecipe runs one retrieval per ingredient with the filters and paging of
// base. Results keep ingredient order; blank ingredients are skipped.
func (s *Service) SearchRecipe(ctx context.Context, ingredients []string, base request.Request) ([]RecipeResult, error) {
	names := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			names = append(names, ing)
		}
	}

	out := make([]RecipeResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.RecipeConcurrency)

	for i, name := range names {
		g.Go(func() error {
			resp, err := s.Search(gctx, base.WithQuery(name))
			if err != nil {
				return fmt.Errorf("ingredient %q: %w", name, err)
			}
			out[i] = RecipeResult{Ingredient: name, Response: resp}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
