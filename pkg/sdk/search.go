package flyerdex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/flyerdex/internal/domain"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/mode"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/request"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/result"
)

// Search runs one query through the pipeline.
func (c *Client) Search(ctx context.Context, q Query) (page Page, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	req, err := toRequest(&q)
	if err != nil {
		return Page{}, err
	}
	resp, err := c.searchSvc.Search(ctx, req)
	if err != nil {
		return Page{}, fmt.Errorf("search: %w", err)
	}
	page = pageFromResponse(&resp)
	c.obs.page(&page)
	return page, nil
}

// SearchRecipe searches every ingredient with the filters and paging of base.
// base.Text is ignored. Blank ingredients are skipped; pages keep input order.
func (c *Client) SearchRecipe(ctx context.Context, ingredients []string, base Query) (pages []RecipePage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search_recipe", start, err) }()

	base.Text = ""
	req, err := toRequest(&base)
	if err != nil {
		return nil, err
	}
	results, err := c.searchSvc.SearchRecipe(ctx, ingredients, req)
	if err != nil {
		return nil, fmt.Errorf("search recipe: %w", err)
	}
	pages = make([]RecipePage, len(results))
	for i := range results {
		pages[i] = RecipePage{
			Ingredient: results[i].Ingredient,
			Page:       pageFromResponse(&results[i].Response),
		}
		c.obs.page(&pages[i].Page)
	}
	return pages, nil
}

// Reload re-reads the catalog artifacts and swaps them in atomically.
// On failure the current catalog keeps serving. Returns the new offer count.
func (c *Client) Reload(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reload", start, err) }()

	snap, err := c.searchSvc.Reload(ctx)
	if err != nil {
		return 0, fmt.Errorf("reload: %w", err)
	}
	return snap.Index.Len(), nil
}

func toRequest(q *Query) (request.Request, error) {
	req, err := request.New(q.Text, mode.Mode(q.Mode), q.Markets, q.MinPrice, q.MaxPrice, q.Offset, q.Limit)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	req = req.WithCategories(q.Categories...)
	if !q.ActiveOn.IsZero() {
		req = req.WithActiveOn(q.ActiveOn)
	}
	return req, nil
}

func pageFromResponse(r *result.Response) Page {
	offers := make([]Offer, len(r.Items))
	for i := range r.Items {
		it := &r.Items[i]
		offers[i] = Offer{
			ID:          it.ID(),
			Name:        it.Name(),
			Category:    it.Category(),
			SubCategory: it.SubCategory(),
			Market:      it.Market(),
			Price:       it.Price(),
			ValidFrom:   it.ValidFrom(),
			ValidTo:     it.ValidTo(),
		}
	}
	p := Page{
		Offers:           offers,
		Total:            r.Total,
		HasMore:          r.HasMore,
		Strategy:         string(r.Strategy),
		CacheHit:         r.CacheHit,
		CandidatesBefore: r.Reduction.Before,
		CandidatesAfter:  r.Reduction.After,
		Elapsed:          r.Elapsed,
	}
	if r.Intent != nil {
		p.Intent = &Intent{
			Key:               r.Intent.Key,
			IncludeCategories: r.Intent.IncludeCategories,
			ExcludeCategories: r.Intent.ExcludeCategories,
			Confidence:        r.Intent.Confidence,
		}
	}
	return p
}
