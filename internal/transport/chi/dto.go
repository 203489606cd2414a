package chi

import (
	"time"

	domintent "github.com/kailas-cloud/flyerdex/internal/domain/intent"
	"github.com/kailas-cloud/flyerdex/internal/domain/item"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/flyerdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/flyerdex/internal/usecase/search"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeValidationFailed  ErrorCode = "validation_failed"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeCatalogNotLoaded  ErrorCode = "catalog_not_loaded"
	ErrorCodeVectorDimMismatch ErrorCode = "vector_dim_mismatch"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the error body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query      string   `json:"query"`
	Mode       string   `json:"mode,omitempty"`
	Markets    []string `json:"markets,omitempty"`
	Categories []string `json:"categories,omitempty"`
	ActiveOn   string   `json:"active_on,omitempty"` // YYYY-MM-DD
	MinPrice   float64  `json:"min_price,omitempty"`
	MaxPrice   float64  `json:"max_price,omitempty"`
	Offset     int      `json:"offset,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

// RecipeRequest is the body of POST /search/recipe. Filters and paging apply
// to every ingredient.
type RecipeRequest struct {
	Ingredients []string `json:"ingredients"`
	Mode        string   `json:"mode,omitempty"`
	Markets     []string `json:"markets,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	ActiveOn    string   `json:"active_on,omitempty"`
	MinPrice    float64  `json:"min_price,omitempty"`
	MaxPrice    float64  `json:"max_price,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// Offer is one retrieved item.
type Offer struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	SubCategory string  `json:"sub_category"`
	Market      string  `json:"market"`
	Price       float64 `json:"price"`
	ValidFrom   string  `json:"valid_from,omitempty"`
	ValidTo     string  `json:"valid_to,omitempty"`
}

// Intent is the classified shopping intent.
type Intent struct {
	Key               string   `json:"key"`
	IncludeCategories []string `json:"include_categories"`
	ExcludeCategories []string `json:"exclude_categories,omitempty"`
	Confidence        float64  `json:"confidence"`
}

// ReductionStats reports the intent pre-filter effect.
type ReductionStats struct {
	Before           int     `json:"before"`
	After            int     `json:"after"`
	ReductionPercent float64 `json:"reduction_percent"`
}

// SearchResponse is one page of results.
type SearchResponse struct {
	Items          []Offer        `json:"items"`
	Total          int            `json:"total"`
	HasMore        bool           `json:"has_more"`
	Intent         *Intent        `json:"intent"`
	ReductionStats ReductionStats `json:"reduction_stats"`
	CacheHit       bool           `json:"cache_hit"`
	Strategy       string         `json:"strategy"`
	ElapsedMs      int64          `json:"elapsed_ms"`
}

// RecipeIngredient is the result page of one ingredient.
type RecipeIngredient struct {
	Ingredient string         `json:"ingredient"`
	Result     SearchResponse `json:"result"`
}

// RecipeResponse is the body returned by POST /search/recipe.
type RecipeResponse struct {
	Ingredients []RecipeIngredient `json:"ingredients"`
}

// ReloadResponse is the body returned by POST /admin/reload.
type ReloadResponse struct {
	Items    int       `json:"items"`
	Vectors  int       `json:"vectors"`
	LoadedAt time.Time `json:"loaded_at"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Items  int               `json:"items"`
}

func offerFromItem(it *item.Item) Offer {
	o := Offer{
		ID:          it.ID(),
		Name:        it.Name(),
		Category:    it.Category(),
		SubCategory: it.SubCategory(),
		Market:      it.Market(),
		Price:       it.Price(),
	}
	if !it.ValidFrom().IsZero() {
		o.ValidFrom = it.ValidFrom().Format(time.DateOnly)
	}
	if !it.ValidTo().IsZero() {
		o.ValidTo = it.ValidTo().Format(time.DateOnly)
	}
	return o
}

func intentToDTO(in *domintent.Intent) *Intent {
	if in == nil {
		return nil
	}
	return &Intent{
		Key:               in.Key,
		IncludeCategories: in.IncludeCategories,
		ExcludeCategories: in.ExcludeCategories,
		Confidence:        in.Confidence,
	}
}

// SearchResponseFromResult maps a retrieval page to its wire form.
func SearchResponseFromResult(r *result.Response) SearchResponse {
	items := make([]Offer, len(r.Items))
	for i := range r.Items {
		items[i] = offerFromItem(&r.Items[i])
	}
	return SearchResponse{
		Items:   items,
		Total:   r.Total,
		HasMore: r.HasMore,
		Intent:  intentToDTO(r.Intent),
		ReductionStats: ReductionStats{
			Before:           r.Reduction.Before,
			After:            r.Reduction.After,
			ReductionPercent: r.Reduction.ReductionPercent,
		},
		CacheHit:  r.CacheHit,
		Strategy:  string(r.Strategy),
		ElapsedMs: r.Elapsed.Milliseconds(),
	}
}

// RecipeResponseFromResults maps per-ingredient pages to their wire form.
func RecipeResponseFromResults(results []searchuc.RecipeResult) RecipeResponse {
	out := make([]RecipeIngredient, len(results))
	for i := range results {
		out[i] = RecipeIngredient{
			Ingredient: results[i].Ingredient,
			Result:     SearchResponseFromResult(&results[i].Response),
		}
	}
	return RecipeResponse{Ingredients: out}
}

func healthToDTO(r healthuc.Report) HealthResponse {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{Status: string(r.Status), Checks: checks, Items: r.Items}
}
