package flyerdex

import "time"

// SearchMode controls the retrieval strategy.
type SearchMode string

// Search mode constants.
const (
	ModeHybrid   SearchMode = "hybrid"
	ModeSemantic SearchMode = "semantic"
	ModeKeyword  SearchMode = "keyword"
)

// Query is one search. An empty Text browses the whole catalog.
// MaxPrice <= 0 means unbounded; Limit <= 0 selects the default page size.
// A zero ActiveOn keeps offers regardless of their validity dates.
type Query struct {
	Text       string
	Mode       SearchMode
	Markets    []string
	Categories []string
	ActiveOn   time.Time
	MinPrice   float64
	MaxPrice   float64
	Offset     int
	Limit      int
}

// Offer is a flyer item.
type Offer struct {
	ID          string
	Name        string
	Category    string
	SubCategory string
	Market      string
	Price       float64
	ValidFrom   time.Time // zero when open
	ValidTo     time.Time // zero when open
}

// Intent is the shopping purpose a query was classified into.
type Intent struct {
	Key               string
	IncludeCategories []string
	ExcludeCategories []string
	Confidence        float64
}

// Page is one page of offers plus how the pipeline produced them.
type Page struct {
	Offers   []Offer
	Total    int
	HasMore  bool
	Intent   *Intent // nil when no intent was recognized
	Strategy string  // browse, keyword, semantic, ai, heuristic, desperate, cache
	CacheHit bool

	// CandidatesBefore and CandidatesAfter bracket the intent pre-filter.
	CandidatesBefore int
	CandidatesAfter  int
	Elapsed          time.Duration
}

// RecipePage is the page for one recipe ingredient.
type RecipePage struct {
	Ingredient string
	Page       Page
}
