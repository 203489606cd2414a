package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/flyerdex/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 512
	DefaultLimit   = 20
	MaxLimit       = 200
)

// Request is a validated search query.
type Request struct {
	query      string
	normalized string
	searchMode mode.Mode
	markets    []string
	categories []string
	activeOn   time.Time
	minPrice   float64
	maxPrice   float64
	offset     int
	limit      int
}

// New validates and normalizes search parameters.
// An empty query is valid and means "browse everything".
// Defaults: mode=hybrid, limit=20. maxPrice <= 0 means unbounded.
func New(
	query string,
	m mode.Mode,
	markets []string,
	minPrice, maxPrice float64,
	offset, limit int,
) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if offset < 0 {
		return Request{}, fmt.Errorf("offset must not be negative")
	}
	if minPrice < 0 {
		return Request{}, fmt.Errorf("min_price must not be negative")
	}
	if maxPrice > 0 && maxPrice < minPrice {
		return Request{}, fmt.Errorf("max_price must not be below min_price")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Request{
		query:      query,
		normalized: Normalize(query),
		searchMode: m,
		markets:    cleanList(markets),
		minPrice:   minPrice,
		maxPrice:   maxPrice,
		offset:     offset,
		limit:      limit,
	}, nil
}

// Normalize lowercases and trims a query. Inner whitespace runs collapse to one space.
func Normalize(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// Query returns the raw query text.
func (r *Request) Query() string { return r.query }

// Normalized returns the lowercase, trimmed query.
func (r *Request) Normalized() string { return r.normalized }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Markets returns the allowed markets (empty = all).
func (r *Request) Markets() []string { return r.markets }

// MinPrice returns the inclusive lower price bound.
func (r *Request) MinPrice() float64 { return r.minPrice }

// MaxPrice returns the inclusive upper price bound (0 = unbounded).
func (r *Request) MaxPrice() float64 { return r.maxPrice }

// Categories returns the allowed categories (empty = all).
func (r *Request) Categories() []string { return r.categories }

// ActiveOn returns the day offers must be valid on (zero = any day).
func (r *Request) ActiveOn() time.Time { return r.activeOn }

// HasPriceFilter reports whether a price range was requested.
func (r *Request) HasPriceFilter() bool { return r.minPrice > 0 || r.maxPrice > 0 }

// Offset returns the pagination offset.
func (r *Request) Offset() int { return r.offset }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// WithQuery returns a copy of r for a different query text.
func (r *Request) WithQuery(q string) Request {
	c := *r
	c.query = q
	c.normalized = Normalize(q)
	return c
}

// WithCategories returns a copy of r restricted to the given categories.
func (r *Request) WithCategories(categories ...string) Request {
	c := *r
	c.categories = cleanList(categories)
	return c
}

// WithActiveOn returns a copy of r that keeps only offers valid on day.
func (r *Request) WithActiveOn(day time.Time) Request {
	c := *r
	c.activeOn = day
	return c
}

func cleanList(in []string) []string {
	var out []string
	for _, m := range in {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
