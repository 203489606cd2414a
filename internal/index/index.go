// Package index implements the read-only inverted index over the item catalog.
package index

import (
	"strings"
	"unicode"

	"github.com/kailas-cloud/flyerdex/internal/domain/item"
)

// MinTermLength is the shortest token stored in the term map.
const MinTermLength = 2

// IDSet is a set of item identifiers.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set. A nil set contains nothing.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Index maps terms, categories, markets and price buckets to item ids.
// Built once by Build; never mutated afterwards.
type Index struct {
	terms      map[string][]string
	categories map[string][]string
	markets    map[string][]string
	buckets    map[string][]string
	termList   []string
	items      []item.Item
	position   map[string]int
}

// Build creates an index over items. Item order defines result order.
// Duplicate ids keep the first occurrence.
func Build(items []item.Item) *Index {
	idx := &Index{
		terms:      make(map[string][]string),
		categories: make(map[string][]string),
		markets:    make(map[string][]string),
		buckets:    make(map[string][]string),
		position:   make(map[string]int, len(items)),
		items:      make([]item.Item, 0, len(items)),
	}

	for i := range items {
		it := items[i]
		id := it.ID()
		if _, dup := idx.position[id]; dup {
			continue
		}
		idx.position[id] = len(idx.items)
		idx.items = append(idx.items, it)

		seen := make(map[string]bool)
		for _, tok := range Tokenize(it.Text()) {
			if len(tok) < MinTermLength || seen[tok] {
				continue
			}
			seen[tok] = true
			idx.terms[tok] = append(idx.terms[tok], id)
		}
		if c := strings.ToLower(it.Category()); c != "" {
			idx.categories[c] = append(idx.categories[c], id)
		}
		if m := strings.ToLower(it.Market()); m != "" {
			idx.markets[m] = append(idx.markets[m], id)
		}
		if b, ok := item.BucketFor(it.Price()); ok {
			idx.buckets[b] = append(idx.buckets[b], id)
		}
	}

	idx.termList = make([]string, 0, len(idx.terms))
	for t := range idx.terms {
		idx.termList = append(idx.termList, t)
	}
	return idx
}

// Tokenize lowercases s and splits it on anything that is not a letter or digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Items returns all indexed items in catalog order.
func (x *Index) Items() []item.Item { return x.items }

// Len returns the number of indexed items.
func (x *Index) Len() int { return len(x.items) }

// Item returns the item with id.
func (x *Index) Item(id string) (item.Item, bool) {
	p, ok := x.position[id]
	if !ok {
		return item.Item{}, false
	}
	return x.items[p], true
}

// Term returns ids whose text contains the exact token.
func (x *Index) Term(term string) []string { return x.terms[strings.ToLower(term)] }

// ByCategory returns ids of the category (case-insensitive).
func (x *Index) ByCategory(category string) []string {
	return x.categories[strings.ToLower(strings.TrimSpace(category))]
}

// ByMarket returns ids of the market (case-insensitive).
func (x *Index) ByMarket(market string) []string {
	return x.markets[strings.ToLower(strings.TrimSpace(market))]
}

// ByPriceBucket returns ids in the named price bucket.
func (x *Index) ByPriceBucket(bucket string) []string { return x.buckets[bucket] }

// Categories returns the number of distinct categories.
func (x *Index) Categories() int { return len(x.categories) }

// Markets returns the number of distinct markets.
func (x *Index) Markets() int { return len(x.markets) }

// Ordered returns the ids of set in catalog order, skipping unknown ids.
func (x *Index) Ordered(set IDSet) []string {
	out := make([]string, 0, len(set))
	for i := range x.items {
		if set.Has(x.items[i].ID()) {
			out = append(out, x.items[i].ID())
		}
	}
	return out
}
