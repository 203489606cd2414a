package index

import (
	"strings"
	"unicode/utf8"
)

// reverseMatchMinWord is the minimum query word length for matching indexed
// terms contained in the word (e.g. "butterkeks" -> "butter").
const reverseMatchMinWord = 4

// Search returns ids of items lexically matching any query word, in catalog order.
// Per word it unions: exact term hits, indexed terms containing the word, indexed
// terms contained in the word (words longer than 3 chars) and a raw substring scan
// over item text. When candidates is non-nil only ids in it are returned.
// There is no ranking: this is a membership test.
func (x *Index) Search(query string, candidates IDSet) []string {
	words := Tokenize(query)
	if len(words) == 0 {
		return nil
	}

	hits := make(IDSet)
	add := func(ids []string) {
		for _, id := range ids {
			if candidates == nil || candidates.Has(id) {
				hits[id] = struct{}{}
			}
		}
	}

	for _, w := range words {
		add(x.terms[w])

		for _, term := range x.termList {
			if term == w {
				continue
			}
			if strings.Contains(term, w) ||
				(utf8.RuneCountInString(w) >= reverseMatchMinWord && strings.Contains(w, term)) {
				add(x.terms[term])
			}
		}

		for i := range x.items {
			id := x.items[i].ID()
			if _, ok := hits[id]; ok {
				continue
			}
			if candidates != nil && !candidates.Has(id) {
				continue
			}
			if strings.Contains(x.items[i].Text(), w) {
				hits[id] = struct{}{}
			}
		}
	}

	return x.Ordered(hits)
}
