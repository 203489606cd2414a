// Package intent holds the shopping-intent model and its definition registry.
package intent

import "strings"

// Intent is a classified shopping purpose with category rules.
type Intent struct {
	Key               string
	IncludeCategories []string
	ExcludeCategories []string
	Keywords          []string
	Confidence        float64
}

// Admits reports whether an item with the given category and sub-category passes
// the intent rules: at least one include substring matches either field and no
// exclude substring matches either field. Matching is case-insensitive.
func (it *Intent) Admits(category, subCategory string) bool {
	cat := strings.ToLower(category)
	sub := strings.ToLower(subCategory)

	for _, ex := range it.ExcludeCategories {
		ex = strings.ToLower(ex)
		if ex == "" {
			continue
		}
		if strings.Contains(cat, ex) || strings.Contains(sub, ex) {
			return false
		}
	}
	for _, inc := range it.IncludeCategories {
		inc = strings.ToLower(inc)
		if inc == "" {
			continue
		}
		if strings.Contains(cat, inc) || strings.Contains(sub, inc) {
			return true
		}
	}
	return false
}
