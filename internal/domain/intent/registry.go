package intent

import (
	"slices"
	"strings"
)

// DefaultDerivedPriority is the priority assigned to taxonomy-derived definitions.
const DefaultDerivedPriority = 10

// Registry is an immutable, ordered set of definitions.
// Build it once at startup with Merge; it is safe for concurrent reads.
type Registry struct {
	defs []Definition
}

// Skipped describes a definition rejected while building a registry.
type Skipped struct {
	Key    string
	Reason string
}

// Merge builds a registry from a base table and an override table.
// Overrides replace base entries with the same key in place; new override keys
// are appended in their own order. Invalid definitions are dropped and reported.
func Merge(base, overrides []Definition) (*Registry, []Skipped) {
	var skipped []Skipped
	defs := make([]Definition, 0, len(base)+len(overrides))
	pos := make(map[string]int, len(base)+len(overrides))

	add := func(d Definition) {
		if err := d.Validate(); err != nil {
			skipped = append(skipped, Skipped{Key: d.Key, Reason: err.Error()})
			return
		}
		n := d.Normalized()
		if i, ok := pos[n.Key]; ok {
			defs[i] = n
			return
		}
		pos[n.Key] = len(defs)
		defs = append(defs, n)
	}

	for _, d := range base {
		add(d)
	}
	for _, d := range overrides {
		add(d)
	}

	return &Registry{defs: defs}, skipped
}

// Definitions returns the definitions in deterministic iteration order.
func (r *Registry) Definitions() []Definition {
	if r == nil {
		return nil
	}
	return r.defs
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.defs)
}

// Get returns the definition with key.
func (r *Registry) Get(key string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	i := slices.IndexFunc(r.defs, func(d Definition) bool { return d.Key == key })
	if i < 0 {
		return Definition{}, false
	}
	return r.defs[i], true
}

// FromTaxonomy derives one definition per sub-category: the sub-category name
// is both the pattern and the include rule. Categories without sub-categories get
// a definition for the category itself. Order follows categories (sorted) then
// sub-categories as listed.
func FromTaxonomy(taxonomy map[string][]string) []Definition {
	cats := make([]string, 0, len(taxonomy))
	for c := range taxonomy {
		cats = append(cats, c)
	}
	slices.Sort(cats)

	seen := make(map[string]bool)
	var defs []Definition
	for _, cat := range cats {
		subs := taxonomy[cat]
		if len(subs) == 0 {
			subs = []string{cat}
		}
		for _, sub := range subs {
			key := strings.ToLower(strings.TrimSpace(sub))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			defs = append(defs, Definition{
				Key:               key,
				Patterns:          []string{key},
				IncludeCategories: []string{sub},
				Priority:          DefaultDerivedPriority,
			})
		}
	}
	return defs
}
