package intent

import (
	"fmt"
	"strings"
)

// Definition is a registry entry the classifier scores queries against.
type Definition struct {
	Key               string
	Patterns          []string
	IncludeCategories []string
	ExcludeCategories []string
	Keywords          []string
	Priority          int
}

// Validate checks the definition can ever match.
func (d *Definition) Validate() error {
	if d.Key == "" {
		return fmt.Errorf("intent definition key is required")
	}
	if len(cloneNonEmpty(d.IncludeCategories)) == 0 {
		return fmt.Errorf("intent %q: include categories must not be empty", d.Key)
	}
	if d.Priority <= 0 {
		return fmt.Errorf("intent %q: priority must be positive, got %d", d.Key, d.Priority)
	}
	return nil
}

// Normalized returns a copy with lowercase, trimmed patterns and keywords.
// Empty entries are dropped.
func (d *Definition) Normalized() Definition {
	return Definition{
		Key:               d.Key,
		Patterns:          lowerAll(d.Patterns),
		IncludeCategories: cloneNonEmpty(d.IncludeCategories),
		ExcludeCategories: cloneNonEmpty(d.ExcludeCategories),
		Keywords:          lowerAll(d.Keywords),
		Priority:          d.Priority,
	}
}

// ToIntent derives the per-query Intent with the given confidence.
func (d *Definition) ToIntent(confidence float64) *Intent {
	return &Intent{
		Key:               d.Key,
		IncludeCategories: d.IncludeCategories,
		ExcludeCategories: d.ExcludeCategories,
		Keywords:          d.Keywords,
		Confidence:        confidence,
	}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func cloneNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
