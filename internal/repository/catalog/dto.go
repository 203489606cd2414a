package catalog

import (
	"fmt"
	"strings"
	"time"

	domintent "github.com/kailas-cloud/flyerdex/internal/domain/intent"
	"github.com/kailas-cloud/flyerdex/internal/domain/item"
)

// itemRow is the JSON representation of an offer in the items artifact.
type itemRow struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	SubCategory string  `json:"subCategory"`
	Market      string  `json:"market"`
	Price       float64 `json:"price"`
	ValidFrom   string  `json:"validFrom"`
	ValidTo     string  `json:"validTo"`
}

// toItem converts a row to a domain Item.
func (r *itemRow) toItem() (item.Item, error) {
	from, err := parseDate(r.ValidFrom)
	if err != nil {
		return item.Item{}, fmt.Errorf("item %s: validFrom: %w", r.ID, err)
	}
	to, err := parseDate(r.ValidTo)
	if err != nil {
		return item.Item{}, fmt.Errorf("item %s: validTo: %w", r.ID, err)
	}
	return item.New(
		strings.TrimSpace(r.ID), r.Name, r.Category, r.SubCategory, r.Market,
		r.Price, from, to,
	)
}

// offerEmbeddingRow is one entry of the offer-embedding index.
type offerEmbeddingRow struct {
	ID     string    `json:"id"`
	Vector []float32 `json:"vector"`
}

// definitionRow is the YAML/JSON representation of an intent definition.
type definitionRow struct {
	Key               string   `yaml:"key"`
	Patterns          []string `yaml:"patterns"`
	IncludeCategories []string `yaml:"include_categories"`
	ExcludeCategories []string `yaml:"exclude_categories"`
	Keywords          []string `yaml:"keywords"`
	Priority          int      `yaml:"priority"`
}

func (r *definitionRow) toDefinition() domintent.Definition {
	return domintent.Definition{
		Key:               strings.TrimSpace(r.Key),
		Patterns:          r.Patterns,
		IncludeCategories: r.IncludeCategories,
		ExcludeCategories: r.ExcludeCategories,
		Keywords:          r.Keywords,
		Priority:          r.Priority,
	}
}

// registryFile accepts both a bare list and an {intents: [...]} document.
type registryFile struct {
	Intents []definitionRow `yaml:"intents"`
}

var dateLayouts = []string{time.DateOnly, time.RFC3339}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty means unbounded.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
