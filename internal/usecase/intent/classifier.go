// Package intent classifies free-text queries against the intent registry.
package intent

import (
	"strings"
	"unicode/utf8"

	domintent "github.com/kailas-cloud/flyerdex/internal/domain/intent"
)

// DefaultMinConfidence is the acceptance threshold for a classified intent.
const DefaultMinConfidence = 0.4

// Pattern score multipliers relative to the definition priority.
const (
	containsPatternWeight  = 0.8
	containedPatternWeight = 0.6
	keywordWeight          = 2
)

// Classifier scores queries against registry definitions.
// Safe for concurrent use: the registry is read-only after construction.
type Classifier struct {
	defs          []domintent.Definition
	minConfidence float64
}

// NewClassifier creates a classifier. minConfidence <= 0 selects DefaultMinConfidence.
func NewClassifier(reg *domintent.Registry, minConfidence float64) *Classifier {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	defs := reg.Definitions()
	normalized := make([]domintent.Definition, len(defs))
	for i := range defs {
		normalized[i] = defs[i].Normalized()
	}
	return &Classifier{defs: normalized, minConfidence: minConfidence}
}

// MinConfidence returns the acceptance threshold.
func (c *Classifier) MinConfidence() float64 { return c.minConfidence }

// Classify returns the best-scoring intent, or nil when none reaches the threshold.
// Ties keep the definition that appears first in the registry.
func (c *Classifier) Classify(query string) *domintent.Intent {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	best := -1
	bestScore := 0.0
	for i := range c.defs {
		s := Score(q, &c.defs[i])
		if s > bestScore {
			best, bestScore = i, s
		}
	}

	if best < 0 || bestScore < c.minConfidence {
		return nil
	}
	return c.defs[best].ToIntent(bestScore)
}

// Score computes the confidence of def for an already-normalized query.
// Patterns contribute their single best match; keywords are summed.
func Score(q string, def *domintent.Definition) float64 {
	priority := float64(def.Priority)

	var patternScore float64
	for _, p := range def.Patterns {
		if p == "" {
			continue
		}
		var s float64
		switch {
		case q == p:
			s = priority
		case strings.Contains(q, p):
			s = containsPatternWeight * priority
		case utf8.RuneCountInString(q) > 2 && strings.Contains(p, q):
			s = containedPatternWeight * priority
		}
		if s > patternScore {
			patternScore = s
		}
	}

	var keywordScore float64
	for _, k := range def.Keywords {
		if k != "" && strings.Contains(q, k) {
			keywordScore += keywordWeight
		}
	}

	denom := priority + keywordWeight*float64(len(def.Keywords))
	if denom <= 0 {
		return 0
	}
	return min(1, (patternScore+keywordScore)/denom)
}
