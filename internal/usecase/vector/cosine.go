// Package vector ranks offer embeddings against a query embedding.
package vector

import (
	"cmp"
	"math"
	"slices"

	"github.com/kailas-cloud/flyerdex/internal/domain"
)

// Scored is a candidate id with its similarity to the query.
type Scored struct {
	ID    string
	Score float64
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// A zero vector on either side yields 0. Different lengths are an error.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewDimMismatch(len(a), len(b))
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}

	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// clamp rounding drift
	return max(-1, min(1, s)), nil
}

// TopN scores every candidate against query, drops scores below minScore and
// returns the n best, descending, ties broken by id. n <= 0 returns all.
// The first dimension mismatch aborts the ranking.
func TopN(query []float32, candidates map[string][]float32, n int, minScore float64) ([]Scored, error) {
	out := make([]Scored, 0, len(candidates))
	for id, vec := range candidates {
		s, err := Cosine(query, vec)
		if err != nil {
			return nil, err
		}
		if s < minScore {
			continue
		}
		out = append(out, Scored{ID: id, Score: s})
	}

	slices.SortFunc(out, func(a, b Scored) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// IDs returns the ids of scored in order.
func IDs(scored []Scored) []string {
	ids := make([]string, len(scored))
	for i := range scored {
		ids[i] = scored[i].ID
	}
	return ids
}
