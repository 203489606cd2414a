package vector

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/kailas-cloud/flyerdex/internal/domain"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"scaled", []float32{1, 2}, []float32{2, 4}, 1},
		{"zero left", []float32{0, 0}, []float32{1, 1}, 0},
		{"zero right", []float32{3, 4}, []float32{0, 0}, 0},
		{"empty", []float32{}, []float32{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosine_SymmetricAndBounded(t *testing.T) {
	vecs := [][]float32{
		{0.1, -0.7, 0.3, 0.9},
		{5, 5, -2, 0},
		{-0.01, 0.02, 0.03, -0.04},
		{1e-3, 1e3, 7, -7},
	}
	for i := range vecs {
		self, _ := Cosine(vecs[i], vecs[i])
		if math.Abs(self-1) > 1e-6 {
			t.Errorf("self-similarity of %v = %v", vecs[i], self)
		}
		for j := range vecs {
			ab, _ := Cosine(vecs[i], vecs[j])
			ba, _ := Cosine(vecs[j], vecs[i])
			if ab != ba {
				t.Errorf("not symmetric: %v vs %v", ab, ba)
			}
			if ab < -1 || ab > 1 {
				t.Errorf("out of bounds: %v", ab)
			}
		}
	}
}

func TestCosine_DimensionMismatch(t *testing.T) {
	_, err := Cosine([]float32{1, 2, 3}, []float32{1, 2})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
	var dm *domain.DimMismatchError
	if !errors.As(err, &dm) || dm.Want != 3 || dm.Got != 2 {
		t.Errorf("unexpected mismatch detail: %v", err)
	}
}

func TestTopN(t *testing.T) {
	q := []float32{1, 0}
	cands := map[string][]float32{
		"a": {1, 0},
		"b": {1, 1},
		"c": {0, 1},
		"d": {2, 0}, // ties with a
		"e": {-1, 0},
	}

	got, err := TopN(q, cands, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ids := IDs(got); !reflect.DeepEqual(ids, []string{"a", "d", "b"}) {
		t.Errorf("TopN ids = %v", ids)
	}

	all, _ := TopN(q, cands, 0, 0.5)
	if ids := IDs(all); !reflect.DeepEqual(ids, []string{"a", "d", "b"}) {
		t.Errorf("minScore filter ids = %v", ids)
	}

	none, _ := TopN(q, cands, 10, 1.5)
	if len(none) != 0 {
		t.Errorf("expected no results above 1.5, got %v", none)
	}
}

func TestTopN_DimensionMismatch(t *testing.T) {
	_, err := TopN([]float32{1, 0, 0}, map[string][]float32{"a": {1, 0}}, 5, 0)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}
