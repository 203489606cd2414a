package result

import (
	"math"
	"testing"
	"time"

	"github.com/kailas-cloud/flyerdex/internal/domain/item"
)

func TestNewReductionStats(t *testing.T) {
	s := NewReductionStats(200, 50)
	if s.Before != 200 || s.After != 50 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if math.Abs(s.ReductionPercent-75) > 1e-9 {
		t.Errorf("ReductionPercent = %f, want 75", s.ReductionPercent)
	}
}

func TestNewReductionStats_Empty(t *testing.T) {
	s := NewReductionStats(0, 0)
	if s.ReductionPercent != 0 {
		t.Errorf("ReductionPercent = %f, want 0", s.ReductionPercent)
	}
}

func TestIDs(t *testing.T) {
	r := Response{Items: []item.Item{
		item.Reconstruct("p2", "Milch", "", "", "Aldi", 1, time.Time{}, time.Time{}),
		item.Reconstruct("p1", "Butter", "", "", "Aldi", 2, time.Time{}, time.Time{}),
	}}
	ids := r.IDs()
	if len(ids) != 2 || ids[0] != "p2" || ids[1] != "p1" {
		t.Errorf("IDs() = %v", ids)
	}
}
