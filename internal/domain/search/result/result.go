package result

import (
	"time"

	"github.com/kailas-cloud/flyerdex/internal/domain/intent"
	"github.com/kailas-cloud/flyerdex/internal/domain/item"
)

// Strategy names the stage that produced a result set.
type Strategy string

// Strategy constants.
const (
	StrategyBrowse    Strategy = "browse"
	StrategyKeyword   Strategy = "keyword"
	StrategySemantic  Strategy = "semantic"
	StrategyAI        Strategy = "ai"
	StrategyHeuristic Strategy = "heuristic"
	StrategyDesperate Strategy = "desperate"
	StrategyCache     Strategy = "cache"
)

// ReductionStats describes the effect of intent pre-filtering on the candidate pool.
type ReductionStats struct {
	Before           int
	After            int
	ReductionPercent float64
}

// NewReductionStats computes the percentage drop from before to after.
func NewReductionStats(before, after int) ReductionStats {
	var pct float64
	if before > 0 {
		pct = float64(before-after) / float64(before) * 100
	}
	return ReductionStats{Before: before, After: after, ReductionPercent: pct}
}

// Response is one page of retrieval results plus diagnostics.
type Response struct {
	Items     []item.Item
	Total     int
	HasMore   bool
	Intent    *intent.Intent
	Reduction ReductionStats
	CacheHit  bool
	Strategy  Strategy
	Elapsed   time.Duration
}

// IDs returns the item identifiers of the page in order.
func (r *Response) IDs() []string {
	ids := make([]string, len(r.Items))
	for i := range r.Items {
		ids[i] = r.Items[i].ID()
	}
	return ids
}
