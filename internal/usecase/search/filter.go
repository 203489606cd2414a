package search

import (
	domintent "github.com/kailas-cloud/flyerdex/internal/domain/intent"
	"github.com/kailas-cloud/flyerdex/internal/domain/item"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/request"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/result"
	"github.com/kailas-cloud/flyerdex/internal/index"
)

// validItems returns retrievable items (price > 0) in catalog order.
func validItems(x *index.Index) []item.Item {
	all := x.Items()
	out := make([]item.Item, 0, len(all))
	for i := range all {
		if all[i].Valid() {
			out = append(out, all[i])
		}
	}
	return out
}

// intentPool applies the intent pre-filter. When nothing survives the filter
// the unfiltered set is used and the relevance filter runs without the intent.
func intentPool(valid []item.Item, in *domintent.Intent) ([]item.Item, *domintent.Intent) {
	if in == nil {
		return valid, nil
	}
	pool := make([]item.Item, 0, len(valid))
	for i := range valid {
		if in.Admits(valid[i].Category(), valid[i].SubCategory()) {
			pool = append(pool, valid[i])
		}
	}
	if len(pool) == 0 {
		return valid, nil
	}
	return pool, in
}

func idSet(items []item.Item) index.IDSet {
	set := make(index.IDSet, len(items))
	for i := range items {
		set[items[i].ID()] = struct{}{}
	}
	return set
}

// resolve maps ids to items of the snapshot, keeping order and dropping
// unknown ids and placeholders.
func resolve(x *index.Index, ids []string) []item.Item {
	out := make([]item.Item, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		it, ok := x.Item(id)
		if !ok || !it.Valid() {
			continue
		}
		out = append(out, it)
	}
	return out
}

// filterItems applies the market, category, price and validity-date filters.
// Set filters go through the index lookups.
func filterItems(x *index.Index, items []item.Item, req *request.Request) []item.Item {
	markets := lookupSet(req.Markets(), x.ByMarket)
	categories := lookupSet(req.Categories(), x.ByCategory)
	var prices index.IDSet
	if req.HasPriceFilter() {
		prices = lookupSet(item.BucketsOverlapping(req.MinPrice(), req.MaxPrice()), x.ByPriceBucket)
		if prices == nil {
			prices = index.IDSet{}
		}
	}
	day := req.ActiveOn()
	if markets == nil && categories == nil && prices == nil && day.IsZero() {
		return items
	}

	out := make([]item.Item, 0, len(items))
	for i := range items {
		it := &items[i]
		if markets != nil && !markets.Has(it.ID()) {
			continue
		}
		if categories != nil && !categories.Has(it.ID()) {
			continue
		}
		if prices != nil && !(prices.Has(it.ID()) && inRange(it.Price(), req)) {
			continue
		}
		if !day.IsZero() && !it.ActiveOn(day) {
			continue
		}
		out = append(out, *it)
	}
	return out
}

// lookupSet unions the ids lookup returns for every key. Nil when keys is empty.
func lookupSet(keys []string, lookup func(string) []string) index.IDSet {
	if len(keys) == 0 {
		return nil
	}
	set := make(index.IDSet)
	for _, k := range keys {
		for _, id := range lookup(k) {
			set[id] = struct{}{}
		}
	}
	return set
}

func inRange(price float64, req *request.Request) bool {
	if price < req.MinPrice() {
		return false
	}
	return req.MaxPrice() <= 0 || price <= req.MaxPrice()
}

func paginate(items []item.Item, req *request.Request) result.Response {
	total := len(items)
	start := min(req.Offset(), total)
	end := min(start+req.Limit(), total)
	return result.Response{
		Items:   items[start:end],
		Total:   total,
		HasMore: end < total,
	}
}

func truncate(items []item.Item, n int) []item.Item {
	if len(items) > n {
		return items[:n]
	}
	return items
}
