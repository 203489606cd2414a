package item

// Bucket is a coarse price range used as an inverted-index key.
type Bucket struct {
	Name string
	Min  float64 // inclusive
	Max  float64 // exclusive, 0 = unbounded
}

// Buckets lists all price buckets in ascending order.
var Buckets = []Bucket{
	{Name: "0-1", Min: 0, Max: 1},
	{Name: "1-2", Min: 1, Max: 2},
	{Name: "2-5", Min: 2, Max: 5},
	{Name: "5-10", Min: 5, Max: 10},
	{Name: "10-20", Min: 10, Max: 20},
	{Name: "20+", Min: 20},
}

// BucketFor returns the bucket name for price. Non-positive prices have no bucket.
func BucketFor(price float64) (string, bool) {
	if price <= 0 {
		return "", false
	}
	for _, b := range Buckets {
		if price >= b.Min && (b.Max == 0 || price < b.Max) {
			return b.Name, true
		}
	}
	return "", false
}

// BucketsOverlapping returns bucket names that intersect [minPrice, maxPrice].
// maxPrice <= 0 means no upper bound.
func BucketsOverlapping(minPrice, maxPrice float64) []string {
	var names []string
	for _, b := range Buckets {
		if maxPrice > 0 && b.Min > maxPrice {
			continue
		}
		if b.Max != 0 && b.Max <= minPrice {
			continue
		}
		names = append(names, b.Name)
	}
	return names
}
