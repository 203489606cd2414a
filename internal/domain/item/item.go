package item

import (
	"fmt"
	"strings"
	"time"
)

// Item is a priced flyer offer (immutable value object).
type Item struct {
	id          string
	name        string
	category    string
	subCategory string
	market      string
	price       float64
	validFrom   time.Time
	validTo     time.Time
	text        string
}

// New validates and creates an Item.
// ID and name are required. Price is not validated here: placeholder entries
// (price <= 0) are kept in the catalog and excluded at retrieval time via Valid.
func New(
	id, name, category, subCategory, market string,
	price float64, validFrom, validTo time.Time,
) (Item, error) {
	if id == "" {
		return Item{}, fmt.Errorf("item ID is required")
	}
	if strings.TrimSpace(name) == "" {
		return Item{}, fmt.Errorf("item %s: name is required", id)
	}
	if !validFrom.IsZero() && !validTo.IsZero() && validTo.Before(validFrom) {
		return Item{}, fmt.Errorf("item %s: validity ends before it starts", id)
	}
	return Reconstruct(id, name, category, subCategory, market, price, validFrom, validTo), nil
}

// Reconstruct creates an Item without validation (fixtures, storage hydration).
func Reconstruct(
	id, name, category, subCategory, market string,
	price float64, validFrom, validTo time.Time,
) Item {
	return Item{
		id:          id,
		name:        name,
		category:    category,
		subCategory: subCategory,
		market:      market,
		price:       price,
		validFrom:   validFrom,
		validTo:     validTo,
		text:        strings.ToLower(name + " " + category + " " + subCategory),
	}
}

// ID returns the stable item identifier.
func (i *Item) ID() string { return i.id }

// Name returns the display name.
func (i *Item) Name() string { return i.name }

// Category returns the top-level category.
func (i *Item) Category() string { return i.category }

// SubCategory returns the sub-category.
func (i *Item) SubCategory() string { return i.subCategory }

// Market returns the market (store chain) name.
func (i *Item) Market() string { return i.market }

// Price returns the offer price.
func (i *Item) Price() float64 { return i.price }

// ValidFrom returns the first day the offer applies.
func (i *Item) ValidFrom() time.Time { return i.validFrom }

// ValidTo returns the last day the offer applies.
func (i *Item) ValidTo() time.Time { return i.validTo }

// Text returns lowercase name + category + sub-category, the haystack for lexical matching.
func (i *Item) Text() string { return i.text }

// Valid reports whether the item may be returned to callers (price > 0).
func (i *Item) Valid() bool { return i.price > 0 }

// InMarket reports whether the item belongs to market (case-insensitive).
func (i *Item) InMarket(market string) bool {
	return strings.EqualFold(strings.TrimSpace(market), i.market)
}

// ActiveOn reports whether the offer is valid on day t. Open bounds are unlimited.
func (i *Item) ActiveOn(t time.Time) bool {
	if !i.validFrom.IsZero() && t.Before(i.validFrom) {
		return false
	}
	if !i.validTo.IsZero() && t.After(i.validTo.Add(24*time.Hour-time.Nanosecond)) {
		return false
	}
	return true
}

// Encode renders the compact pipe-delimited form used in LLM prompts.
func (i *Item) Encode() string {
	return i.id + "|" + i.name + "|" + i.category + "|" + i.subCategory + "|" + i.market
}
