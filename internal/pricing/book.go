package pricing

import (
	"sort"

	"github.com/google/uuid"
)

// Tier is one quantity-break price rule.
type Tier struct {
	MinQty         int
	UnitPriceCents int64
}

// Item is a raw price-list row as served by the backend.
type Item struct {
	ProductID      uuid.UUID
	MinQty         int
	UnitPriceCents int64
}

// Book holds the tiers of one active price list, keyed by product.
// A nil or empty book resolves every product to its base price.
type Book struct {
	tiers map[uuid.UUID][]Tier
}

// NewBook indexes price-list items into a lookup book. Tiers are kept
// sorted descending by minimum quantity so resolution can take the
// first match.
func NewBook(items []Item) *Book {
	book := &Book{tiers: make(map[uuid.UUID][]Tier, len(items))}
	for _, item := range items {
		minQty := item.MinQty
		// a row without a threshold applies at any quantity
		if minQty < 1 {
			minQty = 1
		}
		book.tiers[item.ProductID] = append(book.tiers[item.ProductID], Tier{
			MinQty:         minQty,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	for id := range book.tiers {
		tiers := book.tiers[id]
		sort.SliceStable(tiers, func(i, j int) bool {
			return tiers[i].MinQty > tiers[j].MinQty
		})
	}
	return book
}

// UnitPrice resolves the effective unit price for the requested quantity:
// the first tier whose minimum quantity is covered, else the base price.
func (b *Book) UnitPrice(productID uuid.UUID, qty int, baseCents int64) int64 {
	if b == nil || len(b.tiers) == 0 {
		return baseCents
	}
	for _, tier := range b.tiers[productID] {
		if qty >= tier.MinQty {
			return tier.UnitPriceCents
		}
	}
	return baseCents
}

// Tiers returns the indexed tiers for a product, mostly for display.
func (b *Book) Tiers(productID uuid.UUID) []Tier {
	if b == nil {
		return nil
	}
	return b.tiers[productID]
}
