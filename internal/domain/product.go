package domain

import "time"

type Product struct {
	ID          string      `json:"id"`
	StoreID     string      `json:"-"`
	Key         string      `json:"key"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Variations  []Variation `json:"variations,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Variation is a sellable unit of a product (size/color combination). Prices
// are in minor currency units. A variation referenced by an order item keeps
// its identity for the order's lifetime; order items snapshot the price so
// later edits here never drift historical totals.
type Variation struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"productId"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	PriceCents    int64     `json:"priceCents"`
	DiscountCents *int64    `json:"discountCents,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EffectivePriceCents is the unit price a buyer pays: the discount price when
// one is set, the list price otherwise.
func (v Variation) EffectivePriceCents() int64 {
	if v.DiscountCents != nil {
		return *v.DiscountCents
	}
	return v.PriceCents
}
