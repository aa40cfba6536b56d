package domain

import "time"

// StockRecord is the authoritative available-quantity counter for one
// variation. Quantity is never negative; decrements happen only through a
// conditional update that checks availability at mutation time.
type StockRecord struct {
	VariationID string    `json:"variationId"`
	Quantity    int       `json:"quantity"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
