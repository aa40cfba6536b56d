package domain

import "time"

// Store is a tenant of the marketplace. Every product, order and stock record
// is scoped to exactly one store.
type Store struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}
