package product

import (
	"context"

	"marketplace/internal/domain"

	"github.com/jackc/pgx/v5"
)

type CreateProductInput struct {
	StoreID     string
	Key         string
	Name        string
	Description string
	Variations  []CreateVariationInput
}

type CreateVariationInput struct {
	SKU           string
	Name          string
	PriceCents    int64
	DiscountCents *int64
	Quantity      int
}

type Repository interface {
	ListByStore(ctx context.Context, storeID string) ([]domain.Product, error)
	GetByID(ctx context.Context, storeID, id string) (*domain.Product, error)
	GetVariation(ctx context.Context, storeID, variationID string) (*domain.Variation, error)
	// GetVariationTx reads a variation inside the caller's transaction so
	// checkout price snapshots come from the same consistent view that the
	// stock decrements run in.
	GetVariationTx(ctx context.Context, tx pgx.Tx, storeID, variationID string) (*domain.Variation, error)
	Create(ctx context.Context, in CreateProductInput) (*domain.Product, error)
}
