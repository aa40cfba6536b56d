package order

import (
	"context"

	"marketplace/internal/domain"

	"github.com/jackc/pgx/v5"
)

type CreateOrderInput struct {
	StoreID        string
	CustomerName   string
	CustomerPhone  string
	CustomerEmail  *string
	Notes          *string
	TotalCents     int64
	IdempotencyKey *string
	Items          []CreateItemInput
}

type CreateItemInput struct {
	VariationID    string
	Quantity       int
	UnitPriceCents int64
}

type Repository interface {
	// CreateTx inserts the order and its items inside the caller's
	// transaction, so order creation commits or rolls back together with the
	// stock decrements of the same checkout.
	CreateTx(ctx context.Context, tx pgx.Tx, in CreateOrderInput) (*domain.Order, error)
	GetByID(ctx context.Context, storeID, id string) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, storeID, key string) (*domain.Order, error)
	ListByStore(ctx context.Context, storeID string) ([]domain.Order, error)
	// UpdateStatus persists a transition guarded by the expected current
	// status; it reports domain.ErrNotFound when the order no longer holds
	// that status.
	UpdateStatus(ctx context.Context, storeID, id string, from, to domain.OrderStatus) (*domain.Order, error)
}
