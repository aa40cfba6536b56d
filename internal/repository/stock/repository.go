package stock

import (
	"context"

	"marketplace/internal/domain"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	Get(ctx context.Context, variationID string) (*domain.StockRecord, error)
	// GetTx reads a stock record inside the caller's transaction.
	GetTx(ctx context.Context, tx pgx.Tx, variationID string) (*domain.StockRecord, error)
	GetMany(ctx context.Context, variationIDs []string) (map[string]domain.StockRecord, error)
	// Set replaces the available quantity outright. Used by restock tooling,
	// never by checkout.
	Set(ctx context.Context, variationID string, quantity int) (*domain.StockRecord, error)
	// DecrementTx applies a conditional decrement inside the caller's
	// transaction. It reports false when the available quantity is below the
	// requested amount; the quantity column can never go negative.
	DecrementTx(ctx context.Context, tx pgx.Tx, variationID string, quantity int) (bool, error)
}
