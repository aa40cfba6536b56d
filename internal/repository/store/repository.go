package store

import (
	"context"

	"marketplace/internal/domain"
)

type Repository interface {
	GetByKey(ctx context.Context, key string) (*domain.Store, error)
	GetByID(ctx context.Context, id string) (*domain.Store, error)
}
