package product

import (
	"context"
	"errors"
	"io"
	"log"

	"marketplace/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) ListByStore(ctx context.Context, storeID string) ([]domain.Product, error) {
	const q = `
SELECT id::text, store_id::text, key, name, COALESCE(description, ''), created_at
FROM products
WHERE store_id = $1
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q, storeID)
	if err != nil {
		r.logger.Printf("product repo: list store_id=%s error=%v", storeID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.StoreID, &p.Key, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows store_id=%s error=%v", storeID, err)
		return nil, err
	}

	for i := range result {
		variations, err := r.listVariations(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Variations = variations
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, storeID, id string) (*domain.Product, error) {
	const q = `
SELECT id::text, store_id::text, key, name, COALESCE(description, ''), created_at
FROM products
WHERE store_id = $1 AND id = $2
`
	var p domain.Product
	err := r.pool.QueryRow(ctx, q, storeID, id).Scan(&p.ID, &p.StoreID, &p.Key, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("product repo: get store_id=%s id=%s not found", storeID, id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get store_id=%s id=%s error=%v", storeID, id, err)
		return nil, err
	}

	variations, err := r.listVariations(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Variations = variations
	return &p, nil
}

const variationQuery = `
SELECT v.id::text, v.product_id::text, v.sku, v.name, v.price_cents, v.discount_cents, v.created_at
FROM product_variations v
JOIN products p ON p.id = v.product_id
WHERE p.store_id = $1 AND v.id = $2
`

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *postgresRepo) GetVariation(ctx context.Context, storeID, variationID string) (*domain.Variation, error) {
	return r.getVariation(ctx, r.pool, storeID, variationID)
}

func (r *postgresRepo) GetVariationTx(ctx context.Context, tx pgx.Tx, storeID, variationID string) (*domain.Variation, error) {
	return r.getVariation(ctx, tx, storeID, variationID)
}

func (r *postgresRepo) getVariation(ctx context.Context, q rowQuerier, storeID, variationID string) (*domain.Variation, error) {
	var v domain.Variation
	err := q.QueryRow(ctx, variationQuery, storeID, variationID).Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.PriceCents, &v.DiscountCents, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get variation store_id=%s id=%s error=%v", storeID, variationID, err)
		return nil, err
	}
	return &v, nil
}

func (r *postgresRepo) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var p domain.Product
	err = tx.QueryRow(ctx, `
INSERT INTO products (store_id, key, name, description)
VALUES ($1, $2, $3, NULLIF($4, ''))
RETURNING id::text, created_at
`, in.StoreID, in.Key, in.Name, in.Description).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		r.logger.Printf("product repo: create store_id=%s key=%s error=%v", in.StoreID, in.Key, err)
		return nil, err
	}
	p.StoreID = in.StoreID
	p.Key = in.Key
	p.Name = in.Name
	p.Description = in.Description

	for _, vin := range in.Variations {
		var v domain.Variation
		err = tx.QueryRow(ctx, `
INSERT INTO product_variations (product_id, sku, name, price_cents, discount_cents)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text, created_at
`, p.ID, vin.SKU, vin.Name, vin.PriceCents, vin.DiscountCents).Scan(&v.ID, &v.CreatedAt)
		if err != nil {
			return nil, err
		}
		v.ProductID = p.ID
		v.SKU = vin.SKU
		v.Name = vin.Name
		v.PriceCents = vin.PriceCents
		v.DiscountCents = vin.DiscountCents
		p.Variations = append(p.Variations, v)

		if _, err := tx.Exec(ctx, `
INSERT INTO stock (variation_id, quantity)
VALUES ($1, $2)
`, v.ID, vin.Quantity); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("product repo: created store_id=%s key=%s id=%s variations=%d", in.StoreID, in.Key, p.ID, len(p.Variations))
	return &p, nil
}

func (r *postgresRepo) listVariations(ctx context.Context, productID string) ([]domain.Variation, error) {
	const q = `
SELECT id::text, product_id::text, sku, name, price_cents, discount_cents, created_at
FROM product_variations
WHERE product_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Variation
	for rows.Next() {
		var v domain.Variation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.PriceCents, &v.DiscountCents, &v.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}
