package order

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

func (r *postgresRepo) CreateTx(ctx context.Context, tx pgx.Tx, in CreateOrderInput) (*domain.Order, error) {
	var o domain.Order
	err := tx.QueryRow(ctx, `
INSERT INTO orders (store_id, customer_name, customer_phone, customer_email, notes, total_cents, status, idempotency_key)
VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
RETURNING id::text, status, created_at, updated_at
`, in.StoreID, in.CustomerName, in.CustomerPhone, in.CustomerEmail, in.Notes, in.TotalCents, in.IdempotencyKey).
		Scan(&o.ID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		r.logger.Printf("order repo: create store_id=%s error=%v", in.StoreID, err)
		return nil, err
	}
	o.StoreID = in.StoreID
	o.CustomerName = in.CustomerName
	o.CustomerPhone = in.CustomerPhone
	o.CustomerEmail = in.CustomerEmail
	o.Notes = in.Notes
	o.TotalCents = in.TotalCents
	o.IdempotencyKey = in.IdempotencyKey

	for _, item := range in.Items {
		var it domain.OrderItem
		err := tx.QueryRow(ctx, `
INSERT INTO order_items (order_id, variation_id, quantity, unit_price_cents)
VALUES ($1, $2, $3, $4)
RETURNING id::text
`, o.ID, item.VariationID, item.Quantity, item.UnitPriceCents).Scan(&it.ID)
		if err != nil {
			return nil, err
		}
		it.OrderID = o.ID
		it.VariationID = item.VariationID
		it.Quantity = item.Quantity
		it.UnitPriceCents = item.UnitPriceCents
		o.Items = append(o.Items, it)
	}

	return &o, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, storeID, id string) (*domain.Order, error) {
	const q = `
SELECT id::text, store_id::text, customer_name, customer_phone, customer_email, notes, total_cents, status, idempotency_key, created_at, updated_at
FROM orders
WHERE store_id = $1 AND id = $2
`
	return r.fetch(ctx, q, storeID, id)
}

func (r *postgresRepo) GetByIdempotencyKey(ctx context.Context, storeID, key string) (*domain.Order, error) {
	const q = `
SELECT id::text, store_id::text, customer_name, customer_phone, customer_email, notes, total_cents, status, idempotency_key, created_at, updated_at
FROM orders
WHERE store_id = $1 AND idempotency_key = $2
`
	return r.fetch(ctx, q, storeID, key)
}

func (r *postgresRepo) ListByStore(ctx context.Context, storeID string) ([]domain.Order, error) {
	const q = `
SELECT id::text, store_id::text, customer_name, customer_phone, customer_email, notes, total_cents, status, idempotency_key, created_at, updated_at
FROM orders
WHERE store_id = $1
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q, storeID)
	if err != nil {
		r.logger.Printf("order repo: list store_id=%s error=%v", storeID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, storeID, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	const q = `
UPDATE orders
SET status = $4::order_status, updated_at = now()
WHERE store_id = $1 AND id = $2 AND status = $3::order_status
RETURNING id::text
`
	var updatedID string
	err := r.pool.QueryRow(ctx, q, storeID, id, from, to).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: update status store_id=%s id=%s error=%v", storeID, id, err)
		return nil, err
	}
	return r.GetByID(ctx, storeID, updatedID)
}

func (r *postgresRepo) fetch(ctx context.Context, q string, args ...interface{}) (*domain.Order, error) {
	var o domain.Order
	row := r.pool.QueryRow(ctx, q, args...)
	if err := scanOrder(row, &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const itemsQuery = `
SELECT id::text, order_id::text, variation_id::text, quantity, unit_price_cents
FROM order_items
WHERE order_id = $1
ORDER BY id ASC
`
	rows, err := r.pool.Query(ctx, itemsQuery, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.VariationID, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOrder(row pgx.Row, o *domain.Order) error {
	return row.Scan(
		&o.ID,
		&o.StoreID,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.CustomerEmail,
		&o.Notes,
		&o.TotalCents,
		&o.Status,
		&o.IdempotencyKey,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}
