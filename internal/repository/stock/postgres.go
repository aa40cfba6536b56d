package stock

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

const stockQuery = `
SELECT variation_id::text, quantity, updated_at
FROM stock
WHERE variation_id = $1
`

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *postgresRepo) Get(ctx context.Context, variationID string) (*domain.StockRecord, error) {
	return r.get(ctx, r.pool, variationID)
}

func (r *postgresRepo) GetTx(ctx context.Context, tx pgx.Tx, variationID string) (*domain.StockRecord, error) {
	return r.get(ctx, tx, variationID)
}

func (r *postgresRepo) get(ctx context.Context, q rowQuerier, variationID string) (*domain.StockRecord, error) {
	var rec domain.StockRecord
	err := q.QueryRow(ctx, stockQuery, variationID).Scan(&rec.VariationID, &rec.Quantity, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *postgresRepo) GetMany(ctx context.Context, variationIDs []string) (map[string]domain.StockRecord, error) {
	const q = `
SELECT variation_id::text, quantity, updated_at
FROM stock
WHERE variation_id = ANY($1)
`
	rows, err := r.pool.Query(ctx, q, variationIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]domain.StockRecord, len(variationIDs))
	for rows.Next() {
		var rec domain.StockRecord
		if err := rows.Scan(&rec.VariationID, &rec.Quantity, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		result[rec.VariationID] = rec
	}
	return result, rows.Err()
}

func (r *postgresRepo) Set(ctx context.Context, variationID string, quantity int) (*domain.StockRecord, error) {
	const q = `
UPDATE stock
SET quantity = $2, updated_at = now()
WHERE variation_id = $1
RETURNING variation_id::text, quantity, updated_at
`
	var rec domain.StockRecord
	err := r.pool.QueryRow(ctx, q, variationID, quantity).Scan(&rec.VariationID, &rec.Quantity, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("stock repo: set variation_id=%s error=%v", variationID, err)
		return nil, err
	}
	r.logger.Printf("stock repo: set variation_id=%s quantity=%d", variationID, quantity)
	return &rec, nil
}

// DecrementTx is the single conditional write that closes the read-then-write
// race: two concurrent checkouts against the same variation both pass the
// read-time validation, but only one can satisfy quantity >= $2 here.
func (r *postgresRepo) DecrementTx(ctx context.Context, tx pgx.Tx, variationID string, quantity int) (bool, error) {
	const q = `
UPDATE stock
SET quantity = quantity - $2, updated_at = now()
WHERE variation_id = $1 AND quantity >= $2
`
	cmd, err := tx.Exec(ctx, q, variationID, quantity)
	if err != nil {
		r.logger.Printf("stock repo: decrement variation_id=%s qty=%d error=%v", variationID, quantity, err)
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
