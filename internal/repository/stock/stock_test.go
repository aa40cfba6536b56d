package stock

import (
	"context"
	"os"
	"sync"
	"testing"

	"marketplace/internal/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgres_GetAndSet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	variationID := seedVariation(ctx, t, pool, 7)
	repo := NewPostgres(pool, nil)

	rec, err := repo.Get(ctx, variationID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", rec.Quantity)
	}

	updated, err := repo.Set(ctx, variationID, 20)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if updated.Quantity != 20 {
		t.Fatalf("expected quantity 20, got %d", updated.Quantity)
	}
}

func TestPostgres_DecrementTx(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	variationID := seedVariation(ctx, t, pool, 3)
	repo := NewPostgres(pool, nil)

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback(ctx)

	ok, err := repo.DecrementTx(ctx, tx, variationID, 2)
	if err != nil {
		t.Fatalf("DecrementTx: %v", err)
	}
	if !ok {
		t.Fatal("expected decrement to apply")
	}

	// the remaining unit cannot cover another 2
	ok, err = repo.DecrementTx(ctx, tx, variationID, 2)
	if err != nil {
		t.Fatalf("DecrementTx second: %v", err)
	}
	if ok {
		t.Fatal("expected decrement to be refused")
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	rec, err := repo.Get(ctx, variationID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", rec.Quantity)
	}
}

func TestPostgres_DecrementTx_Concurrent(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	variationID := seedVariation(ctx, t, pool, 5)
	repo := NewPostgres(pool, nil)

	const workers = 10
	applied := make([]bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx, err := pool.Begin(ctx)
			if err != nil {
				t.Errorf("begin: %v", err)
				return
			}
			defer tx.Rollback(ctx)

			ok, err := repo.DecrementTx(ctx, tx, variationID, 1)
			if err != nil {
				t.Errorf("DecrementTx: %v", err)
				return
			}
			if ok {
				if err := tx.Commit(ctx); err != nil {
					t.Errorf("commit: %v", err)
					return
				}
			}
			applied[i] = ok
		}(i)
	}
	wg.Wait()

	var wins int
	for _, ok := range applied {
		if ok {
			wins++
		}
	}
	if wins != 5 {
		t.Fatalf("expected 5 applied decrements, got %d", wins)
	}

	rec, err := repo.Get(ctx, variationID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Quantity != 0 {
		t.Fatalf("expected quantity 0, got %d", rec.Quantity)
	}
}

func seedVariation(ctx context.Context, t *testing.T, pool *pgxpool.Pool, quantity int) string {
	t.Helper()
	var storeID string
	err := pool.QueryRow(ctx, `INSERT INTO stores (key, name, owner_id) VALUES ('acme', 'Acme', gen_random_uuid()) RETURNING id::text`).Scan(&storeID)
	if err != nil {
		t.Fatalf("insert store: %v", err)
	}
	var productID string
	err = pool.QueryRow(ctx, `INSERT INTO products (store_id, key, name) VALUES ($1, 'tee', 'T-Shirt') RETURNING id::text`, storeID).Scan(&productID)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	var variationID string
	err = pool.QueryRow(ctx, `INSERT INTO product_variations (product_id, sku, name, price_cents) VALUES ($1, 'TEE-S', 'Small', 1000) RETURNING id::text`, productID).Scan(&variationID)
	if err != nil {
		t.Fatalf("insert variation: %v", err)
	}
	if _, err := pool.Exec(ctx, `INSERT INTO stock (variation_id, quantity) VALUES ($1, $2)`, variationID, quantity); err != nil {
		t.Fatalf("insert stock: %v", err)
	}
	return variationID
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, stock, product_variations, products, stores RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
