package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type variationSeed struct {
	SKU           string
	Name          string
	PriceCents    int64
	DiscountCents *int64
	Quantity      int
}

type productSeed struct {
	Key         string
	Name        string
	Description string
	Variations  []variationSeed
}

func discount(v int64) *int64 { return &v }

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	storeID, err := ensureStore(ctx, pool, "demo", "Demo Store")
	if err != nil {
		return fmt.Errorf("ensure store: %w", err)
	}

	products := []productSeed{
		{
			Key:         "demo-shirt",
			Name:        "Demo T-Shirt",
			Description: "Soft cotton tee for demo purposes",
			Variations: []variationSeed{
				{SKU: "SKU-DEMO-TSHIRT-S", Name: "Small", PriceCents: 1999, Quantity: 25},
				{SKU: "SKU-DEMO-TSHIRT-M", Name: "Medium", PriceCents: 1999, Quantity: 40},
				{SKU: "SKU-DEMO-TSHIRT-L", Name: "Large", PriceCents: 2199, DiscountCents: discount(1899), Quantity: 15},
			},
		},
		{
			Key:         "demo-mug",
			Name:        "Demo Mug",
			Description: "Ceramic mug with demo logo",
			Variations: []variationSeed{
				{SKU: "SKU-DEMO-MUG", Name: "Standard", PriceCents: 1299, Quantity: 60},
			},
		},
		{
			Key:         "demo-sticker",
			Name:        "Demo Sticker Pack",
			Description: "Assorted vinyl stickers, currently sold out",
			Variations: []variationSeed{
				{SKU: "SKU-DEMO-STICKER", Name: "Pack of 5", PriceCents: 499, Quantity: 0},
			},
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, storeID, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}

	return nil
}

func ensureStore(ctx context.Context, pool *pgxpool.Pool, key, name string) (string, error) {
	const q = `
INSERT INTO stores (key, name, owner_id)
VALUES ($1, $2, gen_random_uuid())
ON CONFLICT (key) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, key, name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, storeID string, p productSeed) error {
	const productQ = `
INSERT INTO products (store_id, key, name, description)
VALUES ($1, $2, $3, $4)
ON CONFLICT (store_id, key) DO UPDATE
SET name = EXCLUDED.name,
    description = EXCLUDED.description
RETURNING id::text
`
	var productID string
	if err := pool.QueryRow(ctx, productQ, storeID, p.Key, p.Name, p.Description).Scan(&productID); err != nil {
		return err
	}

	const variationQ = `
INSERT INTO product_variations (product_id, sku, name, price_cents, discount_cents)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (product_id, sku) DO UPDATE
SET name = EXCLUDED.name,
    price_cents = EXCLUDED.price_cents,
    discount_cents = EXCLUDED.discount_cents
RETURNING id::text
`
	const stockQ = `
INSERT INTO stock (variation_id, quantity)
VALUES ($1, $2)
ON CONFLICT (variation_id) DO UPDATE
SET quantity = EXCLUDED.quantity, updated_at = now()
`
	for _, v := range p.Variations {
		var variationID string
		if err := pool.QueryRow(ctx, variationQ, productID, v.SKU, v.Name, v.PriceCents, v.DiscountCents).Scan(&variationID); err != nil {
			return fmt.Errorf("variation %s: %w", v.SKU, err)
		}
		if _, err := pool.Exec(ctx, stockQ, variationID, v.Quantity); err != nil {
			return fmt.Errorf("stock %s: %w", v.SKU, err)
		}
	}
	return nil
}
