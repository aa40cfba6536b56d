// Package checkout turns one store's cart slice into a persisted order. Stock
// validation, the conditional decrements and order creation all run inside a
// single transaction: either the order exists and every line's stock was
// taken, or nothing happened.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/metrics"
	orderrepo "marketplace/internal/repository/order"
	"marketplace/pkg/rabbitmq"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type Service struct {
	db        txBeginner
	products  productRepo
	stock     stockRepo
	orders    ordersRepo
	publisher eventPublisher
	logger    *log.Logger
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type productRepo interface {
	GetVariationTx(ctx context.Context, tx pgx.Tx, storeID, variationID string) (*domain.Variation, error)
}

type stockRepo interface {
	GetTx(ctx context.Context, tx pgx.Tx, variationID string) (*domain.StockRecord, error)
	DecrementTx(ctx context.Context, tx pgx.Tx, variationID string, quantity int) (bool, error)
}

type ordersRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, in orderrepo.CreateOrderInput) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, storeID, key string) (*domain.Order, error)
}

type eventPublisher interface {
	PublishOrderCreated(event rabbitmq.OrderCreated) error
}

func New(db txBeginner, products productRepo, stock stockRepo, orders ordersRepo, publisher eventPublisher, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{db: db, products: products, stock: stock, orders: orders, publisher: publisher, logger: logger}
}

type Line struct {
	VariationID string `json:"productVariationId"`
	Quantity    int    `json:"quantity"`
}

type Input struct {
	StoreID        string
	CustomerName   string
	CustomerPhone  string
	CustomerEmail  *string
	Notes          *string
	IdempotencyKey *string
	Lines          []Line
}

// Checkout runs the order-assembly transaction for one store's cart slice.
// Replaying the same idempotency key returns the previously created order
// without touching stock again.
func (s *Service) Checkout(ctx context.Context, in Input) (*domain.Order, error) {
	start := time.Now()
	order, err := s.checkout(ctx, in)
	metrics.ObserveCheckout(outcome(err), time.Since(start).Seconds())
	return order, err
}

func (s *Service) checkout(ctx context.Context, in Input) (*domain.Order, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	if in.IdempotencyKey != nil {
		existing, err := s.orders.GetByIdempotencyKey(ctx, in.StoreID, *in.IdempotencyKey)
		if err == nil {
			s.logger.Printf("checkout: replay store_id=%s key=%s order_id=%s", in.StoreID, *in.IdempotencyKey, existing.ID)
			metrics.ObserveIdempotentReplay()
			return existing, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// First pass: resolve every line and validate against current
	// availability before any mutation.
	type pricedLine struct {
		variationID string
		quantity    int
		unitPrice   int64
	}
	priced := make([]pricedLine, 0, len(in.Lines))
	var shortages []domain.StockShortage

	for _, line := range in.Lines {
		variation, err := s.products.GetVariationTx(ctx, tx, in.StoreID, line.VariationID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("variation %s: %w", line.VariationID, domain.ErrNotFound)
			}
			return nil, err
		}

		available := 0
		rec, err := s.stock.GetTx(ctx, tx, line.VariationID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if rec != nil {
			available = rec.Quantity
		}
		if line.Quantity > available {
			shortages = append(shortages, domain.StockShortage{
				VariationID: line.VariationID,
				Requested:   line.Quantity,
				Available:   available,
			})
			continue
		}

		priced = append(priced, pricedLine{
			variationID: line.VariationID,
			quantity:    line.Quantity,
			unitPrice:   variation.EffectivePriceCents(),
		})
	}

	if len(shortages) > 0 {
		return nil, &domain.InsufficientStockError{Shortages: shortages}
	}

	// Second pass: conditional decrements. The WHERE quantity >= n guard
	// re-checks at mutation time, so a concurrent checkout that won the race
	// surfaces here as a plain shortage, never as negative stock. Any failure
	// rolls back the decrements already applied in this transaction.
	for _, line := range priced {
		ok, err := s.stock.DecrementTx(ctx, tx, line.variationID, line.quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			metrics.ObserveStockConflict()
			rec, recErr := s.stock.GetTx(ctx, tx, line.variationID)
			available := 0
			if recErr == nil && rec != nil {
				available = rec.Quantity
			}
			return nil, &domain.InsufficientStockError{Shortages: []domain.StockShortage{
				{VariationID: line.variationID, Requested: line.quantity, Available: available},
			}}
		}
	}

	var total int64
	items := make([]orderrepo.CreateItemInput, 0, len(priced))
	for _, line := range priced {
		total += line.unitPrice * int64(line.quantity)
		items = append(items, orderrepo.CreateItemInput{
			VariationID:    line.variationID,
			Quantity:       line.quantity,
			UnitPriceCents: line.unitPrice,
		})
	}

	order, err := s.orders.CreateTx(ctx, tx, orderrepo.CreateOrderInput{
		StoreID:        in.StoreID,
		CustomerName:   in.CustomerName,
		CustomerPhone:  in.CustomerPhone,
		CustomerEmail:  in.CustomerEmail,
		Notes:          in.Notes,
		TotalCents:     total,
		IdempotencyKey: in.IdempotencyKey,
		Items:          items,
	})
	if err != nil {
		// Two requests carrying the same idempotency key can race past the
		// lookup above; the unique index picks one winner. Our decrements
		// roll back with the transaction, the winner's order stands.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && in.IdempotencyKey != nil {
			_ = tx.Rollback(ctx)
			s.logger.Printf("checkout: idempotency race store_id=%s key=%s", in.StoreID, *in.IdempotencyKey)
			metrics.ObserveIdempotentReplay()
			return s.orders.GetByIdempotencyKey(ctx, in.StoreID, *in.IdempotencyKey)
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Printf("checkout: created order_id=%s store_id=%s total_cents=%d items=%d", order.ID, order.StoreID, order.TotalCents, len(order.Items))

	if s.publisher != nil {
		event := rabbitmq.OrderCreated{
			OrderID:    order.ID,
			StoreID:    order.StoreID,
			TotalCents: order.TotalCents,
			Status:     string(order.Status),
			CreatedAt:  order.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := s.publisher.PublishOrderCreated(event); err != nil {
			// The order is durable; the hand-off can be replayed by tooling.
			s.logger.Printf("checkout: publish order_id=%s failed: %v", order.ID, err)
		}
	}

	return order, nil
}

func validate(in Input) error {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" || len(name) > 120 {
		return fmt.Errorf("customer name: %w", domain.ErrValidation)
	}
	phone := strings.TrimSpace(in.CustomerPhone)
	if len(phone) < 10 || len(phone) > 20 {
		return fmt.Errorf("customer phone: %w", domain.ErrValidation)
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("at least one item required: %w", domain.ErrValidation)
	}
	for _, line := range in.Lines {
		if line.Quantity < 1 {
			return fmt.Errorf("quantity for %s must be positive: %w", line.VariationID, domain.ErrValidation)
		}
		if strings.TrimSpace(line.VariationID) == "" {
			return fmt.Errorf("variation id required: %w", domain.ErrValidation)
		}
	}
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return "insufficient_stock"
	}
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) {
		return "invalid"
	}
	return "error"
}
