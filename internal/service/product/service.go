package product

import (
	"context"
	"fmt"
	"strings"

	"marketplace/internal/domain"
	productrepo "marketplace/internal/repository/product"
	"marketplace/internal/service/plangate"
)

type Service struct {
	repo productrepo.Repository
	gate plangate.Gate
}

// ErrPlanLimit marks a create refused by the owner's subscription plan.
var ErrPlanLimit = fmt.Errorf("plan limit reached")

func New(repo productrepo.Repository, gate plangate.Gate) *Service {
	if gate == nil {
		gate = plangate.AllowAll{}
	}
	return &Service{repo: repo, gate: gate}
}

func (s *Service) List(ctx context.Context, storeID string) ([]domain.Product, error) {
	return s.repo.ListByStore(ctx, storeID)
}

func (s *Service) Get(ctx context.Context, storeID, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, storeID, id)
}

func (s *Service) GetVariation(ctx context.Context, storeID, variationID string) (*domain.Variation, error) {
	return s.repo.GetVariation(ctx, storeID, variationID)
}

type CreateInput struct {
	Key         string
	Name        string
	Description string
	Variations  []VariationInput
}

type VariationInput struct {
	SKU           string
	Name          string
	PriceCents    int64
	DiscountCents *int64
	Quantity      int
}

func (s *Service) Create(ctx context.Context, store *domain.Store, in CreateInput) (*domain.Product, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	allowed, err := s.gate.Allowed(ctx, plangate.KindProduct, store.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("plan check: %w", err)
	}
	if !allowed {
		return nil, ErrPlanLimit
	}

	repoIn := productrepo.CreateProductInput{
		StoreID:     store.ID,
		Key:         strings.TrimSpace(in.Key),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
	}
	for _, v := range in.Variations {
		repoIn.Variations = append(repoIn.Variations, productrepo.CreateVariationInput{
			SKU:           strings.TrimSpace(v.SKU),
			Name:          strings.TrimSpace(v.Name),
			PriceCents:    v.PriceCents,
			DiscountCents: v.DiscountCents,
			Quantity:      v.Quantity,
		})
	}
	return s.repo.Create(ctx, repoIn)
}

func validateCreate(in CreateInput) error {
	if strings.TrimSpace(in.Key) == "" {
		return fmt.Errorf("%w: key required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name required", domain.ErrValidation)
	}
	if len(in.Variations) == 0 {
		return fmt.Errorf("%w: at least one variation required", domain.ErrValidation)
	}
	for i, v := range in.Variations {
		if strings.TrimSpace(v.SKU) == "" {
			return fmt.Errorf("%w: variation %d: sku required", domain.ErrValidation, i)
		}
		if v.PriceCents < 0 {
			return fmt.Errorf("%w: variation %d: price must not be negative", domain.ErrValidation, i)
		}
		if v.DiscountCents != nil && (*v.DiscountCents < 0 || *v.DiscountCents > v.PriceCents) {
			return fmt.Errorf("%w: variation %d: discount must be between 0 and price", domain.ErrValidation, i)
		}
		if v.Quantity < 0 {
			return fmt.Errorf("%w: variation %d: quantity must not be negative", domain.ErrValidation, i)
		}
	}
	return nil
}
