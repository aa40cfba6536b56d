package product

import (
	"context"
	"errors"
	"testing"

	"marketplace/internal/domain"
	productrepo "marketplace/internal/repository/product"
)

type stubRepo struct {
	productrepo.Repository
	created   *productrepo.CreateProductInput
	createOut *domain.Product
	createErr error
}

func (s *stubRepo) Create(_ context.Context, in productrepo.CreateProductInput) (*domain.Product, error) {
	s.created = &in
	return s.createOut, s.createErr
}

type stubGate struct {
	allowed   bool
	err       error
	lastKind  string
	lastOwner string
}

func (g *stubGate) Allowed(_ context.Context, kind, ownerID string) (bool, error) {
	g.lastKind = kind
	g.lastOwner = ownerID
	return g.allowed, g.err
}

var testStore = &domain.Store{ID: "store-1", Key: "acme", OwnerID: "owner-1"}

func validCreateInput() CreateInput {
	return CreateInput{
		Key:  "tee",
		Name: "T-Shirt",
		Variations: []VariationInput{
			{SKU: "TEE-S", Name: "Small", PriceCents: 1500, Quantity: 10},
		},
	}
}

func TestCreateConsultsPlanGate(t *testing.T) {
	repo := &stubRepo{createOut: &domain.Product{ID: "p1"}}
	gate := &stubGate{allowed: true}
	svc := New(repo, gate)

	out, err := svc.Create(context.Background(), testStore, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ID != "p1" {
		t.Fatalf("unexpected product: %+v", out)
	}
	if gate.lastKind != "product" || gate.lastOwner != "owner-1" {
		t.Fatalf("gate asked for %s/%s", gate.lastKind, gate.lastOwner)
	}
	if repo.created == nil || repo.created.StoreID != "store-1" {
		t.Fatalf("repo input: %+v", repo.created)
	}
}

func TestCreatePlanLimitReached(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo, &stubGate{allowed: false})

	_, err := svc.Create(context.Background(), testStore, validCreateInput())
	if !errors.Is(err, ErrPlanLimit) {
		t.Fatalf("expected plan limit error, got %v", err)
	}
	if repo.created != nil {
		t.Fatal("repo should not be called when the gate refuses")
	}
}

func TestCreateGateError(t *testing.T) {
	svc := New(&stubRepo{}, &stubGate{err: errors.New("gate down")})

	_, err := svc.Create(context.Background(), testStore, validCreateInput())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestCreateNilGateAllows(t *testing.T) {
	repo := &stubRepo{createOut: &domain.Product{ID: "p1"}}
	svc := New(repo, nil)

	if _, err := svc.Create(context.Background(), testStore, validCreateInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	discount := int64(2000)
	cases := []struct {
		name  string
		patch func(*CreateInput)
	}{
		{"empty key", func(in *CreateInput) { in.Key = " " }},
		{"empty name", func(in *CreateInput) { in.Name = "" }},
		{"no variations", func(in *CreateInput) { in.Variations = nil }},
		{"empty sku", func(in *CreateInput) { in.Variations[0].SKU = "" }},
		{"negative price", func(in *CreateInput) { in.Variations[0].PriceCents = -1 }},
		{"discount above price", func(in *CreateInput) { in.Variations[0].DiscountCents = &discount }},
		{"negative quantity", func(in *CreateInput) { in.Variations[0].Quantity = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubRepo{}
			svc := New(repo, &stubGate{allowed: true})
			in := validCreateInput()
			tc.patch(&in)

			_, err := svc.Create(context.Background(), testStore, in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if repo.created != nil {
				t.Fatal("repo should not be called on invalid input")
			}
		})
	}
}
