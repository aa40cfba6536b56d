package order

import (
	"context"
	"io"
	"log"

	"marketplace/internal/domain"
	"marketplace/internal/metrics"
)

type Service struct {
	repo   orderRepo
	logger *log.Logger
}

type orderRepo interface {
	GetByID(ctx context.Context, storeID, id string) (*domain.Order, error)
	ListByStore(ctx context.Context, storeID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, storeID, id string, from, to domain.OrderStatus) (*domain.Order, error)
}

func New(repo orderRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Get(ctx context.Context, storeID, id string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, storeID, id)
}

func (s *Service) List(ctx context.Context, storeID string) ([]domain.Order, error) {
	return s.repo.ListByStore(ctx, storeID)
}

// Transition moves an order to target along the allowed status graph. The
// current status is read first and the update is guarded by it, so a
// concurrent transition makes the guarded update miss instead of silently
// overwriting.
func (s *Service) Transition(ctx context.Context, storeID, id string, target domain.OrderStatus) (*domain.Order, error) {
	if !target.Valid() {
		metrics.ObserveTransition(string(target), "rejected")
		return nil, &domain.InvalidTransitionError{To: target}
	}

	current, err := s.repo.GetByID(ctx, storeID, id)
	if err != nil {
		return nil, err
	}

	if !current.Status.CanTransitionTo(target) {
		metrics.ObserveTransition(string(target), "rejected")
		return nil, &domain.InvalidTransitionError{From: current.Status, To: target}
	}

	updated, err := s.repo.UpdateStatus(ctx, storeID, id, current.Status, target)
	if err != nil {
		metrics.ObserveTransition(string(target), "conflict")
		return nil, err
	}

	metrics.ObserveTransition(string(target), "applied")
	s.logger.Printf("order %s: %s -> %s", id, current.Status, target)
	return updated, nil
}
