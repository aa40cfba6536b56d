package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a malformed request.
	ErrValidation = errors.New("validation failed")
)

// OutOfStockError is returned when a variation has no available stock at all.
type OutOfStockError struct {
	VariationID string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("variation %s is out of stock", e.VariationID)
}

// StockShortage describes one line whose requested quantity exceeds availability.
type StockShortage struct {
	VariationID string `json:"variationId"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// InsufficientStockError is returned when one or more lines request more than
// the available quantity. It names every offending variation.
type InsufficientStockError struct {
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	if len(e.Shortages) == 1 {
		s := e.Shortages[0]
		return fmt.Sprintf("insufficient stock for variation %s (requested: %d, available: %d)", s.VariationID, s.Requested, s.Available)
	}
	return fmt.Sprintf("insufficient stock for %d variations", len(e.Shortages))
}

// InvalidTransitionError is returned when an order status transition is not
// allowed by the transition table.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("illegal order status transition %s -> %s", e.From, e.To)
}
