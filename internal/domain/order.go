package domain

import "time"

// OrderStatus is the lifecycle state of a persisted order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// statusTransitions is the adjacency table of legal status moves. Delivered
// and cancelled are terminal; cancelled is reachable from any non-terminal
// state.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0 && s.Valid()
}

// CanTransitionTo reports whether the move s -> target is in the transition
// table.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range statusTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

type Order struct {
	ID             string      `json:"id"`
	StoreID        string      `json:"-"`
	CustomerName   string      `json:"customerName"`
	CustomerPhone  string      `json:"customerPhone"`
	CustomerEmail  *string     `json:"customerEmail,omitempty"`
	Notes          *string     `json:"notes,omitempty"`
	TotalCents     int64       `json:"totalCents"`
	Status         OrderStatus `json:"status"`
	IdempotencyKey *string     `json:"-"`
	Items          []OrderItem `json:"items,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// OrderItem is one line of an order. UnitPriceCents is the price snapshot
// captured at checkout time and never changes afterwards.
type OrderItem struct {
	ID             string `json:"id"`
	OrderID        string `json:"orderId"`
	VariationID    string `json:"variationId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}
