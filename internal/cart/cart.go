// Package cart holds the client-resident shopping cart: items grouped by the
// store that sells them, with optimistic stock ceilings enforced at mutation
// time. The aggregator is the single state container behind the storefront UI;
// every mutation persists the whole multi-store structure as a side effect.
// The server re-validates stock authoritatively at checkout, so all checks
// here are advisory.
package cart

import (
	"io"
	"log"
	"sync"
	"time"

	"marketplace/internal/domain"

	"github.com/google/uuid"
)

// ProductInfo is the product snapshot carried inside a cart item.
type ProductInfo struct {
	ID      string `json:"id"`
	StoreID string `json:"storeId"`
	Name    string `json:"name"`
}

// VariationInfo is the variation snapshot carried inside a cart item. Stock is
// the availability last observed by the client and is only an optimistic
// ceiling.
type VariationInfo struct {
	ID            string `json:"id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	PriceCents    int64  `json:"priceCents"`
	DiscountCents *int64 `json:"discountCents,omitempty"`
	Stock         int    `json:"stock"`
}

// UnitPriceCents is the price used for cart totals: discount price when set.
func (v VariationInfo) UnitPriceCents() int64 {
	if v.DiscountCents != nil {
		return *v.DiscountCents
	}
	return v.PriceCents
}

type Item struct {
	Product   ProductInfo   `json:"product"`
	Variation VariationInfo `json:"variation"`
	Quantity  int           `json:"quantity"`
}

// StoreCart is one store's slice of the multi-store cart. Once RequestedAt is
// set the slice is frozen: mutations silently no-op until the slice is dropped.
// CheckoutKey is minted when the slice is created and survives retries, so a
// checkout that failed on the network can be resubmitted under the same
// idempotency key.
type StoreCart struct {
	StoreID     string     `json:"storeId"`
	Items       []Item     `json:"items"`
	CheckoutKey string     `json:"checkoutKey,omitempty"`
	RequestedAt *time.Time `json:"requestedAt,omitempty"`
	OrderID     string     `json:"orderId,omitempty"`
}

// Line is one (variation, quantity) pair of the checkout payload.
type Line struct {
	VariationID string `json:"productVariationId"`
	Quantity    int    `json:"quantity"`
}

// Aggregator maintains the per-store carts of one customer session.
type Aggregator struct {
	mu     sync.Mutex
	stores map[string]*StoreCart

	storage Storage
	saves   chan []byte
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *log.Logger
}

// New loads the persisted cart from storage (migrating legacy blobs, failing
// open to an empty cart) and starts the background persister.
func New(storage Storage, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	a := &Aggregator{
		stores:  map[string]*StoreCart{},
		storage: storage,
		saves:   make(chan []byte, 1),
		done:    make(chan struct{}),
		logger:  logger,
	}
	a.load()

	a.wg.Add(1)
	go a.persistLoop()
	return a
}

// Close flushes the latest state synchronously and stops the persister.
func (a *Aggregator) Close() {
	close(a.done)
	a.wg.Wait()

	a.mu.Lock()
	blob := a.encodeLocked()
	a.mu.Unlock()
	if err := a.storage.Save(blob); err != nil {
		a.logger.Printf("cart: final save failed: %v", err)
	}
}

// AddItem merges or appends an item to the owning store's slice. It fails with
// *domain.OutOfStockError when the variation has no stock at all and with
// *domain.InsufficientStockError when the resulting quantity would exceed the
// last-observed stock.
func (a *Aggregator) AddItem(product ProductInfo, variation VariationInfo, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if variation.Stock == 0 {
		return &domain.OutOfStockError{VariationID: variation.ID}
	}

	sc, ok := a.stores[product.StoreID]
	if ok {
		if sc.RequestedAt != nil {
			return nil
		}
		for i := range sc.Items {
			if sc.Items[i].Variation.ID != variation.ID {
				continue
			}
			merged := sc.Items[i].Quantity + quantity
			if merged > variation.Stock {
				return &domain.InsufficientStockError{Shortages: []domain.StockShortage{
					{VariationID: variation.ID, Requested: merged, Available: variation.Stock},
				}}
			}
			sc.Items[i].Quantity = merged
			sc.Items[i].Variation = variation
			a.persistLocked()
			return nil
		}
	}

	if quantity > variation.Stock {
		return &domain.InsufficientStockError{Shortages: []domain.StockShortage{
			{VariationID: variation.ID, Requested: quantity, Available: variation.Stock},
		}}
	}
	if sc == nil {
		sc = &StoreCart{StoreID: product.StoreID, CheckoutKey: uuid.New().String()}
		a.stores[product.StoreID] = sc
	}
	sc.Items = append(sc.Items, Item{Product: product, Variation: variation, Quantity: quantity})
	a.persistLocked()
	return nil
}

// RemoveItem deletes the line from the store's slice. Removing an absent item
// is a no-op; an emptied store slice is pruned from the aggregate.
func (a *Aggregator) RemoveItem(storeID, variationID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sc, ok := a.stores[storeID]
	if !ok || sc.RequestedAt != nil {
		return
	}
	for i := range sc.Items {
		if sc.Items[i].Variation.ID == variationID {
			sc.Items = append(sc.Items[:i], sc.Items[i+1:]...)
			break
		}
	}
	if len(sc.Items) == 0 {
		delete(a.stores, storeID)
	}
	a.persistLocked()
}

// UpdateQuantity replaces an item's quantity in place. A quantity <= 0 removes
// the item; exceeding the last-observed stock fails with
// *domain.InsufficientStockError and leaves the item unchanged.
func (a *Aggregator) UpdateQuantity(storeID, variationID string, quantity int) error {
	if quantity <= 0 {
		a.RemoveItem(storeID, variationID)
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	sc, ok := a.stores[storeID]
	if !ok || sc.RequestedAt != nil {
		return nil
	}
	for i := range sc.Items {
		if sc.Items[i].Variation.ID != variationID {
			continue
		}
		if quantity > sc.Items[i].Variation.Stock {
			return &domain.InsufficientStockError{Shortages: []domain.StockShortage{
				{VariationID: variationID, Requested: quantity, Available: sc.Items[i].Variation.Stock},
			}}
		}
		sc.Items[i].Quantity = quantity
		a.persistLocked()
		return nil
	}
	return nil
}

// ClearStore removes one store's slice unless it is already requested.
func (a *Aggregator) ClearStore(storeID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sc, ok := a.stores[storeID]
	if !ok || sc.RequestedAt != nil {
		return
	}
	delete(a.stores, storeID)
	a.persistLocked()
}

// ClearAll removes every non-requested store slice.
func (a *Aggregator) ClearAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for id, sc := range a.stores {
		if sc.RequestedAt == nil {
			delete(a.stores, id)
		}
	}
	a.persistLocked()
}

// Drop removes a store's slice regardless of requested state. Used after the
// customer navigates away from a successful checkout.
func (a *Aggregator) Drop(storeID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.stores[storeID]; !ok {
		return
	}
	delete(a.stores, storeID)
	a.persistLocked()
}

// Total returns the line-price sum for one store in minor units.
func (a *Aggregator) Total(storeID string) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalLocked(a.stores[storeID])
}

// GrandTotal aggregates across all stores. Display only: checkout is always
// per store.
func (a *Aggregator) GrandTotal() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	var total int64
	for _, sc := range a.stores {
		total += a.totalLocked(sc)
	}
	return total
}

// ItemCount returns the summed quantities of one store's slice.
func (a *Aggregator) ItemCount(storeID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return countLocked(a.stores[storeID])
}

// TotalItemCount aggregates quantities across all stores (badge count).
func (a *Aggregator) TotalItemCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	var n int
	for _, sc := range a.stores {
		n += countLocked(sc)
	}
	return n
}

// Items returns a copy of one store's current items.
func (a *Aggregator) Items(storeID string) []Item {
	a.mu.Lock()
	defer a.mu.Unlock()

	sc, ok := a.stores[storeID]
	if !ok {
		return nil
	}
	out := make([]Item, len(sc.Items))
	copy(out, sc.Items)
	return out
}

// StoreIDs lists the stores that currently have a slice, in no particular
// order.
func (a *Aggregator) StoreIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]string, 0, len(a.stores))
	for id := range a.stores {
		ids = append(ids, id)
	}
	return ids
}

// CheckoutLines builds the (variation, quantity) payload for one store's
// checkout request.
func (a *Aggregator) CheckoutLines(storeID string) []Line {
	a.mu.Lock()
	defer a.mu.Unlock()

	sc, ok := a.stores[storeID]
	if !ok {
		return nil
	}
	lines := make([]Line, 0, len(sc.Items))
	for _, item := range sc.Items {
		lines = append(lines, Line{VariationID: item.Variation.ID, Quantity: item.Quantity})
	}
	return lines
}

// CheckoutKey returns the idempotency key of the store's slice, or "" when the
// store has no slice.
func (a *Aggregator) CheckoutKey(storeID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	sc, ok := a.stores[storeID]
	if !ok {
		return ""
	}
	return sc.CheckoutKey
}

// MarkRequested freezes a store's slice after a successful checkout, recording
// when and which order it produced.
func (a *Aggregator) MarkRequested(storeID, orderID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sc, ok := a.stores[storeID]
	if !ok {
		return
	}
	now := time.Now().UTC()
	sc.RequestedAt = &now
	sc.OrderID = orderID
	a.persistLocked()
}

// IsRequested reports whether the store's slice has been through a successful
// checkout.
func (a *Aggregator) IsRequested(storeID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	sc, ok := a.stores[storeID]
	return ok && sc.RequestedAt != nil
}

func (a *Aggregator) totalLocked(sc *StoreCart) int64 {
	if sc == nil {
		return 0
	}
	var total int64
	for _, item := range sc.Items {
		total += item.Variation.UnitPriceCents() * int64(item.Quantity)
	}
	return total
}

func countLocked(sc *StoreCart) int {
	if sc == nil {
		return 0
	}
	var n int
	for _, item := range sc.Items {
		n += item.Quantity
	}
	return n
}
