package httpserver

import (
	"errors"
	"net/http"
	"time"

	"marketplace/internal/domain"
	productsvc "marketplace/internal/service/product"

	"github.com/gin-gonic/gin"
)

type productResponse struct {
	ID          string              `json:"id"`
	Key         string              `json:"key"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Variations  []variationResponse `json:"variations"`
	CreatedAt   time.Time           `json:"createdAt"`
}

type variationResponse struct {
	ID            string `json:"id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	PriceCents    int64  `json:"priceCents"`
	DiscountCents *int64 `json:"discountCents,omitempty"`
	// UnitPriceCents is what checkout will charge, the discount when set.
	UnitPriceCents int64 `json:"unitPriceCents"`
}

func toProductResponse(p domain.Product) productResponse {
	out := productResponse{
		ID:          p.ID,
		Key:         p.Key,
		Name:        p.Name,
		Description: p.Description,
		Variations:  make([]variationResponse, 0, len(p.Variations)),
		CreatedAt:   p.CreatedAt,
	}
	for _, v := range p.Variations {
		out.Variations = append(out.Variations, variationResponse{
			ID:             v.ID,
			SKU:            v.SKU,
			Name:           v.Name,
			PriceCents:     v.PriceCents,
			DiscountCents:  v.DiscountCents,
			UnitPriceCents: v.EffectivePriceCents(),
		})
	}
	return out
}

type orderResponse struct {
	ID            string              `json:"id"`
	Status        string              `json:"status"`
	CustomerName  string              `json:"customerName"`
	CustomerPhone string              `json:"customerPhone"`
	CustomerEmail *string             `json:"customerEmail,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	TotalCents    int64               `json:"totalCents"`
	Items         []orderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

type orderItemResponse struct {
	VariationID    string `json:"variationId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

func toOrderResponse(o domain.Order) orderResponse {
	out := orderResponse{
		ID:            o.ID,
		Status:        string(o.Status),
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		CustomerEmail: o.CustomerEmail,
		Notes:         o.Notes,
		TotalCents:    o.TotalCents,
		Items:         make([]orderItemResponse, 0, len(o.Items)),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for _, item := range o.Items {
		out.Items = append(out.Items, orderItemResponse{
			VariationID:    item.VariationID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return out
}

type shortageResponse struct {
	VariationID string `json:"variationId"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// respondError maps domain errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		shortages := make([]shortageResponse, 0, len(insufficient.Shortages))
		for _, s := range insufficient.Shortages {
			shortages = append(shortages, shortageResponse{
				VariationID: s.VariationID,
				Requested:   s.Requested,
				Available:   s.Available,
			})
		}
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient stock", "shortages": shortages})
		return
	}

	var invalid *domain.InvalidTransitionError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "from": string(invalid.From), "to": string(invalid.To)})
		return
	}

	if errors.Is(err, productsvc.ErrPlanLimit) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, domain.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
