package httpserver

import (
	"net/http"
	"strings"

	checkoutsvc "marketplace/internal/service/checkout"

	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	CustomerName   string                `json:"customerName" binding:"required"`
	CustomerPhone  string                `json:"customerPhone" binding:"required,phone"`
	CustomerEmail  *string               `json:"customerEmail" binding:"omitempty,email"`
	Notes          *string               `json:"notes"`
	IdempotencyKey *string               `json:"idempotencyKey"`
	Lines          []checkoutLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type checkoutLineRequest struct {
	VariationID string `json:"variationId" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
}

func checkoutHandler(svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		key := req.IdempotencyKey
		if header := strings.TrimSpace(c.GetHeader("Idempotency-Key")); header != "" {
			key = &header
		}

		store := storeFromContext(c)
		in := checkoutsvc.Input{
			StoreID:        store.ID,
			CustomerName:   req.CustomerName,
			CustomerPhone:  req.CustomerPhone,
			CustomerEmail:  req.CustomerEmail,
			Notes:          req.Notes,
			IdempotencyKey: key,
		}
		for _, line := range req.Lines {
			in.Lines = append(in.Lines, checkoutsvc.Line{
				VariationID: line.VariationID,
				Quantity:    line.Quantity,
			})
		}

		order, err := svc.Checkout(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toOrderResponse(*order))
	}
}
