package httpserver

import (
	"net/http"

	productsvc "marketplace/internal/service/product"

	"github.com/gin-gonic/gin"
)

type createProductRequest struct {
	Key         string                   `json:"key" binding:"required"`
	Name        string                   `json:"name" binding:"required"`
	Description string                   `json:"description"`
	Variations  []createVariationRequest `json:"variations" binding:"required,min=1,dive"`
}

type createVariationRequest struct {
	SKU           string `json:"sku" binding:"required"`
	Name          string `json:"name"`
	PriceCents    int64  `json:"priceCents" binding:"min=0"`
	DiscountCents *int64 `json:"discountCents" binding:"omitempty,min=0"`
	Quantity      int    `json:"quantity" binding:"min=0"`
}

func listProductsHandler(svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := storeFromContext(c)
		products, err := svc.List(c.Request.Context(), store.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		out := make([]productResponse, 0, len(products))
		for _, p := range products {
			out = append(out, toProductResponse(p))
		}
		c.JSON(http.StatusOK, gin.H{"results": out, "total": len(out)})
	}
}

func getProductHandler(svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := storeFromContext(c)
		p, err := svc.Get(c.Request.Context(), store.ID, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toProductResponse(*p))
	}
}

func createProductHandler(svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		store := storeFromContext(c)
		in := productsvc.CreateInput{
			Key:         req.Key,
			Name:        req.Name,
			Description: req.Description,
		}
		for _, v := range req.Variations {
			in.Variations = append(in.Variations, productsvc.VariationInput{
				SKU:           v.SKU,
				Name:          v.Name,
				PriceCents:    v.PriceCents,
				DiscountCents: v.DiscountCents,
				Quantity:      v.Quantity,
			})
		}

		p, err := svc.Create(c.Request.Context(), store, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toProductResponse(*p))
	}
}
