package httpserver

import (
	"net/http"

	"marketplace/internal/domain"

	"github.com/gin-gonic/gin"
)

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

func listOrdersHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := storeFromContext(c)
		orders, err := svc.List(c.Request.Context(), store.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		out := make([]orderResponse, 0, len(orders))
		for _, o := range orders {
			out = append(out, toOrderResponse(o))
		}
		c.JSON(http.StatusOK, gin.H{"results": out, "total": len(out)})
	}
}

func getOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := storeFromContext(c)
		o, err := svc.Get(c.Request.Context(), store.ID, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(*o))
	}
}

func transitionOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		store := storeFromContext(c)
		o, err := svc.Transition(c.Request.Context(), store.ID, c.Param("id"), domain.OrderStatus(req.Status))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(*o))
	}
}
