package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// stockHandler reports current availability for the requested variations so
// storefront carts can refresh their quantity ceilings.
func stockHandler(svc stockService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ids := c.QueryArray("variation")
		if len(ids) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one variation id required"})
			return
		}

		records, err := svc.GetMany(c.Request.Context(), ids)
		if err != nil {
			respondError(c, err)
			return
		}

		out := make(map[string]int, len(ids))
		for _, id := range ids {
			// missing rows read as zero available
			out[id] = records[id].Quantity
		}
		c.JSON(http.StatusOK, gin.H{"results": out})
	}
}
