package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"marketplace/internal/domain"

	"github.com/gin-gonic/gin"
)

type ctxKey string

const storeCtxKey ctxKey = "store"

// storeMiddleware resolves the :storeKey path segment to a store and stashes
// it in the request context for the handlers downstream.
func storeMiddleware(repo storeRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.Param("storeKey"))
		if key == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "store key required"})
			return
		}

		store, err := repo.GetByKey(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "store not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), storeCtxKey, store)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func storeFromContext(c *gin.Context) *domain.Store {
	store, _ := c.Request.Context().Value(storeCtxKey).(*domain.Store)
	return store
}
