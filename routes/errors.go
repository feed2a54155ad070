package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront-labs/catalog-api/store"
	"go.uber.org/zap"
)

// respondStoreError maps the store error taxonomy onto HTTP statuses.
// Conflict and not-found messages are safe to expose; anything else is
// logged and hidden behind a generic response.
func respondStoreError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrUnavailable):
		log.Error("datastore unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	default:
		log.Error("unexpected datastore error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
