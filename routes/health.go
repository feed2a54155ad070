package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront-labs/catalog-api/store"
	"go.uber.org/zap"
)

const probeTimeout = 2 * time.Second

type HealthHandler struct {
	store store.Store
	log   *zap.Logger
}

func NewHealthHandler(s store.Store, log *zap.Logger) *HealthHandler {
	return &HealthHandler{store: s, log: log}
}

func (h *HealthHandler) Register(router *gin.Engine) {
	router.GET("/health", h.Check())
}

// Check reports liveness based on a bounded connectivity probe against the
// database. The orchestrator owns restart policy; this only reports.
func (h *HealthHandler) Check() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			h.log.Error("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
