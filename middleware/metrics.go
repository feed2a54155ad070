package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront-labs/catalog-api/metrics"
)

// Metrics records count and latency for every completed request. The
// endpoint label is the route template so /items/1 and /items/2 land in the
// same series. The operational endpoints are left out to keep scrape
// self-traffic from polluting the dashboards.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/metrics" || path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		method := c.Request.Method
		metrics.RequestLatency.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
		metrics.RequestCount.WithLabelValues(method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
