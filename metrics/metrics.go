// Package metrics holds the process-wide request counters scraped by the
// external monitoring stack. Metric names and label sets are a stable
// contract with the dashboards and alert rules; do not rename them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_request_count",
		Help: "Application Request Count",
	}, []string{"method", "endpoint", "http_status"})

	RequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "app_request_latency_seconds",
		Help: "Application Request Latency",
	}, []string{"method", "endpoint"})
)

// Handler serves the text exposition format for GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
