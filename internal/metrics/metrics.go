// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// 请求次数
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutriscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// 响应耗时
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nutriscan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "path"},
	)

	NewsResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutriscan_news_results_total",
			Help: "News pipeline results by source (live, cache, fallback)",
		},
		[]string{"source"},
	)

	UpstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutriscan_upstream_errors_total",
			Help: "Failed calls to external providers",
		},
		[]string{"provider", "reason"},
	)

	VoteRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nutriscan_vote_retries_total",
			Help: "Vote transactions retried after a write conflict",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		NewsResultsTotal,
		UpstreamErrorsTotal,
		VoteRetriesTotal,
	)
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
