package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/greentrace/carbonledger/internal/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	carbonRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carbon_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	carbonRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "carbon_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	carbonProfilesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carbon_profiles_created_total",
		Help: "Total actor profiles created.",
	})

	carbonEmissionsLoggedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carbon_emissions_logged_total",
		Help: "Total emissions accepted, by category.",
	}, []string{"category"})

	carbonRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carbon_rejections_total",
		Help: "Total rejected operations by numeric failure code.",
	}, []string{"code"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		carbonRequestsTotal.WithLabelValues(method, path, status).Inc()
		carbonRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordProfileCreated records a successful profile creation.
func RecordProfileCreated() {
	carbonProfilesCreatedTotal.Inc()
}

// RecordEmission records an accepted emission for the given category.
func RecordEmission(category ledger.Category) {
	carbonEmissionsLoggedTotal.WithLabelValues(category.String()).Inc()
}

// RecordRejection records a rejected operation by its numeric failure code.
func RecordRejection(code int) {
	carbonRejectionsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}
