package logger

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics shared by every HTTP-facing component

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// ObserveRequest records one served HTTP request
func ObserveRequest(method, endpoint string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	RequestTotal.WithLabelValues(method, endpoint, code).Inc()
	RequestDuration.WithLabelValues(method, endpoint, code).Observe(duration.Seconds())
}

// CountError increments the error counter for a component
func CountError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
