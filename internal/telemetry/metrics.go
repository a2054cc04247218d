// Package telemetry unifies OpenTelemetry tracing (Google Cloud) and Prometheus metrics.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependency names used as metric labels and span names.
const (
	DependencyProduct = "product"
	DependencyOrigin  = "origin"
	DependencyEvents  = "events"
)

var (
	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of gateway requests, labeled by traffic category, route kind and decision.",
		},
		[]string{"category", "route", "decision"},
	)

	gatewayDependencyDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_dependency_duration_seconds",
			Help:    "Histogram of outbound dependency latencies, labeled by dependency and outcome.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 4},
		},
		[]string{"dependency", "outcome"},
	)

	gatewayDependencyFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_dependency_failures_total",
			Help: "Total number of failed dependency calls, labeled by dependency and cause.",
		},
		[]string{"dependency", "cause"},
	)

	gatewayRewritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_rewrites_total",
			Help: "Total number of document rewrites, labeled by result.",
		},
		[]string{"result"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Handler returns the standard Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records the final decision for one gateway request.
func ObserveRequest(category, route, decision string) {
	gatewayRequestsTotal.WithLabelValues(category, route, decision).Inc()
}

// ObserveDependency records the latency of one outbound call. An empty cause
// means success.
func ObserveDependency(dependency, cause string, duration time.Duration) {
	outcome := "ok"
	if cause != "" {
		outcome = "error"
		gatewayDependencyFailuresTotal.WithLabelValues(dependency, cause).Inc()
	}
	gatewayDependencyDurationSeconds.WithLabelValues(dependency, outcome).Observe(duration.Seconds())
}

// ObserveRewrite records a transformer outcome.
func ObserveRewrite(result string) {
	gatewayRewritesTotal.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest records metrics for an HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
