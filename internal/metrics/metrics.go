// Package metrics defines the Prometheus collectors for sqlrepl.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// InitTotal counts database bootstraps by result ("ok" or the failed stage).
	InitTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlrepl_init_total",
			Help: "Total number of database bootstraps",
		},
		[]string{"engine", "result"},
	)
	// InitDuration is the latency of successful bootstraps.
	InitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlrepl_init_duration_seconds",
			Help:    "Engine start plus image fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"engine"},
	)
	// QueriesTotal counts executions by outcome ("success" or "failure").
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlrepl_queries_total",
			Help: "Total number of query executions",
		},
		[]string{"outcome"},
	)
	// QueryDuration is the latency of query executions.
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlrepl_query_duration_seconds",
			Help:    "Query execution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	// ImageBytes is the size of the image currently served.
	ImageBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sqlrepl_image_bytes",
			Help: "Size in bytes of the served database image",
		},
	)
	// ImageReloads counts image reloads triggered by file changes.
	ImageReloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlrepl_image_reloads_total",
			Help: "Total number of served image reloads",
		},
	)
	// Sessions is the number of live web console sessions.
	Sessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sqlrepl_sessions",
			Help: "Number of web console sessions holding a database",
		},
	)
	// RateLimited counts executions rejected by the per-session limiter.
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlrepl_rate_limited_total",
			Help: "Total number of executions rejected by rate limiting",
		},
	)
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlrepl_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlrepl_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveInit records a bootstrap. result is "ok" or the failed stage.
func ObserveInit(engine, result string, elapsed time.Duration) {
	InitTotal.WithLabelValues(engine, result).Inc()
	if result == "ok" {
		InitDuration.WithLabelValues(engine).Observe(elapsed.Seconds())
	}
}

// ObserveQuery records one execution.
func ObserveQuery(failed bool, elapsed time.Duration) {
	outcome := "success"
	if failed {
		outcome = "failure"
	}
	QueriesTotal.WithLabelValues(outcome).Inc()
	QueryDuration.Observe(elapsed.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and duration, labelled by chi route
// pattern so path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RequestTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
