package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Search metrics
	SearchesTotal       *prometheus.CounterVec
	SearchDuration      *prometheus.HistogramVec
	SearchErrorsTotal   *prometheus.CounterVec
	SearchResultsCapped prometheus.Counter

	// Suggestion cache metrics
	SuggestionCacheHitsTotal   *prometheus.CounterVec
	SuggestionCacheMissesTotal prometheus.Counter

	// Database metrics
	DBConnectionsActive       prometheus.Gauge
	DBConnectionsIdle         prometheus.Gauge
	DBConnectionsWaitDuration prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchd_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "searchd_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchd_searches_total",
				Help: "Total number of compiled searches by entity and provider",
			},
			[]string{"entity", "provider"},
		),
		SearchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "searchd_search_duration_seconds",
				Help:    "Search compilation and execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"entity"},
		),
		SearchErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchd_search_errors_total",
				Help: "Total number of failed searches by reason",
			},
			[]string{"reason"},
		),
		SearchResultsCapped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "searchd_search_results_capped_total",
				Help: "Number of searches whose requested limit exceeded the configured maximum",
			},
		),
		SuggestionCacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchd_suggestion_cache_hits_total",
				Help: "Suggestion cache hits by tier (l1, l2)",
			},
			[]string{"tier"},
		),
		SuggestionCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "searchd_suggestion_cache_misses_total",
				Help: "Suggestion lookups that fell through to the database",
			},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "searchd_db_connections_active",
				Help: "Number of in-use database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "searchd_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWaitDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "searchd_db_connections_wait_seconds_total",
				Help: "Cumulative time spent waiting for a database connection",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SearchesTotal,
		m.SearchDuration,
		m.SearchErrorsTotal,
		m.SearchResultsCapped,
		m.SuggestionCacheHitsTotal,
		m.SuggestionCacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.DBConnectionsWaitDuration,
	)

	return m
}

// Handler returns the Prometheus scrape handler for this metrics registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDBStats copies sql.DB pool statistics into the gauges. Intended to
// be called periodically from a background routine.
func (m *Metrics) ObserveDBStats(stats sql.DBStats) {
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBConnectionsWaitDuration.Set(stats.WaitDuration.Seconds())
}

// statusRecorder captures the response status code for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and latencies for every handler it wraps.
// The path label uses the route template, not the raw URL, to keep metric
// cardinality bounded.
func (m *Metrics) Middleware(routeTemplate func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			path := routeTemplate(r)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(recorder.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}
