package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// IPMA open-data call rate per dataset. Watch for: error vs success ratio.
	IPMACallsTotal *prometheus.CounterVec

	// IPMA call latency per dataset. Watch for: p95 > 2s (upstream degradation), p99 near the 10s timeout.
	IPMACallDuration *prometheus.HistogramVec

	// IPMA fetch failures by category (timeout, network, upstream_status, malformed).
	IPMAErrorsTotal *prometheus.CounterVec

	// Cache hits/misses per dataset. Hit rate = hits/(hits+misses).
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Hits on cached fetch failures. Watch for: sustained growth = upstream outage being absorbed.
	CacheNegativeHitsTotal *prometheus.CounterVec

	// Entries dropped by the bounded cache at capacity.
	CacheEvictionsTotal prometheus.Counter

	// Current reference-table sizes (districts, cities, weather_types).
	CatalogEntries *prometheus.GaugeVec

	// Catalog reload outcomes. Watch for: status=failure streaks.
	CatalogRefreshTotal *prometheus.CounterVec

	// JSON-RPC traffic by method and outcome.
	RPCRequestsTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	IPMACallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipmaCallsTotal",
			Help: "Total number of IPMA open-data calls",
		},
		[]string{"dataset", "status"},
	)
	IPMACallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ipmaCallDurationSeconds",
			Help:    "IPMA open-data call latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"dataset"},
	)
	IPMAErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipmaErrorsTotal",
			Help: "IPMA fetch failures by error category",
		},
		[]string{"dataset", "category"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of cache hits",
		},
		[]string{"dataset"},
	)
	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheMissesTotal",
			Help: "Total number of cache misses",
		},
		[]string{"dataset"},
	)
	CacheNegativeHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheNegativeHitsTotal",
			Help: "Requests answered by a cached fetch failure",
		},
		[]string{"dataset"},
	)
	CacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheEvictionsTotal",
			Help: "Entries evicted from the bounded cache at capacity",
		},
	)
	CatalogEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalogEntries",
			Help: "Current number of reference-table entries",
		},
		[]string{"table"},
	)
	CatalogRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogRefreshTotal",
			Help: "Reference-table reload attempts by outcome",
		},
		[]string{"status"},
	)
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpcRequestsTotal",
			Help: "JSON-RPC requests by method and outcome",
		},
		[]string{"method", "outcome"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		IPMACallsTotal, IPMACallDuration, IPMAErrorsTotal,
		CacheHitsTotal, CacheMissesTotal, CacheNegativeHitsTotal, CacheEvictionsTotal,
		CatalogEntries, CatalogRefreshTotal,
		RPCRequestsTotal,
		RateLimitDeniedTotal,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
