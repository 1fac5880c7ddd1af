package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetrics_Usable verifies that all Prometheus metrics can be used without
// panic, ensuring label dimensions match usage across the ipma, http, service,
// cache and catalog packages.
func TestMetrics_Usable(t *testing.T) {
	// Route uses the fixed path set to avoid cardinality (e.g. /mcp/previsao, never per-city paths)
	HTTPRequestsTotal.WithLabelValues("GET", "/mcp/districts", "2xx").Inc()
	HTTPRequestDuration.WithLabelValues("POST", "/mcp/previsao").Observe(0.01)
	HTTPRequestsInFlight.Inc()
	HTTPRequestsInFlight.Dec()
	IPMACallsTotal.WithLabelValues("forecast", "success").Inc()
	IPMACallsTotal.WithLabelValues("districts", "error").Inc()
	IPMACallDuration.WithLabelValues("forecast").Observe(0.1)
	IPMAErrorsTotal.WithLabelValues("forecast", "timeout").Inc()
	CacheHitsTotal.WithLabelValues("forecast").Inc()
	CacheMissesTotal.WithLabelValues("weather_types").Inc()
	CacheNegativeHitsTotal.WithLabelValues("warnings").Inc()
	CacheEvictionsTotal.Inc()
	CatalogEntries.WithLabelValues("districts").Set(20)
	CatalogEntries.WithLabelValues("cities").Set(300)
	CatalogEntries.WithLabelValues("weather_types").Set(29)
	CatalogRefreshTotal.WithLabelValues("success").Inc()
	CatalogRefreshTotal.WithLabelValues("failure").Inc()
	RPCRequestsTotal.WithLabelValues("tools/call", "success").Inc()
	RPCRequestsTotal.WithLabelValues("tools/call", "error").Inc()
	RPCRequestsTotal.WithLabelValues("tools/list", "success").Inc()
	RateLimitDeniedTotal.Inc()
}

// TestMetricsHandler_ServesPrometheusFormat verifies that MetricsHandler serves
// Prometheus text exposition format with correct HTTP status and metric output.
func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	// Touch a few metrics so their families appear in the output
	HTTPRequestsTotal.WithLabelValues("GET", "/", "2xx").Inc()
	IPMACallsTotal.WithLabelValues("districts", "success").Inc()

	handler := MetricsHandler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("MetricsHandler status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "httpRequestsTotal") {
		t.Error("MetricsHandler response should contain httpRequestsTotal")
	}
	if !strings.Contains(body, "ipmaCallsTotal") {
		t.Error("MetricsHandler response should contain ipmaCallsTotal")
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("MetricsHandler response should include Go runtime collectors")
	}
}
