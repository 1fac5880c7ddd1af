//go:build integration
// +build integration

package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/brandao-20/mcp-server-ipma/internal/cache"
	"github.com/brandao-20/mcp-server-ipma/internal/catalog"
	"github.com/brandao-20/mcp-server-ipma/internal/config"
	"github.com/brandao-20/mcp-server-ipma/internal/ipma"
	"github.com/brandao-20/mcp-server-ipma/internal/observability"
	"github.com/brandao-20/mcp-server-ipma/internal/service"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	CacheBackend  string // "in_memory" or "memcached"
	MemcachedAddr string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips the test unless IPMA_INTEGRATION is set; integration tests call the
// live IPMA open-data endpoints.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	if os.Getenv("IPMA_INTEGRATION") == "" {
		t.Skip("IPMA_INTEGRATION not set, skipping integration test")
	}

	memcachedAddr := os.Getenv("MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}

	return IntegrationTestConfig{
		CacheBackend:  os.Getenv("INTEGRATION_CACHE_BACKEND"),
		MemcachedAddr: memcachedAddr,
	}
}

// SetupIntegrationService creates a fully wired service with a loaded catalog
// against the live IPMA endpoints. Returns the service, the catalog and a
// cleanup function.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) (*service.Service, *catalog.Catalog, func()) {
	logger, err := observability.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	fetcher, err := ipma.NewClient(ipma.Endpoints{
		DistrictsURL:    config.DefaultDistrictsURL,
		WeatherTypesURL: config.DefaultWeatherTypesURL,
		ForecastURL:     config.DefaultForecastURL,
		WarningsURL:     config.DefaultWarningsURL,
		ObservationsURL: config.DefaultObservationsURL,
	}, 10*time.Second)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	var cacheSvc cache.Cache
	var cleanup func()

	if cfg.CacheBackend == "memcached" {
		memcachedCache, err := cache.NewMemcachedCache(cfg.MemcachedAddr, 500*time.Millisecond, 2)
		if err == nil && memcachedCache.Ping() == nil {
			cacheSvc = memcachedCache
			cleanup = func() { memcachedCache.Close() }
			t.Logf("Using Memcached cache at %s", cfg.MemcachedAddr)
		} else {
			t.Logf("Memcached not available, using in-memory cache")
			cacheSvc = cache.NewInMemoryCache(0)
			cleanup = func() {}
		}
	} else {
		cacheSvc = cache.NewInMemoryCache(0)
		cleanup = func() {}
	}

	cat := catalog.New()
	svc := service.New(fetcher, cacheSvc, cat, 10*time.Minute, time.Minute)
	loader := catalog.NewLoader(svc, cat, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := loader.Load(ctx); err != nil {
		cleanup()
		t.Fatalf("catalog Load() error = %v", err)
	}

	return svc, cat, cleanup
}
