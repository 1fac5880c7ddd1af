package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/brandao-20/mcp-server-ipma/internal/cache"
	"github.com/brandao-20/mcp-server-ipma/internal/catalog"
	"github.com/brandao-20/mcp-server-ipma/internal/ipma"
	"github.com/brandao-20/mcp-server-ipma/internal/models"
	"github.com/brandao-20/mcp-server-ipma/internal/observability"
)

var (
	ErrUnknownDistrict = errors.New("unknown district")
	ErrUnknownCity     = errors.New("unknown city")
	ErrNoForecast      = errors.New("no forecast entries")
)

// Cache keys name the upstream dataset; the forecast key carries the city's
// global id.
const (
	keyDistricts      = "districts"
	keyWeatherTypes   = "weather_types"
	keyObservations   = "obs"
	keyWarnings       = "warnings"
	keyForecastPrefix = "forecast_"
)

// Service orchestrates dataset retrieval: reference-table lookups come from
// the catalog, upstream documents go through the TTL cache, and forecast
// payloads are normalized into the response shape shared by the REST and RPC
// surfaces.
type Service struct {
	fetcher    ipma.Fetcher
	cache      cache.Cache
	catalog    *catalog.Catalog
	ttl        time.Duration
	failureTTL time.Duration
	group      singleflight.Group
}

// New creates a Service. ttl is the cache lifetime of successful fetches;
// failureTTL, normally much shorter, is the lifetime of cached fetch
// failures (0 disables negative caching).
func New(fetcher ipma.Fetcher, cache cache.Cache, cat *catalog.Catalog, ttl, failureTTL time.Duration) *Service {
	return &Service{
		fetcher:    fetcher,
		cache:      cache,
		catalog:    cat,
		ttl:        ttl,
		failureTTL: failureTTL,
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// failureMarker is the negative-cache entry stored in place of a document
// when an upstream fetch fails. The key cannot collide with any IPMA payload.
type failureMarker struct {
	FetchError string `json:"__fetchError"`
}

var failurePrefix = []byte(`{"__fetchError":`)

// markedFailure reports whether a cached document is a negative-cache marker
// and returns its message.
func markedFailure(doc json.RawMessage) (string, bool) {
	if !bytes.HasPrefix(doc, failurePrefix) {
		return "", false
	}
	var marker failureMarker
	if err := json.Unmarshal(doc, &marker); err != nil {
		return "", false
	}
	return marker.FetchError, marker.FetchError != ""
}

// fetchCached implements get-or-fetch over the TTL cache. Concurrent misses
// for the same key collapse into a single upstream call. A fetch failure is
// stored under the same key with the failure TTL, so a broken upstream is
// not re-fetched on every request but recovery is noticed well before the
// success TTL would expire.
func (s *Service) fetchCached(ctx context.Context, dataset, key string, fetch func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	logger := loggerFromContext(ctx)

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		if logger != nil {
			logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
	} else if ok {
		if msg, failed := markedFailure(cached); failed {
			observability.CacheNegativeHitsTotal.WithLabelValues(dataset).Inc()
			return nil, fmt.Errorf("upstream fetch failed recently: %s", msg)
		}
		observability.CacheHitsTotal.WithLabelValues(dataset).Inc()
		if logger != nil {
			logger.Debug("cache hit", zap.String("key", key))
		}
		return cached, nil
	}

	observability.CacheMissesTotal.WithLabelValues(dataset).Inc()
	if logger != nil {
		logger.Debug("cache miss, fetching upstream", zap.String("key", key))
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		doc, fetchErr := fetch(ctx)
		if fetchErr != nil {
			observability.IPMAErrorsTotal.WithLabelValues(dataset, string(ipma.CategorizeError(fetchErr))).Inc()
			if logger != nil {
				logger.Error("upstream fetch failed",
					zap.String("dataset", dataset),
					zap.String("key", key),
					zap.Error(fetchErr))
			}
			if s.failureTTL > 0 {
				marker, _ := json.Marshal(failureMarker{FetchError: fetchErr.Error()})
				if setErr := s.cache.Set(ctx, key, marker, s.failureTTL); setErr != nil && logger != nil {
					logger.Warn("cache set failed", zap.String("key", key), zap.Error(setErr))
				}
			}
			return nil, fetchErr
		}

		if setErr := s.cache.Set(ctx, key, doc, s.ttl); setErr != nil && logger != nil {
			logger.Warn("cache set failed", zap.String("key", key), zap.Error(setErr))
		}
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(json.RawMessage), nil
}

// CachedDistricts returns the raw districts dataset through the cache. Used
// by the catalog loader.
func (s *Service) CachedDistricts(ctx context.Context) (json.RawMessage, error) {
	return s.fetchCached(ctx, ipma.DatasetDistricts, keyDistricts, s.fetcher.FetchDistricts)
}

// CachedWeatherTypes returns the raw weather-type dataset through the cache.
// Used by the catalog loader.
func (s *Service) CachedWeatherTypes(ctx context.Context) (json.RawMessage, error) {
	return s.fetchCached(ctx, ipma.DatasetWeatherTypes, keyWeatherTypes, s.fetcher.FetchWeatherTypes)
}

// Districts returns the district table keyed by district id.
func (s *Service) Districts() map[string]models.District {
	return s.catalog.Districts()
}

// Cities returns the full city table keyed by global id.
func (s *Service) Cities() map[string]string {
	return s.catalog.Cities()
}

// CitiesInDistrict returns the city table scoped to one district.
func (s *Service) CitiesInDistrict(districtID string) (map[string]string, error) {
	cities, ok := s.catalog.CitiesInDistrict(districtID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDistrict, districtID)
	}
	return cities, nil
}

// ResolveCity resolves a city display name, case-insensitively, to its
// global id.
func (s *Service) ResolveCity(name string) (string, bool) {
	return s.catalog.ResolveCity(name)
}

// Observations returns the raw observations array from upstream.
func (s *Service) Observations(ctx context.Context) (json.RawMessage, error) {
	doc, err := s.fetchCached(ctx, ipma.DatasetObservations, keyObservations, s.fetcher.FetchObservations)
	if err != nil {
		return nil, err
	}
	return ipma.ExtractDataArray(doc)
}

// Warnings returns the raw weather-warnings array from upstream.
func (s *Service) Warnings(ctx context.Context) (json.RawMessage, error) {
	doc, err := s.fetchCached(ctx, ipma.DatasetWarnings, keyWarnings, s.fetcher.FetchWarnings)
	if err != nil {
		return nil, err
	}
	return ipma.ExtractDataArray(doc)
}
