package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"testing"
	"time"
)

// benchDocument builds a forecast-sized JSON payload for benchmarks.
func benchDocument() json.RawMessage {
	return json.RawMessage(`{"owner": "IPMA", "dataUpdate": "2026-08-24T10:31:02", "data": [
		{"forecastDate": "2026-08-24", "idWeatherType": 2, "tMin": "16.2", "tMax": "24.1", "precipitaProb": "12.0", "predWindDir": "NW", "classWindSpeed": 2},
		{"forecastDate": "2026-08-25", "idWeatherType": 3, "tMin": "15.0", "tMax": "22.8", "precipitaProb": "35.0", "predWindDir": "W", "classWindSpeed": 1}
	]}`)
}

// BenchmarkInMemoryCache_Get_Hit benchmarks cache Get operation on cache hit.
func BenchmarkInMemoryCache_Get_Hit(b *testing.B) {
	cache := NewInMemoryCache(128)
	ctx := context.Background()

	cache.Set(ctx, "forecast_1030300", benchDocument(), 10*time.Minute)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = cache.Get(ctx, "forecast_1030300")
	}
}

// BenchmarkInMemoryCache_Get_Miss benchmarks cache Get operation on cache miss.
func BenchmarkInMemoryCache_Get_Miss(b *testing.B) {
	cache := NewInMemoryCache(128)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = cache.Get(ctx, "nonexistent")
	}
}

// BenchmarkInMemoryCache_Set benchmarks cache Set operation.
func BenchmarkInMemoryCache_Set(b *testing.B) {
	cache := NewInMemoryCache(128)
	ctx := context.Background()
	doc := benchDocument()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cache.Set(ctx, "forecast_1030300", doc, 10*time.Minute)
	}
}

// BenchmarkInMemoryCache_Set_Evicting benchmarks Set when every insert evicts
// the oldest entry.
func BenchmarkInMemoryCache_Set_Evicting(b *testing.B) {
	cache := NewInMemoryCache(64)
	ctx := context.Background()
	doc := benchDocument()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cache.Set(ctx, fmt.Sprintf("forecast_%d", i), doc, 10*time.Minute)
	}
}

// BenchmarkInMemoryCache_Concurrent benchmarks concurrent cache operations.
func BenchmarkInMemoryCache_Concurrent(b *testing.B) {
	cache := NewInMemoryCache(128)
	ctx := context.Background()
	cache.Set(ctx, "districts", benchDocument(), 10*time.Minute)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _, _ = cache.Get(ctx, "districts")
		}
	})
}

// BenchmarkMemcachedCache_Get_Hit benchmarks Memcached Get on cache hit.
// Requires: Memcached running (skip if unavailable).
func BenchmarkMemcachedCache_Get_Hit(b *testing.B) {
	if testing.Short() {
		b.Skip("Skipping Memcached benchmark in short mode")
	}

	cache, err := NewMemcachedCache("localhost:11211", 500*time.Millisecond, 2)
	if err != nil {
		b.Skipf("Memcached not available: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	if err := cache.Set(ctx, "forecast_1030300", benchDocument(), 10*time.Minute); err != nil {
		b.Skipf("Memcached not available: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = cache.Get(ctx, "forecast_1030300")
	}
}

// BenchmarkMemcachedCache_Set benchmarks Memcached Set operation.
func BenchmarkMemcachedCache_Set(b *testing.B) {
	if testing.Short() {
		b.Skip("Skipping Memcached benchmark in short mode")
	}

	cache, err := NewMemcachedCache("localhost:11211", 500*time.Millisecond, 2)
	if err != nil {
		b.Skipf("Memcached not available: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	doc := benchDocument()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cache.Set(ctx, "forecast_1030300", doc, 10*time.Minute)
	}
}

// BenchmarkInMemoryCache_MemoryPerEntry estimates memory usage per cache entry.
func BenchmarkInMemoryCache_MemoryPerEntry(b *testing.B) {
	cache := NewInMemoryCache(b.N + 1)
	ctx := context.Background()
	doc := benchDocument()

	var m1, m2 runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m1)

	for i := 0; i < b.N; i++ {
		cache.Set(ctx, fmt.Sprintf("key-%d", i), doc, 10*time.Minute)
	}

	runtime.GC()
	runtime.ReadMemStats(&m2)

	bytesPerEntry := float64(m2.Alloc-m1.Alloc) / float64(b.N)
	b.ReportMetric(bytesPerEntry, "bytes/entry")
}
