//go:build integration
// +build integration

package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// TestMemcachedCache_GetSet_Integration verifies that MemcachedCache stores
// and retrieves raw documents when a memcached server is available.
func TestMemcachedCache_GetSet_Integration(t *testing.T) {
	c, err := NewMemcachedCache("localhost:11211", 500*time.Millisecond, 2)
	if err != nil {
		t.Fatalf("NewMemcachedCache() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	doc := json.RawMessage(`{"data": [{"local": "Braga"}]}`)
	if err := c.Set(ctx, "districts", doc, time.Minute); err != nil {
		t.Skipf("Set failed (memcached may not be running): %v", err)
	}

	got, ok, err := c.Get(ctx, "districts")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if string(got) != string(doc) {
		t.Errorf("Get() = %s, want %s", got, doc)
	}
}

// TestMemcachedCache_Get_Miss_Integration verifies that MemcachedCache
// returns ok=false when the requested key does not exist.
func TestMemcachedCache_Get_Miss_Integration(t *testing.T) {
	c, err := NewMemcachedCache("localhost:11211", 500*time.Millisecond, 2)
	if err != nil {
		t.Fatalf("NewMemcachedCache() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	_, ok, err := c.Get(ctx, "nonexistent")
	if err != nil {
		t.Skipf("Get failed (memcached may not be running): %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for miss")
	}
}

// TestMemcachedCache_TTLExpiry_Integration verifies that entries expire after
// their TTL elapses.
func TestMemcachedCache_TTLExpiry_Integration(t *testing.T) {
	c, err := NewMemcachedCache("localhost:11211", 500*time.Millisecond, 2)
	if err != nil {
		t.Fatalf("NewMemcachedCache() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "expiring", json.RawMessage(`{}`), time.Second); err != nil {
		t.Skipf("Set failed (memcached may not be running): %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	_, ok, err := c.Get(ctx, "expiring")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false after TTL expiry")
	}
}

// TestMemcachedCache_Ping_Integration verifies connectivity checking against
// a running memcached.
func TestMemcachedCache_Ping_Integration(t *testing.T) {
	c, err := NewMemcachedCache("localhost:11211", 500*time.Millisecond, 2)
	if err != nil {
		t.Fatalf("NewMemcachedCache() error = %v", err)
	}
	defer c.Close()

	if err := c.Ping(); err != nil {
		t.Skipf("Ping failed (memcached may not be running): %v", err)
	}
}
