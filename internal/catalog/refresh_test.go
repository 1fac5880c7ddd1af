package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRefresher_NextWaitBounds(t *testing.T) {
	r := NewRefresher(nil, time.Hour, 10*time.Minute, zap.NewNop())
	for i := 0; i < 100; i++ {
		wait := r.nextWait()
		if wait < time.Hour || wait >= time.Hour+10*time.Minute {
			t.Fatalf("nextWait() = %v, want in [1h, 1h10m)", wait)
		}
	}
}

func TestRefresher_NextWaitZeroJitter(t *testing.T) {
	r := NewRefresher(nil, time.Hour, 0, zap.NewNop())
	if got := r.nextWait(); got != time.Hour {
		t.Errorf("nextWait() = %v, want exactly 1h with zero jitter", got)
	}
}

// TestRefresher_Run_ReloadsPeriodically verifies that Run keeps reloading on
// the configured interval until the context is done.
func TestRefresher_Run_ReloadsPeriodically(t *testing.T) {
	source := &stubSource{
		districts:    json.RawMessage(districtsFixture),
		weatherTypes: json.RawMessage(weatherTypesFixture),
	}
	loader := NewLoader(source, New(), zap.NewNop())
	refresher := NewRefresher(loader, 10*time.Millisecond, 0, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := refresher.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want context.DeadlineExceeded", err)
	}

	if calls := atomic.LoadInt32(&source.loadCalls); calls < 2 {
		t.Errorf("load calls = %d, want at least 2 periodic reloads", calls)
	}
}

// TestRefresher_Run_StopsOnCancel verifies that Run returns promptly when the
// context is canceled before the first tick.
func TestRefresher_Run_StopsOnCancel(t *testing.T) {
	source := &stubSource{
		districts:    json.RawMessage(districtsFixture),
		weatherTypes: json.RawMessage(weatherTypesFixture),
	}
	loader := NewLoader(source, New(), zap.NewNop())
	refresher := NewRefresher(loader, time.Hour, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- refresher.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after context cancel")
	}

	if calls := atomic.LoadInt32(&source.loadCalls); calls != 0 {
		t.Errorf("load calls = %d, want 0 before first tick", calls)
	}
}
