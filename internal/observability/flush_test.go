package observability

import (
	"context"
	"fmt"
	"syscall"
	"testing"

	"go.uber.org/zap"
)

// TestFlushTelemetry verifies that flushing tolerates a nil logger and the
// sync errors produced by loggers bound to a terminal.
func TestFlushTelemetry(t *testing.T) {
	if err := FlushTelemetry(context.Background(), nil); err != nil {
		t.Errorf("FlushTelemetry(nil logger) error = %v, want nil", err)
	}

	logger := zap.NewNop()
	if err := FlushTelemetry(context.Background(), logger); err != nil {
		t.Errorf("FlushTelemetry(nop logger) error = %v, want nil", err)
	}
}

// TestFlushTelemetry_CancelledContext verifies that a cancelled context short
// circuits the flush.
func TestFlushTelemetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := FlushTelemetry(ctx, zap.NewNop()); err == nil {
		t.Error("FlushTelemetry(cancelled ctx) error = nil, want context error")
	}
}

// TestIsBenignSyncError verifies classification of the errno values returned
// when syncing stderr or a closed pipe.
func TestIsBenignSyncError(t *testing.T) {
	tests := []struct {
		err    error
		benign bool
	}{
		{syscall.EINVAL, true},
		{syscall.ENOTTY, true},
		{syscall.EBADF, true},
		{fmt.Errorf("wrapped: %w", syscall.EINVAL), true},
		{syscall.EIO, false},
		{fmt.Errorf("disk full"), false},
	}
	for _, tt := range tests {
		if got := isBenignSyncError(tt.err); got != tt.benign {
			t.Errorf("isBenignSyncError(%v) = %v, want %v", tt.err, got, tt.benign)
		}
	}
}
