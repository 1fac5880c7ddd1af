package observability

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"
)

// FlushTelemetry flushes telemetry buffers before process exit.
// For pull-based Prometheus, metrics are already exposed; this mainly flushes logs.
// Call during graceful shutdown after in-flight requests have drained.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if logger != nil {
		if err := logger.Sync(); err != nil && !isBenignSyncError(err) {
			return fmt.Errorf("flush logs: %w", err)
		}
	}
	return nil
}

// isBenignSyncError reports whether err is the expected failure from syncing
// a logger bound to a terminal or pipe. Linux rejects fsync on those fds, so
// treating it as fatal would log a spurious error on every shutdown.
func isBenignSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EBADF)
}
