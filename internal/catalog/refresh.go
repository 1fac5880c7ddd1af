package catalog

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Refresher reloads the reference tables periodically so a long-running
// process does not serve the tables it booted with forever. Each wait is
// interval plus a random slice of jitter, so restarted replicas spread their
// upstream fetches.
type Refresher struct {
	loader   *Loader
	interval time.Duration
	jitter   time.Duration
	logger   *zap.Logger
}

func NewRefresher(loader *Loader, interval, jitter time.Duration, logger *zap.Logger) *Refresher {
	return &Refresher{loader: loader, interval: interval, jitter: jitter, logger: logger}
}

// Run reloads the tables every interval(+jitter) until ctx is done. The
// initial load at startup is the caller's job; Run only schedules refreshes.
func (r *Refresher) Run(ctx context.Context) error {
	timer := time.NewTimer(r.nextWait())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := r.loader.Load(ctx); err != nil && r.logger != nil {
				r.logger.Warn("periodic catalog refresh failed", zap.Error(err))
			}
			timer.Reset(r.nextWait())
		}
	}
}

func (r *Refresher) nextWait() time.Duration {
	wait := r.interval
	if r.jitter > 0 {
		wait += time.Duration(rand.Int63n(int64(r.jitter)))
	}
	return wait
}
