package http

import "sync/atomic"

var draining atomic.Bool

// SetDraining sets the drain flag. Call when SIGTERM/SIGINT received.
// The health handler returns 503 with status shutting-down while true.
func SetDraining(v bool) {
	draining.Store(v)
}

// IsDraining returns true if the process is draining and should not receive new traffic.
func IsDraining() bool {
	return draining.Load()
}
