package health

import "sync/atomic"

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the readiness gate. Shutdown routines call SetReady(false)
// before draining so load balancers stop sending traffic.
func SetReady(v bool) {
	ready.Store(v)
}

// IsReady reports the readiness gate state.
func IsReady() bool {
	return ready.Load()
}
