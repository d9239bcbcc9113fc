// Package activity tracks in-flight interactive requests so background work
// can yield to users. The tracker is a plain counter; background consumers
// poll Active rather than blocking on it.
package activity

import "sync/atomic"

// Tracker counts in-flight interactive requests.
// The zero value is ready to use.
type Tracker struct {
	inFlight atomic.Int64
}

// Begin records the start of an interactive request.
func (t *Tracker) Begin() {
	t.inFlight.Add(1)
}

// End records the completion of an interactive request.
func (t *Tracker) End() {
	t.inFlight.Add(-1)
}

// Active reports whether any interactive request is currently in flight.
func (t *Tracker) Active() bool {
	return t.inFlight.Load() > 0
}

// InFlight returns the current request count, for metrics.
func (t *Tracker) InFlight() int64 {
	return t.inFlight.Load()
}
