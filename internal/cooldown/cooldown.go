// Package cooldown throttles alert emission to at most one per interval.
package cooldown

import (
	"sync"
	"time"
)

// Gate enforces a minimum wall-clock interval between acceptances. The
// check-and-update is atomic, so concurrent callers serialize on the same
// last-accepted timestamp.
type Gate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewGate constructs a Gate. A non-positive interval disables throttling.
func NewGate(interval time.Duration) *Gate {
	return &Gate{interval: interval}
}

// TryAcquire reports whether an alert may be emitted at now, updating the
// last-accepted timestamp on success. Rejected attempts leave the state
// untouched and are never queued.
func (g *Gate) TryAcquire(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() && now.Sub(g.last) < g.interval {
		return false
	}
	g.last = now
	return true
}

// LastAccepted returns the timestamp of the most recent acceptance, zero
// when nothing has been accepted yet.
func (g *Gate) LastAccepted() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}
