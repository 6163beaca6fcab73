package market

import "sync"

// callGuard is a per-market call latch. Acquire fails instead of blocking,
// so a nested call made while an operation is still in flight (for example
// from inside an external settlement transfer) is rejected deterministically
// rather than deadlocked. The host is expected to serialize legitimate calls
// per market; the guard is the structural safeguard underneath that.
type callGuard struct {
	mu   sync.Mutex
	held bool
}

// acquire attempts to take the guard. It returns false when another call is
// already executing against the same market.
func (g *callGuard) acquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		return false
	}
	g.held = true
	return true
}

// release frees the guard. It must be called on every exit path.
func (g *callGuard) release() {
	g.mu.Lock()
	g.held = false
	g.mu.Unlock()
}
