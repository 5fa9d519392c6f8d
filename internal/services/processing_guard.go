package services

import "sync"

// processingGuard serializes reviewer actions per request id. A second
// concurrent action on the same id is rejected, not queued, so a slow
// carrier call can never be double-submitted behind a waiting reviewer.
type processingGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newProcessingGuard() *processingGuard {
	return &processingGuard{active: make(map[string]struct{})}
}

// tryAcquire claims the id. Returns false when another action holds it.
func (g *processingGuard) tryAcquire(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[id]; busy {
		return false
	}
	g.active[id] = struct{}{}
	return true
}

func (g *processingGuard) release(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, id)
}
