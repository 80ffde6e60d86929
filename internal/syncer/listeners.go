package syncer

import "sync"

// listenerGroup collects unsubscribe handles so they can be released together.
type listenerGroup struct {
	mu   sync.Mutex
	offs []func()
}

func (g *listenerGroup) add(off func()) {
	g.mu.Lock()
	g.offs = append(g.offs, off)
	g.mu.Unlock()
}

func (g *listenerGroup) close() {
	g.mu.Lock()
	offs := g.offs
	g.offs = nil
	g.mu.Unlock()
	for _, off := range offs {
		off()
	}
}
