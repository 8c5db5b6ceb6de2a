package session

import "sync"

// Guard tracks which identities currently hold a live session, so results of
// slow asynchronous work started for an identity can be discarded after that
// identity signs out instead of being applied to dead state.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

// Activate marks id as having a live session. Called on login, signup
// verification and token refresh.
func (g *Guard) Activate(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active[id] = struct{}{}
}

// Clear drops id's live session. Called on logout.
func (g *Guard) Clear(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, id)
}

// StillCurrent reports whether id still holds a live session.
func (g *Guard) StillCurrent(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[id]
	return ok
}
