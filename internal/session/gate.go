package session

import (
	"context"
	"sync"
)

type State int

const (
	Initializing State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Change is a notification from the auth provider: a signed-in session,
// or nil for a confirmed absence. Err carries a provider failure.
type Change struct {
	Session *Session
	Err     error
	Reason  string
}

// Gate follows session changes. It leaves Initializing exactly once and
// never returns to it.
type Gate struct {
	mu         sync.RWMutex
	state      State
	session    *Session
	diagnostic string
	ready      chan struct{}
}

func NewGate() *Gate {
	return &Gate{state: Initializing, ready: make(chan struct{})}
}

// Apply moves the gate according to c and returns the new state.
func (g *Gate) Apply(c Change) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	wasInitializing := g.state == Initializing

	switch {
	case c.Err != nil:
		g.state = Unauthenticated
		g.session = nil
		g.diagnostic = c.Err.Error()
	case c.Session != nil:
		g.state = Authenticated
		g.session = c.Session
		g.diagnostic = ""
	default:
		g.state = Unauthenticated
		g.session = nil
		g.diagnostic = c.Reason
	}

	if wasInitializing {
		close(g.ready)
	}
	return g.state
}

// Run feeds changes into the gate until ctx is done or changes is closed.
// If either happens while still initializing, the gate exits to
// Unauthenticated with a diagnostic instead of waiting forever.
func (g *Gate) Run(ctx context.Context, changes <-chan Change) {
	for {
		select {
		case <-ctx.Done():
			g.abandon("session check cancelled: " + ctx.Err().Error())
			return
		case c, ok := <-changes:
			if !ok {
				g.abandon("session provider closed before reporting a session")
				return
			}
			g.Apply(c)
		}
	}
}

func (g *Gate) abandon(reason string) {
	g.mu.RLock()
	initializing := g.state == Initializing
	g.mu.RUnlock()
	if initializing {
		g.Apply(Change{Reason: reason})
	}
}

// Ready is closed once the gate has left Initializing.
func (g *Gate) Ready() <-chan struct{} {
	return g.ready
}

func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Session is the current session, nil unless Authenticated.
func (g *Gate) Session() *Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

// Diagnostic explains the last transition to Unauthenticated.
func (g *Gate) Diagnostic() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.diagnostic
}
