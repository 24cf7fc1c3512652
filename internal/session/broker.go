package session

import (
	"sync"

	"github.com/google/uuid"
)

// Broker fans session changes out to the listeners of one user.
type Broker struct {
	mu        sync.Mutex
	listeners map[uuid.UUID]map[*listener]struct{}
}

type listener struct {
	tokenVersion string
	ch           chan Change
}

func NewBroker() *Broker {
	return &Broker{listeners: make(map[uuid.UUID]map[*listener]struct{})}
}

// Watch subscribes to changes affecting s. A revocation is delivered
// once; the returned cancel func must be called when the watcher goes away.
func (b *Broker) Watch(s *Session) (<-chan Change, func()) {
	l := &listener{tokenVersion: s.TokenVersion, ch: make(chan Change, 1)}

	b.mu.Lock()
	set, ok := b.listeners[s.UserID]
	if !ok {
		set = make(map[*listener]struct{})
		b.listeners[s.UserID] = set
	}
	set[l] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			b.remove(s.UserID, l)
			b.mu.Unlock()
		})
	}
	return l.ch, cancel
}

// Revoke signs out every session of userID whose token version differs
// from keepVersion. An empty keepVersion revokes all of them.
func (b *Broker) Revoke(userID uuid.UUID, keepVersion, reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for l := range b.listeners[userID] {
		if keepVersion != "" && l.tokenVersion == keepVersion {
			continue
		}
		select {
		case l.ch <- Change{Reason: reason}:
		default:
		}
		b.remove(userID, l)
	}
}

func (b *Broker) remove(userID uuid.UUID, l *listener) {
	set := b.listeners[userID]
	delete(set, l)
	if len(set) == 0 {
		delete(b.listeners, userID)
	}
}
