package ws

import (
	"context"
	"sync"

	"same-inventory/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Collections a subscriber can follow.
const (
	Products = "products"
	Sales    = "sales"
	CashFlow = "cashflow"
	Settings = "settings"
)

var allCollections = []string{Products, Sales, CashFlow, Settings}

// Event tells a subscriber that a collection of its tenant changed. It
// carries no data: the receiver re-reads the collection.
type Event struct {
	Collection string
}

// Subscription receives events until Cancel is called or the hub stops.
type Subscription struct {
	C <-chan Event

	ch          chan Event
	tenant      uuid.UUID
	collections map[string]bool
	hub         *Hub
	once        sync.Once
}

// Cancel unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
	})
}

// deliver never blocks. When the buffer is full the queued events are
// folded into one per collection, which still fits.
func (s *Subscription) deliver(ev Event) {
	select {
	case s.ch <- ev:
		return
	default:
	}

	seen := make(map[string]bool, len(s.collections))
	var queued []Event
	for drained := false; !drained; {
		select {
		case old := <-s.ch:
			if !seen[old.Collection] {
				seen[old.Collection] = true
				queued = append(queued, old)
			}
		default:
			drained = true
		}
	}
	if !seen[ev.Collection] {
		queued = append(queued, ev)
	}
	for _, e := range queued {
		select {
		case s.ch <- e:
		default:
		}
	}
}

type publication struct {
	tenant uuid.UUID
	event  Event
}

// Hub owns the subscriber set in a single goroutine (Run).
type Hub struct {
	subscribers map[uuid.UUID]map[*Subscription]struct{}
	register    chan *Subscription
	unregister  chan *Subscription
	publish     chan publication
	done        chan struct{}
	stopOnce    sync.Once
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[*Subscription]struct{}),
		register:    make(chan *Subscription),
		unregister:  make(chan *Subscription),
		publish:     make(chan publication, 256),
		done:        make(chan struct{}),
	}
}

// Subscribe follows the given collections of the scope's tenant, or all of
// them when none are named. Run must be running.
func (h *Hub) Subscribe(scope session.Scope, collections ...string) *Subscription {
	if len(collections) == 0 {
		collections = allCollections
	}
	set := make(map[string]bool, len(collections))
	for _, c := range collections {
		set[c] = true
	}
	ch := make(chan Event, len(set))
	sub := &Subscription{C: ch, ch: ch, tenant: scope.TenantID(), collections: set, hub: h}

	select {
	case h.register <- sub:
	case <-h.done:
		close(ch)
	}
	return sub
}

// Publish notifies the tenant's subscribers of collection.
func (h *Hub) Publish(scope session.Scope, collection string) {
	if !scope.Valid() {
		return
	}
	select {
	case h.publish <- publication{tenant: scope.TenantID(), event: Event{Collection: collection}}:
	case <-h.done:
	}
}

// Run processes registrations and publications until ctx is done, then
// closes every remaining subscription.
func (h *Hub) Run(ctx context.Context) {
	defer h.stop()
	for {
		select {
		case <-ctx.Done():
			return

		case sub := <-h.register:
			set, ok := h.subscribers[sub.tenant]
			if !ok {
				set = make(map[*Subscription]struct{})
				h.subscribers[sub.tenant] = set
			}
			set[sub] = struct{}{}
			log.Debug().Str("tenant", sub.tenant.String()).Int("subscribers", len(set)).Msg("realtime subscriber registered")

		case sub := <-h.unregister:
			set := h.subscribers[sub.tenant]
			if _, ok := set[sub]; ok {
				delete(set, sub)
				close(sub.ch)
				if len(set) == 0 {
					delete(h.subscribers, sub.tenant)
				}
			}

		case p := <-h.publish:
			for sub := range h.subscribers[p.tenant] {
				if sub.collections[p.event.Collection] {
					sub.deliver(p.event)
				}
			}
		}
	}
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		for tenant, set := range h.subscribers {
			for sub := range set {
				close(sub.ch)
			}
			delete(h.subscribers, tenant)
		}
	})
}
