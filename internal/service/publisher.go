package service

import "same-inventory/internal/session"

// Publisher notifies realtime subscribers that a collection changed.
// ws.Hub implements it.
type Publisher interface {
	Publish(scope session.Scope, collection string)
}

type nopPublisher struct{}

func (nopPublisher) Publish(session.Scope, string) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
