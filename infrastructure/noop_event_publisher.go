package infrastructure

import (
	"context"

	"peerbets/domain/events"
)

// NoopEventPublisher runs local handlers but sends nothing over the network.
// Used when no NATS server is configured.
type NoopEventPublisher struct {
	*localHandlers
}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{localHandlers: newLocalHandlers()}
}

// Publish invokes local handlers only
func (n *NoopEventPublisher) Publish(event events.Event) error {
	n.dispatch(context.Background(), event)
	return nil
}
