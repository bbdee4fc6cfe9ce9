package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"peerbets/domain/events"
	"peerbets/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// NATSTransactionalPublisher buffers the domain events of one unit of work.
// Placements and resolutions only become visible on the bus once their rows are durable.
type NATSTransactionalPublisher struct {
	bus     interfaces.EventPublisher
	pending []events.Event
}

// NewNATSTransactionalPublisher wraps bus with a commit buffer
func NewNATSTransactionalPublisher(bus interfaces.EventPublisher) *NATSTransactionalPublisher {
	return &NATSTransactionalPublisher{bus: bus}
}

// Publish queues an event until Flush
func (p *NATSTransactionalPublisher) Publish(event events.Event) error {
	if event == nil {
		return errors.New("cannot buffer a nil event")
	}
	p.pending = append(p.pending, event)
	return nil
}

// Flush hands the buffered events to the bus in the order they were raised.
// A failed event does not stop the rest; all failures are returned joined.
// Events still queued when ctx is cancelled are dropped.
func (p *NATSTransactionalPublisher) Flush(ctx context.Context) error {
	batch := p.pending
	p.pending = nil

	var errs []error
	for i, event := range batch {
		if err := ctx.Err(); err != nil {
			log.WithFields(log.Fields{
				"droppedEventCount": len(batch) - i,
				"error":             err,
			}).Warn("Context cancelled while flushing committed events")
			errs = append(errs, err)
			break
		}
		if err := p.bus.Publish(event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to publish committed event")
			errs = append(errs, fmt.Errorf("%s: %w", event.Type(), err))
		}
	}
	return errors.Join(errs...)
}

// Discard drops the buffered events after a rollback
func (p *NATSTransactionalPublisher) Discard() {
	if len(p.pending) > 0 {
		log.WithField("discardedEventCount", len(p.pending)).Debug("Discarding events of rolled back transaction")
	}
	p.pending = nil
}

// PendingCount returns the number of buffered events
func (p *NATSTransactionalPublisher) PendingCount() int {
	return len(p.pending)
}
