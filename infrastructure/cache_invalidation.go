package infrastructure

import (
	"context"

	"peerbets/domain/events"
	"peerbets/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RegisterOddsInvalidation drops cached odds whenever a committed change moves
// an event's pools or resolution
func RegisterOddsInvalidation(registrar LocalHandlerRegistrar, cache interfaces.OddsCache) {
	invalidate := func(ctx context.Context, eventID int64) error {
		if err := cache.Invalidate(ctx, eventID); err != nil {
			return err
		}
		log.WithField("eventID", eventID).Debug("Invalidated cached odds")
		return nil
	}

	registrar.RegisterLocalHandler(events.EventTypePlacementAccepted, func(ctx context.Context, event events.Event) error {
		if e, ok := event.(events.PlacementAcceptedEvent); ok {
			return invalidate(ctx, e.EventID)
		}
		return nil
	})

	registrar.RegisterLocalHandler(events.EventTypeBettingEventResolved, func(ctx context.Context, event events.Event) error {
		if e, ok := event.(events.BettingEventResolvedEvent); ok {
			return invalidate(ctx, e.EventID)
		}
		return nil
	})
}
