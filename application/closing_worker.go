package application

import (
	"context"
	"fmt"
	"time"

	"peerbets/domain/entities"
	"peerbets/domain/events"
	"peerbets/domain/utils"

	log "github.com/sirupsen/logrus"
)

const (
	defaultMaxClosingWait = time.Minute
	minClosingWait        = time.Second
)

// EventClosingWorker announces events whose closing time has passed so
// subscribers learn that betting is over before a resolver acts
type EventClosingWorker struct {
	uowFactory UnitOfWorkFactory
	maxWait    time.Duration
	now        func() time.Time
}

// NewEventClosingWorker creates a new closing worker
func NewEventClosingWorker(uowFactory UnitOfWorkFactory) *EventClosingWorker {
	return &EventClosingWorker{
		uowFactory: uowFactory,
		maxWait:    defaultMaxClosingWait,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start runs the worker until ctx is cancelled or the returned stop function is called
func (w *EventClosingWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Info("Event closing worker started")

		for {
			if _, err := w.ProcessDueEvents(ctx); err != nil {
				log.WithError(err).Error("Error announcing closed events")
			}

			wait := w.maxWait
			if next := w.nextCloseTime(ctx); next != nil {
				if until := next.Sub(w.now()); until < wait {
					wait = until
				}
			}
			if wait < minClosingWait {
				wait = minClosingWait
			}

			select {
			case <-ctx.Done():
				log.Info("Event closing worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Event closing worker shutting down (stop requested)...")
				return
			case <-time.After(wait):
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// ProcessDueEvents announces every event that closed without being announced.
// Returns the number of events announced.
func (w *EventClosingWorker) ProcessDueEvents(ctx context.Context) (int, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	due, err := uow.EventRepository().ListDueForCloseAnnouncement(ctx, w.now())
	uow.Rollback()
	if err != nil {
		return 0, fmt.Errorf("failed to list closing events: %w", err)
	}

	announced := 0
	for _, event := range due {
		ok, err := w.announce(ctx, event)
		if err != nil {
			log.WithError(err).WithField("eventID", event.ID).Error("Failed to announce closed event")
			continue
		}
		if ok {
			announced++
		}
	}

	if announced > 0 {
		log.WithField("count", announced).Info("Announced closed events")
	}
	return announced, nil
}

func (w *EventClosingWorker) announce(ctx context.Context, event *entities.Event) (bool, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	marked, err := uow.EventRepository().MarkCloseAnnounced(ctx, event.ID)
	if err != nil {
		return false, err
	}
	if !marked {
		// another instance got there first
		return false, nil
	}

	if err := uow.EventBus().Publish(events.BettingEventClosedEvent{
		EventID:  event.ID,
		Name:     event.Name,
		ClosesAt: event.ClosesAt,
	}); err != nil {
		return false, fmt.Errorf("failed to queue closed event: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"eventID":   event.ID,
		"kind":      event.Kind,
		"totalPool": utils.FormatShortNotation(event.TotalPool()),
	}).Info("Event closed for placements")
	return true, nil
}

func (w *EventClosingWorker) nextCloseTime(ctx context.Context) *time.Time {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Error("Failed to begin transaction for next close time")
		return nil
	}
	defer uow.Rollback()

	next, err := uow.EventRepository().GetNextCloseTime(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to get next close time")
		return nil
	}
	return next
}
