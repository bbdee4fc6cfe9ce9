package infrastructure

import (
	"fmt"

	"peerbets/domain/events"
)

const (
	SubjectEventCreated      = "betting.event.created"
	SubjectPlacementAccepted = "betting.placement.accepted"
	SubjectEventResolved     = "betting.event.resolved"
	SubjectEventClosed       = "betting.event.closed"
	SubjectPlacementPaid     = "betting.placement.paid"

	// DomainEventStream is the JetStream stream holding all betting subjects
	DomainEventStream = "betting_events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeBettingEventCreated:
		return SubjectEventCreated
	case events.EventTypePlacementAccepted:
		return SubjectPlacementAccepted
	case events.EventTypeBettingEventResolved:
		return SubjectEventResolved
	case events.EventTypeBettingEventClosed:
		return SubjectEventClosed
	case events.EventTypePlacementPaid:
		return SubjectPlacementPaid
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case SubjectEventCreated:
		return events.EventTypeBettingEventCreated
	case SubjectPlacementAccepted:
		return events.EventTypePlacementAccepted
	case SubjectEventResolved:
		return events.EventTypeBettingEventResolved
	case SubjectEventClosed:
		return events.EventTypeBettingEventClosed
	case SubjectPlacementPaid:
		return events.EventTypePlacementPaid
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectEventCreated,
		SubjectPlacementAccepted,
		SubjectEventResolved,
		SubjectEventClosed,
		SubjectPlacementPaid,
	}
}
