package infrastructure

import (
	"testing"

	"peerbets/domain/events"

	"github.com/stretchr/testify/assert"
)

func TestEventSubjectMapper_RoundTrip(t *testing.T) {
	mapper := NewEventSubjectMapper()

	tests := []struct {
		event   events.Event
		subject string
	}{
		{events.BettingEventCreatedEvent{}, "betting.event.created"},
		{events.PlacementAcceptedEvent{}, "betting.placement.accepted"},
		{events.BettingEventResolvedEvent{}, "betting.event.resolved"},
		{events.BettingEventClosedEvent{}, "betting.event.closed"},
		{events.PlacementPaidEvent{}, "betting.placement.paid"},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.subject, mapper.MapEventToSubject(tt.event))
			assert.Equal(t, tt.event.Type(), mapper.MapSubjectToEventType(tt.subject))
		})
	}

	assert.Len(t, mapper.GetAllSubjects(), len(tests))
}

func TestEventSubjectMapper_UnknownSubject(t *testing.T) {
	mapper := NewEventSubjectMapper()
	assert.Equal(t, events.EventType("other.subject"), mapper.MapSubjectToEventType("other.subject"))
}
