package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"peerbets/domain/events"
	"peerbets/infrastructure/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const sourceService = "peerbets"

// SubjectPublisher delivers encoded envelopes to a bus subject. msgID lets the
// bus drop redeliveries of the same envelope. NATSClient is the production implementation.
type SubjectPublisher interface {
	Publish(ctx context.Context, subject, msgID string, data []byte) error
}

// EventEnvelope wraps every domain event published on the bus
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSEventPublisher publishes domain events to NATS after running local handlers
type NATSEventPublisher struct {
	*localHandlers
	client        SubjectPublisher
	subjectMapper *EventSubjectMapper
	metrics       *observability.MetricsProvider
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(client SubjectPublisher, subjectMapper *EventSubjectMapper, metrics *observability.MetricsProvider) *NATSEventPublisher {
	return &NATSEventPublisher{
		localHandlers: newLocalHandlers(),
		client:        client,
		subjectMapper: subjectMapper,
		metrics:       metrics,
	}
}

// Publish runs local handlers for the event and publishes it to its subject
func (p *NATSEventPublisher) Publish(event events.Event) error {
	ctx := context.Background()

	p.dispatch(ctx, event)

	subject := p.subjectMapper.MapEventToSubject(event)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if err := p.client.Publish(ctx, subject, envelope.EventID, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	p.metrics.RecordEventPublished(string(event.Type()))

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Published event to NATS")

	return nil
}
