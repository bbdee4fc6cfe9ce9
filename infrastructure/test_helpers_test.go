package infrastructure

import (
	"context"
	"sync"

	"peerbets/domain/entities"
	"peerbets/domain/events"
)

// recordingEventPublisher captures published events
type recordingEventPublisher struct {
	published  []events.Event
	publishErr error
	attempts   int
}

func (r *recordingEventPublisher) Publish(event events.Event) error {
	r.attempts++
	if r.publishErr != nil {
		return r.publishErr
	}
	r.published = append(r.published, event)
	return nil
}

type publishedMessage struct {
	subject string
	msgID   string
	data    []byte
}

// recordingMessagePublisher captures raw bus messages
type recordingMessagePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (r *recordingMessagePublisher) Publish(ctx context.Context, subject, msgID string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, publishedMessage{subject: subject, msgID: msgID, data: data})
	return nil
}

// invalidationRecorder is an in-memory odds cache that remembers invalidations
type invalidationRecorder struct {
	invalidated []int64
}

func (c *invalidationRecorder) GetOdds(context.Context, int64) (*entities.OddsSnapshot, bool, error) {
	return nil, false, nil
}

func (c *invalidationRecorder) SetOdds(context.Context, *entities.OddsSnapshot) error {
	return nil
}

func (c *invalidationRecorder) Invalidate(_ context.Context, eventID int64) error {
	c.invalidated = append(c.invalidated, eventID)
	return nil
}
