package infrastructure

import (
	"context"
	"sync"

	"peerbets/domain/events"

	log "github.com/sirupsen/logrus"
)

// LocalEventHandler reacts to a domain event inside the publishing process
type LocalEventHandler func(context.Context, events.Event) error

// LocalHandlerRegistrar is implemented by publishers that dispatch events to in-process handlers
type LocalHandlerRegistrar interface {
	RegisterLocalHandler(eventType events.EventType, handler LocalEventHandler)
}

// localHandlers dispatches events to in-process handlers. Handler errors are logged
// and never stop the remaining handlers.
type localHandlers struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]LocalEventHandler
}

func newLocalHandlers() *localHandlers {
	return &localHandlers{handlers: make(map[events.EventType][]LocalEventHandler)}
}

// RegisterLocalHandler registers a handler invoked whenever an event of the given type is published
func (l *localHandlers) RegisterLocalHandler(eventType events.EventType, handler LocalEventHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.handlers[eventType] = append(l.handlers[eventType], handler)
	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(l.handlers[eventType]),
	}).Info("Registered local event handler")
}

func (l *localHandlers) dispatch(ctx context.Context, event events.Event) {
	l.mu.RLock()
	handlers := l.handlers[event.Type()]
	l.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Local event handler failed")
		}
	}
}
