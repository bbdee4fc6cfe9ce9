package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of domain events in the system
type EventType string

const (
	EventTypeBettingEventCreated  EventType = "betting_event_created"
	EventTypePlacementAccepted    EventType = "placement_accepted"
	EventTypeBettingEventResolved EventType = "betting_event_resolved"
	EventTypeBettingEventClosed   EventType = "betting_event_closed"
	EventTypePlacementPaid        EventType = "placement_paid"
)

// Event is the base interface for all domain events
type Event interface {
	Type() EventType
}

// BettingEventCreatedEvent is published when a new wager or dare is opened
type BettingEventCreatedEvent struct {
	EventID   int64     `json:"event_id"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	CreatedBy uuid.UUID `json:"created_by"`
	ClosesAt  time.Time `json:"closes_at"`
}

func (e BettingEventCreatedEvent) Type() EventType {
	return EventTypeBettingEventCreated
}

// PlacementAcceptedEvent is published after a placement and its pool increment commit
type PlacementAcceptedEvent struct {
	EventID     int64     `json:"event_id"`
	PlacementID int64     `json:"placement_id"`
	UserID      uuid.UUID `json:"user_id"`
	Side        string    `json:"side"`
	Amount      int64     `json:"amount"`
	PoolA       int64     `json:"pool_a"`
	PoolB       int64     `json:"pool_b"`
}

func (e PlacementAcceptedEvent) Type() EventType {
	return EventTypePlacementAccepted
}

// BettingEventResolvedEvent is published once an event transitions to resolved
type BettingEventResolvedEvent struct {
	EventID     int64   `json:"event_id"`
	WinningSide string  `json:"winning_side"`
	Odds        float64 `json:"odds"`
	PoolA       int64   `json:"pool_a"`
	PoolB       int64   `json:"pool_b"`
	DebtRecords int     `json:"debt_records"`
}

func (e BettingEventResolvedEvent) Type() EventType {
	return EventTypeBettingEventResolved
}

// BettingEventClosedEvent is published when an event's closing time passes
type BettingEventClosedEvent struct {
	EventID  int64     `json:"event_id"`
	Name     string    `json:"name"`
	ClosesAt time.Time `json:"closes_at"`
}

func (e BettingEventClosedEvent) Type() EventType {
	return EventTypeBettingEventClosed
}

// PlacementPaidEvent is published when a losing placement is marked as settled
type PlacementPaidEvent struct {
	EventID  int64     `json:"event_id"`
	DebtorID uuid.UUID `json:"debtor_id"`
	MarkedBy uuid.UUID `json:"marked_by"`
}

func (e PlacementPaidEvent) Type() EventType {
	return EventTypePlacementPaid
}
