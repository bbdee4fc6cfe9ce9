package entities

import (
	"time"

	"github.com/google/uuid"
)

// PlacementStatus is a participant's view of one of their placements
type PlacementStatus string

const (
	PlacementStatusOpen   PlacementStatus = "open"
	PlacementStatusClosed PlacementStatus = "closed"
	PlacementStatusWon    PlacementStatus = "won"
	PlacementStatusLost   PlacementStatus = "lost"
)

// Placement represents one user's single stake on one event
type Placement struct {
	ID       int64     `db:"id"`
	EventID  int64     `db:"event_id"`
	UserID   uuid.UUID `db:"user_id"`
	Side     Side      `db:"side"`
	Amount   int64     `db:"amount"`
	Paid     bool      `db:"paid"`
	PlacedAt time.Time `db:"placed_at"`
}

// StatusFor derives the placement status from the state of its event
func (p *Placement) StatusFor(event *Event, now time.Time) PlacementStatus {
	switch {
	case event.IsResolved() && event.WinningSide() == p.Side:
		return PlacementStatusWon
	case event.IsResolved():
		return PlacementStatusLost
	case event.IsClosedAt(now):
		return PlacementStatusClosed
	default:
		return PlacementStatusOpen
	}
}

// PlacedBefore orders placements by placement time, then by id
func (p *Placement) PlacedBefore(other *Placement) bool {
	if !p.PlacedAt.Equal(other.PlacedAt) {
		return p.PlacedAt.Before(other.PlacedAt)
	}
	return p.ID < other.ID
}

// UserPlacement pairs a placement with its event for per-user listings
type UserPlacement struct {
	Placement *Placement
	Event     *Event
	Status    PlacementStatus
}
