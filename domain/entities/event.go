package entities

import (
	"time"

	"github.com/google/uuid"
)

// EventKind represents the type of a betting event
type EventKind string

const (
	EventKindWager EventKind = "wager"
	EventKindDare  EventKind = "dare"
)

// Side identifies one of the two mutually exclusive outcomes of an event
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// IsValid reports whether the side is A or B
func (s Side) IsValid() bool {
	return s == SideA || s == SideB
}

// Opposite returns the other side
func (s Side) Opposite() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// DefaultCurrency is used for wagers created without an explicit currency
const DefaultCurrency = "€"

// Resolution records the winning side of a resolved event
type Resolution struct {
	WinningSide Side      `db:"winning_side"`
	ResolvedAt  time.Time `db:"resolved_at"`
}

// Event represents a binary-outcome wager or dare
type Event struct {
	ID             int64       `db:"id"`
	Kind           EventKind   `db:"kind"`
	Name           string      `db:"name"`
	SideA          string      `db:"side_a"`
	SideB          string      `db:"side_b"`
	PoolA          int64       `db:"pool_a"`
	PoolB          int64       `db:"pool_b"`
	MaxStake       *int64      `db:"max_stake"`
	Currency       string      `db:"currency"`
	Stake          string      `db:"stake"`
	ClosesAt       time.Time   `db:"closes_at"`
	Resolution     *Resolution `db:"-"`
	CreatedBy      uuid.UUID   `db:"created_by"`
	Hidden         bool        `db:"hidden"`
	CloseAnnounced bool        `db:"close_announced"`
	CreatedAt      time.Time   `db:"created_at"`
}

// IsWager checks if the event is a monetary pool wager
func (e *Event) IsWager() bool {
	return e.Kind == EventKindWager
}

// IsDare checks if the event is a dare
func (e *Event) IsDare() bool {
	return e.Kind == EventKindDare
}

// IsResolved checks if a winning side has been recorded
func (e *Event) IsResolved() bool {
	return e.Resolution != nil
}

// IsClosedAt checks if the event stopped accepting placements at the given instant
func (e *Event) IsClosedAt(now time.Time) bool {
	return !now.Before(e.ClosesAt)
}

// Pool returns the accumulated stake on a side
func (e *Event) Pool(side Side) int64 {
	if side == SideA {
		return e.PoolA
	}
	return e.PoolB
}

// TotalPool returns the combined stake on both sides
func (e *Event) TotalPool() int64 {
	return e.PoolA + e.PoolB
}

// SideLabel returns the free-text label of a side
func (e *Event) SideLabel(side Side) string {
	if side == SideA {
		return e.SideA
	}
	return e.SideB
}

// WinningSide returns the winning side, or an empty side while unresolved
func (e *Event) WinningSide() Side {
	if e.Resolution == nil {
		return ""
	}
	return e.Resolution.WinningSide
}

// Resolve records the winning side. It is a no-op once a resolution exists.
func (e *Event) Resolve(side Side, at time.Time) {
	if e.Resolution != nil {
		return
	}
	e.Resolution = &Resolution{WinningSide: side, ResolvedAt: at}
}
