package services

import (
	"time"

	"peerbets/domain/entities"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxAmountCents caps stakes well below the int64 range so pool sums cannot overflow
const maxAmountCents = int64(100_000_000_000_000)

// PlacementDirective is the write a validated placement requires: bump the side's pool
// by Amount and insert the placement, both in one transaction
type PlacementDirective struct {
	EventID int64
	UserID  uuid.UUID
	Side    entities.Side
	Amount  int64
}

// Placement builds the placement row to insert
func (d *PlacementDirective) Placement(placedAt time.Time) *entities.Placement {
	return &entities.Placement{
		EventID:  d.EventID,
		UserID:   d.UserID,
		Side:     d.Side,
		Amount:   d.Amount,
		PlacedAt: placedAt,
	}
}

// PlacementOutcome carries either a directive or the rejection that stopped it
type PlacementOutcome struct {
	Directive *PlacementDirective
	Rejection *entities.Rejection
}

// Accepted reports whether the placement may proceed
func (o PlacementOutcome) Accepted() bool {
	return o.Rejection == nil && o.Directive != nil
}

// PlacementValidator enforces the per-event rules a new stake must satisfy
type PlacementValidator struct{}

// NewPlacementValidator creates a new PlacementValidator
func NewPlacementValidator() *PlacementValidator {
	return &PlacementValidator{}
}

// Validate checks a placement request against the event and the user's existing
// placements on it. Checks run in a fixed order and the first failure is reported.
func (v *PlacementValidator) Validate(
	event *entities.Event,
	existingPlacementsForUser []*entities.Placement,
	userID uuid.UUID,
	side entities.Side,
	amount decimal.Decimal,
	now time.Time,
) PlacementOutcome {
	if event.IsResolved() {
		return rejected(entities.RejectionEventAlreadyResolved)
	}

	if event.IsClosedAt(now) {
		return rejected(entities.RejectionEventClosed)
	}

	if len(existingPlacementsForUser) > 0 {
		return rejected(entities.RejectionDuplicatePlacement)
	}

	var cents int64
	if event.IsWager() {
		var ok bool
		cents, ok = AmountToCents(amount)
		if !ok {
			return rejected(entities.RejectionInvalidAmount)
		}

		if event.MaxStake != nil && cents > *event.MaxStake {
			return PlacementOutcome{Rejection: entities.RejectMaxStake(*event.MaxStake)}
		}
	}

	if !side.IsValid() {
		return rejected(entities.RejectionInvalidSide)
	}

	return PlacementOutcome{
		Directive: &PlacementDirective{
			EventID: event.ID,
			UserID:  userID,
			Side:    side,
			Amount:  cents,
		},
	}
}

// AmountToCents converts a positive decimal amount with at most two fractional digits
// into minor units
func AmountToCents(amount decimal.Decimal) (int64, bool) {
	cents := amount.Shift(2)
	if !cents.IsInteger() || !cents.IsPositive() {
		return 0, false
	}
	if cents.GreaterThan(decimal.NewFromInt(maxAmountCents)) {
		return 0, false
	}
	return cents.IntPart(), true
}

func rejected(reason entities.RejectionReason) PlacementOutcome {
	return PlacementOutcome{Rejection: entities.Reject(reason)}
}
