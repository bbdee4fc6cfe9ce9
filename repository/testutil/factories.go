package testutil

import (
	"time"

	"peerbets/domain/entities"

	"github.com/google/uuid"
)

// CreateTestWager creates an open wager closing in an hour
func CreateTestWager(creator uuid.UUID) *entities.Event {
	return &entities.Event{
		Kind:      entities.EventKindWager,
		Name:      "Will the build pass on the first try?",
		SideA:     "Yes",
		SideB:     "No",
		Currency:  entities.DefaultCurrency,
		ClosesAt:  time.Now().UTC().Add(time.Hour),
		CreatedBy: creator,
	}
}

// CreateTestWagerWithMaxStake creates an open wager with a per-placement limit in cents
func CreateTestWagerWithMaxStake(creator uuid.UUID, limit int64) *entities.Event {
	event := CreateTestWager(creator)
	event.MaxStake = &limit
	return event
}

// CreateTestDare creates an open dare with the given stake text
func CreateTestDare(creator uuid.UUID, stake string) *entities.Event {
	event := CreateTestWager(creator)
	event.Kind = entities.EventKindDare
	event.Name = "Who blinks first?"
	event.Currency = ""
	event.Stake = stake
	return event
}

// CreateTestPlacement creates a placement placed now
func CreateTestPlacement(eventID int64, userID uuid.UUID, side entities.Side, amount int64) *entities.Placement {
	return &entities.Placement{
		EventID:  eventID,
		UserID:   userID,
		Side:     side,
		Amount:   amount,
		PlacedAt: time.Now().UTC(),
	}
}
