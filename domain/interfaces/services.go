package interfaces

import (
	"context"
	"time"

	"peerbets/domain/entities"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventCreationParams contains parameters for creating a wager or dare
type EventCreationParams struct {
	Kind     entities.EventKind
	Name     string
	SideA    string
	SideB    string
	ClosesAt time.Time
	Currency string
	Stake    string
	MaxStake *decimal.Decimal
}

// EventCreationResult is the outcome of opening an event
type EventCreationResult struct {
	Event     *entities.Event
	Rejection *entities.Rejection
}

// PlacementResult is the outcome of a placement request
type PlacementResult struct {
	Placement *entities.Placement
	Event     *entities.Event
	Rejection *entities.Rejection
}

// ResolutionResult is the outcome of resolving an event
type ResolutionResult struct {
	Event      *entities.Event
	Settlement *entities.SettlementOutcome
	Rejection  *entities.Rejection
}

// BettingService defines the interface for wager and dare operations
type BettingService interface {
	// CreateEvent validates and opens a new wager or dare
	CreateEvent(ctx context.Context, creator uuid.UUID, params EventCreationParams) (*EventCreationResult, error)

	// GetEvent retrieves an event, returning entities.ErrEventNotFound if it does not exist
	GetEvent(ctx context.Context, eventID int64) (*entities.Event, error)

	// ListEvents returns visible events, newest first
	ListEvents(ctx context.Context, limit int) ([]*entities.Event, error)

	// GetOdds returns the current odds of an event
	GetOdds(ctx context.Context, eventID int64) (*entities.OddsSnapshot, error)

	// PlaceBet validates a placement and applies it together with the pool increment
	PlaceBet(ctx context.Context, eventID int64, userID uuid.UUID, side entities.Side, amount decimal.Decimal) (*PlacementResult, error)

	// ResolveEvent records the winning side once and settles the event
	ResolveEvent(ctx context.Context, eventID int64, resolverID uuid.UUID, side entities.Side) (*ResolutionResult, error)

	// GetSettlement recomputes the debts of a resolved event
	GetSettlement(ctx context.Context, eventID int64) (*entities.SettlementOutcome, error)

	// HideEvent archives an event
	HideEvent(ctx context.Context, eventID int64, userID uuid.UUID) (*entities.Rejection, error)

	// MarkPaid marks a losing placement as settled
	MarkPaid(ctx context.Context, eventID int64, debtorID uuid.UUID, markedBy uuid.UUID) (*entities.Rejection, error)

	// GetUserBets lists a user's placements with their status
	GetUserBets(ctx context.Context, userID uuid.UUID) ([]*entities.UserPlacement, error)

	// GetMoneyOwed aggregates what a user owes and is owed across resolved events
	GetMoneyOwed(ctx context.Context, userID uuid.UUID) (*entities.MoneyOwedSummary, error)

	// UpsertProfile sets a user's display name
	UpsertProfile(ctx context.Context, userID uuid.UUID, username string) (*entities.Profile, *entities.Rejection, error)

	// IsResolver checks if a user may resolve events
	IsResolver(userID uuid.UUID) bool
}
