package services

import (
	"strings"
	"time"

	"peerbets/domain/entities"
	"peerbets/domain/interfaces"

	"github.com/google/uuid"
)

const (
	maxEventNameLength = 200
	maxSideLabelLength = 100
	maxStakeTextLength = 200
)

// EventDomainService contains pure business logic for opening events
type EventDomainService struct{}

// NewEventDomainService creates a new EventDomainService
func NewEventDomainService() *EventDomainService {
	return &EventDomainService{}
}

// BuildEvent validates creation parameters and returns the event to insert
func (s *EventDomainService) BuildEvent(params interfaces.EventCreationParams, creator uuid.UUID, defaultCurrency string, now time.Time) (*entities.Event, *entities.Rejection) {
	name := strings.TrimSpace(params.Name)
	sideA := strings.TrimSpace(params.SideA)
	sideB := strings.TrimSpace(params.SideB)
	currency := strings.TrimSpace(params.Currency)
	stake := strings.TrimSpace(params.Stake)

	if params.Kind != entities.EventKindWager && params.Kind != entities.EventKindDare {
		return nil, entities.RejectInvalidEvent("type must be wager or dare")
	}
	if name == "" {
		return nil, entities.RejectInvalidEvent("event name cannot be empty")
	}
	if len(name) > maxEventNameLength {
		return nil, entities.RejectInvalidEvent("event name too long")
	}
	if sideA == "" || sideB == "" {
		return nil, entities.RejectInvalidEvent("both options are required")
	}
	if len(sideA) > maxSideLabelLength || len(sideB) > maxSideLabelLength {
		return nil, entities.RejectInvalidEvent("option text too long")
	}
	if strings.EqualFold(sideA, sideB) {
		return nil, entities.RejectInvalidEvent("options must be different")
	}
	if !params.ClosesAt.After(now) {
		return nil, entities.RejectInvalidEvent("end time must be in the future")
	}

	event := &entities.Event{
		Kind:      params.Kind,
		Name:      name,
		SideA:     sideA,
		SideB:     sideB,
		ClosesAt:  params.ClosesAt.UTC(),
		CreatedBy: creator,
	}

	switch params.Kind {
	case entities.EventKindWager:
		if stake != "" {
			return nil, entities.RejectInvalidEvent("wagers cannot have a stake description")
		}
		if currency == "" {
			currency = defaultCurrency
		}
		if currency == "" {
			return nil, entities.RejectInvalidEvent("currency is required for wagers")
		}
		event.Currency = currency

		if params.MaxStake != nil {
			limit, ok := AmountToCents(*params.MaxStake)
			if !ok {
				return nil, entities.RejectInvalidEvent("max bet size must be a positive amount")
			}
			event.MaxStake = &limit
		}

	case entities.EventKindDare:
		if stake == "" {
			return nil, entities.RejectInvalidEvent("stake is required for dares")
		}
		if len(stake) > maxStakeTextLength {
			return nil, entities.RejectInvalidEvent("stake description too long")
		}
		if params.MaxStake != nil {
			return nil, entities.RejectInvalidEvent("dares cannot have a max bet size")
		}
		event.Stake = stake
	}

	return event, nil
}

// CanHide checks whether a user may archive an event
func (s *EventDomainService) CanHide(event *entities.Event, userID uuid.UUID, isResolver bool) bool {
	return isResolver || event.CreatedBy == userID
}
