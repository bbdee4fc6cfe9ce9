package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"peerbets/config"
	"peerbets/domain/entities"
	"peerbets/domain/events"
	"peerbets/domain/interfaces"
	"peerbets/domain/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const maxUsernameLength = 50

type bettingService struct {
	config         *config.Config
	eventRepo      interfaces.EventRepository
	placementRepo  interfaces.PlacementRepository
	profileRepo    interfaces.ProfileRepository
	eventPublisher interfaces.EventPublisher
	oddsCache      interfaces.OddsCache

	eventRules *EventDomainService
	odds       *OddsCalculator
	validator  *PlacementValidator
	engine     *SettlementEngine
	aggregator *DebtAggregator
	now        func() time.Time
}

// NewBettingService creates a new betting service. A nil odds cache disables caching.
func NewBettingService(
	eventRepo interfaces.EventRepository,
	placementRepo interfaces.PlacementRepository,
	profileRepo interfaces.ProfileRepository,
	eventPublisher interfaces.EventPublisher,
	oddsCache interfaces.OddsCache,
) interfaces.BettingService {
	if oddsCache == nil {
		oddsCache = noOddsCache{}
	}
	return &bettingService{
		config:         config.Get(),
		eventRepo:      eventRepo,
		placementRepo:  placementRepo,
		profileRepo:    profileRepo,
		eventPublisher: eventPublisher,
		oddsCache:      oddsCache,
		eventRules:     NewEventDomainService(),
		odds:           NewOddsCalculator(),
		validator:      NewPlacementValidator(),
		engine:         NewSettlementEngine(),
		aggregator:     NewDebtAggregator(),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// CreateEvent validates and opens a new wager or dare
func (s *bettingService) CreateEvent(ctx context.Context, creator uuid.UUID, params interfaces.EventCreationParams) (*interfaces.EventCreationResult, error) {
	event, rejection := s.eventRules.BuildEvent(params, creator, s.config.DefaultCurrency, s.now())
	if rejection != nil {
		return &interfaces.EventCreationResult{Rejection: rejection}, nil
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.publish(events.BettingEventCreatedEvent{
		EventID:   event.ID,
		Kind:      string(event.Kind),
		Name:      event.Name,
		CreatedBy: creator,
		ClosesAt:  event.ClosesAt,
	})

	log.WithFields(log.Fields{
		"eventID": event.ID,
		"kind":    event.Kind,
		"creator": creator,
	}).Info("Betting event created")

	return &interfaces.EventCreationResult{Event: event}, nil
}

// GetEvent retrieves an event by ID
func (s *bettingService) GetEvent(ctx context.Context, eventID int64) (*entities.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", eventID, entities.ErrEventNotFound)
	}
	return event, nil
}

// ListEvents returns visible events, newest first
func (s *bettingService) ListEvents(ctx context.Context, limit int) ([]*entities.Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	list, err := s.eventRepo.ListVisible(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return list, nil
}

// GetOdds returns the current odds of an event, served from the cache when possible
func (s *bettingService) GetOdds(ctx context.Context, eventID int64) (*entities.OddsSnapshot, error) {
	cached, found, err := s.oddsCache.GetOdds(ctx, eventID)
	if err != nil {
		log.WithError(err).WithField("eventID", eventID).Warn("Failed to read odds cache")
	} else if found {
		return cached, nil
	}

	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	oddsA, oddsB := s.odds.EventOdds(event)
	snapshot := &entities.OddsSnapshot{
		EventID:    event.ID,
		PoolA:      event.PoolA,
		PoolB:      event.PoolB,
		OddsA:      oddsA,
		OddsB:      oddsB,
		Resolved:   event.IsResolved(),
		ComputedAt: s.now(),
	}

	if err := s.oddsCache.SetOdds(ctx, snapshot); err != nil {
		log.WithError(err).WithField("eventID", eventID).Warn("Failed to write odds cache")
	}

	return snapshot, nil
}

// PlaceBet validates a placement and applies the insert and pool increment
func (s *bettingService) PlaceBet(ctx context.Context, eventID int64, userID uuid.UUID, side entities.Side, amount decimal.Decimal) (*interfaces.PlacementResult, error) {
	now := s.now()

	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	existing, err := s.placementRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing placements: %w", err)
	}

	outcome := s.validator.Validate(event, existing, userID, side, amount, now)
	if !outcome.Accepted() {
		log.WithFields(log.Fields{
			"eventID": eventID,
			"userID":  userID,
			"reason":  outcome.Rejection.Reason,
		}).Debug("Placement rejected")
		return &interfaces.PlacementResult{Event: event, Rejection: outcome.Rejection}, nil
	}

	placement := outcome.Directive.Placement(now)
	if err := s.placementRepo.Create(ctx, placement); err != nil {
		if errors.Is(err, entities.ErrDuplicatePlacement) {
			return &interfaces.PlacementResult{
				Event:     event,
				Rejection: entities.Reject(entities.RejectionDuplicatePlacement),
			}, nil
		}
		return nil, fmt.Errorf("failed to create placement: %w", err)
	}

	updated, err := s.eventRepo.IncrementPool(ctx, eventID, placement.Side, placement.Amount, now)
	if err != nil {
		return nil, fmt.Errorf("failed to increment pool: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("event %d stopped accepting placements: %w", eventID, entities.ErrConflict)
	}

	s.publish(events.PlacementAcceptedEvent{
		EventID:     eventID,
		PlacementID: placement.ID,
		UserID:      userID,
		Side:        string(placement.Side),
		Amount:      placement.Amount,
		PoolA:       updated.PoolA,
		PoolB:       updated.PoolB,
	})

	log.WithFields(log.Fields{
		"eventID":     eventID,
		"placementID": placement.ID,
		"userID":      userID,
		"side":        placement.Side,
		"amount":      utils.FormatMoney(placement.Amount, updated.Currency),
	}).Info("Placement accepted")

	return &interfaces.PlacementResult{Placement: placement, Event: updated}, nil
}

// ResolveEvent records the winning side once and settles the event against its frozen pools
func (s *bettingService) ResolveEvent(ctx context.Context, eventID int64, resolverID uuid.UUID, side entities.Side) (*interfaces.ResolutionResult, error) {
	if !s.IsResolver(resolverID) {
		return &interfaces.ResolutionResult{Rejection: entities.Reject(entities.RejectionNotAuthorized)}, nil
	}

	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if rejection := s.engine.CheckResolvable(event, side); rejection != nil {
		return &interfaces.ResolutionResult{Event: event, Rejection: rejection}, nil
	}

	frozen, err := s.eventRepo.Resolve(ctx, eventID, side, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve event: %w", err)
	}
	if frozen == nil {
		return &interfaces.ResolutionResult{
			Event:     event,
			Rejection: entities.Reject(entities.RejectionEventAlreadyResolved),
		}, nil
	}

	placements, err := s.placementRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get placements: %w", err)
	}

	// Settle sees the pools as they stood when the resolution row lock was taken
	event.PoolA = frozen.PoolA
	event.PoolB = frozen.PoolB
	settlement, err := s.engine.Settle(event, placements, side)
	if err != nil {
		return nil, fmt.Errorf("failed to settle event %d: %w", eventID, err)
	}
	if settlement.Rejection != nil {
		return &interfaces.ResolutionResult{Event: event, Rejection: settlement.Rejection}, nil
	}

	s.publish(events.BettingEventResolvedEvent{
		EventID:     eventID,
		WinningSide: string(side),
		Odds:        settlement.Odds,
		PoolA:       frozen.PoolA,
		PoolB:       frozen.PoolB,
		DebtRecords: len(settlement.Records),
	})

	log.WithFields(log.Fields{
		"eventID":     eventID,
		"resolverID":  resolverID,
		"winningSide": side,
		"odds":        utils.FormatOdds(settlement.Odds),
		"records":     len(settlement.Records),
	}).Info("Event resolved")

	return &interfaces.ResolutionResult{Event: frozen, Settlement: settlement}, nil
}

// GetSettlement recomputes the debts of an event from its current placements
func (s *bettingService) GetSettlement(ctx context.Context, eventID int64) (*entities.SettlementOutcome, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	placements, err := s.placementRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get placements: %w", err)
	}

	settlement, err := s.engine.Ledger(event, placements)
	if err != nil {
		return nil, fmt.Errorf("failed to compute ledger for event %d: %w", eventID, err)
	}
	return settlement, nil
}

// HideEvent archives an event
func (s *bettingService) HideEvent(ctx context.Context, eventID int64, userID uuid.UUID) (*entities.Rejection, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if !s.eventRules.CanHide(event, userID, s.IsResolver(userID)) {
		return entities.Reject(entities.RejectionNotAuthorized), nil
	}

	if err := s.eventRepo.Hide(ctx, eventID); err != nil {
		return nil, fmt.Errorf("failed to hide event: %w", err)
	}
	return nil, nil
}

// MarkPaid marks a debtor's losing placement as settled. Resolvers and winners of the
// event may do this.
func (s *bettingService) MarkPaid(ctx context.Context, eventID int64, debtorID uuid.UUID, markedBy uuid.UUID) (*entities.Rejection, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsResolved() {
		return entities.RejectInvalidEvent("event is not resolved yet"), nil
	}

	debtorPlacements, err := s.placementRepo.GetByEventAndUser(ctx, eventID, debtorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get debtor placement: %w", err)
	}
	if len(debtorPlacements) == 0 || debtorPlacements[0].Side == event.WinningSide() {
		return entities.RejectInvalidEvent("user has no losing placement on this event"), nil
	}

	authorized := s.IsResolver(markedBy)
	if !authorized {
		own, err := s.placementRepo.GetByEventAndUser(ctx, eventID, markedBy)
		if err != nil {
			return nil, fmt.Errorf("failed to get placement of marking user: %w", err)
		}
		authorized = len(own) > 0 && own[0].Side == event.WinningSide()
	}
	if !authorized {
		return entities.Reject(entities.RejectionNotAuthorized), nil
	}

	changed, err := s.placementRepo.MarkPaid(ctx, eventID, debtorID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark placement paid: %w", err)
	}
	if changed {
		s.publish(events.PlacementPaidEvent{EventID: eventID, DebtorID: debtorID, MarkedBy: markedBy})
	}
	return nil, nil
}

// GetUserBets lists a user's placements with their status
func (s *bettingService) GetUserBets(ctx context.Context, userID uuid.UUID) ([]*entities.UserPlacement, error) {
	placements, err := s.placementRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user placements: %w", err)
	}
	if len(placements) == 0 {
		return []*entities.UserPlacement{}, nil
	}

	ids := make([]int64, 0, len(placements))
	for _, p := range placements {
		ids = append(ids, p.EventID)
	}
	eventsByID, err := s.eventRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	now := s.now()
	bets := make([]*entities.UserPlacement, 0, len(placements))
	for _, p := range placements {
		event, ok := eventsByID[p.EventID]
		if !ok {
			continue
		}
		bets = append(bets, &entities.UserPlacement{
			Placement: p,
			Event:     event,
			Status:    p.StatusFor(event, now),
		})
	}
	return bets, nil
}

// GetMoneyOwed aggregates what a user owes and is owed across all resolved events
func (s *bettingService) GetMoneyOwed(ctx context.Context, userID uuid.UUID) (*entities.MoneyOwedSummary, error) {
	resolved, err := s.eventRepo.ListResolvedForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get resolved events: %w", err)
	}

	ids := make([]int64, 0, len(resolved))
	for _, event := range resolved {
		ids = append(ids, event.ID)
	}
	placementsByEvent, err := s.placementRepo.ListByEvents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get placements: %w", err)
	}

	var records []*entities.DebtRecord
	for _, event := range resolved {
		ledger, err := s.engine.Ledger(event, placementsByEvent[event.ID])
		if err != nil {
			return nil, fmt.Errorf("failed to compute ledger for event %d: %w", event.ID, err)
		}
		records = append(records, ledger.Records...)
	}

	counterparties := make(map[uuid.UUID]struct{})
	for _, r := range records {
		counterparties[r.DebtorID] = struct{}{}
		if r.CreditorID != nil {
			counterparties[*r.CreditorID] = struct{}{}
		}
	}
	profileIDs := make([]uuid.UUID, 0, len(counterparties))
	for id := range counterparties {
		profileIDs = append(profileIDs, id)
	}

	names := make(map[uuid.UUID]string)
	if len(profileIDs) > 0 {
		profiles, err := s.profileRepo.GetByIDs(ctx, profileIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to get profiles: %w", err)
		}
		for id, profile := range profiles {
			names[id] = profile.Username
		}
	}

	return s.aggregator.Summarize(userID, records, names), nil
}

// UpsertProfile sets a user's display name
func (s *bettingService) UpsertProfile(ctx context.Context, userID uuid.UUID, username string) (*entities.Profile, *entities.Rejection, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, entities.RejectInvalidProfile("username cannot be empty"), nil
	}
	if len(username) > maxUsernameLength {
		return nil, entities.RejectInvalidProfile("username too long"), nil
	}

	profile := &entities.Profile{ID: userID, Username: username}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return profile, nil, nil
}

// IsResolver checks if a user may resolve events
func (s *bettingService) IsResolver(userID uuid.UUID) bool {
	return s.config.IsResolver(userID)
}

func (s *bettingService) publish(event events.Event) {
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to publish event")
	}
}

type noOddsCache struct{}

func (noOddsCache) GetOdds(context.Context, int64) (*entities.OddsSnapshot, bool, error) {
	return nil, false, nil
}

func (noOddsCache) SetOdds(context.Context, *entities.OddsSnapshot) error { return nil }

func (noOddsCache) Invalidate(context.Context, int64) error { return nil }
