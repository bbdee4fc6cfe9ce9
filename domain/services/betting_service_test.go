package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"peerbets/config"
	"peerbets/domain/entities"
	"peerbets/domain/events"
	"peerbets/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestBettingService(t *testing.T) (interfaces.BettingService, *TestMocks) {
	t.Helper()
	SetupTestConfig(t)
	mocks := NewTestMocks()
	svc := NewBettingService(mocks.EventRepo, mocks.PlacementRepo, mocks.ProfileRepo, mocks.EventPublisher, mocks.OddsCache)
	return svc, mocks
}

func TestBettingService_CreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("opens the event and announces it", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		mocks.EventRepo.On("Create", ctx, mock.AnythingOfType("*entities.Event")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*entities.Event).ID = 42
			}).Return(nil)
		mocks.ExpectEventPublish(events.EventTypeBettingEventCreated)

		result, err := svc.CreateEvent(ctx, TestCreatorID, validWagerParams(time.Now().UTC()))

		require.NoError(t, err)
		require.Nil(t, result.Rejection)
		assert.Equal(t, int64(42), result.Event.ID)
		assert.Equal(t, "€", result.Event.Currency)
		mocks.AssertAllExpectations(t)
	})

	t.Run("rejects invalid parameters without writing", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		params := validWagerParams(time.Now().UTC())
		params.Name = ""

		result, err := svc.CreateEvent(ctx, TestCreatorID, params)

		require.NoError(t, err)
		require.NotNil(t, result.Rejection)
		assert.Equal(t, entities.RejectionInvalidEvent, result.Rejection.Reason)
		mocks.EventRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mocks.EventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
	})
}

func TestBettingService_GetEvent_NotFound(t *testing.T) {
	svc, mocks := newTestBettingService(t)
	mocks.EventRepo.On("GetByID", mock.Anything, int64(9)).Return(nil, nil)

	event, err := svc.GetEvent(context.Background(), 9)

	assert.Nil(t, event)
	assert.ErrorIs(t, err, entities.ErrEventNotFound)
}

func TestBettingService_ListEvents_ClampsLimit(t *testing.T) {
	svc, mocks := newTestBettingService(t)
	mocks.EventRepo.On("ListVisible", mock.Anything, 50).Return([]*entities.Event{}, nil).Twice()

	_, err := svc.ListEvents(context.Background(), 0)
	require.NoError(t, err)
	_, err = svc.ListEvents(context.Background(), 10_000)
	require.NoError(t, err)

	mocks.EventRepo.AssertExpectations(t)
}

func TestBettingService_PlaceBet(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted placement grows the pool", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		scenario := NewWagerScenario().WithPlacement(TestUser2ID, entities.SideB, 2000)
		updated := *scenario.Event
		updated.PoolA = 1000

		mocks.EventRepo.On("GetByID", ctx, TestEventID).Return(scenario.Event, nil)
		mocks.PlacementRepo.On("GetByEventAndUser", ctx, TestEventID, TestUser1ID).Return([]*entities.Placement{}, nil)
		mocks.PlacementRepo.On("Create", ctx, mock.MatchedBy(func(p *entities.Placement) bool {
			return p.UserID == TestUser1ID && p.Side == entities.SideA && p.Amount == 1000
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*entities.Placement).ID = 5
		}).Return(nil)
		mocks.EventRepo.On("IncrementPool", ctx, TestEventID, entities.SideA, int64(1000), mock.Anything).Return(&updated, nil)
		mocks.EventPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			accepted, ok := e.(events.PlacementAcceptedEvent)
			return ok && accepted.PlacementID == 5 && accepted.PoolA == 1000 && accepted.PoolB == 2000
		})).Return(nil)

		result, err := svc.PlaceBet(ctx, TestEventID, TestUser1ID, entities.SideA, decimal.NewFromInt(10))

		require.NoError(t, err)
		require.Nil(t, result.Rejection)
		assert.Equal(t, int64(5), result.Placement.ID)
		assert.Equal(t, int64(1000), result.Event.PoolA)
		mocks.AssertAllExpectations(t)
	})

	t.Run("validation failure leaves storage untouched", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		scenario := NewWagerScenario().WithMaxStake(500)

		mocks.EventRepo.On("GetByID", ctx, TestEventID).Return(scenario.Event, nil)
		mocks.PlacementRepo.On("GetByEventAndUser", ctx, TestEventID, TestUser1ID).Return([]*entities.Placement{}, nil)

		result, err := svc.PlaceBet(ctx, TestEventID, TestUser1ID, entities.SideA, decimal.NewFromInt(6))

		require.NoError(t, err)
		require.NotNil(t, result.Rejection)
		assert.Equal(t, entities.RejectionMaxStakeExceeded, result.Rejection.Reason)
		mocks.PlacementRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mocks.EventRepo.AssertNotCalled(t, "IncrementPool", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("concurrent duplicate becomes a rejection", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		scenario := NewWagerScenario()

		mocks.EventRepo.On("GetByID", ctx, TestEventID).Return(scenario.Event, nil)
		mocks.PlacementRepo.On("GetByEventAndUser", ctx, TestEventID, TestUser1ID).Return([]*entities.Placement{}, nil)
		mocks.PlacementRepo.On("Create", ctx, mock.Anything).
			Return(fmt.Errorf("failed to create placement: %w", entities.ErrDuplicatePlacement))

		result, err := svc.PlaceBet(ctx, TestEventID, TestUser1ID, entities.SideA, decimal.NewFromInt(1))

		require.NoError(t, err)
		require.NotNil(t, result.Rejection)
		assert.Equal(t, entities.RejectionDuplicatePlacement, result.Rejection.Reason)
		mocks.EventRepo.AssertNotCalled(t, "IncrementPool", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("event closing underneath the placement is a conflict", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		scenario := NewWagerScenario()

		mocks.EventRepo.On("GetByID", ctx, TestEventID).Return(scenario.Event, nil)
		mocks.PlacementRepo.On("GetByEventAndUser", ctx, TestEventID, TestUser1ID).Return([]*entities.Placement{}, nil)
		mocks.PlacementRepo.On("Create", ctx, mock.Anything).Return(nil)
		mocks.EventRepo.On("IncrementPool", ctx, TestEventID, entities.SideB, int64(100), mock.Anything).Return(nil, nil)

		result, err := svc.PlaceBet(ctx, TestEventID, TestUser1ID, entities.SideB, decimal.NewFromInt(1))

		assert.Nil(t, result)
		assert.ErrorIs(t, err, entities.ErrConflict)
		mocks.EventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
	})

	t.Run("storage error is returned", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		mocks.EventRepo.On("GetByID", ctx, TestEventID).Return(nil, errors.New("connection reset"))

		result, err := svc.PlaceBet(ctx, TestEventID, TestUser1ID, entities.SideB, decimal.NewFromInt(1))

		assert.Nil(t, result)
		assert.Error(t, err)
	})
}

func TestBettingService_ResolveEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("settles against the frozen pools", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		stale := NewWagerScenario().
			WithPlacement(TestUser1ID, entities.SideA, 100).
			WithPlacement(TestUser2ID, entities.SideB, 100)
		final := NewWagerScenario().
			WithPlacement(TestUser1ID, entities.SideA, 100).
			WithPlacement(TestUser2ID, entities.SideB, 100).
			WithPlacement(TestUser3ID, entities.SideB, 100)
		frozen := *final.Event
		frozen.Resolve(entities.SideA, time.Now().UTC())

		mocks.EventRepo.On("GetByID", ctx, TestEventID).Return(stale.Event, nil)
		mocks.EventRepo.On("Resolve", ctx, TestEventID, entities.SideA, mock.Anything).Return(&frozen, nil)
		mocks.PlacementRepo.On("ListByEvent", ctx, TestEventID).Return(final.Placements, nil)
		mocks.EventPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			resolved, ok := e.(events.BettingEventResolvedEvent)
			return ok && resolved.DebtRecords == 2 && resolved.PoolB == 200
		})).Return(nil)

		result, err := svc.ResolveEvent(ctx, TestEventID, config.TestResolverID, entities.SideA)

		require.NoError(t, err)
		require.Nil(t, result.Rejection)
		assert.InDelta(t, 3.0, result.Settlement.Odds, 1e-9)
		assert.Equal(t, int64(200), result.Settlement.TotalDebited())
		assert.True(t, result.Event.IsResolved())
		mocks.AssertAllExpectations(t)
	})

	t.Run("only resolvers may resolve", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)

		result, err := svc.ResolveEvent(ctx, TestEventID, TestUser1ID, entities.SideA)

		require.NoError(t, err)
		require.NotNil(t, result.Rejection)
		assert.Equal(t, entities.RejectionNotAuthorized, result.Rejection.Reason)
		mocks.EventRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("invalid side is rejected before writing", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		mocks.EventRepo.On("GetByID", ctx, TestEventID).Return(NewWagerScenario().Event, nil)

		result, err := svc.ResolveEvent(ctx, TestEventID, config.TestResolverID, entities.Side("C"))

		require.NoError(t, err)
		require.NotNil(t, result.Rejection)
		assert.Equal(t, entities.RejectionInvalidSide, result.Rejection.Reason)
		mocks.EventRepo.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("losing the resolution race", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		mocks.EventRepo.On("GetByID", ctx, TestEventID).Return(NewWagerScenario().Event, nil)
		mocks.EventRepo.On("Resolve", ctx, TestEventID, entities.SideB, mock.Anything).Return(nil, nil)

		result, err := svc.ResolveEvent(ctx, TestEventID, config.TestResolverID, entities.SideB)

		require.NoError(t, err)
		require.NotNil(t, result.Rejection)
		assert.Equal(t, entities.RejectionEventAlreadyResolved, result.Rejection.Reason)
		mocks.PlacementRepo.AssertNotCalled(t, "ListByEvent", mock.Anything, mock.Anything)
		mocks.EventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
	})
}

func TestBettingService_GetOdds(t *testing.T) {
	ctx := context.Background()

	t.Run("served from cache", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		cached := &entities.OddsSnapshot{EventID: TestEventID, OddsA: 3, OddsB: 1.5}
		mocks.OddsCache.On("GetOdds", ctx, TestEventID).Return(cached, true, nil)

		snapshot, err := svc.GetOdds(ctx, TestEventID)

		require.NoError(t, err)
		assert.Same(t, cached, snapshot)
		mocks.EventRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("computed and stored on miss", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		scenario := NewWagerScenario().
			WithPlacement(TestUser1ID, entities.SideA, 100).
			WithPlacement(TestUser2ID, entities.SideB, 200)

		mocks.OddsCache.On("GetOdds", ctx, TestEventID).Return(nil, false, nil)
		mocks.EventRepo.On("GetByID", ctx, TestEventID).Return(scenario.Event, nil)
		mocks.OddsCache.On("SetOdds", ctx, mock.AnythingOfType("*entities.OddsSnapshot")).Return(nil)

		snapshot, err := svc.GetOdds(ctx, TestEventID)

		require.NoError(t, err)
		assert.InDelta(t, 3.0, snapshot.OddsA, 1e-9)
		assert.InDelta(t, 1.5, snapshot.OddsB, 1e-9)
		mocks.AssertAllExpectations(t)
	})

	t.Run("cache failures fall back to storage", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		mocks.OddsCache.On("GetOdds", ctx, TestEventID).Return(nil, false, errors.New("redis down"))
		mocks.EventRepo.On("GetByID", ctx, TestEventID).Return(NewWagerScenario().Event, nil)
		mocks.OddsCache.On("SetOdds", ctx, mock.Anything).Return(errors.New("redis down"))

		snapshot, err := svc.GetOdds(ctx, TestEventID)

		require.NoError(t, err)
		assert.InDelta(t, DefaultOdds, snapshot.OddsA, 1e-9)
	})
}

func TestBettingService_MarkPaid(t *testing.T) {
	ctx := context.Background()
	resolved := func() *EventScenario {
		return NewWagerScenario().
			WithPlacement(TestUser1ID, entities.SideA, 100).
			WithPlacement(TestUser2ID, entities.SideB, 100).
			Resolved(entities.SideA)
	}

	t.Run("winner marks the loser paid", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		scenario := resolved()
		mocks.EventRepo.On("GetByID", ctx, TestEventID).Return(scenario.Event, nil)
		mocks.PlacementRepo.On("GetByEventAndUser", ctx, TestEventID, TestUser2ID).Return(scenario.PlacementsOf(TestUser2ID), nil)
		mocks.PlacementRepo.On("GetByEventAndUser", ctx, TestEventID, TestUser1ID).Return(scenario.PlacementsOf(TestUser1ID), nil)
		mocks.PlacementRepo.On("MarkPaid", ctx, TestEventID, TestUser2ID).Return(true, nil)
		mocks.ExpectEventPublish(events.EventTypePlacementPaid)

		rejection, err := svc.MarkPaid(ctx, TestEventID, TestUser2ID, TestUser1ID)

		require.NoError(t, err)
		assert.Nil(t, rejection)
		mocks.AssertAllExpectations(t)
	})

	t.Run("outsider is refused", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		scenario := resolved()
		mocks.EventRepo.On("GetByID", ctx, TestEventID).Return(scenario.Event, nil)
		mocks.PlacementRepo.On("GetByEventAndUser", ctx, TestEventID, TestUser2ID).Return(scenario.PlacementsOf(TestUser2ID), nil)
		mocks.PlacementRepo.On("GetByEventAndUser", ctx, TestEventID, TestUser3ID).Return([]*entities.Placement{}, nil)

		rejection, err := svc.MarkPaid(ctx, TestEventID, TestUser2ID, TestUser3ID)

		require.NoError(t, err)
		require.NotNil(t, rejection)
		assert.Equal(t, entities.RejectionNotAuthorized, rejection.Reason)
		mocks.PlacementRepo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("winners have nothing to pay", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		scenario := resolved()
		mocks.EventRepo.On("GetByID", ctx, TestEventID).Return(scenario.Event, nil)
		mocks.PlacementRepo.On("GetByEventAndUser", ctx, TestEventID, TestUser1ID).Return(scenario.PlacementsOf(TestUser1ID), nil)

		rejection, err := svc.MarkPaid(ctx, TestEventID, TestUser1ID, config.TestResolverID)

		require.NoError(t, err)
		require.NotNil(t, rejection)
		assert.Equal(t, entities.RejectionInvalidEvent, rejection.Reason)
	})

	t.Run("unresolved event", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		mocks.EventRepo.On("GetByID", ctx, TestEventID).Return(NewWagerScenario().Event, nil)

		rejection, err := svc.MarkPaid(ctx, TestEventID, TestUser2ID, config.TestResolverID)

		require.NoError(t, err)
		require.NotNil(t, rejection)
		assert.Equal(t, entities.RejectionInvalidEvent, rejection.Reason)
	})
}

func TestBettingService_GetUserBets(t *testing.T) {
	ctx := context.Background()
	svc, mocks := newTestBettingService(t)

	open := NewWagerScenario().WithPlacement(TestUser1ID, entities.SideA, 100)
	won := NewWagerScenario().WithPlacement(TestUser1ID, entities.SideB, 100).Resolved(entities.SideB)
	won.Event.ID = 2
	won.Placements[0].EventID = 2

	placements := []*entities.Placement{won.Placements[0], open.Placements[0]}
	mocks.PlacementRepo.On("ListByUser", ctx, TestUser1ID).Return(placements, nil)
	mocks.EventRepo.On("ListByIDs", ctx, []int64{2, TestEventID}).Return(map[int64]*entities.Event{
		TestEventID: open.Event,
		2:           won.Event,
	}, nil)

	bets, err := svc.GetUserBets(ctx, TestUser1ID)

	require.NoError(t, err)
	require.Len(t, bets, 2)
	assert.Equal(t, entities.PlacementStatusWon, bets[0].Status)
	assert.Equal(t, entities.PlacementStatusOpen, bets[1].Status)
}

func TestBettingService_UpsertProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("trims the name", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)
		mocks.ProfileRepo.On("Upsert", ctx, mock.MatchedBy(func(p *entities.Profile) bool {
			return p.ID == TestUser1ID && p.Username == "alice"
		})).Return(nil)

		profile, rejection, err := svc.UpsertProfile(ctx, TestUser1ID, "  alice ")

		require.NoError(t, err)
		assert.Nil(t, rejection)
		assert.Equal(t, "alice", profile.Username)
		mocks.AssertAllExpectations(t)
	})

	t.Run("rejects empty names", func(t *testing.T) {
		svc, mocks := newTestBettingService(t)

		profile, rejection, err := svc.UpsertProfile(ctx, TestUser1ID, "   ")

		require.NoError(t, err)
		assert.Nil(t, profile)
		require.NotNil(t, rejection)
		assert.Equal(t, entities.RejectionInvalidProfile, rejection.Reason)
		mocks.ProfileRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})
}
