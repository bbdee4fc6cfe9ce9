package services

import (
	"testing"
	"time"

	"peerbets/config"
	"peerbets/domain/entities"
	"peerbets/domain/events"
	"peerbets/domain/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Test constants for consistent test data
const (
	TestEventID = int64(1)
	TestStake   = "2 coffees"
)

var (
	TestCreatorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestUser1ID   = uuid.MustParse("00000000-0000-0000-0000-000000000100")
	TestUser2ID   = uuid.MustParse("00000000-0000-0000-0000-000000000200")
	TestUser3ID   = uuid.MustParse("00000000-0000-0000-0000-000000000300")
	TestUser4ID   = uuid.MustParse("00000000-0000-0000-0000-000000000400")
)

// TestMocks aggregates all repository mocks for testing
type TestMocks struct {
	EventRepo      *testhelpers.MockEventRepository
	PlacementRepo  *testhelpers.MockPlacementRepository
	ProfileRepo    *testhelpers.MockProfileRepository
	EventPublisher *testhelpers.MockEventPublisher
	OddsCache      *testhelpers.MockOddsCache
}

// NewTestMocks creates a new set of mocks
func NewTestMocks() *TestMocks {
	return &TestMocks{
		EventRepo:      &testhelpers.MockEventRepository{},
		PlacementRepo:  &testhelpers.MockPlacementRepository{},
		ProfileRepo:    &testhelpers.MockProfileRepository{},
		EventPublisher: &testhelpers.MockEventPublisher{},
		OddsCache:      &testhelpers.MockOddsCache{},
	}
}

// AssertAllExpectations verifies all mock expectations were met
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.EventRepo.AssertExpectations(t)
	m.PlacementRepo.AssertExpectations(t)
	m.ProfileRepo.AssertExpectations(t)
	m.EventPublisher.AssertExpectations(t)
	m.OddsCache.AssertExpectations(t)
}

// ExpectEventPublish sets up event publisher mock expectations
func (m *TestMocks) ExpectEventPublish(eventType events.EventType) {
	m.EventPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type() == eventType
	})).Return(nil).Once()
}

// SetupTestConfig configures the test environment
func SetupTestConfig(t *testing.T) {
	t.Helper()
	config.SetTestConfig(config.NewTestConfig())
}

// EventScenario builds an event together with placements whose pools agree with it
type EventScenario struct {
	Event      *entities.Event
	Placements []*entities.Placement
	start      time.Time
}

// NewWagerScenario creates an open wager closing in an hour
func NewWagerScenario() *EventScenario {
	now := time.Now().UTC()
	return &EventScenario{
		Event: &entities.Event{
			ID:        TestEventID,
			Kind:      entities.EventKindWager,
			Name:      "Will it rain on Saturday?",
			SideA:     "Yes",
			SideB:     "No",
			Currency:  entities.DefaultCurrency,
			ClosesAt:  now.Add(time.Hour),
			CreatedBy: TestCreatorID,
			CreatedAt: now.Add(-time.Hour),
		},
		Placements: []*entities.Placement{},
		start:      now.Add(-30 * time.Minute),
	}
}

// NewDareScenario creates an open dare closing in an hour
func NewDareScenario() *EventScenario {
	s := NewWagerScenario()
	s.Event.Kind = entities.EventKindDare
	s.Event.Name = "Who finishes the marathon first?"
	s.Event.Currency = ""
	s.Event.Stake = TestStake
	return s
}

// WithPlacement adds a placement and grows the matching pool. Placements are
// timestamped one second apart in the order they are added.
func (s *EventScenario) WithPlacement(userID uuid.UUID, side entities.Side, amount int64) *EventScenario {
	n := len(s.Placements)
	s.Placements = append(s.Placements, &entities.Placement{
		ID:       int64(n + 1),
		EventID:  s.Event.ID,
		UserID:   userID,
		Side:     side,
		Amount:   amount,
		PlacedAt: s.start.Add(time.Duration(n) * time.Second),
	})
	if side == entities.SideA {
		s.Event.PoolA += amount
	} else {
		s.Event.PoolB += amount
	}
	return s
}

// WithMaxStake sets the per-placement limit in cents
func (s *EventScenario) WithMaxStake(limit int64) *EventScenario {
	s.Event.MaxStake = &limit
	return s
}

// Closed moves the closing time into the past
func (s *EventScenario) Closed() *EventScenario {
	s.Event.ClosesAt = time.Now().UTC().Add(-time.Minute)
	return s
}

// Resolved records the winning side on the event
func (s *EventScenario) Resolved(side entities.Side) *EventScenario {
	s.Event.Resolve(side, time.Now().UTC())
	return s
}

// PlacementsOf returns the placements of a single user
func (s *EventScenario) PlacementsOf(userID uuid.UUID) []*entities.Placement {
	var out []*entities.Placement
	for _, p := range s.Placements {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}
