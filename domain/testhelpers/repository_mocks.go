package testhelpers

import (
	"context"
	"time"

	"peerbets/domain/entities"
	"peerbets/domain/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockEventRepository is a mock implementation of EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *entities.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id int64) (*entities.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Event), args.Error(1)
}

func (m *MockEventRepository) ListVisible(ctx context.Context, limit int) ([]*entities.Event, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Event), args.Error(1)
}

func (m *MockEventRepository) ListByIDs(ctx context.Context, ids []int64) (map[int64]*entities.Event, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*entities.Event), args.Error(1)
}

func (m *MockEventRepository) ListResolvedForUser(ctx context.Context, userID uuid.UUID) ([]*entities.Event, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Event), args.Error(1)
}

func (m *MockEventRepository) IncrementPool(ctx context.Context, id int64, side entities.Side, amount int64, now time.Time) (*entities.Event, error) {
	args := m.Called(ctx, id, side, amount, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Event), args.Error(1)
}

func (m *MockEventRepository) Resolve(ctx context.Context, id int64, side entities.Side, resolvedAt time.Time) (*entities.Event, error) {
	args := m.Called(ctx, id, side, resolvedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Event), args.Error(1)
}

func (m *MockEventRepository) Hide(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEventRepository) GetNextCloseTime(ctx context.Context) (*time.Time, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockEventRepository) ListDueForCloseAnnouncement(ctx context.Context, now time.Time) ([]*entities.Event, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Event), args.Error(1)
}

func (m *MockEventRepository) MarkCloseAnnounced(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockPlacementRepository is a mock implementation of PlacementRepository
type MockPlacementRepository struct {
	mock.Mock
}

func (m *MockPlacementRepository) Create(ctx context.Context, placement *entities.Placement) error {
	args := m.Called(ctx, placement)
	return args.Error(0)
}

func (m *MockPlacementRepository) GetByEventAndUser(ctx context.Context, eventID int64, userID uuid.UUID) ([]*entities.Placement, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Placement), args.Error(1)
}

func (m *MockPlacementRepository) ListByEvent(ctx context.Context, eventID int64) ([]*entities.Placement, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Placement), args.Error(1)
}

func (m *MockPlacementRepository) ListByEvents(ctx context.Context, eventIDs []int64) (map[int64][]*entities.Placement, error) {
	args := m.Called(ctx, eventIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]*entities.Placement), args.Error(1)
}

func (m *MockPlacementRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Placement, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Placement), args.Error(1)
}

func (m *MockPlacementRepository) MarkPaid(ctx context.Context, eventID int64, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, eventID, userID)
	return args.Bool(0), args.Error(1)
}

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Upsert(ctx context.Context, profile *entities.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entities.Profile, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*entities.Profile), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockOddsCache is a mock implementation of OddsCache
type MockOddsCache struct {
	mock.Mock
}

func (m *MockOddsCache) GetOdds(ctx context.Context, eventID int64) (*entities.OddsSnapshot, bool, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*entities.OddsSnapshot), args.Bool(1), args.Error(2)
}

func (m *MockOddsCache) SetOdds(ctx context.Context, snapshot *entities.OddsSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockOddsCache) Invalidate(ctx context.Context, eventID int64) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}
