package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"peerbets/domain/entities"
	"peerbets/domain/events"
	"peerbets/repository"
	"peerbets/repository/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu        sync.Mutex
	buffered  []events.Event
	flushed   []events.Event
	discarded int
}

func (p *recordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffered = append(p.buffered, event)
	return nil
}

func (p *recordingPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushed = append(p.flushed, p.buffered...)
	p.buffered = nil
	return nil
}

func (p *recordingPublisher) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffered = nil
	p.discarded++
}

func TestUnitOfWork_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	factory := repository.NewUnitOfWorkFactory(testDB.DB)
	eventRepo := repository.NewEventRepository(testDB.DB)
	creator := uuid.New()

	t.Run("commit persists and flushes", func(t *testing.T) {
		publisher := &recordingPublisher{}
		uow := factory.CreateWithPublisher(publisher)
		require.NoError(t, uow.Begin(ctx))

		event := testutil.CreateTestWager(creator)
		require.NoError(t, uow.EventRepository().Create(ctx, event))
		require.NoError(t, uow.EventBus().Publish(eventsCreated(event)))
		assert.Empty(t, publisher.flushed)

		require.NoError(t, uow.Commit())
		require.NoError(t, uow.Rollback(), "rollback after commit is a no-op")

		loaded, err := eventRepo.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.NotNil(t, loaded)
		assert.Len(t, publisher.flushed, 1)
		assert.Zero(t, publisher.discarded)
	})

	t.Run("rollback discards writes and events", func(t *testing.T) {
		publisher := &recordingPublisher{}
		uow := factory.CreateWithPublisher(publisher)
		require.NoError(t, uow.Begin(ctx))

		event := testutil.CreateTestWager(creator)
		require.NoError(t, uow.EventRepository().Create(ctx, event))
		require.NoError(t, uow.EventBus().Publish(eventsCreated(event)))
		require.NoError(t, uow.Rollback())

		loaded, err := eventRepo.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Nil(t, loaded)
		assert.Empty(t, publisher.flushed)
		assert.Equal(t, 1, publisher.discarded)
	})

	t.Run("pool increment and placement share the transaction", func(t *testing.T) {
		event := testutil.CreateTestWager(creator)
		require.NoError(t, eventRepo.Create(ctx, event))
		user := uuid.New()

		uow := factory.CreateWithPublisher(&recordingPublisher{})
		require.NoError(t, uow.Begin(ctx))
		_, err := uow.EventRepository().IncrementPool(ctx, event.ID, entities.SideA, 500, time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, uow.PlacementRepository().Create(ctx, testutil.CreateTestPlacement(event.ID, user, entities.SideA, 500)))
		require.NoError(t, uow.Rollback())

		loaded, err := eventRepo.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Zero(t, loaded.PoolA)

		placements, err := repository.NewPlacementRepository(testDB.DB).ListByEvent(ctx, event.ID)
		require.NoError(t, err)
		assert.Empty(t, placements)
	})

	t.Run("begin twice fails", func(t *testing.T) {
		uow := factory.CreateWithPublisher(&recordingPublisher{})
		require.NoError(t, uow.Begin(ctx))
		defer func() { _ = uow.Rollback() }()

		assert.Error(t, uow.Begin(ctx))
	})

	t.Run("commit without begin fails", func(t *testing.T) {
		uow := factory.CreateWithPublisher(&recordingPublisher{})
		assert.Error(t, uow.Commit())
	})
}

func eventsCreated(event *entities.Event) events.Event {
	return events.BettingEventCreatedEvent{
		EventID:   event.ID,
		Kind:      string(event.Kind),
		Name:      event.Name,
		CreatedBy: event.CreatedBy,
	}
}
