package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"peerbets/domain/entities"
	"peerbets/domain/events"
	"peerbets/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestClosingWorker(eventRepo *testhelpers.MockEventRepository, now time.Time) (*EventClosingWorker, *TestUnitOfWork) {
	uow := &TestUnitOfWork{Events: eventRepo}
	worker := NewEventClosingWorker(&TestUnitOfWorkFactory{UnitOfWork: uow})
	worker.now = func() time.Time { return now }
	return worker, uow
}

func TestEventClosingWorker_ProcessDueEvents(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("announces each due event once", func(t *testing.T) {
		eventRepo := new(testhelpers.MockEventRepository)
		worker, uow := newTestClosingWorker(eventRepo, now)

		due := []*entities.Event{
			{ID: 1, Name: "Derby", ClosesAt: now.Add(-time.Minute)},
			{ID: 2, Name: "Chess", ClosesAt: now.Add(-time.Hour)},
		}
		eventRepo.On("ListDueForCloseAnnouncement", ctx, now).Return(due, nil)
		eventRepo.On("MarkCloseAnnounced", ctx, int64(1)).Return(true, nil)
		eventRepo.On("MarkCloseAnnounced", ctx, int64(2)).Return(false, nil)

		count, err := worker.ProcessDueEvents(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		require.Len(t, uow.Published, 1)
		closed, ok := uow.Published[0].(events.BettingEventClosedEvent)
		require.True(t, ok)
		assert.Equal(t, int64(1), closed.EventID)
		assert.Equal(t, "Derby", closed.Name)
		assert.Equal(t, 1, uow.Committed)
		eventRepo.AssertExpectations(t)
	})

	t.Run("nothing due", func(t *testing.T) {
		eventRepo := new(testhelpers.MockEventRepository)
		worker, uow := newTestClosingWorker(eventRepo, now)

		eventRepo.On("ListDueForCloseAnnouncement", ctx, now).Return([]*entities.Event{}, nil)

		count, err := worker.ProcessDueEvents(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, uow.Published)
		assert.Zero(t, uow.Committed)
	})

	t.Run("failure on one event does not stop the others", func(t *testing.T) {
		eventRepo := new(testhelpers.MockEventRepository)
		worker, uow := newTestClosingWorker(eventRepo, now)

		due := []*entities.Event{{ID: 5}, {ID: 6}}
		eventRepo.On("ListDueForCloseAnnouncement", ctx, now).Return(due, nil)
		eventRepo.On("MarkCloseAnnounced", ctx, int64(5)).Return(false, errors.New("connection reset"))
		eventRepo.On("MarkCloseAnnounced", ctx, int64(6)).Return(true, nil)

		count, err := worker.ProcessDueEvents(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		require.Len(t, uow.Published, 1)
		assert.Equal(t, int64(6), uow.Published[0].(events.BettingEventClosedEvent).EventID)
	})

	t.Run("list failure is returned", func(t *testing.T) {
		eventRepo := new(testhelpers.MockEventRepository)
		worker, _ := newTestClosingWorker(eventRepo, now)

		eventRepo.On("ListDueForCloseAnnouncement", ctx, mock.Anything).Return(nil, errors.New("boom"))

		_, err := worker.ProcessDueEvents(ctx)
		assert.Error(t, err)
	})
}

func TestEventClosingWorker_StartStops(t *testing.T) {
	eventRepo := new(testhelpers.MockEventRepository)
	worker, _ := newTestClosingWorker(eventRepo, time.Now().UTC())

	polled := make(chan struct{}, 1)
	eventRepo.On("ListDueForCloseAnnouncement", mock.Anything, mock.Anything).Return([]*entities.Event{}, nil)
	eventRepo.On("GetNextCloseTime", mock.Anything).Return(nil, nil).Run(func(mock.Arguments) {
		select {
		case polled <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := worker.Start(ctx)
	select {
	case <-polled:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not poll for the next close time")
	}
	stop()
}
