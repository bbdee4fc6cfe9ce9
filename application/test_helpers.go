package application

import (
	"context"

	"peerbets/domain/events"
	"peerbets/domain/interfaces"
)

// TestUnitOfWork is an in-memory UnitOfWork over caller supplied repositories.
// Published events are buffered and only become visible in Published after Commit.
type TestUnitOfWork struct {
	Events     interfaces.EventRepository
	Placements interfaces.PlacementRepository
	Profiles   interfaces.ProfileRepository

	Published  []events.Event
	Begun      int
	Committed  int
	RolledBack int

	pending []events.Event
	active  bool
}

func (u *TestUnitOfWork) Begin(ctx context.Context) error {
	u.Begun++
	u.active = true
	return nil
}

func (u *TestUnitOfWork) Commit() error {
	u.Committed++
	u.active = false
	u.Published = append(u.Published, u.pending...)
	u.pending = nil
	return nil
}

func (u *TestUnitOfWork) Rollback() error {
	if !u.active {
		return nil
	}
	u.RolledBack++
	u.active = false
	u.pending = nil
	return nil
}

func (u *TestUnitOfWork) EventRepository() interfaces.EventRepository         { return u.Events }
func (u *TestUnitOfWork) PlacementRepository() interfaces.PlacementRepository { return u.Placements }
func (u *TestUnitOfWork) ProfileRepository() interfaces.ProfileRepository     { return u.Profiles }
func (u *TestUnitOfWork) EventBus() interfaces.EventPublisher                 { return testEventBus{u} }

type testEventBus struct {
	uow *TestUnitOfWork
}

func (b testEventBus) Publish(event events.Event) error {
	b.uow.pending = append(b.uow.pending, event)
	return nil
}

// TestUnitOfWorkFactory hands out the same TestUnitOfWork on every call
type TestUnitOfWorkFactory struct {
	UnitOfWork *TestUnitOfWork
}

func (f *TestUnitOfWorkFactory) Create() UnitOfWork {
	return f.UnitOfWork
}
