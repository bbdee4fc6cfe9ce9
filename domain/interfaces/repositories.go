package interfaces

import (
	"context"
	"time"

	"peerbets/domain/entities"
	"peerbets/domain/events"

	"github.com/google/uuid"
)

// EventRepository defines the interface for betting event data access
type EventRepository interface {
	// Create inserts a new event and fills in its ID and CreatedAt
	Create(ctx context.Context, event *entities.Event) error

	// GetByID retrieves an event by ID, returning nil if it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Event, error)

	// ListVisible returns events that are not hidden, newest first
	ListVisible(ctx context.Context, limit int) ([]*entities.Event, error)

	// ListByIDs returns the events with the given IDs keyed by ID
	ListByIDs(ctx context.Context, ids []int64) (map[int64]*entities.Event, error)

	// ListResolvedForUser returns resolved events the user has a placement on
	ListResolvedForUser(ctx context.Context, userID uuid.UUID) ([]*entities.Event, error)

	// IncrementPool atomically adds amount to a side's pool while the event is still open at now.
	// Returns the updated event, or nil if the event was resolved or closed in the meantime.
	IncrementPool(ctx context.Context, id int64, side entities.Side, amount int64, now time.Time) (*entities.Event, error)

	// Resolve sets the winning side only if no resolution exists yet.
	// Returns the event with its frozen pools, or nil if it was already resolved.
	Resolve(ctx context.Context, id int64, side entities.Side, resolvedAt time.Time) (*entities.Event, error)

	// Hide archives an event so it no longer appears in listings
	Hide(ctx context.Context, id int64) error

	// GetNextCloseTime returns the earliest closing time of an open, unannounced event
	GetNextCloseTime(ctx context.Context) (*time.Time, error)

	// ListDueForCloseAnnouncement returns open events that closed at or before now and were not announced
	ListDueForCloseAnnouncement(ctx context.Context, now time.Time) ([]*entities.Event, error)

	// MarkCloseAnnounced flags an event's closing as announced, returning false if another worker did it first
	MarkCloseAnnounced(ctx context.Context, id int64) (bool, error)
}

// PlacementRepository defines the interface for placement data access
type PlacementRepository interface {
	// Create inserts a placement. Returns entities.ErrDuplicatePlacement when the
	// user already has a placement on the event.
	Create(ctx context.Context, placement *entities.Placement) error

	// GetByEventAndUser returns the user's placements on an event (zero or one)
	GetByEventAndUser(ctx context.Context, eventID int64, userID uuid.UUID) ([]*entities.Placement, error)

	// ListByEvent returns all placements of an event ordered by placement time
	ListByEvent(ctx context.Context, eventID int64) ([]*entities.Placement, error)

	// ListByEvents returns placements of several events keyed by event ID
	ListByEvents(ctx context.Context, eventIDs []int64) (map[int64][]*entities.Placement, error)

	// ListByUser returns all placements of a user, newest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Placement, error)

	// MarkPaid flags a user's placement on an event as paid, returning false if it was already paid
	MarkPaid(ctx context.Context, eventID int64, userID uuid.UUID) (bool, error)
}

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	// Upsert creates or renames a profile
	Upsert(ctx context.Context, profile *entities.Profile) error

	// GetByIDs returns the profiles with the given IDs keyed by ID
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entities.Profile, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// OddsCache stores odds snapshots between placements
type OddsCache interface {
	// GetOdds returns the cached snapshot and whether it was found
	GetOdds(ctx context.Context, eventID int64) (*entities.OddsSnapshot, bool, error)

	// SetOdds stores a snapshot
	SetOdds(ctx context.Context, snapshot *entities.OddsSnapshot) error

	// Invalidate drops the snapshot of an event
	Invalidate(ctx context.Context, eventID int64) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction commits
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all buffered events
	Flush(ctx context.Context) error

	// Discard drops all buffered events
	Discard()
}
