package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peerbets/database"
	"peerbets/domain/entities"
	"peerbets/domain/interfaces"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const eventColumns = `
	id, kind, name, side_a, side_b, pool_a, pool_b, max_stake, currency, stake,
	closes_at, winning_side, resolved_at, created_by, hidden, close_announced, created_at
`

// EventRepository implements betting event data access
type EventRepository struct {
	q Queryable
}

// NewEventRepository creates a new event repository backed by the connection pool
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{q: db.Pool}
}

// NewEventRepositoryScoped creates an event repository bound to a transaction
func NewEventRepositoryScoped(tx Queryable) interfaces.EventRepository {
	return &EventRepository{q: tx}
}

// Create inserts a new event
func (r *EventRepository) Create(ctx context.Context, event *entities.Event) error {
	query := `
		INSERT INTO events (
			kind, name, side_a, side_b, pool_a, pool_b, max_stake, currency, stake,
			closes_at, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		string(event.Kind),
		event.Name,
		event.SideA,
		event.SideB,
		event.PoolA,
		event.PoolB,
		event.MaxStake,
		event.Currency,
		event.Stake,
		event.ClosesAt,
		event.CreatedBy,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return translateError(err, "failed to create event")
	}

	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*entities.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err, "failed to get event")
	}
	return event, nil
}

// ListVisible returns events that are not hidden, newest first
func (r *EventRepository) ListVisible(ctx context.Context, limit int) ([]*entities.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE hidden = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	return r.queryEvents(ctx, "failed to list events", query, limit)
}

// ListByIDs returns the events with the given IDs keyed by ID
func (r *EventRepository) ListByIDs(ctx context.Context, ids []int64) (map[int64]*entities.Event, error) {
	result := make(map[int64]*entities.Event)
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ANY($1)`
	list, err := r.queryEvents(ctx, "failed to get events by IDs", query, ids)
	if err != nil {
		return nil, err
	}
	for _, event := range list {
		result[event.ID] = event
	}
	return result, nil
}

// ListResolvedForUser returns resolved events the user has a placement on
func (r *EventRepository) ListResolvedForUser(ctx context.Context, userID uuid.UUID) ([]*entities.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE winning_side IS NOT NULL
		  AND id IN (SELECT event_id FROM placements WHERE user_id = $1)
		ORDER BY resolved_at DESC, id DESC
	`
	return r.queryEvents(ctx, "failed to list resolved events", query, userID)
}

// IncrementPool adds amount to one side's pool in a single statement so concurrent
// placements never lose an update. The row is only touched while the event is open.
func (r *EventRepository) IncrementPool(ctx context.Context, id int64, side entities.Side, amount int64, now time.Time) (*entities.Event, error) {
	var query string
	switch side {
	case entities.SideA:
		query = `UPDATE events SET pool_a = pool_a + $2`
	case entities.SideB:
		query = `UPDATE events SET pool_b = pool_b + $2`
	default:
		return nil, fmt.Errorf("invalid side %q", side)
	}
	query += `
		WHERE id = $1 AND winning_side IS NULL AND closes_at > $3
		RETURNING ` + eventColumns

	event, err := scanEvent(r.q.QueryRow(ctx, query, id, amount, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err, "failed to increment pool")
	}
	return event, nil
}

// Resolve records the winning side if none is set yet. The returned event carries
// the pools as they stood when the row lock was acquired.
func (r *EventRepository) Resolve(ctx context.Context, id int64, side entities.Side, resolvedAt time.Time) (*entities.Event, error) {
	query := `
		UPDATE events
		SET winning_side = $2, resolved_at = $3
		WHERE id = $1 AND winning_side IS NULL
		RETURNING ` + eventColumns

	event, err := scanEvent(r.q.QueryRow(ctx, query, id, string(side), resolvedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err, "failed to resolve event")
	}
	return event, nil
}

// Hide archives an event
func (r *EventRepository) Hide(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, `UPDATE events SET hidden = TRUE WHERE id = $1`, id)
	if err != nil {
		return translateError(err, "failed to hide event")
	}
	return nil
}

// GetNextCloseTime returns the earliest closing time among open, unannounced events
func (r *EventRepository) GetNextCloseTime(ctx context.Context) (*time.Time, error) {
	query := `
		SELECT MIN(closes_at)
		FROM events
		WHERE winning_side IS NULL AND close_announced = FALSE
	`

	var next *time.Time
	if err := r.q.QueryRow(ctx, query).Scan(&next); err != nil {
		return nil, translateError(err, "failed to get next close time")
	}
	return next, nil
}

// ListDueForCloseAnnouncement returns unresolved events that closed at or before now
// and have not been announced
func (r *EventRepository) ListDueForCloseAnnouncement(ctx context.Context, now time.Time) ([]*entities.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE winning_side IS NULL AND close_announced = FALSE AND closes_at <= $1
		ORDER BY closes_at, id
	`
	return r.queryEvents(ctx, "failed to list closing events", query, now)
}

// MarkCloseAnnounced flags the event's closing as announced
func (r *EventRepository) MarkCloseAnnounced(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE events SET close_announced = TRUE WHERE id = $1 AND close_announced = FALSE`, id)
	if err != nil {
		return false, translateError(err, "failed to mark close announced")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *EventRepository) queryEvents(ctx context.Context, action, query string, args ...any) ([]*entities.Event, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, action)
	}
	defer rows.Close()

	var list []*entities.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, translateError(err, action)
		}
		list = append(list, event)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, action)
	}
	return list, nil
}

func scanEvent(row pgx.Row) (*entities.Event, error) {
	var (
		event       entities.Event
		kind        string
		winningSide *string
		resolvedAt  *time.Time
	)

	err := row.Scan(
		&event.ID,
		&kind,
		&event.Name,
		&event.SideA,
		&event.SideB,
		&event.PoolA,
		&event.PoolB,
		&event.MaxStake,
		&event.Currency,
		&event.Stake,
		&event.ClosesAt,
		&winningSide,
		&resolvedAt,
		&event.CreatedBy,
		&event.Hidden,
		&event.CloseAnnounced,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.Kind = entities.EventKind(kind)
	if winningSide != nil && resolvedAt != nil {
		event.Resolution = &entities.Resolution{
			WinningSide: entities.Side(*winningSide),
			ResolvedAt:  *resolvedAt,
		}
	}
	return &event, nil
}
