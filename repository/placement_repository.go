package repository

import (
	"context"

	"peerbets/database"
	"peerbets/domain/entities"
	"peerbets/domain/interfaces"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const placementColumns = `id, event_id, user_id, side, amount, paid, placed_at`

// PlacementRepository implements placement data access
type PlacementRepository struct {
	q Queryable
}

// NewPlacementRepository creates a new placement repository backed by the connection pool
func NewPlacementRepository(db *database.DB) *PlacementRepository {
	return &PlacementRepository{q: db.Pool}
}

// NewPlacementRepositoryScoped creates a placement repository bound to a transaction
func NewPlacementRepositoryScoped(tx Queryable) interfaces.PlacementRepository {
	return &PlacementRepository{q: tx}
}

// Create inserts a placement. The (event_id, user_id) unique key turns a second
// placement by the same user into entities.ErrDuplicatePlacement.
func (r *PlacementRepository) Create(ctx context.Context, placement *entities.Placement) error {
	query := `
		INSERT INTO placements (event_id, user_id, side, amount, placed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, placed_at
	`

	err := r.q.QueryRow(ctx, query,
		placement.EventID,
		placement.UserID,
		string(placement.Side),
		placement.Amount,
		placement.PlacedAt,
	).Scan(&placement.ID, &placement.PlacedAt)
	if err != nil {
		return translateError(err, "failed to create placement")
	}
	return nil
}

// GetByEventAndUser returns the user's placements on an event
func (r *PlacementRepository) GetByEventAndUser(ctx context.Context, eventID int64, userID uuid.UUID) ([]*entities.Placement, error) {
	query := `SELECT ` + placementColumns + `
		FROM placements
		WHERE event_id = $1 AND user_id = $2
	`
	return r.queryPlacements(ctx, "failed to get placement", query, eventID, userID)
}

// ListByEvent returns all placements of an event in placement order
func (r *PlacementRepository) ListByEvent(ctx context.Context, eventID int64) ([]*entities.Placement, error) {
	query := `SELECT ` + placementColumns + `
		FROM placements
		WHERE event_id = $1
		ORDER BY placed_at, id
	`
	return r.queryPlacements(ctx, "failed to list placements", query, eventID)
}

// ListByEvents returns placements of several events keyed by event ID
func (r *PlacementRepository) ListByEvents(ctx context.Context, eventIDs []int64) (map[int64][]*entities.Placement, error) {
	result := make(map[int64][]*entities.Placement)
	if len(eventIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + placementColumns + `
		FROM placements
		WHERE event_id = ANY($1)
		ORDER BY placed_at, id
	`
	list, err := r.queryPlacements(ctx, "failed to list placements by events", query, eventIDs)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		result[p.EventID] = append(result[p.EventID], p)
	}
	return result, nil
}

// ListByUser returns all placements of a user, newest first
func (r *PlacementRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Placement, error) {
	query := `SELECT ` + placementColumns + `
		FROM placements
		WHERE user_id = $1
		ORDER BY placed_at DESC, id DESC
	`
	return r.queryPlacements(ctx, "failed to list user placements", query, userID)
}

// MarkPaid flags a placement as paid
func (r *PlacementRepository) MarkPaid(ctx context.Context, eventID int64, userID uuid.UUID) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE placements SET paid = TRUE WHERE event_id = $1 AND user_id = $2 AND paid = FALSE`,
		eventID, userID)
	if err != nil {
		return false, translateError(err, "failed to mark placement paid")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PlacementRepository) queryPlacements(ctx context.Context, action, query string, args ...any) ([]*entities.Placement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, action)
	}
	defer rows.Close()

	var list []*entities.Placement
	for rows.Next() {
		p, err := scanPlacement(rows)
		if err != nil {
			return nil, translateError(err, action)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, action)
	}
	return list, nil
}

func scanPlacement(row pgx.Row) (*entities.Placement, error) {
	var (
		p    entities.Placement
		side string
	)
	if err := row.Scan(&p.ID, &p.EventID, &p.UserID, &side, &p.Amount, &p.Paid, &p.PlacedAt); err != nil {
		return nil, err
	}
	p.Side = entities.Side(side)
	return &p, nil
}
