package repository

import (
	"context"

	"peerbets/database"
	"peerbets/domain/entities"
	"peerbets/domain/interfaces"

	"github.com/google/uuid"
)

// ProfileRepository implements profile data access
type ProfileRepository struct {
	q Queryable
}

// NewProfileRepository creates a new profile repository backed by the connection pool
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{q: db.Pool}
}

// NewProfileRepositoryScoped creates a profile repository bound to a transaction
func NewProfileRepositoryScoped(tx Queryable) interfaces.ProfileRepository {
	return &ProfileRepository{q: tx}
}

// Upsert creates a profile or renames an existing one
func (r *ProfileRepository) Upsert(ctx context.Context, profile *entities.Profile) error {
	query := `
		INSERT INTO profiles (id, username)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username, updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query, profile.ID, profile.Username).
		Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return translateError(err, "failed to upsert profile")
	}
	return nil
}

// GetByIDs returns the profiles with the given IDs keyed by ID
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entities.Profile, error) {
	result := make(map[uuid.UUID]*entities.Profile)
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.q.Query(ctx,
		`SELECT id, username, created_at, updated_at FROM profiles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, translateError(err, "failed to get profiles")
	}
	defer rows.Close()

	for rows.Next() {
		var profile entities.Profile
		if err := rows.Scan(&profile.ID, &profile.Username, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
			return nil, translateError(err, "failed to scan profile")
		}
		result[profile.ID] = &profile
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "failed to get profiles")
	}
	return result, nil
}
