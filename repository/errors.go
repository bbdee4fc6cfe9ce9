package repository

import (
	"errors"
	"fmt"

	"peerbets/domain/entities"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	placementsEventUserKey = "placements_event_user_key"
)

// translateError maps Postgres errors onto domain errors callers can branch on
func translateError(err error, action string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == placementsEventUserKey {
				return fmt.Errorf("%s: %w", action, entities.ErrDuplicatePlacement)
			}
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%s: %w: %v", action, entities.ErrConflict, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", action, err)
}
