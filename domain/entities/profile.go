package entities

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the display name of an externally authenticated user
type Profile struct {
	ID        uuid.UUID `db:"id"`
	Username  string    `db:"username"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
