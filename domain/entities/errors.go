package entities

import "errors"

var (
	// ErrConflict marks a write that lost a race and may be retried
	ErrConflict = errors.New("concurrent update conflict")

	// ErrDuplicatePlacement is returned by storage when the (event, user) uniqueness is violated
	ErrDuplicatePlacement = errors.New("placement already exists for this user and event")

	// ErrEventNotFound is returned when an event does not exist
	ErrEventNotFound = errors.New("event not found")

	// ErrCorruptEvent marks an event whose pools disagree with its placements
	ErrCorruptEvent = errors.New("event pools do not match placements")
)
