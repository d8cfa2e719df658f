package enrollment

import "errors"

var (
	// ErrInvalidInput covers malformed or out-of-range update fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden covers ownership and role mismatches.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound covers unknown enrollment or lesson ids.
	ErrNotFound = errors.New("not found")
	// ErrConflict covers duplicate enrollment for a (lesson, user) pair.
	ErrConflict = errors.New("already enrolled")
	// ErrLocked means the lesson deadline has passed and no redo is granted.
	// Clients should offer a redo request when they see this.
	ErrLocked = errors.New("lesson deadline has passed")
)
