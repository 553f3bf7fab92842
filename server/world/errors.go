package world

import "errors"

var (
	// ErrResourceUnavailable is returned when an operation needs a resource,
	// such as an entity to clone or a world to add it to, that is not
	// available.
	ErrResourceUnavailable = errors.New("resource unavailable")
	// ErrInvariantViolation is returned when an operation would break an
	// invariant of the world, such as a cycle in the entity hierarchy.
	ErrInvariantViolation = errors.New("invariant violation")
)
