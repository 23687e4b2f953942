package store

import "errors"

var (
	// ErrNotFound is returned by mutations targeting a nonexistent message.
	// Delete is the deliberate exception: deleting a missing record is a no-op.
	ErrNotFound = errors.New("message not found")
	// ErrInvalidOp is returned when a reaction op is neither add nor remove.
	ErrInvalidOp = errors.New("op must be add or remove")
)
