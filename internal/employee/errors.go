package employee

import "errors"

var (
	// ErrNotFound indicates no employee has the requested id.
	ErrNotFound = errors.New("employee not found")
	// ErrNothingToDelete indicates delete-all ran against an empty store.
	// It is a distinct outcome, not a failure of the operation itself.
	ErrNothingToDelete = errors.New("no employees to delete")
)
