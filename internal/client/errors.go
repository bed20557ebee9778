package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the server has no employee with that id.
	ErrNotFound = errors.New("employee not found")
	// ErrNothingToDelete indicates delete-all ran against an already-empty
	// directory. It is a distinct outcome, not a transport failure.
	ErrNothingToDelete = errors.New("no employees to delete")
)

// TransportError wraps a failed remote call with the operation that issued
// it. The underlying cause is never swallowed; callers unwrap it with
// errors.Is / errors.As.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
