package core

import (
	"errors"
	"fmt"

	"github.com/wansing/healthregistry/auth"
)

// Error kinds. Errors returned by CoreDB wrap exactly one of them, or are a *CollaboratorError.
var (
	ErrUnauthenticated   = auth.ErrUnauthenticated
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidArgument   = errors.New("invalid argument")
)

// CollaboratorError wraps a failure of the persistence store or another external service.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func collaboratorFailure(op string, err error) error {
	return &CollaboratorError{Op: op, Err: err}
}

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// IsKind returns true if err wraps one of the error kinds or is a *CollaboratorError.
func IsKind(err error) bool {
	var collaboratorErr *CollaboratorError
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.As(err, &collaboratorErr)
}

// Message returns the message which is shown to the user when err occurs.
func Message(err error) string {
	var collaboratorErr *CollaboratorError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated):
		return "Please log in."
	case errors.Is(err, ErrForbidden):
		return "You are not allowed to do that."
	case errors.Is(err, ErrNotFound):
		return "The record was not found in your municipality."
	case errors.Is(err, ErrInvalidTransition):
		return "The assessment has already been reviewed."
	case errors.Is(err, ErrInvalidArgument):
		return "Invalid input: " + trimKind(err.Error(), ErrInvalidArgument)
	case errors.As(err, &collaboratorErr):
		return "The database is not available, please try again later."
	default:
		return err.Error()
	}
}

// trimKind removes the "kind: " prefix which invalidArgument adds.
func trimKind(msg string, kind error) string {
	var prefix = kind.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
