package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for caller-side conditions. Store failures are wrapped in
// RepositoryError so the original cause stays reachable via errors.As/Unwrap.
var (
	ErrNotAuthenticated = errors.New("no authenticated user")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// RepositoryError wraps any underlying store failure (network, permission,
// constraint). The repository never retries; callers decide.
type RepositoryError struct {
	Op    string
	Cause error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository: %s: %v", e.Op, e.Cause)
}

func (e *RepositoryError) Unwrap() error { return e.Cause }

// Repository wraps err as a RepositoryError. Returns nil for nil err.
func Repository(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RepositoryError{Op: op, Cause: err}
}

// InvalidArgument returns an ErrInvalidArgument with a human-readable reason.
func InvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

// NotAuthenticated returns ErrNotAuthenticated annotated with the operation.
func NotAuthenticated(op string) error {
	return fmt.Errorf("%w: %s", ErrNotAuthenticated, op)
}
