package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of them;
// handlers map kinds to status codes with errors.Is.
var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrBlockchainUnavailable = errors.New("blockchain unavailable")
	ErrIO                    = errors.New("file storage failed")
	ErrPersistence           = errors.New("persistence failed")
	ErrConflict              = errors.New("already exists")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func wrap(kind error, op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", kind, op, cause)
}
