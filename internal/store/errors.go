package store

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("resource not found")
	ErrInvariant  = errors.New("invariant violation")
)

func validationError(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, reason)
}

func notFoundError(resource, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func invariantError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

func IsValidationError(err error) bool { return errors.Is(err, ErrValidation) }
func IsNotFoundError(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsInvariantError(err error) bool  { return errors.Is(err, ErrInvariant) }
