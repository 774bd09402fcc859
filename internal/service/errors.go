package service

import (
	"errors"
	"fmt"

	"github.com/storedesk/helpdesk/internal/assistant"
	"github.com/storedesk/helpdesk/internal/repository"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = repository.ErrNotFound

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState is returned when an operation is illegal in the
	// entity's current state.
	ErrInvalidState = fmt.Errorf("%w: invalid state", ErrValidation)

	// ErrUpstream is returned when the AI provider fails.
	ErrUpstream = assistant.ErrUpstream
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
