package framecore

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when using an engine after Close.
	ErrClosed = errors.New("engine closed")
)

// ErrInvalidConfig indicates a configuration value that failed validation.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidConfig struct {
	Field  string
	Reason string
	cause  error
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

func (e *ErrInvalidConfig) Unwrap() error { return e.cause }

func invalidConfig(field, reason string, cause error) error {
	return &ErrInvalidConfig{Field: field, Reason: reason, cause: cause}
}
