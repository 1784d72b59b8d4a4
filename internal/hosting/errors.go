package hosting

import (
	"errors"
	"fmt"
)

// ErrProviderNotFound is matched by every provider resolution failure
var ErrProviderNotFound = errors.New("provider not found")

// ProviderNotFoundError reports why a hosting provider could not be resolved.
// Cause holds the underlying failure, if any.
type ProviderNotFoundError struct {
	Message string
	Cause   error
}

func (e *ProviderNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *ProviderNotFoundError) Unwrap() error {
	return e.Cause
}

// Is makes every ProviderNotFoundError match ErrProviderNotFound
func (e *ProviderNotFoundError) Is(target error) bool {
	return target == ErrProviderNotFound
}

func notFound(cause error, format string, args ...any) error {
	return &ProviderNotFoundError{
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}
