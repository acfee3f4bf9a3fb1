package timeclock

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNotClockedIn     = errors.New("not clocked in")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports malformed input. It is always returned before the
// store is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// storeError wraps an unexpected store failure so callers can match
// ErrStoreUnavailable while keeping the cause for logs. Business-rule errors
// raised by the store pass through unchanged.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAlreadyClockedIn) || errors.Is(err, ErrNotClockedIn) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
