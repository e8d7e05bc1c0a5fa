package telemetry

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBody is returned when an event carries neither a non-empty
	// data.body nor a non-empty body mapping.
	ErrEmptyBody = errors.New("event body is empty or malformed")

	// ErrMissingKey is returned by writers when a record has no deviceId.
	ErrMissingKey = errors.New("deviceId is required")
)

// DecodeError reports a payload that could not be parsed as structured data.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s payload: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StoreWriteError reports a write rejected by, or not delivered to, a store.
type StoreWriteError struct {
	Projection string
	DeviceID   string
	Err        error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("failed to write %s for device %s: %v", e.Projection, e.DeviceID, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// StoreUnavailableError reports a store whose client never initialized or
// whose connection is down.
type StoreUnavailableError struct {
	Store string
	Err   error
}

func (e *StoreUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s is unavailable", e.Store)
	}
	return fmt.Sprintf("%s is unavailable: %v", e.Store, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// IsStoreError reports whether err is a StoreWriteError or StoreUnavailableError.
func IsStoreError(err error) bool {
	var writeErr *StoreWriteError
	var unavailableErr *StoreUnavailableError
	return errors.As(err, &writeErr) || errors.As(err, &unavailableErr)
}
