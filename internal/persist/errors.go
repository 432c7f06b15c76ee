package persist

import (
	"errors"
	"fmt"
)

// LoadErrorCode categorizes why a durable payload could not be used.
type LoadErrorCode string

const (
	// ErrCodeNotFound indicates the key has never been written.
	ErrCodeNotFound LoadErrorCode = "NOT_FOUND"

	// ErrCodeRead indicates the backing store failed to return the payload.
	ErrCodeRead LoadErrorCode = "READ"

	// ErrCodeCorrupt indicates the payload is not a JSON array of lines.
	ErrCodeCorrupt LoadErrorCode = "CORRUPT"

	// ErrCodeSchema indicates the payload decoded but violates #Cart.
	ErrCodeSchema LoadErrorCode = "SCHEMA"
)

// LoadError describes a failed read-through. The adapter logs it and falls
// back to an empty cart; it is returned from Load only for observability.
type LoadError struct {
	Code LoadErrorCode
	Key  string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: load %q: %v", e.Code, e.Key, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsCorrupt reports whether err is a LoadError for an unusable payload.
// Uses errors.As to handle wrapped errors.
func IsCorrupt(err error) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code == ErrCodeCorrupt || le.Code == ErrCodeSchema
	}
	return false
}
