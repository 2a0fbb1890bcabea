package extractions

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("extraction not found")
	ErrValidation = errors.New("validation failed")
	// ErrTransient marks store failures that a fresh attempt may resolve:
	// serialization conflicts, deadlocks, lock timeouts, dropped connections.
	ErrTransient = errors.New("transient store failure")
)

// ValidationError names the offending field. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
