package common

import (
	"errors"
	"fmt"
	"strings"
)

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")

	// Event errors
	ErrEventNotFound      = errors.New("event not found")
	ErrEventFull          = errors.New("event is full")
	ErrAlreadyParticipant = errors.New("user is already a participant")
	ErrNotParticipant     = errors.New("user is not a participant")

	// Share errors
	ErrShareNotFound = errors.New("share not found")

	// Version errors
	ErrVersionNotFound = errors.New("version not found")

	// Permission errors
	ErrPermissionDenied = errors.New("permission denied")
)

// ValidationError signals malformed input: an unknown resolution strategy,
// a non-increasing version range, an invalid time range, and the like.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a specific field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// FieldConflict describes a single field whose current and incoming values
// disagree under the manual resolution strategy.
type FieldConflict struct {
	Field         string `json:"field"`
	CurrentValue  any    `json:"current_value"`
	IncomingValue any    `json:"incoming_value"`
}

// ManualResolutionError is returned when the manual strategy finds differing
// shared fields. The stored state is left untouched; the caller re-submits a
// disambiguated change set.
type ManualResolutionError struct {
	Conflicts []FieldConflict
}

func (e *ManualResolutionError) Error() string {
	fields := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		fields[i] = c.Field
	}
	return fmt.Sprintf("manual conflict resolution required: %s", strings.Join(fields, ", "))
}

// ScheduleConflictError is returned when a create/update/rollback would
// overlap one or more non-cancelled events. The operation is fully rejected.
type ScheduleConflictError struct {
	ConflictingIDs []string
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("event conflicts with %d existing events", len(e.ConflictingIDs))
}

// StorageError wraps a persistence failure so callers can distinguish it from
// domain errors. The original driver error stays reachable via Unwrap.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WrapStorage wraps err in a StorageError. A nil err stays nil.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
