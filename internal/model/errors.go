package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a document is absent.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyRegistered is returned when the user side already links the event.
	ErrAlreadyRegistered = errors.New("user already registered for this event")
	// ErrAlreadyExists is returned when an id is already linked as created.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotRegistered is returned when unregistering a link that is absent on the user side.
	ErrNotRegistered = errors.New("user not registered for this event")
	// ErrPartialWrite is matched by errors describing a dual write where one side failed.
	ErrPartialWrite = errors.New("partial write")
	// ErrRemoteUnavailable is returned on transport level failures of remote stores.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	// ErrValidation is matched by ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrPermissionDenied is returned when a user modifies an event they do not own.
	ErrPermissionDenied = errors.New("permission denied")
)

// Side names one of the two documents of a dual write.
type Side string

const (
	SideUser  Side = "user"
	SideEvent Side = "event"
)

// PartialWriteError reports that one side of a dual write was persisted and the other was not.
type PartialWriteError struct {
	Op         string
	FailedSide Side
	Err        error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s: %s side not written: %v", e.Op, e.FailedSide, e.Err)
}

func (e *PartialWriteError) Unwrap() []error {
	return []error{ErrPartialWrite, e.Err}
}

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CascadeFailure is a single failed step of a cascade delete.
type CascadeFailure struct {
	UserID string
	Err    error
}

// CascadeError collects the failed removals of DeleteEventCascade. The event
// document itself has been deleted when this error is returned.
type CascadeError struct {
	EventID  string
	Failures []CascadeFailure
}

func (e *CascadeError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.UserID, f.Err))
	}
	return fmt.Sprintf("event %s deleted, %d link removals failed: %s", e.EventID, len(e.Failures), strings.Join(parts, "; "))
}

func (e *CascadeError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, ErrPartialWrite)
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
