/*
errors.go - Centralized error types for the duty-roster engine

PURPOSE:
  All failure types in one place. Services return the structured errors
  below; callers branch with errors.Is on the sentinels or errors.As on the
  structs when they need the details.

ERROR CATEGORIES:
  1. Validation   - malformed input, never partially applied
  2. Transition   - state machine move not allowed from the current state
  3. Conflict     - overlapping leave, double-booked duty
  4. Eligibility  - duty booking for a person who is not ACTIVE
  5. Store        - missing rows, lost compare-and-swap

USAGE:
  req, err := svc.Approve(ctx, id, "hq-admin")
  var trErr *core.InvalidTransitionError
  if errors.As(err, &trErr) {
      // trErr.From tells what state the request was in
  }
*/
package core

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is matched by every input validation failure, including
	// leave overlap.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when a leave request cannot move to
	// the requested state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrOverlap is returned when a leave request overlaps an active one.
	ErrOverlap = errors.New("overlapping leave request")

	// ErrDuplicateAssignment is returned when a duty slot is already booked
	// for the person.
	ErrDuplicateAssignment = errors.New("duplicate duty assignment")

	// ErrIneligible is returned when booking duty for a person whose current
	// assignment is not ACTIVE.
	ErrIneligible = errors.New("person not eligible for duty")

	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification is returned when a compare-and-swap write
	// finds the row changed since it was read.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationCause says which rule a ValidationError broke.
type ValidationCause string

const (
	CauseMissingField ValidationCause = "missing_field"
	CauseInvalidValue ValidationCause = "invalid_value"
	CauseDateOrder    ValidationCause = "date_order"
	CauseOverlap      ValidationCause = "overlap"
)

// ValidationError describes a malformed creation or submission input.
type ValidationError struct {
	Field   string
	Cause   ValidationCause
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s (%s): %s", e.Field, e.Cause, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Missing builds a missing-field ValidationError.
func Missing(field string) *ValidationError {
	return &ValidationError{Field: field, Cause: CauseMissingField, Message: field + " is required"}
}

// Invalid builds an invalid-value ValidationError.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Cause: CauseInvalidValue, Message: fmt.Sprintf(format, args...)}
}

// OverlapError reports the existing request that blocks a new one. It
// matches both ErrOverlap and ErrValidation.
type OverlapError struct {
	PersonID       PersonID
	Requested      Period
	Existing       LeaveRequestID
	ExistingPeriod Period
	Status         LeaveStatus
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("leave %s for %s overlaps %s request %s %s",
		e.Requested, e.PersonID, e.Status, e.Existing, e.ExistingPeriod)
}

func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlap || target == ErrValidation
}

// Cause lets callers treat OverlapError like a ValidationError.
func (e *OverlapError) Cause() ValidationCause { return CauseOverlap }

// InvalidTransitionError reports a rejected state machine move. No mutation
// happened.
type InvalidTransitionError struct {
	RequestID LeaveRequestID
	From      LeaveStatus
	To        LeaveStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("leave request %s cannot move from %s to %s", e.RequestID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// DuplicateAssignmentError reports an already booked (person, date, shift).
type DuplicateAssignmentError struct {
	PersonID PersonID
	Date     Date
	Shift    Shift
}

func (e *DuplicateAssignmentError) Error() string {
	return fmt.Sprintf("%s already booked for %s shift on %s", e.PersonID, e.Shift, e.Date)
}

func (e *DuplicateAssignmentError) Unwrap() error { return ErrDuplicateAssignment }

// IneligibleError reports a duty booking for someone not ACTIVE. Status is
// empty when the person has no assignment at all.
type IneligibleError struct {
	PersonID PersonID
	Status   AssignmentStatus
}

func (e *IneligibleError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("%s has no current assignment", e.PersonID)
	}
	return fmt.Sprintf("%s is %s, not %s", e.PersonID, e.Status, AssignmentActive)
}

func (e *IneligibleError) Unwrap() error { return ErrIneligible }

// NotFound wraps ErrNotFound with the kind and key of the missing row.
func NotFound(kind string, id any) error {
	return fmt.Errorf("%s %v: %w", kind, id, ErrNotFound)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to the caller's input or
// the current state of the entity.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrDuplicateAssignment) ||
		errors.Is(err, ErrIneligible)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
