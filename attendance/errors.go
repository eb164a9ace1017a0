/*
errors.go - Centralized error types for the attendance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The api package maps these to HTTP statuses via the classification
  helpers at the bottom.

ERROR CATEGORIES:
  1. Not-found errors   - Unknown employee/company/record
  2. State errors       - Session state machine violations
  3. Gate errors        - Weekly issuance attempted while the gate is closed
  4. Dispatch errors    - Notification delivery failures (never fatal to a batch)

NOTE ON CONTRACT PARSING:
  Malformed contract periods are deliberately NOT an error anywhere in the
  engine. ParsePeriod returns nil and every eligibility check treats a nil
  period as "not eligible". A bad period string silently disables the
  employee rather than surfacing as an error.
*/
package attendance

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRecordNotFound is returned when a referenced work record doesn't exist.
	ErrRecordNotFound = errors.New("work record not found")

	// ErrSessionCompleted is returned when ending a session that is already
	// COMPLETED. The state machine has no transition out of COMPLETED.
	ErrSessionCompleted = errors.New("session already completed")

	// ErrNegativeDuration is returned when endTime precedes the session's
	// startTime. This indicates caller error and is never silently clamped.
	ErrNegativeDuration = errors.New("end time before start time")

	// ErrGateClosed is returned when a company re-triggers weekly issuance
	// before the gate reopens. Surfaced as "already issued this week".
	ErrGateClosed = errors.New("weekly assignments already issued this week")

	// ErrDispatchFailed wraps notification delivery failures. Batch
	// processing records these per employee; it never aborts on them.
	ErrDispatchFailed = errors.New("notification dispatch failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidStateError reports a rejected session transition.
type InvalidStateError struct {
	RecordID RecordID
	State    RecordStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("record %s is %s: session already completed", e.RecordID, e.State)
}

func (e *InvalidStateError) Unwrap() error { return ErrSessionCompleted }

// GateClosedError reports when a closed gate will reopen.
type GateClosedError struct {
	CompanyID CompanyID
	WeekStart Date
	OpensAt   time.Time
}

func (e *GateClosedError) Error() string {
	return fmt.Sprintf("company %s already issued assignments for week of %s; gate reopens %s",
		e.CompanyID, e.WeekStart, e.OpensAt.Format(time.RFC3339))
}

func (e *GateClosedError) Unwrap() error { return ErrGateClosed }

// DispatchError records a failed delivery attempt for one employee.
type DispatchError struct {
	EmployeeID EmployeeID
	Date       Date
	Err        error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %s for %s: %v", e.EmployeeID, e.Date, e.Err)
}

func (e *DispatchError) Unwrap() error { return ErrDispatchFailed }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrRecordNotFound)
}

// IsClientError returns true if the error is due to invalid client input or
// a rejected (but well-formed) action.
func IsClientError(err error) bool {
	return errors.Is(err, ErrSessionCompleted) ||
		errors.Is(err, ErrNegativeDuration) ||
		errors.Is(err, ErrGateClosed)
}

// IsInvalidState returns true for session state machine violations.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrSessionCompleted)
}
