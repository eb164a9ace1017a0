/*
Package attendance implements the attendance and weekly scheduling engine.

PURPOSE:
  This package contains the domain logic for deciding when an employee may
  work, issuing a week of task assignments, tracking clock-in/clock-out
  sessions, and deriving a per-day attendance status for display.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: Worker under a labor contract, owned by a company
  - WorkSchedule: Task assignments for one employee on one calendar day
  - WorkRecord: Clock-in/clock-out record for one employee on one day
  - DerivedDayStatus: Computed attendance label (never persisted)

DESIGN PRINCIPLES:
  1. Derivation over storage: day statuses are recomputed on every read
  2. Type safety: strong typing for employee/company/record identifiers
  3. Calendar dates are a first-class value type (see date.go), never raw
     timestamps compared ad hoc

SEE ALSO:
  - contract.go: Contract period parsing and eligibility
  - schedule.go: Weekly schedule generation
  - session.go: Work session state machine
  - status.go: Status derivation matrix
*/
package attendance

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type CompanyID string
type RecordID string

// =============================================================================
// EMPLOYEE - Read-only to this engine; mutated by the contract subsystem
// =============================================================================

type ContractStatus string

const (
	ContractDraft     ContractStatus = "DRAFT"
	ContractSent      ContractStatus = "SENT"
	ContractCompleted ContractStatus = "COMPLETED"
)

// Employee is a worker registered by a company admin. Only employees whose
// contract has been countersigned (ContractCompleted) participate in
// scheduling.
type Employee struct {
	ID        EmployeeID
	CompanyID CompanyID
	Name      string
	Email     string

	// ContractPeriod is the free-text date range from the signed contract,
	// e.g. "2026.01.02 ~ 2027.01.01". Parsed lazily via ParsePeriod; a
	// malformed value means "never eligible", not an error.
	ContractPeriod string
	ContractStatus ContractStatus

	CreatedAt time.Time
}

// Eligible reports whether the employee can be scheduled at all.
func (e Employee) Eligible() bool {
	return e.ContractStatus == ContractCompleted
}

// =============================================================================
// WORK SCHEDULE - One row per (employee, date)
// =============================================================================

// WorkSchedule is the ordered task list assigned to an employee for a single
// calendar day. Unique per (EmployeeID, Date); regenerating a week overwrites
// the task list in place rather than inserting a second row.
type WorkSchedule struct {
	EmployeeID EmployeeID
	Date       Date
	Tasks      []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// =============================================================================
// WORK RECORD - Clock-in/clock-out for one day
// =============================================================================

type RecordStatus string

const (
	RecordInProgress RecordStatus = "IN_PROGRESS"
	RecordCompleted  RecordStatus = "COMPLETED"
)

// WorkRecord is one work session. Created by StartSession, mutated exactly
// once by EndSession. DurationMinutes is meaningful only when Status is
// RecordCompleted; a completed zero-minute session is valid and counts
// toward weekly totals.
type WorkRecord struct {
	ID         RecordID
	EmployeeID EmployeeID
	Date       Date
	StartTime  time.Time
	EndTime    *time.Time
	// DurationMinutes = floor((EndTime - StartTime) / 1 minute).
	DurationMinutes int
	Status          RecordStatus
	Notes           string
}

// =============================================================================
// COMPANY SCHEDULE STATE - Gate bookkeeping
// =============================================================================

// CompanyScheduleState records when a company last issued weekly assignments.
// Advanced only after a batch issuance with at least one per-employee success.
type CompanyScheduleState struct {
	CompanyID    CompanyID
	LastIssuedAt *time.Time
}

// =============================================================================
// NOTIFICATION LOG - Delivery attempt audit trail
// =============================================================================

// NotificationTrigger names what caused a delivery attempt.
type NotificationTrigger string

const (
	TriggerBatch NotificationTrigger = "batch"
	TriggerTick  NotificationTrigger = "tick"
)

// NotificationEntry records one delivery attempt to an employee. Delivery
// itself happens behind the Notifier interface; the engine only keeps the
// outcome so batch reports and dashboards can show it.
type NotificationEntry struct {
	ID         string
	EmployeeID EmployeeID

	// Date is the day the delivered tasks belong to: the week start for a
	// batch attempt, the tick day for a daily re-delivery.
	Date    Date
	Trigger NotificationTrigger

	Delivered bool
	// Reason is empty on success, the delivery error text otherwise.
	Reason string

	// RunID ties a batch attempt back to its BatchResult; empty for ticks.
	RunID string

	AttemptedAt time.Time
}

// =============================================================================
// DERIVED DAY STATUS - Computed, never persisted
// =============================================================================

type DayStatus string

const (
	StatusNone       DayStatus = "none"
	StatusScheduled  DayStatus = "scheduled"
	StatusInProgress DayStatus = "in_progress"
	StatusCompleted  DayStatus = "completed"
	StatusAbsent     DayStatus = "absent"
)

// DerivedDayStatus is the computed attendance state for one employee/day.
// It has no independent lifecycle: every read recomputes it from the
// schedule row, the work record, the contract period and "now".
type DerivedDayStatus struct {
	EmployeeID EmployeeID
	Date       Date
	Status     DayStatus

	// Minutes is the completed duration, or the live elapsed time for an
	// in-progress session (recomputed against "now" on every evaluation).
	Minutes int

	// Tasks is the union of the day's scheduled tasks and any
	// newline-delimited lines in the record's notes.
	Tasks []string
}
