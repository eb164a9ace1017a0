/*
session.go - Work session state machine

PURPOSE:
  Tracks the clock-in/clock-out lifecycle of one employee's work day:

    NOT_STARTED -> IN_PROGRESS -> COMPLETED

  COMPLETED is terminal; there is no cancel/abort transition.

IMPLICIT NOT_STARTED:
  Upstream, "not started" is the absence of a WorkRecord row. SessionState
  makes that a first-class variant so the reconstruction logic lives here,
  once, instead of being re-derived in the service layer and again in
  reporting.

UNGUARDED CONCURRENT STARTS:
  StartSession does not check for an existing IN_PROGRESS record on the same
  day; two concurrent calls can create two records. Compatibility behavior,
  kept as-is in the service. The SQLite store carries a partial unique index
  as a storage-level mitigation; the memory store does not.
*/
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SESSION STATE - Tagged variant over record presence/status
// =============================================================================

type SessionState int

const (
	SessionNotStarted SessionState = iota
	SessionInProgress
	SessionCompleted
)

func (s SessionState) String() string {
	switch s {
	case SessionInProgress:
		return "IN_PROGRESS"
	case SessionCompleted:
		return "COMPLETED"
	default:
		return "NOT_STARTED"
	}
}

// SessionStateOf derives the state from a record lookup result. A nil record
// is the implicit NOT_STARTED state.
func SessionStateOf(rec *WorkRecord) SessionState {
	switch {
	case rec == nil:
		return SessionNotStarted
	case rec.Status == RecordCompleted:
		return SessionCompleted
	default:
		return SessionInProgress
	}
}

// =============================================================================
// TRACKER
// =============================================================================

// Tracker runs the session state machine over persisted records.
type Tracker struct {
	Employees EmployeeStore
	Records   RecordStore

	// Location decides which calendar date a start timestamp belongs to.
	Location *time.Location

	// NewID is injectable for tests; defaults to uuid.
	NewID func() RecordID
}

func NewTracker(employees EmployeeStore, records RecordStore) *Tracker {
	return &Tracker{
		Employees: employees,
		Records:   records,
		Location:  time.Local,
		NewID:     func() RecordID { return RecordID(uuid.NewString()) },
	}
}

// StartSession creates an IN_PROGRESS record keyed by the calendar date of
// startTime. It succeeds whenever the employee exists; it does not look for
// an existing in-progress record on the same day.
func (t *Tracker) StartSession(ctx context.Context, employeeID EmployeeID, startTime time.Time, notes string) (*WorkRecord, error) {
	emp, err := t.Employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	if emp == nil {
		return nil, fmt.Errorf("start session: %w", ErrEmployeeNotFound)
	}

	rec := WorkRecord{
		ID:         t.NewID(),
		EmployeeID: employeeID,
		Date:       DateOf(startTime, t.Location),
		StartTime:  startTime,
		Status:     RecordInProgress,
		Notes:      notes,
	}
	if err := t.Records.CreateRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return &rec, nil
}

// EndSession completes an in-progress session. It fails with an
// InvalidStateError if the record is already COMPLETED, and with
// ErrNegativeDuration if endTime precedes the recorded start. Notes, when
// non-empty, replace the record's notes.
func (t *Tracker) EndSession(ctx context.Context, recordID RecordID, endTime time.Time, notes string) (*WorkRecord, error) {
	rec, err := t.Records.GetRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("end session: %w", ErrRecordNotFound)
	}
	if rec.Status == RecordCompleted {
		return nil, &InvalidStateError{RecordID: recordID, State: rec.Status}
	}

	minutes := DurationMinutes(rec.StartTime, endTime)
	if minutes < 0 {
		return nil, fmt.Errorf("end session at %s: %w", endTime.Format(time.RFC3339), ErrNegativeDuration)
	}

	rec.EndTime = &endTime
	rec.DurationMinutes = minutes
	rec.Status = RecordCompleted
	if notes != "" {
		rec.Notes = notes
	}

	if err := t.Records.UpdateRecord(ctx, *rec); err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}
	return rec, nil
}

// DurationMinutes is floor((end - start) / 1 minute). Negative when end
// precedes start; callers must reject that, not clamp it.
func DurationMinutes(start, end time.Time) int {
	d := end.Sub(start)
	if d < 0 {
		// Floor toward negative infinity so -30s reports -1, not 0.
		return -int((-d + time.Minute - 1) / time.Minute)
	}
	return int(d / time.Minute)
}
