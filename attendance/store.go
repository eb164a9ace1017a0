/*
store.go - Persistence interfaces for the attendance engine

PURPOSE:
  Defines the interface between the engine and the database. Different
  implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  EmployeeStore:     Employee reads (and writes, for seeding/admin)
  ScheduleStore:     WorkSchedule upsert and range queries
  RecordStore:       WorkRecord create/update and range queries
  CompanyStateStore: Last-issued bookkeeping for the notification gate
  NotificationStore: Append-only delivery attempt log
  Store:             All of the above

UPSERT CONTRACT:
  ScheduleStore.UpsertSchedule is the only schedule write path. It keys on
  (EmployeeID, Date): an existing row gets its task list overwritten, a
  missing row is inserted. This is what makes weekly regeneration
  row-count idempotent.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go:      Production SQLite
  - attendance/store/memory.go:  In-memory for testing/dev
*/
package attendance

import (
	"context"
	"time"
)

// =============================================================================
// STORE INTERFACES
// =============================================================================

type EmployeeStore interface {
	// GetEmployee returns (nil, nil) when the employee does not exist.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	// ListEmployeesByCompany returns all employees of a company, any
	// contract status.
	ListEmployeesByCompany(ctx context.Context, companyID CompanyID) ([]Employee, error)

	// ListEmployees returns every employee. Used by the daily tick.
	ListEmployees(ctx context.Context) ([]Employee, error)

	SaveEmployee(ctx context.Context, e Employee) error
}

type ScheduleStore interface {
	// UpsertSchedule inserts or overwrites the row for (EmployeeID, Date).
	UpsertSchedule(ctx context.Context, ws WorkSchedule) error

	// GetSchedule returns (nil, nil) when no row exists for the day.
	GetSchedule(ctx context.Context, employeeID EmployeeID, date Date) (*WorkSchedule, error)

	// ListSchedulesRange returns rows with from <= Date <= to, date-ordered.
	ListSchedulesRange(ctx context.Context, employeeID EmployeeID, from, to Date) ([]WorkSchedule, error)
}

type RecordStore interface {
	CreateRecord(ctx context.Context, rec WorkRecord) error

	// GetRecord returns (nil, nil) when the record does not exist.
	GetRecord(ctx context.Context, id RecordID) (*WorkRecord, error)

	// UpdateRecord overwrites an existing record by ID.
	UpdateRecord(ctx context.Context, rec WorkRecord) error

	// GetRecordByDate returns the record for (EmployeeID, Date), or
	// (nil, nil). The service does not guard against duplicate starts; if
	// duplicates exist this returns the most recently started one.
	GetRecordByDate(ctx context.Context, employeeID EmployeeID, date Date) (*WorkRecord, error)

	// ListRecordsRange returns records with from <= Date <= to, date-ordered.
	ListRecordsRange(ctx context.Context, employeeID EmployeeID, from, to Date) ([]WorkRecord, error)
}

type CompanyStateStore interface {
	// GetCompanyState never fails for unknown companies; it returns a
	// state with a nil LastIssuedAt.
	GetCompanyState(ctx context.Context, companyID CompanyID) (CompanyScheduleState, error)

	SetLastIssuedAt(ctx context.Context, companyID CompanyID, at time.Time) error
}

type NotificationStore interface {
	// AppendNotification records one delivery attempt. Entries are
	// append-only; there is no update path.
	AppendNotification(ctx context.Context, entry NotificationEntry) error

	// ListNotificationsRange returns entries with from <= Date <= to for
	// the employee, ordered by AttemptedAt.
	ListNotificationsRange(ctx context.Context, employeeID EmployeeID, from, to Date) ([]NotificationEntry, error)
}

// Store is the full persistence surface the engine needs.
type Store interface {
	EmployeeStore
	ScheduleStore
	RecordStore
	CompanyStateStore
	NotificationStore
}

// =============================================================================
// NOTIFIER - External delivery channel (out of scope beyond the call)
// =============================================================================

// Notifier delivers a day's task list to an employee. Transport is an
// external collaborator; the engine only decides whether and when to call
// it, and how to interpret a failure for reporting.
type Notifier interface {
	Notify(ctx context.Context, employeeID EmployeeID, date Date, tasks []string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, employeeID EmployeeID, date Date, tasks []string) error

func (f NotifierFunc) Notify(ctx context.Context, employeeID EmployeeID, date Date, tasks []string) error {
	return f(ctx, employeeID, date, tasks)
}
