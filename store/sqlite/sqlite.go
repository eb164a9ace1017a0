/*
Package sqlite provides a SQLite-backed implementation of attendance.Store.

PURPOSE:
  Implements all persistence interfaces (EmployeeStore, ScheduleStore,
  RecordStore, CompanyStateStore) using SQLite. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  employees:              Worker records with contract period/status text
  work_schedules:         One row per (employee, date), tasks as JSON
  work_records:           Clock-in/clock-out sessions
  company_schedule_state: Last weekly-issuance timestamp per company
  notification_log:       Append-only delivery attempt outcomes

UNIQUENESS:
  - work_schedules has PRIMARY KEY (employee_id, date): regeneration is an
    UPSERT and can never duplicate a day.
  - idx_unique_inprogress is a partial unique index on (employee_id, date)
    WHERE status = 'IN_PROGRESS'. The service deliberately does not guard
    against concurrent duplicate session starts; this index is the
    storage-level mitigation.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - attendance/store.go: Interface definitions
  - attendance/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/attendance-engine/attendance"
)

// Store implements attendance.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT,
		contract_period TEXT NOT NULL DEFAULT '',
		contract_status TEXT NOT NULL DEFAULT 'DRAFT',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_employees_company ON employees(company_id);

	CREATE TABLE IF NOT EXISTS work_schedules (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		tasks TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, date)
	);

	CREATE TABLE IF NOT EXISTS work_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_records_employee_date ON work_records(employee_id, date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_inprogress
		ON work_records(employee_id, date) WHERE status = 'IN_PROGRESS';

	CREATE TABLE IF NOT EXISTS company_schedule_state (
		company_id TEXT PRIMARY KEY,
		last_issued_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS notification_log (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		trigger_kind TEXT NOT NULL,
		delivered INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		run_id TEXT NOT NULL DEFAULT '',
		attempted_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notifications_employee_date
		ON notification_log(employee_id, date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) GetEmployee(ctx context.Context, id attendance.EmployeeID) (*attendance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, name, email, contract_period, contract_status, created_at
		FROM employees WHERE id = ?`, string(id))

	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return emp, nil
}

func (s *Store) ListEmployeesByCompany(ctx context.Context, companyID attendance.CompanyID) ([]attendance.Employee, error) {
	return s.listEmployees(ctx, `
		SELECT id, company_id, name, email, contract_period, contract_status, created_at
		FROM employees WHERE company_id = ? ORDER BY id`, string(companyID))
}

func (s *Store) ListEmployees(ctx context.Context) ([]attendance.Employee, error) {
	return s.listEmployees(ctx, `
		SELECT id, company_id, name, email, contract_period, contract_status, created_at
		FROM employees ORDER BY id`)
}

func (s *Store) listEmployees(ctx context.Context, query string, args ...any) ([]attendance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []attendance.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("list employees: %w", err)
		}
		out = append(out, *emp)
	}
	return out, rows.Err()
}

func (s *Store) SaveEmployee(ctx context.Context, e attendance.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, company_id, name, email, contract_period, contract_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_id = excluded.company_id,
			name = excluded.name,
			email = excluded.email,
			contract_period = excluded.contract_period,
			contract_status = excluded.contract_status`,
		string(e.ID), string(e.CompanyID), e.Name, e.Email,
		e.ContractPeriod, string(e.ContractStatus), e.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save employee: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*attendance.Employee, error) {
	var (
		e         attendance.Employee
		id        string
		companyID string
		status    string
		createdAt string
	)
	if err := row.Scan(&id, &companyID, &e.Name, &e.Email, &e.ContractPeriod, &status, &createdAt); err != nil {
		return nil, err
	}
	e.ID = attendance.EmployeeID(id)
	e.CompanyID = attendance.CompanyID(companyID)
	e.ContractStatus = attendance.ContractStatus(status)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		e.CreatedAt = t
	}
	return &e, nil
}

// =============================================================================
// SCHEDULES
// =============================================================================

func (s *Store) UpsertSchedule(ctx context.Context, ws attendance.WorkSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := json.Marshal(ws.Tasks)
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO work_schedules (employee_id, date, tasks, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			tasks = excluded.tasks,
			updated_at = excluded.updated_at`,
		string(ws.EmployeeID), ws.Date.String(), string(tasks),
		ws.CreatedAt.Format(time.RFC3339), ws.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

func (s *Store) GetSchedule(ctx context.Context, employeeID attendance.EmployeeID, date attendance.Date) (*attendance.WorkSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT employee_id, date, tasks, created_at, updated_at
		FROM work_schedules WHERE employee_id = ? AND date = ?`,
		string(employeeID), date.String())

	ws, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return ws, nil
}

func (s *Store) ListSchedulesRange(ctx context.Context, employeeID attendance.EmployeeID, from, to attendance.Date) ([]attendance.WorkSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, date, tasks, created_at, updated_at
		FROM work_schedules
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		string(employeeID), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var out []attendance.WorkSchedule
	for rows.Next() {
		ws, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("list schedules: %w", err)
		}
		out = append(out, *ws)
	}
	return out, rows.Err()
}

func scanSchedule(row rowScanner) (*attendance.WorkSchedule, error) {
	var (
		ws         attendance.WorkSchedule
		employeeID string
		date       string
		tasks      string
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(&employeeID, &date, &tasks, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	ws.EmployeeID = attendance.EmployeeID(employeeID)
	d, err := attendance.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", date, err)
	}
	ws.Date = d
	if err := json.Unmarshal([]byte(tasks), &ws.Tasks); err != nil {
		return nil, fmt.Errorf("bad tasks payload: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		ws.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		ws.UpdatedAt = t
	}
	return &ws, nil
}

// =============================================================================
// WORK RECORDS
// =============================================================================

func (s *Store) CreateRecord(ctx context.Context, rec attendance.WorkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var endTime any
	if rec.EndTime != nil {
		endTime = rec.EndTime.Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO work_records (id, employee_id, date, start_time, end_time, duration_minutes, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.ID), string(rec.EmployeeID), rec.Date.String(),
		rec.StartTime.Format(time.RFC3339), endTime,
		rec.DurationMinutes, string(rec.Status), rec.Notes)
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

func (s *Store) GetRecord(ctx context.Context, id attendance.RecordID) (*attendance.WorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, date, start_time, end_time, duration_minutes, status, notes
		FROM work_records WHERE id = ?`, string(id))

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

func (s *Store) UpdateRecord(ctx context.Context, rec attendance.WorkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var endTime any
	if rec.EndTime != nil {
		endTime = rec.EndTime.Format(time.RFC3339)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE work_records
		SET end_time = ?, duration_minutes = ?, status = ?, notes = ?
		WHERE id = ?`,
		endTime, rec.DurationMinutes, string(rec.Status), rec.Notes, string(rec.ID))
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.ErrRecordNotFound
	}
	return nil
}

func (s *Store) GetRecordByDate(ctx context.Context, employeeID attendance.EmployeeID, date attendance.Date) (*attendance.WorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, date, start_time, end_time, duration_minutes, status, notes
		FROM work_records WHERE employee_id = ? AND date = ?
		ORDER BY start_time DESC LIMIT 1`,
		string(employeeID), date.String())

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record by date: %w", err)
	}
	return rec, nil
}

func (s *Store) ListRecordsRange(ctx context.Context, employeeID attendance.EmployeeID, from, to attendance.Date) ([]attendance.WorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, start_time, end_time, duration_minutes, status, notes
		FROM work_records
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		string(employeeID), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []attendance.WorkRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanRecord(row rowScanner) (*attendance.WorkRecord, error) {
	var (
		rec        attendance.WorkRecord
		id         string
		employeeID string
		date       string
		startTime  string
		endTime    sql.NullString
		status     string
	)
	if err := row.Scan(&id, &employeeID, &date, &startTime, &endTime, &rec.DurationMinutes, &status, &rec.Notes); err != nil {
		return nil, err
	}
	rec.ID = attendance.RecordID(id)
	rec.EmployeeID = attendance.EmployeeID(employeeID)
	rec.Status = attendance.RecordStatus(status)

	d, err := attendance.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", date, err)
	}
	rec.Date = d

	start, err := time.Parse(time.RFC3339, startTime)
	if err != nil {
		return nil, fmt.Errorf("bad start_time %q: %w", startTime, err)
	}
	rec.StartTime = start

	if endTime.Valid {
		end, err := time.Parse(time.RFC3339, endTime.String)
		if err != nil {
			return nil, fmt.Errorf("bad end_time %q: %w", endTime.String, err)
		}
		rec.EndTime = &end
	}
	return &rec, nil
}

// =============================================================================
// COMPANY SCHEDULE STATE
// =============================================================================

func (s *Store) GetCompanyState(ctx context.Context, companyID attendance.CompanyID) (attendance.CompanyScheduleState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := attendance.CompanyScheduleState{CompanyID: companyID}

	var lastIssued string
	err := s.db.QueryRowContext(ctx, `
		SELECT last_issued_at FROM company_schedule_state WHERE company_id = ?`,
		string(companyID)).Scan(&lastIssued)
	if err == sql.ErrNoRows {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("get company state: %w", err)
	}

	t, err := time.Parse(time.RFC3339, lastIssued)
	if err != nil {
		return st, fmt.Errorf("bad last_issued_at %q: %w", lastIssued, err)
	}
	st.LastIssuedAt = &t
	return st, nil
}

func (s *Store) SetLastIssuedAt(ctx context.Context, companyID attendance.CompanyID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO company_schedule_state (company_id, last_issued_at)
		VALUES (?, ?)
		ON CONFLICT(company_id) DO UPDATE SET last_issued_at = excluded.last_issued_at`,
		string(companyID), at.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set last issued: %w", err)
	}
	return nil
}

// =============================================================================
// NOTIFICATION LOG
// =============================================================================

func (s *Store) AppendNotification(ctx context.Context, entry attendance.NotificationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delivered := 0
	if entry.Delivered {
		delivered = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_log (id, employee_id, date, trigger_kind, delivered, reason, run_id, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.EmployeeID), entry.Date.String(), string(entry.Trigger),
		delivered, entry.Reason, entry.RunID, entry.AttemptedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

func (s *Store) ListNotificationsRange(ctx context.Context, employeeID attendance.EmployeeID, from, to attendance.Date) ([]attendance.NotificationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, trigger_kind, delivered, reason, run_id, attempted_at
		FROM notification_log
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY attempted_at`,
		string(employeeID), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []attendance.NotificationEntry
	for rows.Next() {
		var (
			e           attendance.NotificationEntry
			employee    string
			date        string
			trigger     string
			delivered   int
			attemptedAt string
		)
		if err := rows.Scan(&e.ID, &employee, &date, &trigger, &delivered, &e.Reason, &e.RunID, &attemptedAt); err != nil {
			return nil, fmt.Errorf("list notifications: %w", err)
		}
		e.EmployeeID = attendance.EmployeeID(employee)
		d, err := attendance.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("bad date %q: %w", date, err)
		}
		e.Date = d
		e.Trigger = attendance.NotificationTrigger(trigger)
		e.Delivered = delivered != 0
		if t, err := time.Parse(time.RFC3339, attemptedAt); err == nil {
			e.AttemptedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
