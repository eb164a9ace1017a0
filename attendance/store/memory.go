// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements attendance.Store. Safe for concurrent use.
//
// Note: unlike the SQLite store, Memory carries no uniqueness guard against
// duplicate IN_PROGRESS records on the same day; every start creates a row
// and by-date lookup returns the most recent start.
type Memory struct {
	mu            sync.RWMutex
	employees     map[attendance.EmployeeID]attendance.Employee
	schedules     map[scheduleKey]attendance.WorkSchedule
	records       map[attendance.RecordID]attendance.WorkRecord
	state         map[attendance.CompanyID]time.Time
	notifications []attendance.NotificationEntry
}

type scheduleKey struct {
	EmployeeID attendance.EmployeeID
	Date       attendance.Date
}

func NewMemory() *Memory {
	return &Memory{
		employees: make(map[attendance.EmployeeID]attendance.Employee),
		schedules: make(map[scheduleKey]attendance.WorkSchedule),
		records:   make(map[attendance.RecordID]attendance.WorkRecord),
		state:     make(map[attendance.CompanyID]time.Time),
	}
}

// ---------------------------------------------------------------------------
// EmployeeStore

func (m *Memory) GetEmployee(_ context.Context, id attendance.EmployeeID) (*attendance.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) ListEmployeesByCompany(_ context.Context, companyID attendance.CompanyID) ([]attendance.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []attendance.Employee
	for _, e := range m.employees {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	sortEmployees(out)
	return out, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]attendance.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]attendance.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	sortEmployees(out)
	return out, nil
}

func (m *Memory) SaveEmployee(_ context.Context, e attendance.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

func sortEmployees(es []attendance.Employee) {
	sort.Slice(es, func(i, j int) bool { return es[i].ID < es[j].ID })
}

// ---------------------------------------------------------------------------
// ScheduleStore

func (m *Memory) UpsertSchedule(_ context.Context, ws attendance.WorkSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scheduleKey{EmployeeID: ws.EmployeeID, Date: ws.Date}
	if existing, ok := m.schedules[k]; ok {
		// Row identity is stable; only content and UpdatedAt move.
		ws.CreatedAt = existing.CreatedAt
	}
	m.schedules[k] = ws
	return nil
}

func (m *Memory) GetSchedule(_ context.Context, employeeID attendance.EmployeeID, date attendance.Date) (*attendance.WorkSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ws, ok := m.schedules[scheduleKey{EmployeeID: employeeID, Date: date}]
	if !ok {
		return nil, nil
	}
	return &ws, nil
}

func (m *Memory) ListSchedulesRange(_ context.Context, employeeID attendance.EmployeeID, from, to attendance.Date) ([]attendance.WorkSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []attendance.WorkSchedule
	for k, ws := range m.schedules {
		if k.EmployeeID == employeeID && from.BeforeOrEqual(k.Date) && k.Date.BeforeOrEqual(to) {
			out = append(out, ws)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ---------------------------------------------------------------------------
// RecordStore

func (m *Memory) CreateRecord(_ context.Context, rec attendance.WorkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *Memory) GetRecord(_ context.Context, id attendance.RecordID) (*attendance.WorkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) UpdateRecord(_ context.Context, rec attendance.WorkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; !ok {
		return attendance.ErrRecordNotFound
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *Memory) GetRecordByDate(_ context.Context, employeeID attendance.EmployeeID, date attendance.Date) (*attendance.WorkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *attendance.WorkRecord
	for id := range m.records {
		rec := m.records[id]
		if rec.EmployeeID != employeeID || !rec.Date.Equal(date) {
			continue
		}
		if latest == nil || rec.StartTime.After(latest.StartTime) {
			r := rec
			latest = &r
		}
	}
	return latest, nil
}

func (m *Memory) ListRecordsRange(_ context.Context, employeeID attendance.EmployeeID, from, to attendance.Date) ([]attendance.WorkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []attendance.WorkRecord
	for _, rec := range m.records {
		if rec.EmployeeID == employeeID && from.BeforeOrEqual(rec.Date) && rec.Date.BeforeOrEqual(to) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ---------------------------------------------------------------------------
// NotificationStore

func (m *Memory) AppendNotification(_ context.Context, entry attendance.NotificationEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, entry)
	return nil
}

func (m *Memory) ListNotificationsRange(_ context.Context, employeeID attendance.EmployeeID, from, to attendance.Date) ([]attendance.NotificationEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []attendance.NotificationEntry
	for _, e := range m.notifications {
		if e.EmployeeID == employeeID && from.BeforeOrEqual(e.Date) && e.Date.BeforeOrEqual(to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptedAt.Before(out[j].AttemptedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// CompanyStateStore

func (m *Memory) GetCompanyState(_ context.Context, companyID attendance.CompanyID) (attendance.CompanyScheduleState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := attendance.CompanyScheduleState{CompanyID: companyID}
	if at, ok := m.state[companyID]; ok {
		t := at
		st.LastIssuedAt = &t
	}
	return st, nil
}

func (m *Memory) SetLastIssuedAt(_ context.Context, companyID attendance.CompanyID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[companyID] = at
	return nil
}
