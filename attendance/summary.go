/*
summary.go - Company attendance summary

PURPOSE:
  Assembles the per-employee, per-day derived status grid a dashboard
  renders. Everything here is a read: statuses are derived fresh on each
  call, so a consumer polling on a fixed interval (≈60s) sees live elapsed
  minutes for in-progress sessions. Each employee's week also carries the
  notification log entries for the window, so the grid can show whether
  that week's assignments actually reached them.
*/
package attendance

import (
	"context"
	"fmt"
	"time"
)

// AggregateCounts tallies day statuses across a summary grid.
type AggregateCounts struct {
	Completed  int
	InProgress int
	Scheduled  int
	Absent     int
	None       int
}

func (a *AggregateCounts) add(s DayStatus) {
	switch s {
	case StatusCompleted:
		a.Completed++
	case StatusInProgress:
		a.InProgress++
	case StatusScheduled:
		a.Scheduled++
	case StatusAbsent:
		a.Absent++
	default:
		a.None++
	}
}

// CompanySummary is the dashboard grid for one company/week.
type CompanySummary struct {
	CompanyID CompanyID
	WeekStart Date
	Employees []WeekSummary
	Counts    AggregateCounts
	AsOf      time.Time
}

// Reporter derives summaries from the store. It holds no state of its own.
type Reporter struct {
	Store Store

	// TargetMinutes is the fixed weekly target; zero means the default.
	TargetMinutes int
	Now           func() time.Time
	Location      *time.Location
}

func NewReporter(store Store) *Reporter {
	return &Reporter{Store: store, Now: time.Now, Location: time.Local}
}

// EmployeeWeek derives one employee's 7-day window starting at weekStart.
func (r *Reporter) EmployeeWeek(ctx context.Context, employeeID EmployeeID, weekStart Date) (*WeekSummary, error) {
	emp, err := r.Store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("employee week: %w", err)
	}
	if emp == nil {
		return nil, fmt.Errorf("employee week: %w", ErrEmployeeNotFound)
	}
	summary, err := r.employeeWeek(ctx, *emp, weekStart, r.Now())
	if err != nil {
		return nil, fmt.Errorf("employee week: %w", err)
	}
	return summary, nil
}

func (r *Reporter) employeeWeek(ctx context.Context, emp Employee, weekStart Date, now time.Time) (*WeekSummary, error) {
	weekEnd := weekStart.AddDays(6)

	schedules, err := r.Store.ListSchedulesRange(ctx, emp.ID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	records, err := r.Store.ListRecordsRange(ctx, emp.ID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	byDaySchedule := make(map[Date]*WorkSchedule, len(schedules))
	for i := range schedules {
		byDaySchedule[schedules[i].Date] = &schedules[i]
	}
	byDayRecord := make(map[Date]*WorkRecord, len(records))
	for i := range records {
		byDayRecord[records[i].Date] = &records[i]
	}

	period := ParsePeriod(emp.ContractPeriod)

	days := make([]DerivedDayStatus, 0, 7)
	for _, day := range WeekDays(weekStart) {
		days = append(days, DeriveDay(emp.ID, day, DayInputs{
			Record:   byDayRecord[day],
			Schedule: byDaySchedule[day],
			Period:   period,
		}, now, r.Location))
	}

	summary := Summarize(emp.ID, days, r.TargetMinutes)

	deliveries, err := r.Store.ListNotificationsRange(ctx, emp.ID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	summary.Deliveries = deliveries
	return &summary, nil
}

// Company derives the full grid for every employee of the company,
// including those whose contract is not yet completed (the dashboard shows
// them with empty weeks).
func (r *Reporter) Company(ctx context.Context, companyID CompanyID, weekStart Date) (*CompanySummary, error) {
	employees, err := r.Store.ListEmployeesByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("company summary: %w", err)
	}

	now := r.Now()
	out := &CompanySummary{CompanyID: companyID, WeekStart: weekStart, AsOf: now}

	for _, emp := range employees {
		summary, err := r.employeeWeek(ctx, emp, weekStart, now)
		if err != nil {
			return nil, fmt.Errorf("company summary: employee %s: %w", emp.ID, err)
		}
		out.Employees = append(out.Employees, *summary)
		for _, day := range summary.Days {
			out.Counts.add(day.Status)
		}
	}
	return out, nil
}
