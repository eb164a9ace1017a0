/*
batch.go - Company-wide weekly issuance

PURPOSE:
  Fans schedule generation and notification delivery out across all of a
  company's contract-completed employees. Each employee is an independent
  unit of work: one failure is recorded and the rest proceed. The batch as
  a whole fails only on the gate check or on loading the employee list.

FLOW:
  1. Gate check (reject early with "already issued this week")
  2. Load employees, keep contractStatus == COMPLETED
  3. Per employee, concurrently, under a per-employee timeout:
       generate week -> attempt delivery
  4. Aggregate {successCount, failedCount, errors[]}
  5. Advance the company's last-issued timestamp only when successCount > 0

ELIGIBILITY VS FAILURE:
  Non-COMPLETED contracts are filtered out before the fan-out: they count
  as neither success nor failure. A COMPLETED contract whose period does
  not cover the week IS counted as a failure: the employee was supposed to
  be schedulable and the period text says otherwise, which an admin should
  see in the batch report rather than have silently skipped.

TIMEOUTS:
  Each unit runs in its own goroutine selected against the per-employee
  deadline. A notifier that ignores its ctx is abandoned at the deadline
  and the employee is counted as failed; the batch never waits past the
  timeout for one unit.

AUDIT:
  Every delivery attempt (batch or daily tick) is appended to the
  notification log with its outcome, so reports can show per-employee
  delivery results after the fact.
*/
package attendance

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultPerEmployeeTimeout bounds one employee's generate+notify unit so a
// stalled delivery cannot hold the whole company batch.
const DefaultPerEmployeeTimeout = 10 * time.Second

// BatchError describes one employee's failure inside a batch.
type BatchError struct {
	EmployeeID   EmployeeID
	EmployeeName string
	Reason       string
}

// BatchResult is the aggregate report of one issuance run.
type BatchResult struct {
	RunID        string
	CompanyID    CompanyID
	WeekStart    Date
	SuccessCount int
	FailedCount  int
	Errors       []BatchError
	IssuedAt     time.Time
}

// Orchestrator runs company-wide weekly issuance and the daily tick.
type Orchestrator struct {
	Employees     EmployeeStore
	State         CompanyStateStore
	Notifications NotificationStore
	Generator     *Generator
	Gate          *Gate
	Notifier      Notifier

	PerEmployeeTimeout time.Duration
	Now                func() time.Time
	NewID              func() string
	Location           *time.Location
}

func NewOrchestrator(store Store, gen *Generator, gate *Gate, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		Employees:          store,
		State:              store,
		Notifications:      store,
		Generator:          gen,
		Gate:               gate,
		Notifier:           notifier,
		PerEmployeeTimeout: DefaultPerEmployeeTimeout,
		Now:                time.Now,
		NewID:              uuid.NewString,
		Location:           time.Local,
	}
}

// IssueWeek generates and delivers weekStart's assignments for every
// eligible employee of the company. Per-employee failures are aggregated,
// never propagated as the batch's failure.
func (o *Orchestrator) IssueWeek(ctx context.Context, companyID CompanyID, weekStart Date) (*BatchResult, error) {
	now := o.Now()

	state, err := o.State.GetCompanyState(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("issue week: %w", err)
	}
	if err := o.Gate.Check(companyID, state.LastIssuedAt, weekStart, now); err != nil {
		return nil, err
	}

	employees, err := o.Employees.ListEmployeesByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("issue week: %w", err)
	}

	eligible := employees[:0:0]
	for _, e := range employees {
		if e.Eligible() {
			eligible = append(eligible, e)
		}
	}

	result := &BatchResult{RunID: o.newID(), CompanyID: companyID, WeekStart: weekStart, IssuedAt: now}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, emp := range eligible {
		wg.Add(1)
		go func(emp Employee) {
			defer wg.Done()
			err := o.issueOne(ctx, emp, weekStart, result.RunID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.FailedCount++
				result.Errors = append(result.Errors, BatchError{
					EmployeeID:   emp.ID,
					EmployeeName: emp.Name,
					Reason:       err.Error(),
				})
				return
			}
			result.SuccessCount++
		}(emp)
	}
	wg.Wait()

	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].EmployeeID < result.Errors[j].EmployeeID
	})

	if result.SuccessCount > 0 {
		if err := o.State.SetLastIssuedAt(ctx, companyID, now); err != nil {
			// Rows are already written; a stale gate only risks a re-issue.
			log.Printf("[Batch] company %s: record last-issued: %v", companyID, err)
		}
	}

	log.Printf("[Batch] company %s week %s run %s: %d ok, %d failed",
		companyID, weekStart, result.RunID, result.SuccessCount, result.FailedCount)
	return result, nil
}

// issueOne bounds one employee's unit of work by the per-employee timeout.
// The unit runs in its own goroutine; if the deadline fires first the unit
// is abandoned (it may still be blocked inside a notifier that ignores its
// ctx) and the employee is reported as failed.
func (o *Orchestrator) issueOne(ctx context.Context, emp Employee, weekStart Date, runID string) error {
	timeout := o.PerEmployeeTimeout
	if timeout <= 0 {
		timeout = DefaultPerEmployeeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- o.generateAndDeliver(ctx, emp, weekStart, runID)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		err := &DispatchError{EmployeeID: emp.ID, Date: weekStart, Err: ctx.Err()}
		o.recordDelivery(NotificationEntry{
			EmployeeID: emp.ID,
			Date:       weekStart,
			Trigger:    TriggerBatch,
			Reason:     err.Error(),
			RunID:      runID,
		})
		return err
	}
}

// generateAndDeliver is one employee's isolated unit of work.
func (o *Orchestrator) generateAndDeliver(ctx context.Context, emp Employee, weekStart Date, runID string) error {
	if !ParsePeriod(emp.ContractPeriod).IsActiveForWeek(weekStart) {
		return fmt.Errorf("contract not active for week of %s", weekStart)
	}

	week, err := o.Generator.GenerateWeek(ctx, emp.ID, weekStart)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if o.Notifier == nil {
		return nil
	}
	deliveryErr := o.Notifier.Notify(ctx, emp.ID, weekStart, week[0].Tasks)
	entry := NotificationEntry{
		EmployeeID: emp.ID,
		Date:       weekStart,
		Trigger:    TriggerBatch,
		Delivered:  deliveryErr == nil,
		RunID:      runID,
	}
	if deliveryErr != nil {
		entry.Reason = deliveryErr.Error()
	}
	o.recordDelivery(entry)
	if deliveryErr != nil {
		return &DispatchError{EmployeeID: emp.ID, Date: weekStart, Err: deliveryErr}
	}
	return nil
}

// recordDelivery appends one audit entry. A log write failure is never an
// employee failure; it is only logged.
func (o *Orchestrator) recordDelivery(entry NotificationEntry) {
	if o.Notifications == nil {
		return
	}
	entry.ID = o.newID()
	entry.AttemptedAt = o.Now()
	// A fresh context: the append must not inherit a unit's expired deadline.
	if err := o.Notifications.AppendNotification(context.Background(), entry); err != nil {
		log.Printf("[Notify] log append for %s: %v", entry.EmployeeID, err)
	}
}

func (o *Orchestrator) newID() string {
	if o.NewID == nil {
		return uuid.NewString()
	}
	return o.NewID()
}

// =============================================================================
// DAILY TICK - Scheduler port
// =============================================================================

// TickResult reports one daily tick run.
type TickResult struct {
	Date     Date
	Notified int
	Failed   int
}

// OnDailyTick re-delivers the given day's tasks to every employee who has a
// schedule row for that day under an active contract. It is the entry point
// an external cron invokes; the engine never schedules itself.
func (o *Orchestrator) OnDailyTick(ctx context.Context, date Date) (*TickResult, error) {
	employees, err := o.Employees.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("daily tick: %w", err)
	}

	result := &TickResult{Date: date}
	for _, emp := range employees {
		if !emp.Eligible() {
			continue
		}
		if !ParsePeriod(emp.ContractPeriod).Contains(date) {
			continue
		}
		ws, err := o.Generator.Schedules.GetSchedule(ctx, emp.ID, date)
		if err != nil || ws == nil {
			continue
		}
		if o.Notifier == nil {
			continue
		}
		deliveryErr := o.Notifier.Notify(ctx, emp.ID, date, ws.Tasks)
		entry := NotificationEntry{
			EmployeeID: emp.ID,
			Date:       date,
			Trigger:    TriggerTick,
			Delivered:  deliveryErr == nil,
		}
		if deliveryErr != nil {
			entry.Reason = deliveryErr.Error()
		}
		o.recordDelivery(entry)
		if deliveryErr != nil {
			log.Printf("[Tick] notify %s for %s: %v", emp.ID, date, deliveryErr)
			result.Failed++
			continue
		}
		result.Notified++
	}
	return result, nil
}
