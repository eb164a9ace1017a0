/*
status.go - Status derivation matrix

PURPOSE:
  Pure derivation of the per-day attendance status from three independent
  inputs (work record, schedule row, contract period) plus "now". Nothing
  here is persisted; every read recomputes, which is what keeps the
  in-progress elapsed time live under a periodic re-evaluation.

DERIVATION ORDER (first match wins):
  1. completed record            -> completed, minutes = recorded duration
  2. in-progress record          -> in_progress, minutes = elapsed vs now
  3. past day, scheduled, and
     contract started by then    -> absent
  4. today/future day, scheduled -> scheduled
  5. otherwise                   -> none

  Rule 3 requires a parsed contract whose start is on or before the day:
  pre-hire days are never "absent", and an unparsable contract fails closed
  to "not eligible", which likewise can never accuse.

WEEKLY TOTALS:
  Minutes are summed over COMPLETED days only (a completed zero-minute day
  still counts). The percentage is measured against one fixed weekly target
  for everyone; the raw ratio is not clamped, only the display value is
  capped at 100.
*/
package attendance

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWeeklyTargetMinutes is the fixed weekly work target (40 hours).
// Deliberately global, not per employee; overridable via config.
const DefaultWeeklyTargetMinutes = 2400

// =============================================================================
// PER-DAY DERIVATION
// =============================================================================

// DayInputs are the three independent facts a day's status derives from.
// Any of them may be absent.
type DayInputs struct {
	Record   *WorkRecord
	Schedule *WorkSchedule
	Period   *ContractPeriod
}

// DeriveDay computes the status of one employee/day at the instant "now".
// It is a pure function of its arguments and must be re-invoked (not cached)
// to keep in-progress elapsed time current.
func DeriveDay(employeeID EmployeeID, date Date, in DayInputs, now time.Time, loc *time.Location) DerivedDayStatus {
	out := DerivedDayStatus{
		EmployeeID: employeeID,
		Date:       date,
		Status:     StatusNone,
		Tasks:      mergeTasks(in.Schedule, in.Record),
	}

	rec := in.Record
	switch {
	case rec != nil && rec.Status == RecordCompleted:
		out.Status = StatusCompleted
		out.Minutes = rec.DurationMinutes

	case rec != nil:
		out.Status = StatusInProgress
		out.Minutes = DurationMinutes(rec.StartTime, now)
		if out.Minutes < 0 {
			// Clock skew between writer and reader; display floor is 0.
			out.Minutes = 0
		}

	default:
		today := DateOf(now, loc)
		scheduled := in.Schedule != nil
		switch {
		case scheduled && date.Before(today) && contractStartedBy(in.Period, date):
			out.Status = StatusAbsent
		case scheduled && date.AfterOrEqual(today):
			out.Status = StatusScheduled
		}
	}
	return out
}

// contractStartedBy reports whether the contract had started by d. A nil
// period fails closed: no contract start is known, so no absence can be
// asserted.
func contractStartedBy(p *ContractPeriod, d Date) bool {
	if p == nil {
		return false
	}
	return !p.IsBeforeStart(d)
}

// mergeTasks unions the schedule's task list with newline-delimited lines
// from the record's notes. Both sources contribute; neither overrides.
// Order is schedule tasks first, then novel note lines.
func mergeTasks(ws *WorkSchedule, rec *WorkRecord) []string {
	var tasks []string
	seen := make(map[string]bool)

	if ws != nil {
		for _, task := range ws.Tasks {
			if task != "" && !seen[task] {
				seen[task] = true
				tasks = append(tasks, task)
			}
		}
	}
	if rec != nil {
		for _, line := range strings.Split(rec.Notes, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !seen[line] {
				seen[line] = true
				tasks = append(tasks, line)
			}
		}
	}
	return tasks
}

// =============================================================================
// WEEKLY SUMMARY
// =============================================================================

// WeekSummary aggregates one employee's derived days over a window.
type WeekSummary struct {
	EmployeeID   EmployeeID
	Days         []DerivedDayStatus
	TotalMinutes int

	// Ratio is TotalMinutes / target, unclamped. DisplayPercent is the
	// 0-100 figure for dashboards, capped at 100.
	Ratio          decimal.Decimal
	DisplayPercent decimal.Decimal

	// Deliveries is the week's notification log for the employee, filled in
	// by the Reporter. Summarize itself never touches the store.
	Deliveries []NotificationEntry
}

// Summarize builds a WeekSummary from derived days. targetMinutes <= 0
// falls back to DefaultWeeklyTargetMinutes.
func Summarize(employeeID EmployeeID, days []DerivedDayStatus, targetMinutes int) WeekSummary {
	if targetMinutes <= 0 {
		targetMinutes = DefaultWeeklyTargetMinutes
	}

	sorted := make([]DerivedDayStatus, len(days))
	copy(sorted, days)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	total := 0
	for _, d := range sorted {
		if d.Status == StatusCompleted {
			total += d.Minutes
		}
	}

	ratio := decimal.NewFromInt(int64(total)).Div(decimal.NewFromInt(int64(targetMinutes)))
	percent := ratio.Mul(decimal.NewFromInt(100))
	display := percent
	if display.GreaterThan(decimal.NewFromInt(100)) {
		display = decimal.NewFromInt(100)
	}

	return WeekSummary{
		EmployeeID:     employeeID,
		Days:           sorted,
		TotalMinutes:   total,
		Ratio:          ratio,
		DisplayPercent: display,
	}
}
