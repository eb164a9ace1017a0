/*
schedule.go - Weekly schedule generation

PURPOSE:
  Issues one WorkSchedule row per day for a 7-day window, per employee.
  Re-running for the same employee/week overwrites existing rows instead of
  inserting new ones.

IDEMPOTENCY ASYMMETRY:
  Row identity is idempotent: two runs for the same week leave exactly 7
  rows. Row CONTENT is not: each run re-samples the task list. Callers that
  need stable content must not regenerate. Tests get determinism by
  injecting a seeded Sampler.

FIRE-AND-FORGET NOTIFY:
  After the rows are written, if today falls inside the generated window,
  one delivery attempt is made for today's tasks. A delivery failure is
  logged and dropped; it never rolls back or fails the schedule write.
*/
package attendance

import (
	"context"
	"log"
	"math/rand"
	"time"
)

// TaskCatalog is the fixed pool of assignable task descriptions. Each day
// receives tasksPerDay of these, sampled without replacement.
var TaskCatalog = []string{
	"Sort and label incoming inventory",
	"Assemble product packaging",
	"Quality-check finished items",
	"Restock workstation supplies",
	"Scan and file delivery documents",
	"Clean and organize the work area",
	"Prepare outgoing shipment boxes",
}

const tasksPerDay = 4

// =============================================================================
// SAMPLER - Injectable randomness
// =============================================================================

// Sampler picks k distinct indices out of n. Production uses a seeded
// rand.Rand; tests inject a deterministic implementation.
type Sampler interface {
	Sample(n, k int) []int
}

type randSampler struct {
	r *rand.Rand
}

// NewRandSampler returns the production sampler.
func NewRandSampler(seed int64) Sampler {
	return &randSampler{r: rand.New(rand.NewSource(seed))}
}

func (s *randSampler) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	return s.r.Perm(n)[:k]
}

// =============================================================================
// GENERATOR
// =============================================================================

// Generator issues weekly schedules.
type Generator struct {
	Schedules ScheduleStore
	Sampler   Sampler
	Notifier  Notifier // may be nil: generation then skips the notify attempt

	// Now and Location define "today" for the post-write notify check.
	Now      func() time.Time
	Location *time.Location
}

func NewGenerator(schedules ScheduleStore, sampler Sampler, notifier Notifier) *Generator {
	return &Generator{
		Schedules: schedules,
		Sampler:   sampler,
		Notifier:  notifier,
		Now:       time.Now,
		Location:  time.Local,
	}
}

// GenerateWeek writes 7 schedule rows for the week starting at weekStart and
// returns them in date order. Existing rows for those days are overwritten.
//
// The trailing notification attempt is fire-and-forget: its error is logged
// under [Notify] and discarded.
func (g *Generator) GenerateWeek(ctx context.Context, employeeID EmployeeID, weekStart Date) ([]WorkSchedule, error) {
	now := g.Now()
	out := make([]WorkSchedule, 0, 7)

	for _, day := range WeekDays(weekStart) {
		ws := WorkSchedule{
			EmployeeID: employeeID,
			Date:       day,
			Tasks:      g.sampleTasks(),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := g.Schedules.UpsertSchedule(ctx, ws); err != nil {
			return nil, err
		}
		out = append(out, ws)
	}

	g.notifyToday(ctx, employeeID, weekStart, out)
	return out, nil
}

func (g *Generator) sampleTasks() []string {
	idx := g.Sampler.Sample(len(TaskCatalog), tasksPerDay)
	tasks := make([]string, len(idx))
	for i, j := range idx {
		tasks[i] = TaskCatalog[j]
	}
	return tasks
}

// notifyToday attempts delivery of today's tasks when today is inside the
// generated window. Failures must not surface to the caller.
func (g *Generator) notifyToday(ctx context.Context, employeeID EmployeeID, weekStart Date, week []WorkSchedule) {
	if g.Notifier == nil {
		return
	}
	today := DateOf(g.Now(), g.Location)
	if today.Before(weekStart) || today.After(weekStart.AddDays(6)) {
		return
	}
	for _, ws := range week {
		if ws.Date.Equal(today) {
			if err := g.Notifier.Notify(ctx, employeeID, today, ws.Tasks); err != nil {
				log.Printf("[Notify] today's tasks for %s on %s: %v", employeeID, today, err)
			}
			return
		}
	}
}
