package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/attendance/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// seqSampler always picks the first k catalog entries. Deterministic stand-in
// for the production random sampler.
type seqSampler struct{}

func (seqSampler) Sample(n, k int) []int {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// shiftSampler picks k entries starting at a fixed offset. Two generators
// with different offsets produce different content for the same rows.
type shiftSampler struct{ offset int }

func (s shiftSampler) Sample(n, k int) []int {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = (s.offset + i) % n
	}
	return idx
}

func fixedNow(y int, m time.Month, d, hour int) func() time.Time {
	return func() time.Time {
		return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
	}
}

func newTestGenerator(mem *store.Memory, sampler attendance.Sampler, notifier attendance.Notifier) *attendance.Generator {
	g := attendance.NewGenerator(mem, sampler, notifier)
	g.Now = fixedNow(2026, time.March, 4, 10) // Wednesday inside most test weeks
	g.Location = time.UTC
	return g
}

// =============================================================================
// GENERATION TESTS
// =============================================================================

func TestGenerateWeek_SevenRowsFourDistinctTasks(t *testing.T) {
	// GIVEN: an empty store
	mem := store.NewMemory()
	gen := newTestGenerator(mem, attendance.NewRandSampler(1), nil)
	weekStart := date(2026, time.March, 2)

	// WHEN: generating one week
	week, err := gen.GenerateWeek(context.Background(), "emp-1", weekStart)
	if err != nil {
		t.Fatalf("GenerateWeek: %v", err)
	}

	// THEN: 7 date-ordered rows, each with 4 distinct catalog tasks
	if len(week) != 7 {
		t.Fatalf("rows = %d, want 7", len(week))
	}
	for i, ws := range week {
		if !ws.Date.Equal(weekStart.AddDays(i)) {
			t.Errorf("row %d date = %s", i, ws.Date)
		}
		if len(ws.Tasks) != 4 {
			t.Errorf("row %d has %d tasks, want 4", i, len(ws.Tasks))
		}
		seen := make(map[string]bool)
		for _, task := range ws.Tasks {
			if seen[task] {
				t.Errorf("row %d repeats task %q", i, task)
			}
			seen[task] = true
		}
	}
}

func TestGenerateWeek_RowCountIdempotentContentNot(t *testing.T) {
	// GIVEN: a week already generated with one sampler
	mem := store.NewMemory()
	ctx := context.Background()
	weekStart := date(2026, time.March, 2)

	first := newTestGenerator(mem, shiftSampler{offset: 0}, nil)
	if _, err := first.GenerateWeek(ctx, "emp-1", weekStart); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// WHEN: re-running with a sampler that picks different tasks
	second := newTestGenerator(mem, shiftSampler{offset: 3}, nil)
	if _, err := second.GenerateWeek(ctx, "emp-1", weekStart); err != nil {
		t.Fatalf("second run: %v", err)
	}

	// THEN: still exactly 7 rows (row-count idempotency) ...
	rows, err := mem.ListSchedulesRange(ctx, "emp-1", weekStart, weekStart.AddDays(6))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("rows after rerun = %d, want 7", len(rows))
	}

	// ... but the content changed (content non-idempotency is intentional)
	if rows[0].Tasks[0] == attendance.TaskCatalog[0] {
		t.Error("rerun did not overwrite task content")
	}
}

func TestGenerateWeek_NotifyFailureDoesNotFailWrite(t *testing.T) {
	// GIVEN: a notifier that always fails, and "today" inside the window
	mem := store.NewMemory()
	failing := attendance.NotifierFunc(func(context.Context, attendance.EmployeeID, attendance.Date, []string) error {
		return errors.New("channel down")
	})
	gen := newTestGenerator(mem, seqSampler{}, failing)
	weekStart := date(2026, time.March, 2) // gen's fixed now is Wed Mar 4

	// WHEN: generating
	week, err := gen.GenerateWeek(context.Background(), "emp-1", weekStart)

	// THEN: the write succeeds anyway
	if err != nil {
		t.Fatalf("GenerateWeek: %v", err)
	}
	if len(week) != 7 {
		t.Fatalf("rows = %d", len(week))
	}
}

func TestGenerateWeek_NotifiesOnlyWhenTodayInWindow(t *testing.T) {
	mem := store.NewMemory()

	var calls []attendance.Date
	spy := attendance.NotifierFunc(func(_ context.Context, _ attendance.EmployeeID, d attendance.Date, _ []string) error {
		calls = append(calls, d)
		return nil
	})
	gen := newTestGenerator(mem, seqSampler{}, spy) // now = Wed 2026-03-04

	// A past week: no notify attempt.
	if _, err := gen.GenerateWeek(context.Background(), "emp-1", date(2026, time.February, 16)); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 0 {
		t.Fatalf("notified for out-of-window week: %v", calls)
	}

	// The current week: exactly one attempt, for today.
	if _, err := gen.GenerateWeek(context.Background(), "emp-1", date(2026, time.March, 2)); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 || !calls[0].Equal(date(2026, time.March, 4)) {
		t.Fatalf("calls = %v, want one for 2026-03-04", calls)
	}
}
