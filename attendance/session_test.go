package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/attendance/store"
)

func newTestTracker(t *testing.T) (*attendance.Tracker, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	if err := mem.SaveEmployee(context.Background(), attendance.Employee{
		ID:             "emp-1",
		CompanyID:      "co-1",
		Name:           "Worker One",
		ContractPeriod: "2026.01.02 ~ 2027.01.01",
		ContractStatus: attendance.ContractCompleted,
	}); err != nil {
		t.Fatal(err)
	}
	tracker := attendance.NewTracker(mem, mem)
	tracker.Location = time.UTC
	return tracker, mem
}

func TestSession_FullLifecycle(t *testing.T) {
	// GIVEN: no record for the day
	tracker, mem := newTestTracker(t)
	ctx := context.Background()
	day := date(2026, time.March, 3)

	before, _ := mem.GetRecordByDate(ctx, "emp-1", day)
	if got := attendance.SessionStateOf(before); got != attendance.SessionNotStarted {
		t.Fatalf("initial state = %v", got)
	}

	// WHEN: starting at 09:00
	start := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	rec, err := tracker.StartSession(ctx, "emp-1", start, "")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	// THEN: IN_PROGRESS, keyed by the start timestamp's calendar date
	if got := attendance.SessionStateOf(rec); got != attendance.SessionInProgress {
		t.Fatalf("state after start = %v", got)
	}
	if !rec.Date.Equal(day) {
		t.Errorf("record date = %s, want %s", rec.Date, day)
	}

	// WHEN: ending at 12:30
	end := time.Date(2026, time.March, 3, 12, 30, 0, 0, time.UTC)
	done, err := tracker.EndSession(ctx, rec.ID, end, "")
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	// THEN: COMPLETED with 210 minutes, EndTime set
	if got := attendance.SessionStateOf(done); got != attendance.SessionCompleted {
		t.Fatalf("state after end = %v", got)
	}
	if done.DurationMinutes != 210 {
		t.Errorf("duration = %d, want 210", done.DurationMinutes)
	}
	if done.EndTime == nil || !done.EndTime.Equal(end) {
		t.Errorf("end time = %v", done.EndTime)
	}
}

func TestEndSession_AlreadyCompletedIsInvalidState(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	start := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	rec, err := tracker.StartSession(ctx, "emp-1", start, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tracker.EndSession(ctx, rec.ID, start.Add(time.Hour), ""); err != nil {
		t.Fatal(err)
	}

	// Second end must fail with the specific invalid-state condition.
	_, err = tracker.EndSession(ctx, rec.ID, start.Add(2*time.Hour), "")
	if !errors.Is(err, attendance.ErrSessionCompleted) {
		t.Fatalf("err = %v, want ErrSessionCompleted", err)
	}
	if !attendance.IsInvalidState(err) {
		t.Error("IsInvalidState should classify the error")
	}

	var ise *attendance.InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatal("expected *InvalidStateError")
	}
	if ise.RecordID != rec.ID {
		t.Errorf("error record = %s", ise.RecordID)
	}
}

func TestEndSession_NegativeDurationRejected(t *testing.T) {
	// End before start indicates caller error; it must fail, not clamp.
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	start := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	rec, err := tracker.StartSession(ctx, "emp-1", start, "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = tracker.EndSession(ctx, rec.ID, start.Add(-time.Minute), "")
	if !errors.Is(err, attendance.ErrNegativeDuration) {
		t.Fatalf("err = %v, want ErrNegativeDuration", err)
	}

	// The record is untouched and can still be ended properly.
	done, err := tracker.EndSession(ctx, rec.ID, start, "")
	if err != nil {
		t.Fatalf("zero-length end: %v", err)
	}
	if done.DurationMinutes != 0 {
		t.Errorf("duration = %d, want 0", done.DurationMinutes)
	}
}

func TestStartSession_UnknownEmployee(t *testing.T) {
	tracker, _ := newTestTracker(t)
	_, err := tracker.StartSession(context.Background(), "ghost", time.Now(), "")
	if !errors.Is(err, attendance.ErrEmployeeNotFound) {
		t.Fatalf("err = %v, want ErrEmployeeNotFound", err)
	}
}

func TestStartSession_DuplicateStartUnguarded(t *testing.T) {
	// Documented behavior: nothing in the service stops a second
	// IN_PROGRESS record for the same employee/day.
	tracker, mem := newTestTracker(t)
	ctx := context.Background()
	start := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)

	if _, err := tracker.StartSession(ctx, "emp-1", start, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := tracker.StartSession(ctx, "emp-1", start.Add(time.Minute), ""); err != nil {
		t.Fatalf("duplicate start should succeed in the memory store: %v", err)
	}

	// The by-date lookup resolves to the most recent start.
	rec, err := mem.GetRecordByDate(ctx, "emp-1", date(2026, time.March, 3))
	if err != nil {
		t.Fatal(err)
	}
	if !rec.StartTime.Equal(start.Add(time.Minute)) {
		t.Errorf("by-date lookup start = %v", rec.StartTime)
	}
}

func TestDurationMinutes_Floors(t *testing.T) {
	start := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		end  time.Time
		want int
	}{
		{start.Add(90 * time.Second), 1},  // floors, not rounds
		{start.Add(59 * time.Second), 0},
		{start.Add(3*time.Hour + 30*time.Minute), 210},
		{start.Add(-30 * time.Second), -1}, // negative floors away from zero
	}
	for _, tc := range cases {
		if got := attendance.DurationMinutes(start, tc.end); got != tc.want {
			t.Errorf("DurationMinutes(..., %v) = %d, want %d", tc.end.Sub(start), got, tc.want)
		}
	}
}
