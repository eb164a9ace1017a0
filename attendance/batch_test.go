package attendance_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/attendance/store"
)

func newTestOrchestrator(mem *store.Memory, notifier attendance.Notifier) *attendance.Orchestrator {
	gen := attendance.NewGenerator(mem, seqSampler{}, nil)
	gen.Now = fixedNow(2026, time.March, 4, 10)
	gen.Location = time.UTC

	orch := attendance.NewOrchestrator(mem, gen, attendance.NewGate(time.UTC), notifier)
	orch.Now = fixedNow(2026, time.March, 4, 10)
	orch.Location = time.UTC
	return orch
}

func seedCompany(t *testing.T, mem *store.Memory, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		err := mem.SaveEmployee(context.Background(), attendance.Employee{
			ID:             attendance.EmployeeID(fmt.Sprintf("emp-%d", i)),
			CompanyID:      "co-1",
			Name:           fmt.Sprintf("Worker %d", i),
			ContractPeriod: "2026.01.02 ~ 2027.01.01",
			ContractStatus: attendance.ContractCompleted,
		})
		require.NoError(t, err)
	}
}

func TestIssueWeek_PartialFailureIsIsolated(t *testing.T) {
	// 5 eligible employees; emp-3's contract text is unusable, so its unit
	// of work fails while the other four proceed.
	mem := store.NewMemory()
	seedCompany(t, mem, 5)
	require.NoError(t, mem.SaveEmployee(context.Background(), attendance.Employee{
		ID:             "emp-3",
		CompanyID:      "co-1",
		Name:           "Worker 3",
		ContractPeriod: "corrupted",
		ContractStatus: attendance.ContractCompleted,
	}))

	orch := newTestOrchestrator(mem, nil)
	weekStart := date(2026, time.March, 2)

	result, err := orch.IssueWeek(context.Background(), "co-1", weekStart)
	require.NoError(t, err)

	assert.Equal(t, 4, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, attendance.EmployeeID("emp-3"), result.Errors[0].EmployeeID)
	assert.Equal(t, "Worker 3", result.Errors[0].EmployeeName)

	// The succeeding employees' schedules persisted regardless.
	for _, id := range []attendance.EmployeeID{"emp-1", "emp-2", "emp-4", "emp-5"} {
		rows, err := mem.ListSchedulesRange(context.Background(), id, weekStart, weekStart.AddDays(6))
		require.NoError(t, err)
		assert.Len(t, rows, 7, "employee %s", id)
	}
	rows, err := mem.ListSchedulesRange(context.Background(), "emp-3", weekStart, weekStart.AddDays(6))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestIssueWeek_SkipsNonCompletedContracts(t *testing.T) {
	mem := store.NewMemory()
	seedCompany(t, mem, 2)
	require.NoError(t, mem.SaveEmployee(context.Background(), attendance.Employee{
		ID:             "emp-draft",
		CompanyID:      "co-1",
		Name:           "Draft Worker",
		ContractPeriod: "2026.01.02 ~ 2027.01.01",
		ContractStatus: attendance.ContractDraft,
	}))

	orch := newTestOrchestrator(mem, nil)
	result, err := orch.IssueWeek(context.Background(), "co-1", date(2026, time.March, 2))
	require.NoError(t, err)

	// Draft employees are filtered out entirely: neither success nor failure.
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.FailedCount)
}

func TestIssueWeek_GateBlocksSecondRun(t *testing.T) {
	mem := store.NewMemory()
	seedCompany(t, mem, 2)
	orch := newTestOrchestrator(mem, nil)
	weekStart := date(2026, time.March, 2)

	_, err := orch.IssueWeek(context.Background(), "co-1", weekStart)
	require.NoError(t, err)

	// Same week, same moment: "already issued this week", not a generic error.
	_, err = orch.IssueWeek(context.Background(), "co-1", weekStart)
	require.Error(t, err)
	assert.ErrorIs(t, err, attendance.ErrGateClosed)

	// After the following Monday 07:00, the same request passes again.
	orch.Now = fixedNow(2026, time.March, 9, 8)
	_, err = orch.IssueWeek(context.Background(), "co-1", weekStart)
	assert.NoError(t, err)
}

func TestIssueWeek_StateAdvancesOnlyOnSuccess(t *testing.T) {
	// All employees fail: the gate state must stay untouched.
	mem := store.NewMemory()
	require.NoError(t, mem.SaveEmployee(context.Background(), attendance.Employee{
		ID:             "emp-1",
		CompanyID:      "co-1",
		Name:           "Worker 1",
		ContractPeriod: "corrupted",
		ContractStatus: attendance.ContractCompleted,
	}))

	orch := newTestOrchestrator(mem, nil)
	result, err := orch.IssueWeek(context.Background(), "co-1", date(2026, time.March, 2))
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)

	state, err := mem.GetCompanyState(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Nil(t, state.LastIssuedAt, "failed batch must not advance the gate")
}

func TestIssueWeek_DeliveryFailureCountsAsEmployeeFailure(t *testing.T) {
	mem := store.NewMemory()
	seedCompany(t, mem, 3)

	flaky := attendance.NotifierFunc(func(_ context.Context, id attendance.EmployeeID, _ attendance.Date, _ []string) error {
		if id == "emp-2" {
			return errors.New("push channel unreachable")
		}
		return nil
	})
	orch := newTestOrchestrator(mem, flaky)
	weekStart := date(2026, time.March, 2)

	result, err := orch.IssueWeek(context.Background(), "co-1", weekStart)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)

	// Delivery failed but the schedule write stands.
	rows, err := mem.ListSchedulesRange(context.Background(), "emp-2", weekStart, weekStart.AddDays(6))
	require.NoError(t, err)
	assert.Len(t, rows, 7)
}

func TestIssueWeek_SlowDeliveryDoesNotStallBatch(t *testing.T) {
	mem := store.NewMemory()
	seedCompany(t, mem, 3)

	// emp-2's channel hangs and never looks at its ctx, like a stuck HTTP
	// client without a transport timeout.
	stuck := attendance.NotifierFunc(func(_ context.Context, id attendance.EmployeeID, _ attendance.Date, _ []string) error {
		if id == "emp-2" {
			time.Sleep(2 * time.Second)
		}
		return nil
	})
	orch := newTestOrchestrator(mem, stuck)
	orch.PerEmployeeTimeout = 100 * time.Millisecond
	weekStart := date(2026, time.March, 2)

	began := time.Now()
	result, err := orch.IssueWeek(context.Background(), "co-1", weekStart)
	elapsed := time.Since(began)
	require.NoError(t, err)

	// The batch returns at the per-employee deadline, not the notifier's.
	assert.Less(t, elapsed, time.Second)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, attendance.EmployeeID("emp-2"), result.Errors[0].EmployeeID)
	assert.Contains(t, result.Errors[0].Reason, "deadline")

	// The schedule write happened before delivery stalled.
	rows, err := mem.ListSchedulesRange(context.Background(), "emp-2", weekStart, weekStart.AddDays(6))
	require.NoError(t, err)
	assert.Len(t, rows, 7)

	// The timeout shows up in the delivery log as a failed attempt.
	entries, err := mem.ListNotificationsRange(context.Background(), "emp-2", weekStart, weekStart)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Delivered)
}

func TestIssueWeek_RecordsDeliveryOutcomes(t *testing.T) {
	mem := store.NewMemory()
	seedCompany(t, mem, 2)

	flaky := attendance.NotifierFunc(func(_ context.Context, id attendance.EmployeeID, _ attendance.Date, _ []string) error {
		if id == "emp-2" {
			return errors.New("push channel unreachable")
		}
		return nil
	})
	orch := newTestOrchestrator(mem, flaky)
	weekStart := date(2026, time.March, 2)

	result, err := orch.IssueWeek(context.Background(), "co-1", weekStart)
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)

	ok, err := mem.ListNotificationsRange(context.Background(), "emp-1", weekStart, weekStart)
	require.NoError(t, err)
	require.Len(t, ok, 1)
	assert.True(t, ok[0].Delivered)
	assert.Empty(t, ok[0].Reason)
	assert.Equal(t, attendance.TriggerBatch, ok[0].Trigger)
	assert.Equal(t, result.RunID, ok[0].RunID)

	failed, err := mem.ListNotificationsRange(context.Background(), "emp-2", weekStart, weekStart)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.False(t, failed[0].Delivered)
	assert.Contains(t, failed[0].Reason, "unreachable")
	assert.Equal(t, result.RunID, failed[0].RunID)
}

func TestOnDailyTick_RecordsDeliveryOutcomes(t *testing.T) {
	mem := store.NewMemory()
	seedCompany(t, mem, 1)

	down := attendance.NotifierFunc(func(_ context.Context, _ attendance.EmployeeID, _ attendance.Date, _ []string) error {
		return errors.New("push channel unreachable")
	})
	orch := newTestOrchestrator(mem, down)

	weekStart := date(2026, time.March, 2)
	_, err := orch.Generator.GenerateWeek(context.Background(), "emp-1", weekStart)
	require.NoError(t, err)

	tickDay := date(2026, time.March, 4)
	result, err := orch.OnDailyTick(context.Background(), tickDay)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	entries, err := mem.ListNotificationsRange(context.Background(), "emp-1", tickDay, tickDay)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, attendance.TriggerTick, entries[0].Trigger)
	assert.False(t, entries[0].Delivered)
	assert.Contains(t, entries[0].Reason, "unreachable")
	assert.Empty(t, entries[0].RunID)
}

func TestOnDailyTick_NotifiesScheduledEligibleEmployees(t *testing.T) {
	mem := store.NewMemory()
	seedCompany(t, mem, 2)

	// emp-2's contract ended before the tick date.
	require.NoError(t, mem.SaveEmployee(context.Background(), attendance.Employee{
		ID:             "emp-2",
		CompanyID:      "co-1",
		Name:           "Worker 2",
		ContractPeriod: "2025.01.01 ~ 2025.12.31",
		ContractStatus: attendance.ContractCompleted,
	}))

	var notified []attendance.EmployeeID
	spy := attendance.NotifierFunc(func(_ context.Context, id attendance.EmployeeID, _ attendance.Date, _ []string) error {
		notified = append(notified, id)
		return nil
	})
	orch := newTestOrchestrator(mem, spy)

	weekStart := date(2026, time.March, 2)
	_, err := orch.Generator.GenerateWeek(context.Background(), "emp-1", weekStart)
	require.NoError(t, err)
	_, err = orch.Generator.GenerateWeek(context.Background(), "emp-2", weekStart)
	require.NoError(t, err)

	result, err := orch.OnDailyTick(context.Background(), date(2026, time.March, 4))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Notified)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, []attendance.EmployeeID{"emp-1"}, notified)
}
