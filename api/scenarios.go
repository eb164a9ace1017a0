/*
scenarios.go - Demo data loader

PURPOSE:
  Seeds the store with a small, recognizable dataset so the server is
  usable immediately: one company, four employees in different contract
  states, last week's schedules, and a mix of completed / in-progress /
  missed sessions.
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/attendance-engine/attendance"
)

// LoadScenario resets nothing; it upserts the demo dataset into the store.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	if err := h.loadDemo(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "company": "acme"})
}

func (h *Handler) loadDemo(ctx context.Context) error {
	now := h.Now()
	today := attendance.DateOf(now, h.Location)
	lastWeek := attendance.StartOfWeek(today).AddDays(-7)

	year := today.Year
	period := fmt.Sprintf("%d.01.01 ~ %d.12.31", year-1, year+1)

	employees := []attendance.Employee{
		{ID: "emp-ada", CompanyID: "acme", Name: "Ada Park", Email: "ada@acme.test",
			ContractPeriod: period, ContractStatus: attendance.ContractCompleted},
		{ID: "emp-bo", CompanyID: "acme", Name: "Bo Lindgren", Email: "bo@acme.test",
			ContractPeriod: period, ContractStatus: attendance.ContractCompleted},
		{ID: "emp-cy", CompanyID: "acme", Name: "Cy Okafor", Email: "cy@acme.test",
			ContractPeriod: period, ContractStatus: attendance.ContractSent},
		{ID: "emp-dee", CompanyID: "acme", Name: "Dee Morita", Email: "dee@acme.test",
			// Malformed on purpose: exercises the fail-closed parse path.
			ContractPeriod: "since last spring", ContractStatus: attendance.ContractCompleted},
	}
	for _, e := range employees {
		e.CreatedAt = now
		if err := h.Store.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}

	// Last week's assignments for the two active workers.
	for _, id := range []attendance.EmployeeID{"emp-ada", "emp-bo"} {
		if _, err := h.Generator.GenerateWeek(ctx, id, lastWeek); err != nil {
			return err
		}
	}

	// Ada worked Monday (completed) and is mid-session today if today has a row.
	monday := lastWeek.Time(h.Location).Add(9 * time.Hour)
	rec, err := h.Tracker.StartSession(ctx, "emp-ada", monday, "")
	if err != nil {
		return err
	}
	if _, err := h.Tracker.EndSession(ctx, rec.ID, monday.Add(3*time.Hour+30*time.Minute), ""); err != nil {
		return err
	}

	// Bo never clocked in: derives as absent for last week's past days.
	return nil
}
