/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the attendance engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees?company_id=   List employees
    POST   /api/employees               Register employee (contract subsystem stand-in)
    GET    /api/employees/{id}          Get employee
    GET    /api/employees/{id}/schedule?week_start=   Week of schedule rows
    POST   /api/employees/{id}/schedule/generate      Generate a week
    GET    /api/employees/{id}/summary?week_start=    Derived week summary

  Sessions:
    POST   /api/sessions                Start a work session
    POST   /api/sessions/{id}/end       End a work session

  Companies:
    POST   /api/companies/{id}/issue    Batch weekly issuance (gate-checked)
    GET    /api/companies/{id}/summary  Dashboard grid

  Admin:
    POST   /api/admin/tick              Daily tick port for an external cron

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (already-completed session, closed gate)
  - 500: Internal errors
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        attendance.Store
	Generator    *attendance.Generator
	Tracker      *attendance.Tracker
	Orchestrator *attendance.Orchestrator
	Reporter     *attendance.Reporter

	Location *time.Location
	Now      func() time.Time
}

// Options tune the engine wiring; zero values mean defaults.
type Options struct {
	WeeklyTargetMinutes int
	GateReopenHour      int
	PerEmployeeTimeout  time.Duration
	Location            *time.Location
	Sampler             attendance.Sampler
	Notifier            attendance.Notifier
}

// NewHandler wires the engine components over one store.
func NewHandler(store attendance.Store, opts Options) *Handler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	sampler := opts.Sampler
	if sampler == nil {
		sampler = attendance.NewRandSampler(time.Now().UnixNano())
	}

	gen := attendance.NewGenerator(store, sampler, opts.Notifier)
	gen.Location = loc

	tracker := attendance.NewTracker(store, store)
	tracker.Location = loc

	gate := attendance.NewGate(loc)
	if opts.GateReopenHour > 0 {
		gate.ReopenHour = opts.GateReopenHour
	}

	orch := attendance.NewOrchestrator(store, gen, gate, opts.Notifier)
	orch.Location = loc
	if opts.PerEmployeeTimeout > 0 {
		orch.PerEmployeeTimeout = opts.PerEmployeeTimeout
	}

	rep := attendance.NewReporter(store)
	rep.Location = loc
	rep.TargetMinutes = opts.WeeklyTargetMinutes

	return &Handler{
		Store:        store,
		Generator:    gen,
		Tracker:      tracker,
		Orchestrator: orch,
		Reporter:     rep,
		Location:     loc,
		Now:          time.Now,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")

	var (
		employees []attendance.Employee
		err       error
	)
	if companyID != "" {
		employees, err = h.Store.ListEmployeesByCompany(r.Context(), attendance.CompanyID(companyID))
	} else {
		employees, err = h.Store.ListEmployees(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	emp, err := h.Store.GetEmployee(r.Context(), attendance.EmployeeID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.CompanyID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id, company_id and name are required", nil)
		return
	}

	status := attendance.ContractStatus(req.ContractStatus)
	switch status {
	case "":
		status = attendance.ContractDraft
	case attendance.ContractDraft, attendance.ContractSent, attendance.ContractCompleted:
	default:
		writeError(w, http.StatusBadRequest, "Invalid contract_status", nil)
		return
	}

	emp := attendance.Employee{
		ID:             attendance.EmployeeID(req.ID),
		CompanyID:      attendance.CompanyID(req.CompanyID),
		Name:           req.Name,
		Email:          req.Email,
		ContractPeriod: req.ContractPeriod,
		ContractStatus: status,
		CreatedAt:      h.Now(),
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

func (h *Handler) GetWeeklySchedule(w http.ResponseWriter, r *http.Request) {
	id := attendance.EmployeeID(chi.URLParam(r, "id"))
	weekStart, ok := h.weekStartParam(w, r.URL.Query().Get("week_start"))
	if !ok {
		return
	}

	rows, err := h.Store.ListSchedulesRange(r.Context(), id, weekStart, weekStart.AddDays(6))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load schedule", err)
		return
	}
	dtos := make([]ScheduleDTO, len(rows))
	for i, ws := range rows {
		dtos[i] = toScheduleDTO(ws)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GenerateWeeklySchedule(w http.ResponseWriter, r *http.Request) {
	id := attendance.EmployeeID(chi.URLParam(r, "id"))

	var req GenerateWeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	weekStart, ok := h.weekStartParam(w, req.WeekStart)
	if !ok {
		return
	}

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	week, err := h.Generator.GenerateWeek(r.Context(), id, weekStart)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate schedule", err)
		return
	}
	dtos := make([]ScheduleDTO, len(week))
	for i, ws := range week {
		dtos[i] = toScheduleDTO(ws)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetEmployeeSummary(w http.ResponseWriter, r *http.Request) {
	id := attendance.EmployeeID(chi.URLParam(r, "id"))
	weekStart, ok := h.weekStartParam(w, r.URL.Query().Get("week_start"))
	if !ok {
		return
	}

	summary, err := h.Reporter.EmployeeWeek(r.Context(), id, weekStart)
	if err != nil {
		writeDomainError(w, "Failed to derive summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekSummaryDTO(*summary))
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}

	startTime := h.Now()
	if req.StartTime != "" {
		t, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_time (use RFC3339)", err)
			return
		}
		startTime = t
	}

	rec, err := h.Tracker.StartSession(r.Context(), attendance.EmployeeID(req.EmployeeID), startTime, req.Notes)
	if err != nil {
		writeDomainError(w, "Failed to start session", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(*rec))
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	id := attendance.RecordID(chi.URLParam(r, "id"))

	var req EndSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	endTime := h.Now()
	if req.EndTime != "" {
		t, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_time (use RFC3339)", err)
			return
		}
		endTime = t
	}

	rec, err := h.Tracker.EndSession(r.Context(), id, endTime, req.Notes)
	if err != nil {
		writeDomainError(w, "Failed to end session", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(*rec))
}

// =============================================================================
// COMPANY HANDLERS
// =============================================================================

func (h *Handler) IssueWeek(w http.ResponseWriter, r *http.Request) {
	companyID := attendance.CompanyID(chi.URLParam(r, "id"))

	var req IssueWeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	weekStart, ok := h.weekStartParam(w, req.WeekStart)
	if !ok {
		return
	}

	result, err := h.Orchestrator.IssueWeek(r.Context(), companyID, weekStart)
	if err != nil {
		writeDomainError(w, "Failed to issue weekly assignments", err)
		return
	}

	dto := BatchResultDTO{
		RunID:        result.RunID,
		CompanyID:    string(result.CompanyID),
		WeekStart:    result.WeekStart.String(),
		SuccessCount: result.SuccessCount,
		FailedCount:  result.FailedCount,
		Errors:       make([]BatchErrorDTO, len(result.Errors)),
		IssuedAt:     result.IssuedAt.Format(time.RFC3339),
	}
	for i, e := range result.Errors {
		dto.Errors[i] = BatchErrorDTO{
			EmployeeID:   string(e.EmployeeID),
			EmployeeName: e.EmployeeName,
			Reason:       e.Reason,
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) CompanySummary(w http.ResponseWriter, r *http.Request) {
	companyID := attendance.CompanyID(chi.URLParam(r, "id"))
	weekStart, ok := h.weekStartParam(w, r.URL.Query().Get("week_start"))
	if !ok {
		return
	}

	summary, err := h.Reporter.Company(r.Context(), companyID, weekStart)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build company summary", err)
		return
	}

	dto := CompanySummaryDTO{
		CompanyID: string(summary.CompanyID),
		WeekStart: summary.WeekStart.String(),
		AsOf:      summary.AsOf.Format(time.RFC3339),
		Counts: CountsDTO{
			Completed:  summary.Counts.Completed,
			InProgress: summary.Counts.InProgress,
			Scheduled:  summary.Counts.Scheduled,
			Absent:     summary.Counts.Absent,
			None:       summary.Counts.None,
		},
	}
	for _, emp := range summary.Employees {
		dto.Employees = append(dto.Employees, toWeekSummaryDTO(emp))
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// DailyTick is the scheduler port. An external cron POSTs here once a day;
// the server never runs its own timer.
func (h *Handler) DailyTick(w http.ResponseWriter, r *http.Request) {
	var req TickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date := attendance.DateOf(h.Now(), h.Location)
	if req.Date != "" {
		d, err := attendance.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
			return
		}
		date = d
	}

	result, err := h.Orchestrator.OnDailyTick(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Daily tick failed", err)
		return
	}
	writeJSON(w, http.StatusOK, TickResultDTO{
		Date:     result.Date.String(),
		Notified: result.Notified,
		Failed:   result.Failed,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// weekStartParam parses a YYYY-MM-DD week start and normalizes it to the
// Monday of its week. Empty input means the current week.
func (h *Handler) weekStartParam(w http.ResponseWriter, raw string) (attendance.Date, bool) {
	if raw == "" {
		return attendance.StartOfWeek(attendance.DateOf(h.Now(), h.Location)), true
	}
	d, err := attendance.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week_start (use YYYY-MM-DD)", err)
		return attendance.Date{}, false
	}
	return attendance.StartOfWeek(d), true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case attendance.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, attendance.ErrNegativeDuration):
		writeError(w, http.StatusBadRequest, message, err)
	case attendance.IsInvalidState(err):
		writeError(w, http.StatusConflict, message, err)
	case attendance.IsClientError(err):
		// Gate rejections land here: "already issued this week".
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
