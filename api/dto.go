/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.
*/
package api

import (
	"time"

	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID             string `json:"id"`
	CompanyID      string `json:"company_id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	ContractPeriod string `json:"contract_period"`
	ContractStatus string `json:"contract_status"`
	CreatedAt      string `json:"created_at,omitempty"`
}

type CreateEmployeeRequest struct {
	ID             string `json:"id"`
	CompanyID      string `json:"company_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ContractPeriod string `json:"contract_period"`
	ContractStatus string `json:"contract_status"`
}

func toEmployeeDTO(e attendance.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:             string(e.ID),
		CompanyID:      string(e.CompanyID),
		Name:           e.Name,
		Email:          e.Email,
		ContractPeriod: e.ContractPeriod,
		ContractStatus: string(e.ContractStatus),
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// SCHEDULES
// =============================================================================

type ScheduleDTO struct {
	EmployeeID string   `json:"employee_id"`
	Date       string   `json:"date"`
	Tasks      []string `json:"tasks"`
}

type GenerateWeekRequest struct {
	WeekStart string `json:"week_start"` // YYYY-MM-DD, normalized to Monday
}

func toScheduleDTO(ws attendance.WorkSchedule) ScheduleDTO {
	return ScheduleDTO{
		EmployeeID: string(ws.EmployeeID),
		Date:       ws.Date.String(),
		Tasks:      ws.Tasks,
	}
}

// =============================================================================
// SESSIONS
// =============================================================================

type RecordDTO struct {
	ID              string `json:"id"`
	EmployeeID      string `json:"employee_id"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	Notes           string `json:"notes,omitempty"`
}

type StartSessionRequest struct {
	EmployeeID string `json:"employee_id"`
	StartTime  string `json:"start_time"` // RFC3339; empty means "now"
	Notes      string `json:"notes"`
}

type EndSessionRequest struct {
	EndTime string `json:"end_time"` // RFC3339; empty means "now"
	Notes   string `json:"notes"`
}

func toRecordDTO(rec attendance.WorkRecord) RecordDTO {
	dto := RecordDTO{
		ID:              string(rec.ID),
		EmployeeID:      string(rec.EmployeeID),
		Date:            rec.Date.String(),
		StartTime:       rec.StartTime.Format(time.RFC3339),
		DurationMinutes: rec.DurationMinutes,
		Status:          string(rec.Status),
		Notes:           rec.Notes,
	}
	if rec.EndTime != nil {
		dto.EndTime = rec.EndTime.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// DERIVED STATUS / SUMMARIES
// =============================================================================

type DayStatusDTO struct {
	Date    string   `json:"date"`
	Status  string   `json:"status"`
	Minutes int      `json:"minutes"`
	Tasks   []string `json:"tasks,omitempty"`
}

type WeekSummaryDTO struct {
	EmployeeID   string         `json:"employee_id"`
	Days         []DayStatusDTO `json:"days"`
	TotalMinutes int            `json:"total_minutes"`
	Percent      string         `json:"percent"`   // display value, capped at 100
	RawRatio     string         `json:"raw_ratio"` // unclamped TotalMinutes/target
	Deliveries   []DeliveryDTO  `json:"deliveries,omitempty"`
}

// DeliveryDTO is one notification log entry: did that week's assignments
// actually reach the employee.
type DeliveryDTO struct {
	Date        string `json:"date"`
	Trigger     string `json:"trigger"`
	Delivered   bool   `json:"delivered"`
	Reason      string `json:"reason,omitempty"`
	RunID       string `json:"run_id,omitempty"`
	AttemptedAt string `json:"attempted_at"`
}

type CompanySummaryDTO struct {
	CompanyID string           `json:"company_id"`
	WeekStart string           `json:"week_start"`
	AsOf      string           `json:"as_of"`
	Employees []WeekSummaryDTO `json:"employees"`
	Counts    CountsDTO        `json:"counts"`
}

type CountsDTO struct {
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Scheduled  int `json:"scheduled"`
	Absent     int `json:"absent"`
	None       int `json:"none"`
}

func toWeekSummaryDTO(s attendance.WeekSummary) WeekSummaryDTO {
	days := make([]DayStatusDTO, len(s.Days))
	for i, d := range s.Days {
		days[i] = DayStatusDTO{
			Date:    d.Date.String(),
			Status:  string(d.Status),
			Minutes: d.Minutes,
			Tasks:   d.Tasks,
		}
	}
	deliveries := make([]DeliveryDTO, len(s.Deliveries))
	for i, d := range s.Deliveries {
		deliveries[i] = DeliveryDTO{
			Date:        d.Date.String(),
			Trigger:     string(d.Trigger),
			Delivered:   d.Delivered,
			Reason:      d.Reason,
			RunID:       d.RunID,
			AttemptedAt: d.AttemptedAt.Format(time.RFC3339),
		}
	}
	return WeekSummaryDTO{
		EmployeeID:   string(s.EmployeeID),
		Days:         days,
		TotalMinutes: s.TotalMinutes,
		Percent:      s.DisplayPercent.Round(1).String(),
		RawRatio:     s.Ratio.Round(4).String(),
		Deliveries:   deliveries,
	}
}

// =============================================================================
// BATCH / TICK
// =============================================================================

type IssueWeekRequest struct {
	WeekStart string `json:"week_start"`
}

type BatchErrorDTO struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Reason       string `json:"reason"`
}

type BatchResultDTO struct {
	RunID        string          `json:"run_id"`
	CompanyID    string          `json:"company_id"`
	WeekStart    string          `json:"week_start"`
	SuccessCount int             `json:"success_count"`
	FailedCount  int             `json:"failed_count"`
	Errors       []BatchErrorDTO `json:"errors"`
	IssuedAt     string          `json:"issued_at"`
}

type TickRequest struct {
	Date string `json:"date"` // YYYY-MM-DD; empty means today
}

type TickResultDTO struct {
	Date     string `json:"date"`
	Notified int    `json:"notified"`
	Failed   int    `json:"failed"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
