/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:

	Defines the JSON structures for API communication. Domain types carry
	decimals and typed IDs; DTOs expose them as stable snake_case JSON.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NUMBERS:

	Amounts and days are decimal.Decimal, serialized as JSON strings
	("241", "5167.5") so no precision is lost. Requests accept both strings
	and numbers.

VALIDATION:

	Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/grid.go: GridJSON and RateJSON
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/erasmus-writer/resource-engine/cost"
	"github.com/erasmus-writer/resource-engine/generic"
	"github.com/erasmus-writer/resource-engine/report"
	"github.com/erasmus-writer/resource-engine/workload"
)

// =============================================================================
// COST
// =============================================================================

// CostDTO is a member's effective cost.
type CostDTO struct {
	MemberID    string          `json:"member_id"`
	Nation      string          `json:"nation,omitempty"`
	DailyRate   decimal.Decimal `json:"daily_rate"`
	MonthlyCost decimal.Decimal `json:"monthly_cost"`
	Currency    string          `json:"currency"`
	Source      string          `json:"source"`
	Details     string          `json:"details"`
}

// SetRateRequest sets a custom daily rate. A null or missing rate clears it.
type SetRateRequest struct {
	DailyRate *decimal.Decimal `json:"daily_rate"`
}

// =============================================================================
// MEMBERS AND PARTNERS
// =============================================================================

// CreateMemberRequest adds a user to a project through a partner.
type CreateMemberRequest struct {
	ID              string           `json:"id,omitempty"`
	UserID          string           `json:"user_id"`
	ProjectID       string           `json:"project_id"`
	PartnerID       string           `json:"partner_id"`
	Role            string           `json:"role,omitempty"`
	ProjectRole     string           `json:"project_role,omitempty"`
	CustomDailyRate *decimal.Decimal `json:"custom_daily_rate,omitempty"`
}

// MemberDTO represents a project member in API responses.
type MemberDTO struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	ProjectID       string           `json:"project_id"`
	PartnerID       string           `json:"partner_id"`
	Role            string           `json:"role"`
	ProjectRole     string           `json:"project_role,omitempty"`
	CustomDailyRate *decimal.Decimal `json:"custom_daily_rate,omitempty"`
}

// PartnerDTO is used both to create a partner and to return it.
type PartnerDTO struct {
	ID        string          `json:"id,omitempty"`
	ProjectID string          `json:"project_id"`
	Nation    string          `json:"nation"`
	Name      string          `json:"name"`
	Budget    decimal.Decimal `json:"budget"`
}

// =============================================================================
// STANDARD COSTS
// =============================================================================

// StandardCostDTO is one grid row.
type StandardCostDTO struct {
	ID        string          `json:"id,omitempty"`
	Nation    string          `json:"nation"`
	Role      string          `json:"role"`
	Area      string          `json:"area,omitempty"`
	DailyRate decimal.Decimal `json:"daily_rate"`
}

// ImportResponse reports how many grid rows were stored.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// =============================================================================
// WORKLOAD
// =============================================================================

// WorkloadDTO is a user's load for one month.
type WorkloadDTO struct {
	UserID        string            `json:"user_id"`
	Period        string            `json:"period"`
	Month         int               `json:"month"`
	Year          int               `json:"year"`
	Capacity      decimal.Decimal   `json:"capacity"`
	Load          decimal.Decimal   `json:"load"`
	Percentage    decimal.Decimal   `json:"percentage"`
	Status        string            `json:"status"`
	Contributions []ContributionDTO `json:"contributions,omitempty"`
	Skipped       []SkippedDTO      `json:"skipped,omitempty"`
}

type ContributionDTO struct {
	AssignmentID string          `json:"assignment_id"`
	ProjectID    string          `json:"project_id"`
	Days         decimal.Decimal `json:"days"`
}

type SkippedDTO struct {
	AssignmentID string `json:"assignment_id"`
	Reason       string `json:"reason"`
}

// AvailabilityDTO declares twelve monthly capacities, January first. User
// and year come from the URL on writes.
type AvailabilityDTO struct {
	UserID string            `json:"user_id,omitempty"`
	Year   int               `json:"year,omitempty"`
	Days   []decimal.Decimal `json:"days"`
}

// AssignmentDTO is used both to create an assignment and to return it.
type AssignmentDTO struct {
	ID        string          `json:"id,omitempty"`
	UserID    string          `json:"user_id"`
	ProjectID string          `json:"project_id"`
	Label     string          `json:"label,omitempty"`
	Days      decimal.Decimal `json:"days"`
	Months    []string        `json:"months"`
	// Malformed is set when the stored month list cannot be parsed; Months
	// is then empty and RawMonths carries the stored text.
	Malformed bool   `json:"malformed,omitempty"`
	RawMonths string `json:"raw_months,omitempty"`
}

// =============================================================================
// REPORT
// =============================================================================

type ReportDTO struct {
	ProjectID string          `json:"project_id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Members   []MemberLineDTO `json:"members"`
	Months    []MonthTotalDTO `json:"months"`
	TotalDays decimal.Decimal `json:"total_days"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

type MemberLineDTO struct {
	MemberID    string           `json:"member_id"`
	UserID      string           `json:"user_id"`
	ProjectRole string           `json:"project_role,omitempty"`
	Nation      string           `json:"nation,omitempty"`
	Cost        CostDTO          `json:"cost"`
	Months      []MemberMonthDTO `json:"months"`
	TotalDays   decimal.Decimal  `json:"total_days"`
	TotalCost   decimal.Decimal  `json:"total_cost"`
}

type MemberMonthDTO struct {
	Period       string          `json:"period"`
	ProjectDays  decimal.Decimal `json:"project_days"`
	EffortCost   decimal.Decimal `json:"effort_cost"`
	BusinessDays int             `json:"business_days"`
	Workload     WorkloadDTO     `json:"workload"`
}

type MonthTotalDTO struct {
	Period string          `json:"period"`
	Days   decimal.Decimal `json:"days"`
	Cost   decimal.Decimal `json:"cost"`
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is returned for API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toCostDTO(c cost.Cost) CostDTO {
	return CostDTO{
		MemberID:    string(c.MemberID),
		Nation:      c.Nation,
		DailyRate:   c.DailyRate.Value,
		MonthlyCost: c.MonthlyCost.Value,
		Currency:    string(c.DailyRate.Unit),
		Source:      string(c.Source),
		Details:     c.Details,
	}
}

func toMemberDTO(m generic.ProjectMember) MemberDTO {
	return MemberDTO{
		ID:              string(m.ID),
		UserID:          string(m.UserID),
		ProjectID:       string(m.ProjectID),
		PartnerID:       string(m.PartnerID),
		Role:            string(m.Role),
		ProjectRole:     m.ProjectRole,
		CustomDailyRate: m.CustomDailyRate,
	}
}

// toWorkloadDTO rounds the percentage to two places; the other figures are exact.
func toWorkloadDTO(w workload.Workload) WorkloadDTO {
	dto := WorkloadDTO{
		UserID:     string(w.UserID),
		Period:     w.Period.String(),
		Month:      int(w.Period.Month),
		Year:       w.Period.Year,
		Capacity:   w.Capacity,
		Load:       w.Load,
		Percentage: w.Percentage.Round(2),
		Status:     string(w.Status),
	}
	for _, c := range w.Contributions {
		dto.Contributions = append(dto.Contributions, ContributionDTO{
			AssignmentID: c.AssignmentID,
			ProjectID:    string(c.ProjectID),
			Days:         c.Days,
		})
	}
	for _, s := range w.Skipped {
		dto.Skipped = append(dto.Skipped, SkippedDTO{AssignmentID: s.AssignmentID, Reason: s.Err.Error()})
	}
	return dto
}

func toAssignmentDTO(a generic.Assignment) AssignmentDTO {
	dto := AssignmentDTO{
		ID:        a.ID,
		UserID:    string(a.UserID),
		ProjectID: string(a.ProjectID),
		Label:     a.Label,
		Days:      a.Days,
		Months:    []string{},
	}
	months, err := generic.ParsePeriods(a.Months)
	if err != nil {
		dto.Malformed = true
		dto.RawMonths = a.Months
		return dto
	}
	for _, p := range months {
		dto.Months = append(dto.Months, p.String())
	}
	return dto
}

func toStandardCostDTO(sc generic.StandardCost) StandardCostDTO {
	return StandardCostDTO{
		ID:        sc.ID,
		Nation:    sc.Nation,
		Role:      sc.Role,
		Area:      sc.Area,
		DailyRate: sc.DailyRate,
	}
}

func toReportDTO(r report.Report) ReportDTO {
	dto := ReportDTO{
		ProjectID: string(r.ProjectID),
		From:      r.From.String(),
		To:        r.To.String(),
		Members:   make([]MemberLineDTO, 0, len(r.Members)),
		Months:    make([]MonthTotalDTO, 0, len(r.Months)),
		TotalDays: r.TotalDays,
		TotalCost: r.TotalCost,
	}
	for _, line := range r.Members {
		ml := MemberLineDTO{
			MemberID:    string(line.MemberID),
			UserID:      string(line.UserID),
			ProjectRole: line.ProjectRole,
			Nation:      line.Nation,
			Cost:        toCostDTO(line.Cost),
			TotalDays:   line.TotalDays,
			TotalCost:   line.TotalCost,
		}
		for _, m := range line.Months {
			ml.Months = append(ml.Months, MemberMonthDTO{
				Period:       m.Workload.Period.String(),
				ProjectDays:  m.ProjectDays,
				EffortCost:   m.EffortCost,
				BusinessDays: m.BusinessDays,
				Workload:     toWorkloadDTO(m.Workload),
			})
		}
		dto.Members = append(dto.Members, ml)
	}
	for _, m := range r.Months {
		dto.Months = append(dto.Months, MonthTotalDTO{Period: m.Period.String(), Days: m.Days, Cost: m.Cost})
	}
	return dto
}
