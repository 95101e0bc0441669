/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Monetary values cross the wire as decimal strings ("5202.76"), never
  floats. Parsing happens in handlers; DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/budget-engine/payroll"
	"github.com/warp/budget-engine/scenario"
)

const dateLayout = "2006-01-02"

// =============================================================================
// REFERENCE DATA
// =============================================================================

// RoleDTO represents a job role in API responses.
type RoleDTO struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	BaseSalary string `json:"base_salary"`
}

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	Chapa            string `json:"chapa"`
	Name             string `json:"name"`
	Status           string `json:"status"`
	RoleCode         string `json:"role_code"`
	AdmissionDate    string `json:"admission_date"`
	ServiceStartDate string `json:"service_start_date,omitempty"`
	BirthDate        string `json:"birth_date,omitempty"`
	Section          string `json:"section,omitempty"`
	Regime           int    `json:"regime"`
	TaxID            string `json:"tax_id,omitempty"`
	CostCenter       string `json:"cost_center,omitempty"`
	Company          string `json:"company"`
	Team             string `json:"team"`
	RoleName         string `json:"role_name"`

	BenefitTransport  string `json:"benefit_transport"`
	BenefitMeal       string `json:"benefit_meal"`
	BenefitHealthPlan string `json:"benefit_health_plan"`
	BenefitOther      string `json:"benefit_other"`
}

func toEmployeeDTO(emp payroll.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		Chapa:             string(emp.Chapa),
		Name:              emp.Name,
		Status:            string(emp.Status),
		RoleCode:          string(emp.RoleCode),
		AdmissionDate:     emp.AdmissionDate.Format(dateLayout),
		Section:           emp.Section,
		Regime:            int(emp.Regime),
		TaxID:             emp.TaxID,
		CostCenter:        emp.CostCenter,
		Company:           emp.Company,
		Team:              emp.Team,
		RoleName:          emp.RoleName,
		BenefitTransport:  emp.Benefits.Transport.String(),
		BenefitMeal:       emp.Benefits.Meal.String(),
		BenefitHealthPlan: emp.Benefits.HealthPlan.String(),
		BenefitOther:      emp.Benefits.Other.String(),
	}
	if !emp.ServiceStartDate.IsZero() {
		dto.ServiceStartDate = emp.ServiceStartDate.Format(dateLayout)
	}
	if !emp.BirthDate.IsZero() {
		dto.BirthDate = emp.BirthDate.Format(dateLayout)
	}
	return dto
}

// toEmployee validates and converts the DTO into the domain record.
func (dto EmployeeDTO) toEmployee() (payroll.Employee, error) {
	if dto.Chapa == "" {
		return payroll.Employee{}, fmt.Errorf("chapa is required")
	}
	if dto.RoleCode == "" {
		return payroll.Employee{}, fmt.Errorf("role_code is required")
	}

	emp := payroll.Employee{
		Chapa:      payroll.Chapa(dto.Chapa),
		Name:       dto.Name,
		Status:     payroll.Status(dto.Status),
		RoleCode:   payroll.RoleCode(dto.RoleCode),
		Section:    dto.Section,
		Regime:     payroll.WorkRegime(dto.Regime),
		TaxID:      dto.TaxID,
		CostCenter: dto.CostCenter,
		Company:    dto.Company,
		Team:       dto.Team,
		RoleName:   dto.RoleName,
	}
	if emp.Status == "" {
		emp.Status = payroll.StatusActive
	}
	if emp.Regime == 0 {
		emp.Regime = payroll.Regime220
	}

	var err error
	if emp.AdmissionDate, err = time.Parse(dateLayout, dto.AdmissionDate); err != nil {
		return payroll.Employee{}, fmt.Errorf("bad admission_date %q", dto.AdmissionDate)
	}
	emp.ServiceStartDate = emp.AdmissionDate
	if dto.ServiceStartDate != "" {
		if emp.ServiceStartDate, err = time.Parse(dateLayout, dto.ServiceStartDate); err != nil {
			return payroll.Employee{}, fmt.Errorf("bad service_start_date %q", dto.ServiceStartDate)
		}
	}
	if dto.BirthDate != "" {
		if emp.BirthDate, err = time.Parse(dateLayout, dto.BirthDate); err != nil {
			return payroll.Employee{}, fmt.Errorf("bad birth_date %q", dto.BirthDate)
		}
	}

	if emp.Benefits, err = parseBenefits(dto.BenefitTransport, dto.BenefitMeal, dto.BenefitHealthPlan, dto.BenefitOther); err != nil {
		return payroll.Employee{}, err
	}

	return emp, nil
}

func parseBenefits(transport, meal, health, other string) (payroll.Benefits, error) {
	var (
		b   payroll.Benefits
		err error
	)
	if b.Transport, err = parseMoney(transport, "benefit_transport"); err != nil {
		return b, err
	}
	if b.Meal, err = parseMoney(meal, "benefit_meal"); err != nil {
		return b, err
	}
	if b.HealthPlan, err = parseMoney(health, "benefit_health_plan"); err != nil {
		return b, err
	}
	if b.Other, err = parseMoney(other, "benefit_other"); err != nil {
		return b, err
	}
	return b, nil
}

// parseMoney accepts an empty string as zero.
func parseMoney(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad %s %q", field, s)
	}
	return d, nil
}

// =============================================================================
// PARAMETERS
// =============================================================================

// ParameterRecordDTO is one versioned parameter record.
type ParameterRecordDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"parameter_name"`
	Value     string `json:"value"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
}

// ParameterValueDTO is a resolved point-in-time value.
type ParameterValueDTO struct {
	Name     string `json:"parameter_name"`
	Date     string `json:"date"`
	Value    string `json:"value"`
	RecordID int64  `json:"record_id"`
}

// =============================================================================
// BREAKDOWN
// =============================================================================

// MonthlyInputDTO carries a single month's variable inputs.
type MonthlyInputDTO struct {
	Overtime50Hours     float64 `json:"overtime_50_hours,omitempty"`
	Overtime100Hours    float64 `json:"overtime_100_hours,omitempty"`
	ReceivesInsalubrity bool    `json:"receives_insalubrity,omitempty"`
	ReceivesHazardPay   bool    `json:"receives_hazard_pay,omitempty"`
	ReceivesNightShift  bool    `json:"receives_night_shift,omitempty"`
	VacationDays        int     `json:"vacation_days,omitempty"`
	NightHours          float64 `json:"night_hours,omitempty"`
}

func (dto MonthlyInputDTO) toMonthlyInput() payroll.MonthlyInput {
	return payroll.MonthlyInput{
		Overtime50Hours:     decimal.NewFromFloat(dto.Overtime50Hours),
		Overtime100Hours:    decimal.NewFromFloat(dto.Overtime100Hours),
		ReceivesInsalubrity: dto.ReceivesInsalubrity,
		ReceivesHazardPay:   dto.ReceivesHazardPay,
		ReceivesNightShift:  dto.ReceivesNightShift,
		VacationDays:        dto.VacationDays,
		NightHours:          decimal.NewFromFloat(dto.NightHours),
	}
}

// BreakdownRequest asks for one employee's cost breakdown on a date.
type BreakdownRequest struct {
	Date  string          `json:"date"`
	Input MonthlyInputDTO `json:"monthly_input"`
}

// BreakdownDTO is the itemized monthly cost of one employee.
type BreakdownDTO struct {
	Chapa               string `json:"chapa"`
	BaseSalary          string `json:"base_salary"`
	ProportionalSalary  string `json:"proportional_salary"`
	InsalubrityBonus    string `json:"insalubrity_bonus"`
	HazardBonus         string `json:"hazard_bonus"`
	NightShiftPremium   string `json:"night_shift_premium"`
	TotalEarnings       string `json:"total_earnings"`
	FGTS                string `json:"fgts"`
	EmployerSocialSec   string `json:"employer_social_security"`
	VacationProvision   string `json:"vacation_provision"`
	ThirteenthProvision string `json:"thirteenth_provision"`
	TotalCharges        string `json:"total_charges"`
	TotalBenefits       string `json:"total_benefits"`
	TotalCost           string `json:"total_cost"`
}

func toBreakdownDTO(bd payroll.Breakdown) BreakdownDTO {
	return BreakdownDTO{
		Chapa:               string(bd.Chapa),
		BaseSalary:          bd.BaseSalary.String(),
		ProportionalSalary:  bd.ProportionalSalary.String(),
		InsalubrityBonus:    bd.InsalubrityBonus.String(),
		HazardBonus:         bd.HazardBonus.String(),
		NightShiftPremium:   bd.NightShiftPremium.String(),
		TotalEarnings:       bd.TotalEarnings.String(),
		FGTS:                bd.FGTS.String(),
		EmployerSocialSec:   bd.EmployerSocialSec.String(),
		VacationProvision:   bd.VacationProvision.String(),
		ThirteenthProvision: bd.ThirteenthProvision.String(),
		TotalCharges:        bd.TotalCharges.String(),
		TotalBenefits:       bd.TotalBenefits.String(),
		TotalCost:           bd.TotalCost.String(),
	}
}

// TotalPayrollDTO is the headline payroll figure for a date.
type TotalPayrollDTO struct {
	Date      string   `json:"date"`
	TotalCost string   `json:"total_base_salaries"`
	Headcount int      `json:"headcount"`
	Warnings  []string `json:"warnings,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ActionDTO is one headcount action in a scenario request.
type ActionDTO struct {
	Type          string `json:"type"`
	EffectiveDate string `json:"effective_date"`
	Company       string `json:"company"`
	Team          string `json:"team"`
	RoleCode      string `json:"role_code"`
	Quantity      int    `json:"quantity"`

	SalaryOverride    string `json:"salary_override,omitempty"`
	BenefitTransport  string `json:"benefit_transport,omitempty"`
	BenefitMeal       string `json:"benefit_meal,omitempty"`
	BenefitHealthPlan string `json:"benefit_health_plan,omitempty"`
	BenefitOther      string `json:"benefit_other,omitempty"`
}

// RunScenarioRequest defines a scenario to simulate.
type RunScenarioRequest struct {
	Name           string      `json:"name"`
	StartYear      int         `json:"start_year"`
	StartMonth     int         `json:"start_month"`
	DurationMonths int         `json:"duration_months"`
	Actions        []ActionDTO `json:"actions"`
}

func (req RunScenarioRequest) toDefinition() (scenario.Definition, error) {
	def := scenario.Definition{
		Name:           req.Name,
		StartYear:      req.StartYear,
		StartMonth:     time.Month(req.StartMonth),
		DurationMonths: req.DurationMonths,
	}

	for i, a := range req.Actions {
		effective, err := time.Parse(dateLayout, a.EffectiveDate)
		if err != nil {
			return def, fmt.Errorf("action %d: bad effective_date %q", i, a.EffectiveDate)
		}
		group := payroll.GroupKey{Company: a.Company, Team: a.Team, RoleCode: payroll.RoleCode(a.RoleCode)}

		var action scenario.Action
		switch scenario.ActionType(a.Type) {
		case scenario.ActionAdd:
			var salary *decimal.Decimal
			if a.SalaryOverride != "" {
				d, err := decimal.NewFromString(a.SalaryOverride)
				if err != nil {
					return def, fmt.Errorf("action %d: bad salary_override %q", i, a.SalaryOverride)
				}
				salary = &d
			}
			var benefits *payroll.Benefits
			if a.BenefitTransport != "" || a.BenefitMeal != "" || a.BenefitHealthPlan != "" || a.BenefitOther != "" {
				b, err := parseBenefits(a.BenefitTransport, a.BenefitMeal, a.BenefitHealthPlan, a.BenefitOther)
				if err != nil {
					return def, fmt.Errorf("action %d: %w", i, err)
				}
				benefits = &b
			}
			if action, err = scenario.NewAddActionWithOverrides(effective, group, a.Quantity, salary, benefits); err != nil {
				return def, fmt.Errorf("action %d: %w", i, err)
			}
		default:
			if action, err = scenario.NewAction(scenario.ActionType(a.Type), effective, group, a.Quantity); err != nil {
				return def, fmt.Errorf("action %d: %w", i, err)
			}
		}
		def.Actions = append(def.Actions, action)
	}

	return def, def.Validate()
}

// MonthlySnapshotDTO is one simulated month in a scenario response.
type MonthlySnapshotDTO struct {
	Year       int            `json:"year"`
	Month      int            `json:"month"`
	Headcount  int            `json:"headcount"`
	TotalCost  string         `json:"total_cost"`
	Breakdowns []BreakdownDTO `json:"breakdowns,omitempty"`
}

// ScenarioResultDTO is the outcome of a scenario run.
type ScenarioResultDTO struct {
	RunID        int64                `json:"run_id,omitempty"`
	ScenarioName string               `json:"scenario_name"`
	TotalCost    string               `json:"total_cost"`
	Snapshots    []MonthlySnapshotDTO `json:"snapshots"`
	FinalRoster  []EmployeeDTO        `json:"final_roster"`
	Warnings     []string             `json:"warnings,omitempty"`
}

func toScenarioResultDTO(result scenario.Result, includeBreakdowns bool) ScenarioResultDTO {
	dto := ScenarioResultDTO{
		ScenarioName: result.ScenarioName,
		TotalCost:    result.TotalCost.String(),
	}
	for _, snap := range result.Snapshots {
		snapDTO := MonthlySnapshotDTO{
			Year:      snap.Year,
			Month:     int(snap.Month),
			Headcount: snap.Headcount,
			TotalCost: snap.TotalCost.String(),
		}
		if includeBreakdowns {
			for _, bd := range snap.Breakdowns {
				snapDTO.Breakdowns = append(snapDTO.Breakdowns, toBreakdownDTO(bd))
			}
		}
		dto.Snapshots = append(dto.Snapshots, snapDTO)
	}
	for _, emp := range result.FinalRoster {
		dto.FinalRoster = append(dto.FinalRoster, toEmployeeDTO(emp))
	}
	for _, w := range result.Warnings {
		dto.Warnings = append(dto.Warnings, w.String())
	}
	return dto
}

// ScenarioRunSummaryDTO is a persisted run in list responses.
type ScenarioRunSummaryDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	StartYear      int    `json:"start_year"`
	StartMonth     int    `json:"start_month"`
	DurationMonths int    `json:"duration_months"`
	TotalCost      string `json:"total_cost"`
	FinalHeadcount int    `json:"final_headcount"`
	CreatedAt      string `json:"created_at"`
}

// =============================================================================
// DEMO SCENARIOS
// =============================================================================

// DemoScenarioDTO describes a loadable demo dataset.
type DemoScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a demo dataset to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
