/*
Package payroll provides the core employment cost engine.

PURPOSE:
  This package contains the canonical record types and the computation
  engine for monthly employment cost. Given one employee, one resolved
  configuration, and one month's variable inputs, it produces a fully
  itemized cost breakdown.

KEY CONCEPTS IN THIS FILE (types.go):
  - Role: A job position with a standard base salary (reference data)
  - Employee: One worker, with grouping attributes used for headcount
    scenarios
  - MonthlyInput: Per-employee, per-month variable facts (overtime,
    eligibility flags, vacation days)
  - RoleDirectory: Keyed lookup from role code to Role

DESIGN PRINCIPLES:
  1. Value types: records flow through the engine by value; the engine
     never mutates an Employee
  2. Precision: uses decimal.Decimal to avoid floating-point errors in
     money math
  3. Type safety: strong typing for identifiers prevents mixing chapas
     and role codes

SEE ALSO:
  - formula.go: Pure formula library
  - engine.go: Breakdown assembly
  - config.go: Resolved configuration snapshot
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// Chapa is the unique employee identifier (payroll badge number).
type Chapa string

// RoleCode identifies a Role in the reference data.
type RoleCode string

// =============================================================================
// EMPLOYEE STATUS - closed set
// =============================================================================

type Status string

const (
	StatusActive              Status = "active"
	StatusVacation            Status = "vacation"
	StatusIncapacity          Status = "incapacity"
	StatusUnpaidLeave         Status = "unpaid_leave"
	StatusSocialSecurityLeave Status = "social_security_leave"
	StatusWorkAccidentLeave   Status = "work_accident_leave"
)

// IsActive reports whether the employee draws a regular salary this month.
func (s Status) IsActive() bool { return s == StatusActive }

// =============================================================================
// WORKING-HOURS REGIME - closed set
// =============================================================================

// WorkRegime is the contractual monthly working-hours regime.
type WorkRegime int

const (
	Regime220 WorkRegime = 220
	Regime150 WorkRegime = 150
	Regime75  WorkRegime = 75
)

func (r WorkRegime) Hours() int { return int(r) }

// =============================================================================
// ROLE - immutable reference data
// =============================================================================

// Role is a job position with its standard base salary.
// The salary here is the standard for the role; an employee's effective
// compensation may be overridden by scenario actions.
type Role struct {
	Code       RoleCode
	Name       string
	BaseSalary decimal.Decimal
}

// RoleDirectory is a keyed lookup from role code to Role.
type RoleDirectory map[RoleCode]Role

// NewRoleDirectory builds a directory from a slice of roles.
// Later duplicates win, matching load order semantics of the reference data.
func NewRoleDirectory(roles []Role) RoleDirectory {
	dir := make(RoleDirectory, len(roles))
	for _, r := range roles {
		dir[r.Code] = r
	}
	return dir
}

// Lookup returns the role for a code.
func (d RoleDirectory) Lookup(code RoleCode) (Role, bool) {
	r, ok := d[code]
	return r, ok
}

// =============================================================================
// BENEFITS - fixed monthly benefit amounts
// =============================================================================

// Benefits holds the four fixed monthly benefit amounts for an employee.
type Benefits struct {
	Transport  decimal.Decimal
	Meal       decimal.Decimal
	HealthPlan decimal.Decimal
	Other      decimal.Decimal
}

// Total returns the arithmetic sum of all benefit amounts.
func (b Benefits) Total() decimal.Decimal {
	return SumBenefits(b.Transport, b.Meal, b.HealthPlan, b.Other)
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee represents one worker. Employees are value types: the engine
// computes a Breakdown from an Employee but never writes back into it.
type Employee struct {
	Chapa            Chapa
	Name             string
	Status           Status
	RoleCode         RoleCode
	AdmissionDate    time.Time
	ServiceStartDate time.Time // admission date for time-of-service purposes
	BirthDate        time.Time
	Section          string
	Regime           WorkRegime
	TaxID            string
	CostCenter       string

	// Grouping attributes used for scenario matching and QPA summaries.
	Company  string
	Team     string
	RoleName string

	Benefits Benefits

	// BaseSalaryOverride, when set, takes precedence over the role's
	// standard salary. Scenario hires with simulated compensation use it.
	BaseSalaryOverride *decimal.Decimal
}

// GroupKey identifies the organizational group an employee belongs to.
type GroupKey struct {
	Company  string
	Team     string
	RoleCode RoleCode
}

// Group returns the employee's organizational group.
func (e Employee) Group() GroupKey {
	return GroupKey{Company: e.Company, Team: e.Team, RoleCode: e.RoleCode}
}

// =============================================================================
// MONTHLY INPUT - variable facts for one employee-month
// =============================================================================

// MonthlyInput holds the variable inputs of one employee for one calculation
// month. The zero value is a valid "no variance" month: no overtime, no
// vacation, no premium eligibility.
type MonthlyInput struct {
	Overtime50Hours      decimal.Decimal
	Overtime100Hours     decimal.Decimal
	ReceivesInsalubrity  bool
	ReceivesHazardPay    bool
	ReceivesNightShift   bool
	VacationDays         int
	WorkedHours          decimal.Decimal
	NoticePeriodHours    decimal.Decimal
	WeeklyPaidRestAmount decimal.Decimal
	NightHours           decimal.Decimal
}

// DefaultMonthlyInput returns the zero-variance input used when no richer
// monthly data source is supplied.
func DefaultMonthlyInput() MonthlyInput { return MonthlyInput{} }
