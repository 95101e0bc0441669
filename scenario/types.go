/*
Package scenario simulates headcount changes over a multi-month horizon.

PURPOSE:
  A budget scenario is a sequence of hire (Add) and reduction (Remove)
  actions applied to a working roster, month by month. For every
  simulated month the package re-resolves the parameter configuration,
  mutates the roster with that month's actions, and re-runs the cost
  engine for every remaining member, producing a monthly snapshot and a
  scenario-wide total.

KEY CONCEPTS IN THIS FILE (types.go):
  - Action: one validated headcount event (Add or Remove)
  - Definition: a named scenario - start month, duration, ordered actions
  - MonthlySnapshot / Result: simulation output

VALIDATION:
  Actions are validated at construction, before any simulation starts.
  A malformed action is an InvalidActionError at scenario-build time,
  never a mid-run surprise.

SEE ALSO:
  - roster.go: The keyed working roster and its deterministic mutation
  - simulator.go: The month loop
  - qpa.go: Grouped headcount summaries and CSV export
*/
package scenario

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/budget-engine/payroll"
)

// =============================================================================
// ACTION
// =============================================================================

// ActionType is the kind of headcount change.
type ActionType string

const (
	ActionAdd    ActionType = "add"
	ActionRemove ActionType = "remove"
)

// Action is one scenario event: add or remove a quantity of employees in
// an organizational group, effective in a given month. Immutable once
// validated; construct through NewAction.
type Action struct {
	Type          ActionType
	EffectiveDate time.Time
	Group         payroll.GroupKey
	Quantity      int

	// Add-only overrides for the compensation of synthesized hires.
	// Nil means the matched role's standard salary and zero benefits.
	SalaryOverride   *decimal.Decimal
	BenefitsOverride *payroll.Benefits
}

// InvalidActionError reports a headcount action that failed validation.
type InvalidActionError struct {
	Reason string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid headcount action: %s", e.Reason)
}

func (e *InvalidActionError) Unwrap() error { return payroll.ErrInvalidAction }

// NewAction validates and returns an immutable Action.
func NewAction(typ ActionType, effective time.Time, group payroll.GroupKey, quantity int) (Action, error) {
	a := Action{Type: typ, EffectiveDate: effective, Group: group, Quantity: quantity}
	if err := a.validate(); err != nil {
		return Action{}, err
	}
	return a, nil
}

// NewAddActionWithOverrides is NewAction for hires carrying simulated
// compensation instead of the role's standard figures.
func NewAddActionWithOverrides(effective time.Time, group payroll.GroupKey, quantity int, salary *decimal.Decimal, benefits *payroll.Benefits) (Action, error) {
	a := Action{
		Type:             ActionAdd,
		EffectiveDate:    effective,
		Group:            group,
		Quantity:         quantity,
		SalaryOverride:   salary,
		BenefitsOverride: benefits,
	}
	if err := a.validate(); err != nil {
		return Action{}, err
	}
	return a, nil
}

func (a Action) validate() error {
	switch a.Type {
	case ActionAdd, ActionRemove:
	default:
		return &InvalidActionError{Reason: fmt.Sprintf("unknown type %q", a.Type)}
	}
	if a.EffectiveDate.IsZero() {
		return &InvalidActionError{Reason: "effective date is required"}
	}
	if a.Group.Company == "" || a.Group.Team == "" || a.Group.RoleCode == "" {
		return &InvalidActionError{Reason: "group requires company, team and role code"}
	}
	if a.Quantity <= 0 {
		return &InvalidActionError{Reason: fmt.Sprintf("quantity must be positive, got %d", a.Quantity)}
	}
	if a.Type == ActionRemove && (a.SalaryOverride != nil || a.BenefitsOverride != nil) {
		return &InvalidActionError{Reason: "compensation overrides only apply to add actions"}
	}
	if a.SalaryOverride != nil && a.SalaryOverride.IsNegative() {
		return &InvalidActionError{Reason: "overridden salary must not be negative"}
	}
	return nil
}

// appliesTo reports whether the action fires in the given simulation month.
func (a Action) appliesTo(year int, month time.Month) bool {
	return a.EffectiveDate.Year() == year && a.EffectiveDate.Month() == month
}

// =============================================================================
// DEFINITION
// =============================================================================

// Definition is a named scenario: where the simulation starts, how many
// months it runs, and the ordered actions applied along the way.
type Definition struct {
	Name           string
	StartYear      int
	StartMonth     time.Month
	DurationMonths int
	Actions        []Action
}

// Validate checks the definition and every action it carries.
func (d Definition) Validate() error {
	if d.Name == "" {
		return &InvalidActionError{Reason: "scenario name is required"}
	}
	if d.StartMonth < time.January || d.StartMonth > time.December {
		return &InvalidActionError{Reason: fmt.Sprintf("start month %d out of range", d.StartMonth)}
	}
	if d.DurationMonths <= 0 {
		return &InvalidActionError{Reason: fmt.Sprintf("duration must be positive, got %d months", d.DurationMonths)}
	}
	for i, a := range d.Actions {
		if err := a.validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// MonthlySnapshot is the state of one simulated month: who was on the
// roster after that month's mutations, and what they cost.
type MonthlySnapshot struct {
	Year       int
	Month      time.Month
	Headcount  int
	TotalCost  decimal.Decimal
	Breakdowns []payroll.Breakdown
}

// Result is the outcome of a full scenario run.
type Result struct {
	ScenarioName string
	Snapshots    []MonthlySnapshot

	// TotalCost is the sum of every monthly total across the horizon.
	TotalCost decimal.Decimal

	// FinalRoster is the roster after the last simulated month, ordered
	// by chapa.
	FinalRoster []payroll.Employee

	Warnings []payroll.Warning
}
