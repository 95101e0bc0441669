/*
simulator.go - The month-by-month scenario loop

PURPOSE:
  Runs a scenario Definition against a starting roster. Each month:

    1. Resolve the configuration for the month (failure aborts the run;
       no partial month is ever recorded)
    2. Apply the month's Add actions (unknown role: skip that action
       with a warning, the run continues)
    3. Apply the month's Remove actions (smaller-than-quantity group:
       remove what matches, warn, continue)
    4. Compute every remaining member's cost breakdown
    5. Record a MonthlySnapshot

  Month N's roster mutations are visible to month N+1 - costs and
  headcount compound across the horizon, so the loop is strictly
  sequential. Within one month the per-employee computation is
  order-independent; members are processed in chapa order only so
  snapshots come out stable.

SEE ALSO:
  - payroll/engine.go: The per-employee computation this loop drives
  - history package: The usual ConfigSource implementation
*/
package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/budget-engine/payroll"
)

// ConfigSource resolves the parameter configuration in force on a date.
// *history.Store satisfies it.
type ConfigSource interface {
	ConfigOnDate(date time.Time) (payroll.ResolvedConfig, error)
}

// InputSource supplies the variable monthly inputs for one employee-month.
// Simulations without real monthly data use ZeroVarianceInputs.
type InputSource interface {
	InputFor(chapa payroll.Chapa, year int, month time.Month) payroll.MonthlyInput
}

// ZeroVarianceInputs is the default InputSource: no overtime, no vacation,
// no premium eligibility for anyone.
type ZeroVarianceInputs struct{}

func (ZeroVarianceInputs) InputFor(payroll.Chapa, int, time.Month) payroll.MonthlyInput {
	return payroll.DefaultMonthlyInput()
}

// Simulator replays a scenario against the cost engine.
type Simulator struct {
	Engine *payroll.Engine
	Config ConfigSource

	// Inputs supplies monthly variable data; nil means ZeroVarianceInputs.
	Inputs InputSource
}

// NewSimulator returns a simulator using zero-variance monthly inputs.
func NewSimulator(engine *payroll.Engine, config ConfigSource) *Simulator {
	return &Simulator{Engine: engine, Config: config, Inputs: ZeroVarianceInputs{}}
}

// Run simulates the scenario starting from a copy of the supplied
// employees. The input slice is never mutated. A configuration resolution
// failure aborts the run and returns the months recorded so far alongside
// the error; every other problem is a warning in the Result.
func (s *Simulator) Run(ctx context.Context, def Definition, employees []payroll.Employee) (Result, error) {
	if err := def.Validate(); err != nil {
		return Result{}, err
	}

	inputs := s.Inputs
	if inputs == nil {
		inputs = ZeroVarianceInputs{}
	}

	roster := NewRoster(employees)
	result := Result{ScenarioName: def.Name, TotalCost: decimal.Zero}

	current := time.Date(def.StartYear, def.StartMonth, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < def.DurationMonths; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		year, month := current.Year(), current.Month()

		cfg, err := s.Config.ConfigOnDate(current)
		if err != nil {
			return result, fmt.Errorf("scenario %q, month %d-%02d: %w", def.Name, year, month, err)
		}

		for _, action := range def.Actions {
			if !action.appliesTo(year, month) {
				continue
			}
			switch action.Type {
			case ActionAdd:
				s.applyAdd(roster, action, &result)
			case ActionRemove:
				s.applyRemove(roster, action, year, month, &result)
			}
		}

		snapshot := MonthlySnapshot{Year: year, Month: month, TotalCost: decimal.Zero}
		for _, emp := range roster.Members() {
			bd, warn, err := s.Engine.ComputeBreakdown(emp, cfg, inputs.InputFor(emp.Chapa, year, month))
			if err != nil {
				// Strict-mode role miss: skip this member, keep the run.
				result.Warnings = append(result.Warnings, payroll.Warning{
					Chapa:   emp.Chapa,
					Message: fmt.Sprintf("%d-%02d: %v; member skipped", year, month, err),
				})
				continue
			}
			if warn != nil {
				result.Warnings = append(result.Warnings, *warn)
			}
			snapshot.Breakdowns = append(snapshot.Breakdowns, bd)
			snapshot.TotalCost = snapshot.TotalCost.Add(bd.TotalCost)
		}
		snapshot.Headcount = roster.Len()

		result.Snapshots = append(result.Snapshots, snapshot)
		result.TotalCost = result.TotalCost.Add(snapshot.TotalCost)

		current = current.AddDate(0, 1, 0)
	}

	result.FinalRoster = roster.Members()
	return result, nil
}

// applyAdd synthesizes the action's hires into the roster. An unknown role
// code skips the whole action with a warning.
func (s *Simulator) applyAdd(roster *Roster, action Action, result *Result) {
	role, ok := s.Engine.Roles.Lookup(action.Group.RoleCode)
	if !ok {
		result.Warnings = append(result.Warnings, payroll.Warning{
			Message: fmt.Sprintf("add action for unknown role %q skipped", action.Group.RoleCode),
		})
		return
	}

	for k := 0; k < action.Quantity; k++ {
		chapa := roster.NextChapa()
		emp := payroll.Employee{
			Chapa:            chapa,
			Name:             fmt.Sprintf("Simulated %s %s", role.Name, chapa),
			Status:           payroll.StatusActive,
			RoleCode:         action.Group.RoleCode,
			AdmissionDate:    action.EffectiveDate,
			ServiceStartDate: action.EffectiveDate,
			Regime:           payroll.Regime220,
			Company:          action.Group.Company,
			Team:             action.Group.Team,
			RoleName:         role.Name,
		}
		if action.BenefitsOverride != nil {
			emp.Benefits = *action.BenefitsOverride
		}
		if action.SalaryOverride != nil {
			salary := *action.SalaryOverride
			emp.BaseSalaryOverride = &salary
		}
		roster.Add(emp)
	}
}

// applyRemove deletes up to Quantity group members, highest chapa first.
// A group smaller than Quantity is drained with a warning.
func (s *Simulator) applyRemove(roster *Roster, action Action, year int, month time.Month, result *Result) {
	matched := roster.MatchGroup(action.Group)
	if len(matched) < action.Quantity {
		result.Warnings = append(result.Warnings, payroll.Warning{
			Message: fmt.Sprintf("%d-%02d: remove action wanted %d in %s/%s/%s, only %d matched",
				year, month, action.Quantity,
				action.Group.Company, action.Group.Team, action.Group.RoleCode, len(matched)),
		})
	}

	n := action.Quantity
	if n > len(matched) {
		n = len(matched)
	}
	for _, chapa := range matched[:n] {
		roster.Remove(chapa)
	}
}
