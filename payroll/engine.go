/*
engine.go - Monthly cost breakdown assembly

PURPOSE:
  Turns one employee + one resolved configuration + one month's variable
  inputs into an itemized Breakdown. The engine owns the dependency order
  between components: some additive items feed into the base of later
  items (the night-shift premium is computed on salary PLUS the other
  premiums), so the assembly order is load-bearing.

COMPUTATION ORDER:
  1. Base salary       role lookup by the employee's role code
  2. Proportional      30-day month, vacation days deducted
  3. Insalubrity       percent of minimum wage, when eligible
  4. Hazard            percent of the proportional (worked-days) value
  5. Night premium     on base salary + insalubrity + hazard
  6. Total earnings    per EarningsPolicy
  7. Charges           FGTS, employer social security, vacation and
                       13th-salary provisions, each on base salary
  8. Benefits          fixed monthly amounts
  9. Total cost        base + benefits + charges

ROLE LOOKUP MODES:
  Lenient (default): a missing role yields a zero base salary and a
  recorded warning, matching the historical behavior of the system the
  data comes from. Strict: returns RoleNotFoundError instead. Callers
  working batches should stay lenient and surface the warnings.

PURITY:
  ComputeBreakdown never mutates its inputs. Computing the same
  breakdown twice with identical inputs yields identical output.

SEE ALSO:
  - formula.go: The individual formulas
  - scenario package: Drives this engine once per employee-month
*/
package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DaysPerMonth is the fixed month-length convention used for proportional
// salary. Calendar-accurate month lengths are deliberately out of scope.
const DaysPerMonth = 30

// =============================================================================
// EARNINGS POLICY
// =============================================================================

// EarningsPolicy decides which premiums feed the total-earnings aggregate.
// The historical system disagreed with itself on this point, so it is a
// named, tested policy rather than an implicit choice.
type EarningsPolicy string

const (
	// EarningsBaseAndInsalubrity sums proportional salary + insalubrity
	// bonus only. This matches the historical default.
	EarningsBaseAndInsalubrity EarningsPolicy = "base_and_insalubrity"

	// EarningsAllPremiums additionally includes hazard bonus and
	// night-shift premium in total earnings.
	EarningsAllPremiums EarningsPolicy = "all_premiums"
)

// =============================================================================
// BREAKDOWN - fixed-shape result, one line item per named field
// =============================================================================

// Breakdown is the itemized monthly cost for one employee. Every line item
// is a named field; there is no dynamic map, so a missing item is a compile
// error rather than a runtime surprise.
type Breakdown struct {
	Chapa Chapa

	BaseSalary          decimal.Decimal
	ProportionalSalary  decimal.Decimal
	InsalubrityBonus    decimal.Decimal
	HazardBonus         decimal.Decimal
	NightShiftPremium   decimal.Decimal
	TotalEarnings       decimal.Decimal
	FGTS                decimal.Decimal
	EmployerSocialSec   decimal.Decimal
	VacationProvision   decimal.Decimal
	ThirteenthProvision decimal.Decimal
	TotalCharges        decimal.Decimal
	TotalBenefits       decimal.Decimal
	TotalCost           decimal.Decimal
}

// =============================================================================
// ENGINE
// =============================================================================

// Warning is a non-fatal condition recorded during computation.
type Warning struct {
	Chapa   Chapa
	Message string
}

func (w Warning) String() string {
	if w.Chapa != "" {
		return fmt.Sprintf("[%s] %s", w.Chapa, w.Message)
	}
	return w.Message
}

// Engine computes cost breakdowns against a role directory.
type Engine struct {
	Roles RoleDirectory

	// Strict makes a missing role an error instead of a zero-salary
	// warning.
	Strict bool

	// Earnings selects the total-earnings aggregation policy.
	// Empty means EarningsBaseAndInsalubrity.
	Earnings EarningsPolicy
}

// NewEngine returns an engine with the historical defaults: lenient role
// lookup and base-and-insalubrity earnings.
func NewEngine(roles RoleDirectory) *Engine {
	return &Engine{Roles: roles, Earnings: EarningsBaseAndInsalubrity}
}

// BaseSalaryFor resolves the employee's base salary: the employee's own
// override when present, otherwise the role's standard salary. In lenient
// mode a missing role yields zero and a warning.
func (en *Engine) BaseSalaryFor(emp Employee) (decimal.Decimal, *Warning, error) {
	if emp.BaseSalaryOverride != nil {
		return *emp.BaseSalaryOverride, nil, nil
	}
	role, ok := en.Roles.Lookup(emp.RoleCode)
	if ok {
		return role.BaseSalary, nil, nil
	}
	if en.Strict {
		return decimal.Zero, nil, &RoleNotFoundError{Code: emp.RoleCode, Chapa: emp.Chapa}
	}
	w := &Warning{
		Chapa:   emp.Chapa,
		Message: fmt.Sprintf("role %q not found; base salary treated as zero", emp.RoleCode),
	}
	return decimal.Zero, w, nil
}

// HourlyWageFor returns the employee's hourly wage under their regime.
func (en *Engine) HourlyWageFor(emp Employee) (decimal.Decimal, error) {
	base, _, err := en.BaseSalaryFor(emp)
	if err != nil {
		return decimal.Zero, err
	}
	return HourlyWage(base, emp.Regime.Hours()), nil
}

// ComputeBreakdown produces the full monthly cost breakdown for one
// employee. It is a pure function of its inputs; warnings (nil when none)
// report lenient-mode role misses.
func (en *Engine) ComputeBreakdown(emp Employee, cfg ResolvedConfig, input MonthlyInput) (Breakdown, *Warning, error) {
	base, warn, err := en.BaseSalaryFor(emp)
	if err != nil {
		return Breakdown{}, nil, err
	}

	proportional := ProportionalSalary(base, DaysPerMonth, input.VacationDays)

	insalubrity := decimal.Zero
	if input.ReceivesInsalubrity {
		insalubrity = PercentageBonus(cfg.MinimumWage, cfg.InsalubrityPercent)
	}

	hazard := decimal.Zero
	if input.ReceivesHazardPay {
		hazard = HazardBonus(proportional, cfg.HazardPercent)
	}

	night := decimal.Zero
	if input.ReceivesNightShift {
		premiumBase := base.Add(insalubrity).Add(hazard)
		night = NightShiftPremium(premiumBase, cfg.StandardMonthlyHours, cfg.NightShiftPercent, input.NightHours)
	}

	earnings := TotalEarnings(proportional, insalubrity)
	if en.Earnings == EarningsAllPremiums {
		earnings = TotalEarnings(proportional, insalubrity, hazard, night)
	}

	fgts := FGTSAmount(base, cfg.FGTSRate)
	socialSec := EmployerSocialSecurity(base, cfg.SocialSecurityRate)
	vacation := VacationProvision(base, cfg.VacationThirdPercent, cfg.MonthsPerYear)
	thirteenth := ThirteenthSalaryProvision(base, cfg.MonthsPerYear)
	charges := fgts.Add(socialSec).Add(vacation).Add(thirteenth)

	benefits := emp.Benefits.Total()

	return Breakdown{
		Chapa:               emp.Chapa,
		BaseSalary:          base,
		ProportionalSalary:  proportional,
		InsalubrityBonus:    insalubrity,
		HazardBonus:         hazard,
		NightShiftPremium:   night,
		TotalEarnings:       earnings,
		FGTS:                fgts,
		EmployerSocialSec:   socialSec,
		VacationProvision:   vacation,
		ThirteenthProvision: thirteenth,
		TotalCharges:        charges,
		TotalBenefits:       benefits,
		TotalCost:           TotalEmployeeCost(base, benefits, charges),
	}, warn, nil
}

// TotalPayroll sums the base salaries of the given employees, the headline
// figure of the monthly payroll. Role misses follow the engine's lookup
// mode: lenient contributes zero with a warning, strict fails.
func (en *Engine) TotalPayroll(employees []Employee) (decimal.Decimal, []Warning, error) {
	total := decimal.Zero
	var warnings []Warning
	for _, emp := range employees {
		base, warn, err := en.BaseSalaryFor(emp)
		if err != nil {
			return decimal.Zero, warnings, err
		}
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		total = total.Add(base)
	}
	return total, warnings, nil
}
