/*
formula.go - Pure payroll formula library

PURPOSE:
  Every cost component as a stateless numeric function. No entities, no
  configuration objects, no I/O: each formula receives exactly the values
  it needs and returns a result. This keeps every line item trivially
  unit-testable in isolation.

ROUNDING CONVENTION:
  Monetary outputs are rounded to 2 decimal places AT THE POINT OF
  COMPUTATION, not at the end of a chain. This matches conventional
  payroll rounding: the insalubrity bonus printed on a payslip is the
  rounded figure, and downstream totals are built from rounded figures.
  YearsOfService is not monetary and is not rounded.

EXAMPLE:
  wage := payroll.HourlyWage(decimal.NewFromInt(1000), 220) // 4.55
  bonus := payroll.PercentageBonus(minimumWage, insalubrityPercent)

SEE ALSO:
  - engine.go: Assembles these formulas into a full Breakdown
  - config.go: Source of the rate and percentage inputs
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WAGE AND SALARY FORMULAS
// =============================================================================

// HourlyWage returns salary / monthlyHours rounded to 2 places,
// or zero when monthlyHours is 0.
func HourlyWage(salary decimal.Decimal, monthlyHours int) decimal.Decimal {
	if monthlyHours == 0 {
		return decimal.Zero
	}
	return salary.Div(decimal.NewFromInt(int64(monthlyHours))).Round(2)
}

// PercentageBonus returns base * percent rounded to 2 places.
// Used for insalubrity (percentage of minimum wage) and similar supplements.
func PercentageBonus(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).Round(2)
}

// ProportionalSalary returns the salary proportional to worked days in the
// month: (baseSalary / totalDaysInMonth) * (totalDaysInMonth - nonWorkedDays).
// Negative worked days clamp to zero; a non-positive month length yields zero.
func ProportionalSalary(baseSalary decimal.Decimal, totalDaysInMonth, nonWorkedDays int) decimal.Decimal {
	if totalDaysInMonth <= 0 {
		return decimal.Zero
	}
	workedDays := totalDaysInMonth - nonWorkedDays
	if workedDays < 0 {
		workedDays = 0
	}
	daily := baseSalary.Div(decimal.NewFromInt(int64(totalDaysInMonth)))
	return daily.Mul(decimal.NewFromInt(int64(workedDays))).Round(2)
}

// YearsOfService returns elapsed service in years between two dates using
// the 365.25-day year convention. Not monetary; not rounded.
func YearsOfService(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24 / 365.25
}

// =============================================================================
// EMPLOYER CHARGES AND PROVISIONS
// =============================================================================

// FGTSAmount returns the employer severance-fund contribution:
// baseSalary * rate, rounded to 2 places.
func FGTSAmount(baseSalary, rate decimal.Decimal) decimal.Decimal {
	return baseSalary.Mul(rate).Round(2)
}

// EmployerSocialSecurity returns the employer-side payroll tax:
// baseSalary * rate, rounded to 2 places.
func EmployerSocialSecurity(baseSalary, rate decimal.Decimal) decimal.Decimal {
	return baseSalary.Mul(rate).Round(2)
}

// VacationProvision returns the monthly accrual for future vacation pay,
// including the constitutional one-third bonus:
// (baseSalary * (1 + oneThirdPercent)) / monthsPerYear.
func VacationProvision(baseSalary, oneThirdPercent decimal.Decimal, monthsPerYear int) decimal.Decimal {
	if monthsPerYear <= 0 {
		return decimal.Zero
	}
	withThird := baseSalary.Mul(decimal.NewFromInt(1).Add(oneThirdPercent))
	return withThird.Div(decimal.NewFromInt(int64(monthsPerYear))).Round(2)
}

// ThirteenthSalaryProvision returns the monthly accrual for the year-end
// bonus: baseSalary / monthsPerYear.
func ThirteenthSalaryProvision(baseSalary decimal.Decimal, monthsPerYear int) decimal.Decimal {
	if monthsPerYear <= 0 {
		return decimal.Zero
	}
	return baseSalary.Div(decimal.NewFromInt(int64(monthsPerYear))).Round(2)
}

// =============================================================================
// PREMIUMS
// =============================================================================

// HazardBonus returns the dangerous-work supplement:
// workedDaysValue * hazardPercent, rounded to 2 places.
func HazardBonus(workedDaysValue, hazardPercent decimal.Decimal) decimal.Decimal {
	return workedDaysValue.Mul(hazardPercent).Round(2)
}

// NightShiftPremium returns the extra pay for night hours:
// (baseForPremium / standardMonthlyHours) * premiumPercent * nightHours.
// Yields zero when standardMonthlyHours is non-positive.
func NightShiftPremium(baseForPremium decimal.Decimal, standardMonthlyHours int, premiumPercent, nightHours decimal.Decimal) decimal.Decimal {
	if standardMonthlyHours <= 0 {
		return decimal.Zero
	}
	hourly := baseForPremium.Div(decimal.NewFromInt(int64(standardMonthlyHours)))
	return hourly.Mul(premiumPercent).Mul(nightHours).Round(2)
}

// =============================================================================
// AGGREGATES
// =============================================================================

// SumBenefits returns the arithmetic sum of the four fixed benefit amounts.
func SumBenefits(transport, meal, healthPlan, other decimal.Decimal) decimal.Decimal {
	return transport.Add(meal).Add(healthPlan).Add(other)
}

// TotalEmployeeCost returns baseSalary + totalBenefits + totalChargesAndProvisions.
func TotalEmployeeCost(baseSalary, totalBenefits, totalChargesAndProvisions decimal.Decimal) decimal.Decimal {
	return baseSalary.Add(totalBenefits).Add(totalChargesAndProvisions)
}

// TotalEarnings returns the sum of the salary line and the supplements that
// feed the earnings aggregate. Which supplements participate is decided by
// the engine's EarningsPolicy, not here.
func TotalEarnings(salaryOrProportional decimal.Decimal, supplements ...decimal.Decimal) decimal.Decimal {
	total := salaryOrProportional
	for _, s := range supplements {
		total = total.Add(s)
	}
	return total
}
