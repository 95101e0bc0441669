/*
config.go - Resolved configuration snapshot

PURPOSE:
  Defines the parameter names the engine understands and the
  ResolvedConfig snapshot built from a point-in-time resolution of the
  parameter history. A snapshot is valid for exactly one calculation
  date and is never mutated after construction.

MANDATORY vs OPTIONAL:
  The history store does not enforce which parameters are mandatory;
  BuildConfig does. The mandatory set mirrors the legal minimum for a
  cost computation: minimum wage, insalubrity percent, FGTS rate,
  employer social security rate, vacation one-third percent, months per
  year. Hazard percent, night-shift percent, and standard monthly hours
  have documented defaults applied when the history carries no value.

SEE ALSO:
  - history package: Point-in-time parameter resolution
  - engine.go: Consumer of ResolvedConfig
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PARAMETER NAMES
// =============================================================================

// Canonical parameter names as they appear in the historical records.
const (
	ParamMinimumWage          = "minimum_wage"
	ParamInsalubrityPercent   = "insalubrity_percent"
	ParamFGTSRate             = "fgts_employer_rate"
	ParamSocialSecurityRate   = "social_security_employer_rate"
	ParamVacationThirdPercent = "vacation_one_third_percent"
	ParamMonthsPerYear        = "months_per_year"
	ParamHazardPercent        = "hazard_percent"
	ParamNightShiftPercent    = "night_shift_percent"
	ParamStandardMonthlyHours = "standard_monthly_hours"
)

// MandatoryParameters are the names BuildConfig requires in every snapshot.
var MandatoryParameters = []string{
	ParamMinimumWage,
	ParamInsalubrityPercent,
	ParamFGTSRate,
	ParamSocialSecurityRate,
	ParamVacationThirdPercent,
	ParamMonthsPerYear,
}

// Defaults applied when the optional parameters carry no historical value.
var (
	defaultHazardPercent     = decimal.NewFromFloat(0.30)
	defaultNightShiftPercent = decimal.NewFromFloat(0.20)
)

const defaultStandardMonthlyHours = 220

// =============================================================================
// RESOLVED CONFIGURATION
// =============================================================================

// ResolvedConfig is the configuration in force on one calculation date.
type ResolvedConfig struct {
	CalculationDate time.Time

	MinimumWage          decimal.Decimal
	InsalubrityPercent   decimal.Decimal
	FGTSRate             decimal.Decimal
	SocialSecurityRate   decimal.Decimal
	VacationThirdPercent decimal.Decimal
	MonthsPerYear        int
	HazardPercent        decimal.Decimal
	NightShiftPercent    decimal.Decimal
	StandardMonthlyHours int
}

// BuildConfig assembles a ResolvedConfig from a resolved parameter snapshot
// (name -> value). It fails with a ParameterNotFoundError naming the first
// missing mandatory parameter.
func BuildConfig(date time.Time, snapshot map[string]decimal.Decimal) (ResolvedConfig, error) {
	for _, name := range MandatoryParameters {
		if _, ok := snapshot[name]; !ok {
			return ResolvedConfig{}, &ParameterNotFoundError{Name: name, Date: date}
		}
	}

	cfg := ResolvedConfig{
		CalculationDate:      date,
		MinimumWage:          snapshot[ParamMinimumWage],
		InsalubrityPercent:   snapshot[ParamInsalubrityPercent],
		FGTSRate:             snapshot[ParamFGTSRate],
		SocialSecurityRate:   snapshot[ParamSocialSecurityRate],
		VacationThirdPercent: snapshot[ParamVacationThirdPercent],
		MonthsPerYear:        int(snapshot[ParamMonthsPerYear].IntPart()),
		HazardPercent:        defaultHazardPercent,
		NightShiftPercent:    defaultNightShiftPercent,
		StandardMonthlyHours: defaultStandardMonthlyHours,
	}

	if v, ok := snapshot[ParamHazardPercent]; ok {
		cfg.HazardPercent = v
	}
	if v, ok := snapshot[ParamNightShiftPercent]; ok {
		cfg.NightShiftPercent = v
	}
	if v, ok := snapshot[ParamStandardMonthlyHours]; ok {
		cfg.StandardMonthlyHours = int(v.IntPart())
	}

	return cfg, nil
}
