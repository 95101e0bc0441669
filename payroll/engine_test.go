package payroll

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FIXTURES
// =============================================================================

func exampleRoles() RoleDirectory {
	return NewRoleDirectory([]Role{
		{Code: "0001", Name: "Cargo Teste", BaseSalary: dec("5000.00")},
		{Code: "0002", Name: "Outro Cargo", BaseSalary: dec("3000.00")},
	})
}

func exampleConfig() ResolvedConfig {
	return ResolvedConfig{
		CalculationDate:      time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		MinimumWage:          dec("1412.00"),
		InsalubrityPercent:   dec("0.40"),
		FGTSRate:             dec("0.08"),
		SocialSecurityRate:   dec("0.20"),
		VacationThirdPercent: dec("0.333333"),
		MonthsPerYear:        12,
		HazardPercent:        dec("0.30"),
		NightShiftPercent:    dec("0.20"),
		StandardMonthlyHours: 220,
	}
}

func exampleEmployee() Employee {
	return Employee{
		Chapa:            "99999",
		Name:             "Funcionario Teste",
		Status:           StatusActive,
		RoleCode:         "0001",
		AdmissionDate:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		ServiceStartDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		BirthDate:        time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		Regime:           Regime220,
		Company:          "Empresa Teste",
		Team:             "Equipe Teste",
		RoleName:         "Cargo Teste",
		Benefits: Benefits{
			Transport:  dec("100.00"),
			Meal:       dec("300.00"),
			HealthPlan: dec("50.00"),
			Other:      dec("25.00"),
		},
	}
}

// =============================================================================
// SALARY LOOKUP
// =============================================================================

func TestBaseSalaryFor_KnownRole(t *testing.T) {
	en := NewEngine(exampleRoles())

	salary, warn, err := en.BaseSalaryFor(exampleEmployee())

	require.NoError(t, err)
	assert.Nil(t, warn)
	assertDecimal(t, "5000.00", salary)
}

func TestBaseSalaryFor_LenientUnknownRoleWarnsAndZeroes(t *testing.T) {
	// GIVEN the default lenient engine and an employee with a dead role code
	en := NewEngine(exampleRoles())
	emp := exampleEmployee()
	emp.RoleCode = "9999"

	// WHEN resolving the salary
	salary, warn, err := en.BaseSalaryFor(emp)

	// THEN the lookup degrades to zero with a warning instead of failing
	require.NoError(t, err)
	require.NotNil(t, warn)
	assert.Equal(t, Chapa("99999"), warn.Chapa)
	assert.True(t, salary.IsZero())
}

func TestBaseSalaryFor_StrictUnknownRoleFails(t *testing.T) {
	en := NewEngine(exampleRoles())
	en.Strict = true
	emp := exampleEmployee()
	emp.RoleCode = "9999"

	_, _, err := en.BaseSalaryFor(emp)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRoleNotFound))
	var notFound *RoleNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, RoleCode("9999"), notFound.Code)
}

func TestBaseSalaryFor_OverrideBeatsRoleSalary(t *testing.T) {
	en := NewEngine(exampleRoles())
	emp := exampleEmployee()
	override := dec("6200.00")
	emp.BaseSalaryOverride = &override

	salary, warn, err := en.BaseSalaryFor(emp)

	require.NoError(t, err)
	assert.Nil(t, warn)
	assertDecimal(t, "6200.00", salary)
}

func TestHourlyWageFor(t *testing.T) {
	en := NewEngine(exampleRoles())

	wage, err := en.HourlyWageFor(exampleEmployee())

	require.NoError(t, err)
	assertDecimal(t, "22.73", wage)
}

// =============================================================================
// BREAKDOWN
// =============================================================================

func TestComputeBreakdown_NoVarianceMonth(t *testing.T) {
	// GIVEN a plain month: no premiums, no vacation
	en := NewEngine(exampleRoles())

	bd, warn, err := en.ComputeBreakdown(exampleEmployee(), exampleConfig(), DefaultMonthlyInput())

	require.NoError(t, err)
	assert.Nil(t, warn)

	assertDecimal(t, "5000.00", bd.BaseSalary)
	assertDecimal(t, "5000.00", bd.ProportionalSalary)
	assert.True(t, bd.InsalubrityBonus.IsZero())
	assert.True(t, bd.HazardBonus.IsZero())
	assert.True(t, bd.NightShiftPremium.IsZero())
	assertDecimal(t, "5000.00", bd.TotalEarnings)

	assertDecimal(t, "400.00", bd.FGTS)
	assertDecimal(t, "1000.00", bd.EmployerSocialSec)
	assertDecimal(t, "555.56", bd.VacationProvision)
	assertDecimal(t, "416.67", bd.ThirteenthProvision)
	assertDecimal(t, "2372.23", bd.TotalCharges)

	assertDecimal(t, "475.00", bd.TotalBenefits)
	assertDecimal(t, "7847.23", bd.TotalCost)
}

func TestComputeBreakdown_PremiumDependencyOrder(t *testing.T) {
	// GIVEN a month with all three premiums and 40 night hours
	en := NewEngine(exampleRoles())
	input := MonthlyInput{
		ReceivesInsalubrity: true,
		ReceivesHazardPay:   true,
		ReceivesNightShift:  true,
		NightHours:          dec("40"),
	}

	bd, _, err := en.ComputeBreakdown(exampleEmployee(), exampleConfig(), input)
	require.NoError(t, err)

	// insalubrity on the minimum wage, not the salary
	assertDecimal(t, "564.80", bd.InsalubrityBonus)
	// hazard on the worked-days value (full month here)
	assertDecimal(t, "1500.00", bd.HazardBonus)
	// night premium on salary + insalubrity + hazard:
	// (5000 + 564.80 + 1500) / 220 * 0.20 * 40 = 256.90
	assertDecimal(t, "256.90", bd.NightShiftPremium)
}

func TestComputeBreakdown_VacationReducesProportionalOnly(t *testing.T) {
	// GIVEN 10 vacation days in a 30-day month
	en := NewEngine(exampleRoles())
	input := MonthlyInput{VacationDays: 10, ReceivesHazardPay: true}

	bd, _, err := en.ComputeBreakdown(exampleEmployee(), exampleConfig(), input)
	require.NoError(t, err)

	assertDecimal(t, "3333.33", bd.ProportionalSalary)
	// hazard follows the proportional value: 3333.33 * 0.30
	assertDecimal(t, "1000.00", bd.HazardBonus)
	// charges stay on the full base salary
	assertDecimal(t, "400.00", bd.FGTS)
	assertDecimal(t, "5000.00", bd.BaseSalary)
}

func TestComputeBreakdown_EarningsPolicies(t *testing.T) {
	input := MonthlyInput{
		ReceivesInsalubrity: true,
		ReceivesHazardPay:   true,
		ReceivesNightShift:  true,
		NightHours:          dec("40"),
	}

	t.Run("default counts base and insalubrity only", func(t *testing.T) {
		en := NewEngine(exampleRoles())

		bd, _, err := en.ComputeBreakdown(exampleEmployee(), exampleConfig(), input)
		require.NoError(t, err)
		assertDecimal(t, "5564.80", bd.TotalEarnings)
	})

	t.Run("all premiums policy includes hazard and night", func(t *testing.T) {
		en := NewEngine(exampleRoles())
		en.Earnings = EarningsAllPremiums

		bd, _, err := en.ComputeBreakdown(exampleEmployee(), exampleConfig(), input)
		require.NoError(t, err)
		// 5000 + 564.80 + 1500 + 256.90
		assertDecimal(t, "7321.70", bd.TotalEarnings)
	})
}

func TestComputeBreakdown_IsPure(t *testing.T) {
	en := NewEngine(exampleRoles())
	emp := exampleEmployee()
	input := MonthlyInput{ReceivesInsalubrity: true, VacationDays: 5}

	first, _, err := en.ComputeBreakdown(emp, exampleConfig(), input)
	require.NoError(t, err)
	second, _, err := en.ComputeBreakdown(emp, exampleConfig(), input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	// the input employee is untouched
	assert.Equal(t, exampleEmployee(), emp)
}

func TestComputeBreakdown_LenientUnknownRoleYieldsZeroSalaryBreakdown(t *testing.T) {
	en := NewEngine(exampleRoles())
	emp := exampleEmployee()
	emp.RoleCode = "9999"

	bd, warn, err := en.ComputeBreakdown(emp, exampleConfig(), DefaultMonthlyInput())

	require.NoError(t, err)
	require.NotNil(t, warn)
	assert.True(t, bd.BaseSalary.IsZero())
	// benefits still count even with no resolvable salary
	assertDecimal(t, "475.00", bd.TotalCost)
}

// =============================================================================
// TOTAL PAYROLL
// =============================================================================

func TestTotalPayroll_SumsBaseSalaries(t *testing.T) {
	en := NewEngine(exampleRoles())
	first := exampleEmployee()
	first.Chapa = "00001"
	second := exampleEmployee()
	second.Chapa = "00002"
	second.RoleCode = "0002"

	total, warnings, err := en.TotalPayroll([]Employee{first, second})

	require.NoError(t, err)
	assert.Empty(t, warnings)
	// 5000 + 3000
	assertDecimal(t, "8000.00", total)
}

func TestTotalPayroll_LenientSkipsUnknownRoleWithWarning(t *testing.T) {
	en := NewEngine(exampleRoles())
	known := exampleEmployee()
	unknown := exampleEmployee()
	unknown.Chapa = "00002"
	unknown.RoleCode = "9999"

	total, warnings, err := en.TotalPayroll([]Employee{known, unknown})

	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, Chapa("00002"), warnings[0].Chapa)
	assertDecimal(t, "5000.00", total)
}

func TestStatusIsActive(t *testing.T) {
	assert.True(t, StatusActive.IsActive())
	for _, s := range []Status{StatusVacation, StatusIncapacity, StatusUnpaidLeave, StatusSocialSecurityLeave, StatusWorkAccidentLeave} {
		assert.False(t, s.IsActive(), string(s))
	}
}

func TestWarningString(t *testing.T) {
	w := Warning{Chapa: "00042", Message: "role missing"}
	assert.Equal(t, "[00042] role missing", w.String())
	assert.Equal(t, "role missing", Warning{Message: "role missing"}.String())
}
