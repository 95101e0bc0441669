package scenario

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/history"
	"github.com/warp/budget-engine/payroll"
)

// =============================================================================
// FIXTURES
// =============================================================================

func testRoles() payroll.RoleDirectory {
	return payroll.NewRoleDirectory([]payroll.Role{
		{Code: "SUP01", Name: "Supervisor", BaseSalary: decimal.RequireFromString("5500.00")},
		{Code: "ANA01", Name: "Analyst", BaseSalary: decimal.RequireFromString("4200.50")},
	})
}

func testHistory() *history.Store {
	store := history.NewStore()
	store.Ingest([]history.RawRecord{
		{ID: 1, Name: payroll.ParamMinimumWage, Value: "1918.00", StartDate: "2025-01-01"},
		{ID: 2, Name: payroll.ParamInsalubrityPercent, Value: "0.40", StartDate: "2025-01-01"},
		{ID: 3, Name: payroll.ParamFGTSRate, Value: "0.08", StartDate: "2025-01-01"},
		{ID: 4, Name: payroll.ParamSocialSecurityRate, Value: "0.20", StartDate: "2025-01-01"},
		{ID: 5, Name: payroll.ParamVacationThirdPercent, Value: "0.333333", StartDate: "2025-01-01"},
		{ID: 6, Name: payroll.ParamMonthsPerYear, Value: "12", StartDate: "2025-01-01"},
	})
	return store
}

func testEmployees() []payroll.Employee {
	return []payroll.Employee{
		{
			Chapa: "03494", Name: "Geraldo", Status: payroll.StatusActive,
			RoleCode: "SUP01", Regime: payroll.Regime220,
			Company: "ACME", Team: "OPS", RoleName: "Supervisor",
		},
		{
			Chapa: "03512", Name: "Marina", Status: payroll.StatusActive,
			RoleCode: "ANA01", Regime: payroll.Regime220,
			Company: "ACME", Team: "OPS", RoleName: "Analyst",
		},
	}
}

func newTestSimulator() *Simulator {
	return NewSimulator(payroll.NewEngine(testRoles()), testHistory())
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// =============================================================================
// ACTION VALIDATION
// =============================================================================

func TestNewAction_Validation(t *testing.T) {
	group := payroll.GroupKey{Company: "ACME", Team: "OPS", RoleCode: "ANA01"}

	t.Run("valid add", func(t *testing.T) {
		_, err := NewAction(ActionAdd, date("2025-06-01"), group, 2)
		assert.NoError(t, err)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewAction("transfer", date("2025-06-01"), group, 1)
		assert.True(t, errors.Is(err, payroll.ErrInvalidAction))
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := NewAction(ActionAdd, date("2025-06-01"), group, 0)
		assert.True(t, errors.Is(err, payroll.ErrInvalidAction))
	})

	t.Run("missing group field", func(t *testing.T) {
		_, err := NewAction(ActionRemove, date("2025-06-01"), payroll.GroupKey{Company: "ACME"}, 1)
		assert.True(t, errors.Is(err, payroll.ErrInvalidAction))
	})

	t.Run("negative salary override", func(t *testing.T) {
		salary := decimal.RequireFromString("-100")
		_, err := NewAddActionWithOverrides(date("2025-06-01"), group, 1, &salary, nil)
		assert.True(t, errors.Is(err, payroll.ErrInvalidAction))
	})

	t.Run("zero date", func(t *testing.T) {
		_, err := NewAction(ActionAdd, time.Time{}, group, 1)
		assert.True(t, errors.Is(err, payroll.ErrInvalidAction))
	})
}

func TestDefinitionValidate_BadActionSurfacesEagerly(t *testing.T) {
	// GIVEN a definition carrying one malformed action
	def := Definition{
		Name: "bad", StartYear: 2025, StartMonth: time.January, DurationMonths: 3,
		Actions: []Action{{Type: ActionAdd, EffectiveDate: date("2025-01-15"),
			Group: payroll.GroupKey{Company: "ACME", Team: "OPS", RoleCode: "ANA01"}, Quantity: -1}},
	}

	// THEN validation fails before any simulation starts
	err := def.Validate()
	assert.True(t, errors.Is(err, payroll.ErrInvalidAction))

	_, err = newTestSimulator().Run(context.Background(), def, testEmployees())
	assert.True(t, errors.Is(err, payroll.ErrInvalidAction))
}

func TestTotalPayroll_TwoRoleWorkforce(t *testing.T) {
	// GIVEN the supervisor (5500.00) and the analyst (4200.50)
	engine := payroll.NewEngine(testRoles())

	// WHEN summing total payroll
	total, warnings, err := engine.TotalPayroll(testEmployees())

	// THEN the total is the sum of the role salaries
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.True(t, decimal.RequireFromString("9700.50").Equal(total),
		"expected 9700.50, got %s", total)
}

// =============================================================================
// SIMULATION
// =============================================================================

func TestRun_AddIncreasesHeadcountByQuantity(t *testing.T) {
	// GIVEN a two-month scenario with a quantity-2 hire in month 2
	add, err := NewAction(ActionAdd, date("2025-02-10"),
		payroll.GroupKey{Company: "ACME", Team: "OPS", RoleCode: "ANA01"}, 2)
	require.NoError(t, err)
	def := Definition{
		Name: "expansion", StartYear: 2025, StartMonth: time.January,
		DurationMonths: 2, Actions: []Action{add},
	}

	// WHEN the scenario runs
	result, err := newTestSimulator().Run(context.Background(), def, testEmployees())
	require.NoError(t, err)
	require.Len(t, result.Snapshots, 2)

	// THEN month 2's headcount is exactly 2 above month 1's
	assert.Equal(t, 2, result.Snapshots[0].Headcount)
	assert.Equal(t, 4, result.Snapshots[1].Headcount)

	// AND month 2 costs at least the two new base salaries more
	delta := result.Snapshots[1].TotalCost.Sub(result.Snapshots[0].TotalCost)
	twoSalaries := decimal.RequireFromString("4200.50").Mul(decimal.NewFromInt(2))
	assert.True(t, delta.GreaterThanOrEqual(twoSalaries),
		"cost delta %s below two analyst salaries %s", delta, twoSalaries)

	// AND the hires carry deterministic sequential chapas
	finalChapas := make(map[payroll.Chapa]bool)
	for _, emp := range result.FinalRoster {
		finalChapas[emp.Chapa] = true
	}
	assert.True(t, finalChapas["03513"])
	assert.True(t, finalChapas["03514"])
}

func TestRun_RemoveOverQuantityDrainsGroupWithWarning(t *testing.T) {
	// GIVEN a remove action asking for more analysts than exist
	remove, err := NewAction(ActionRemove, date("2025-01-20"),
		payroll.GroupKey{Company: "ACME", Team: "OPS", RoleCode: "ANA01"}, 5)
	require.NoError(t, err)
	def := Definition{
		Name: "downsizing", StartYear: 2025, StartMonth: time.January,
		DurationMonths: 1, Actions: []Action{remove},
	}

	// WHEN the scenario runs
	result, err := newTestSimulator().Run(context.Background(), def, testEmployees())

	// THEN the single matching analyst is removed, the run completes,
	// and a warning reports the shortfall
	require.NoError(t, err)
	assert.Equal(t, 1, result.Snapshots[0].Headcount)
	require.Len(t, result.FinalRoster, 1)
	assert.Equal(t, payroll.Chapa("03494"), result.FinalRoster[0].Chapa)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0].Message, "only 1 matched")
}

func TestRun_RemoveTakesHighestChapasFirst(t *testing.T) {
	// GIVEN three analysts and a quantity-2 removal
	employees := append(testEmployees(), payroll.Employee{
		Chapa: "09001", Name: "Newest", Status: payroll.StatusActive,
		RoleCode: "ANA01", Regime: payroll.Regime220,
		Company: "ACME", Team: "OPS", RoleName: "Analyst",
	})
	remove, err := NewAction(ActionRemove, date("2025-01-20"),
		payroll.GroupKey{Company: "ACME", Team: "OPS", RoleCode: "ANA01"}, 1)
	require.NoError(t, err)
	def := Definition{
		Name: "trim", StartYear: 2025, StartMonth: time.January,
		DurationMonths: 1, Actions: []Action{remove},
	}

	result, err := newTestSimulator().Run(context.Background(), def, employees)
	require.NoError(t, err)

	// THEN the highest chapa goes first; the older analyst survives
	chapas := make(map[payroll.Chapa]bool)
	for _, emp := range result.FinalRoster {
		chapas[emp.Chapa] = true
	}
	assert.False(t, chapas["09001"])
	assert.True(t, chapas["03512"])
}

func TestRun_UnknownRoleInAddSkipsActionOnly(t *testing.T) {
	// GIVEN an add action naming a role nobody knows
	add, err := NewAction(ActionAdd, date("2025-01-10"),
		payroll.GroupKey{Company: "ACME", Team: "OPS", RoleCode: "GHOST"}, 3)
	require.NoError(t, err)
	def := Definition{
		Name: "phantom hires", StartYear: 2025, StartMonth: time.January,
		DurationMonths: 1, Actions: []Action{add},
	}

	result, err := newTestSimulator().Run(context.Background(), def, testEmployees())

	// THEN the run completes with the original headcount and a warning
	require.NoError(t, err)
	assert.Equal(t, 2, result.Snapshots[0].Headcount)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0].Message, "GHOST")
}

func TestRun_ConfigFailureAbortsWithoutPartialMonth(t *testing.T) {
	// GIVEN parameter history that ends in June 2025
	store := history.NewStore()
	store.Ingest([]history.RawRecord{
		{ID: 1, Name: payroll.ParamMinimumWage, Value: "1918.00", StartDate: "2025-01-01", EndDate: "2025-06-30"},
		{ID: 2, Name: payroll.ParamInsalubrityPercent, Value: "0.40", StartDate: "2025-01-01"},
		{ID: 3, Name: payroll.ParamFGTSRate, Value: "0.08", StartDate: "2025-01-01"},
		{ID: 4, Name: payroll.ParamSocialSecurityRate, Value: "0.20", StartDate: "2025-01-01"},
		{ID: 5, Name: payroll.ParamVacationThirdPercent, Value: "0.333333", StartDate: "2025-01-01"},
		{ID: 6, Name: payroll.ParamMonthsPerYear, Value: "12", StartDate: "2025-01-01"},
	})
	sim := NewSimulator(payroll.NewEngine(testRoles()), store)

	// WHEN a scenario runs past the end of the history
	def := Definition{Name: "runaway", StartYear: 2025, StartMonth: time.May, DurationMonths: 6}
	result, err := sim.Run(context.Background(), def, testEmployees())

	// THEN the run aborts at the unresolvable month with only the
	// completed months recorded
	require.Error(t, err)
	assert.True(t, errors.Is(err, payroll.ErrParameterNotFound))
	assert.Len(t, result.Snapshots, 2) // may and june only
}

func TestRun_MutationsCompoundAcrossMonths(t *testing.T) {
	// GIVEN a hire in month 1 and a removal of the same group in month 3
	group := payroll.GroupKey{Company: "ACME", Team: "OPS", RoleCode: "ANA01"}
	add, err := NewAction(ActionAdd, date("2025-01-05"), group, 1)
	require.NoError(t, err)
	remove, err := NewAction(ActionRemove, date("2025-03-05"), group, 2)
	require.NoError(t, err)
	def := Definition{
		Name: "churn", StartYear: 2025, StartMonth: time.January,
		DurationMonths: 3, Actions: []Action{add, remove},
	}

	result, err := newTestSimulator().Run(context.Background(), def, testEmployees())
	require.NoError(t, err)

	// THEN the month-1 hire persists into month 2 and the month-3
	// removal can consume it
	assert.Equal(t, 3, result.Snapshots[0].Headcount)
	assert.Equal(t, 3, result.Snapshots[1].Headcount)
	assert.Equal(t, 1, result.Snapshots[2].Headcount)
	assert.Empty(t, result.Warnings)
}

func TestRun_ScenarioTotalIsSumOfMonthlyTotals(t *testing.T) {
	def := Definition{Name: "steady state", StartYear: 2025, StartMonth: time.February, DurationMonths: 4}

	result, err := newTestSimulator().Run(context.Background(), def, testEmployees())
	require.NoError(t, err)

	sum := decimal.Zero
	for _, snap := range result.Snapshots {
		sum = sum.Add(snap.TotalCost)
	}
	assert.True(t, result.TotalCost.Equal(sum))
}

func TestRun_InputSourceDrivesPremiums(t *testing.T) {
	// GIVEN an input source granting everyone the insalubrity bonus
	sim := newTestSimulator()
	sim.Inputs = insalubrityForAll{}
	def := Definition{Name: "hazmat", StartYear: 2025, StartMonth: time.January, DurationMonths: 1}

	result, err := sim.Run(context.Background(), def, testEmployees())
	require.NoError(t, err)

	// THEN every breakdown carries 40% of the 1918.00 minimum wage
	want := decimal.RequireFromString("767.20")
	for _, bd := range result.Snapshots[0].Breakdowns {
		assert.True(t, bd.InsalubrityBonus.Equal(want), "chapa %s: got %s", bd.Chapa, bd.InsalubrityBonus)
	}
}

type insalubrityForAll struct{}

func (insalubrityForAll) InputFor(payroll.Chapa, int, time.Month) payroll.MonthlyInput {
	return payroll.MonthlyInput{ReceivesInsalubrity: true}
}

func TestRun_DoesNotMutateCallerSlice(t *testing.T) {
	// GIVEN a scenario that removes everyone
	employees := testEmployees()
	remove, err := NewAction(ActionRemove, date("2025-01-10"),
		payroll.GroupKey{Company: "ACME", Team: "OPS", RoleCode: "SUP01"}, 1)
	require.NoError(t, err)
	def := Definition{
		Name: "wipe", StartYear: 2025, StartMonth: time.January,
		DurationMonths: 1, Actions: []Action{remove},
	}

	_, err = newTestSimulator().Run(context.Background(), def, employees)
	require.NoError(t, err)

	// THEN the caller's slice still holds both original employees
	require.Len(t, employees, 2)
	assert.Equal(t, payroll.Chapa("03494"), employees[0].Chapa)
}

// =============================================================================
// ROSTER
// =============================================================================

func TestRosterNextChapa_FromMaxNumericID(t *testing.T) {
	roster := NewRoster([]payroll.Employee{
		{Chapa: "00012"}, {Chapa: "00345"}, {Chapa: "TEMP-X"},
	})
	assert.Equal(t, payroll.Chapa("00346"), roster.NextChapa())
}

func TestRosterNextChapa_EmptyRosterStartsAtOne(t *testing.T) {
	roster := NewRoster(nil)
	assert.Equal(t, payroll.Chapa("00001"), roster.NextChapa())
}
