package payroll

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullSnapshot() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		ParamMinimumWage:          dec("1412.00"),
		ParamInsalubrityPercent:   dec("0.40"),
		ParamFGTSRate:             dec("0.08"),
		ParamSocialSecurityRate:   dec("0.20"),
		ParamVacationThirdPercent: dec("0.333333"),
		ParamMonthsPerYear:        dec("12"),
	}
}

func TestBuildConfig_AllMandatoryPresent(t *testing.T) {
	date := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	cfg, err := BuildConfig(date, fullSnapshot())

	require.NoError(t, err)
	assert.Equal(t, date, cfg.CalculationDate)
	assertDecimal(t, "1412.00", cfg.MinimumWage)
	assertDecimal(t, "0.08", cfg.FGTSRate)
	assert.Equal(t, 12, cfg.MonthsPerYear)
}

func TestBuildConfig_MissingMandatoryNamesTheParameter(t *testing.T) {
	date := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	snapshot := fullSnapshot()
	delete(snapshot, ParamFGTSRate)

	_, err := BuildConfig(date, snapshot)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParameterNotFound))
	var notFound *ParameterNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, ParamFGTSRate, notFound.Name)
	assert.Equal(t, date, notFound.Date)
}

func TestBuildConfig_OptionalParametersDefault(t *testing.T) {
	// GIVEN a snapshot with no premium parameters at all
	cfg, err := BuildConfig(time.Now(), fullSnapshot())
	require.NoError(t, err)

	// THEN the documented defaults apply
	assertDecimal(t, "0.30", cfg.HazardPercent)
	assertDecimal(t, "0.20", cfg.NightShiftPercent)
	assert.Equal(t, 220, cfg.StandardMonthlyHours)
}

func TestBuildConfig_HistoricalValuesBeatDefaults(t *testing.T) {
	snapshot := fullSnapshot()
	snapshot[ParamHazardPercent] = dec("0.35")
	snapshot[ParamNightShiftPercent] = dec("0.25")
	snapshot[ParamStandardMonthlyHours] = dec("150")

	cfg, err := BuildConfig(time.Now(), snapshot)
	require.NoError(t, err)

	assertDecimal(t, "0.35", cfg.HazardPercent)
	assertDecimal(t, "0.25", cfg.NightShiftPercent)
	assert.Equal(t, 150, cfg.StandardMonthlyHours)
}
