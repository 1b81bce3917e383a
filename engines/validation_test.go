package engines

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iemelianov/mms-promo-intelligence/models"
)

func TestValidateScenarioDiscountOverLimit(t *testing.T) {
	engine := NewValidationEngine()
	scenario := testScenario(30, []string{"TV"}, []string{"online"})
	constraints := &models.Constraints{MaxDiscount: 0.25, MinMargin: 0.15}

	report := engine.ValidateScenario(&scenario, nil, constraints, nil)

	assert.False(t, report.IsValid)
	assert.False(t, report.ChecksPassed[CheckDiscountLimits])
	require.NotEmpty(t, report.Issues)
	require.NotEmpty(t, report.Fixes)
	assert.Contains(t, report.Issues[0], "30.0%")
	assert.Contains(t, report.Issues[0], "25.0%")
}

func TestValidateScenarioAllChecksPass(t *testing.T) {
	engine := NewValidationEngine()
	scenario := testScenario(10, []string{"TV"}, []string{"online"})
	kpi := &models.ScenarioKPI{ScenarioID: scenario.ID, TotalSales: 100000, TotalMargin: 20000}

	report := engine.ValidateScenario(&scenario, kpi, nil, nil)

	assert.True(t, report.IsValid)
	assert.Empty(t, report.Issues)
	assert.Empty(t, report.Fixes)
	for _, check := range []string{
		CheckDiscountLimits, CheckMarginThreshold, CheckDateRange,
		CheckDepartments, CheckChannels, CheckKPIPlausibility, CheckBrandCompliance,
	} {
		assert.True(t, report.ChecksPassed[check], check)
	}
}

func TestValidateScenarioMarginBelowFloor(t *testing.T) {
	engine := NewValidationEngine()
	scenario := testScenario(10, []string{"TV"}, []string{"online"})
	kpi := &models.ScenarioKPI{TotalSales: 100000, TotalMargin: 5000} // 5% ratio

	report := engine.ValidateScenario(&scenario, kpi, nil, nil)

	assert.False(t, report.IsValid)
	assert.False(t, report.ChecksPassed[CheckMarginThreshold])
	assert.True(t, report.ChecksPassed[CheckKPIPlausibility])
}

func TestValidateScenarioZeroSalesFailsMarginCheck(t *testing.T) {
	engine := NewValidationEngine()
	scenario := testScenario(10, []string{"TV"}, []string{"online"})
	kpi := &models.ScenarioKPI{TotalSales: 0, TotalMargin: 0}

	report := engine.ValidateScenario(&scenario, kpi, nil, nil)
	assert.False(t, report.ChecksPassed[CheckMarginThreshold])
}

func TestValidateScenarioStructuralChecks(t *testing.T) {
	engine := NewValidationEngine()
	scenario := models.PromoScenario{
		ID: "s",
		DateRange: models.DateRange{
			StartDate: day(2024, time.October, 13),
			EndDate:   day(2024, time.October, 7),
		},
		DiscountPercentage: 10,
	}

	report := engine.ValidateScenario(&scenario, nil, nil, nil)

	assert.False(t, report.IsValid)
	assert.False(t, report.ChecksPassed[CheckDateRange])
	assert.False(t, report.ChecksPassed[CheckDepartments])
	assert.False(t, report.ChecksPassed[CheckChannels])
	assert.Len(t, report.Issues, 3)
	assert.Len(t, report.Fixes, len(report.Issues))
}

func TestValidateScenarioWithoutKPISkipsKPIChecks(t *testing.T) {
	engine := NewValidationEngine()
	scenario := testScenario(10, []string{"TV"}, []string{"online"})

	report := engine.ValidateScenario(&scenario, nil, nil, nil)

	assert.True(t, report.IsValid)
	_, hasMargin := report.ChecksPassed[CheckMarginThreshold]
	_, hasPlausibility := report.ChecksPassed[CheckKPIPlausibility]
	assert.False(t, hasMargin)
	assert.False(t, hasPlausibility)
}

func TestValidateScenarioBrandElements(t *testing.T) {
	engine := NewValidationEngine()
	rules := &models.BrandRules{MandatoryElements: []string{"logo", "legal_footer"}}

	scenario := testScenario(10, []string{"TV"}, []string{"online"})
	report := engine.ValidateScenario(&scenario, nil, nil, rules)
	assert.False(t, report.ChecksPassed[CheckBrandCompliance])
	assert.Contains(t, report.Issues[0], "logo")

	scenario.Metadata = map[string]interface{}{
		// Decoded JSON arrives as []interface{}.
		"mandatory_elements": []interface{}{"logo", "legal_footer"},
	}
	report = engine.ValidateScenario(&scenario, nil, nil, rules)
	assert.True(t, report.ChecksPassed[CheckBrandCompliance])
	assert.True(t, report.IsValid)
}

func TestValidateScenarioDefaultConstraints(t *testing.T) {
	engine := NewValidationEngine()
	// 45% exceeds the default 40% ceiling.
	scenario := testScenario(45, []string{"TV"}, []string{"online"})

	report := engine.ValidateScenario(&scenario, nil, nil, nil)
	assert.False(t, report.ChecksPassed[CheckDiscountLimits])
}
