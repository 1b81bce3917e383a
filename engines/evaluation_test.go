package engines

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iemelianov/mms-promo-intelligence/models"
)

func flatBaseline(dateRange models.DateRange, daySales, dayMargin, dayUnits float64) *models.BaselineForecast {
	baseline := &models.BaselineForecast{
		DateRange:        dateRange,
		DailyProjections: make(map[string]models.DailyProjection),
	}
	dateRange.EachDay(func(d time.Time) {
		baseline.DailyProjections[d.Format(models.DateKeyFormat)] = models.DailyProjection{
			Sales: daySales, Margin: dayMargin, Units: dayUnits,
		}
		baseline.TotalSales += daySales
		baseline.TotalMargin += dayMargin
		baseline.TotalUnits += dayUnits
	})
	return baseline
}

func oneWeek() models.DateRange {
	return models.DateRange{StartDate: day(2024, time.October, 7), EndDate: day(2024, time.October, 13)}
}

func testScenario(discount float64, departments, channels []string) models.PromoScenario {
	return models.PromoScenario{
		ID:                 "scenario-1",
		Name:               "test",
		DateRange:          oneWeek(),
		Departments:        departments,
		Channels:           channels,
		DiscountPercentage: discount,
	}
}

func TestEvaluateScenarioSingleDimension(t *testing.T) {
	// Margin ratio 0.25, 20% discount, elasticity 1.5: uplift 0.2538.
	baseline := flatBaseline(oneWeek(), 100000, 25000, 1000)
	scenario := testScenario(20, []string{"TV"}, []string{"online"})
	engine := NewEvaluationEngine()

	kpi, err := engine.EvaluateScenario(&scenario, baseline, modelWith("TV", "online", 1.5), nil)
	require.NoError(t, err)

	wantDaySales := 100000 * 1.2538
	assert.InDelta(t, wantDaySales*7, kpi.TotalSales, 1e-6)
	// Margin ratio drops from 0.25 to 0.05 under the 20% discount.
	assert.InDelta(t, wantDaySales*7*0.05, kpi.TotalMargin, 1e-6)
	assert.InDelta(t, 1000*(1+0.2538*0.8)*7, kpi.TotalUnits, 1e-6)
	assert.InDelta(t, kpi.TotalMargin-0.1*kpi.TotalSales, kpi.TotalEBIT, 1e-6)
}

func TestEvaluateScenarioDeterministic(t *testing.T) {
	baseline := flatBaseline(oneWeek(), 100000, 25000, 1000)
	scenario := testScenario(15, []string{"TV", "AUDIO"}, []string{"online", "offline"})
	engine := NewEvaluationEngine()
	model := modelWith("TV", "online", 1.5)

	first, err := engine.EvaluateScenario(&scenario, baseline, model, nil)
	require.NoError(t, err)
	second, err := engine.EvaluateScenario(&scenario, baseline, model, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluateScenarioBreakdownsSumToTotals(t *testing.T) {
	baseline := flatBaseline(oneWeek(), 100000, 25000, 1000)
	scenario := testScenario(12, []string{"TV", "AUDIO", "GAMING"}, []string{"online", "offline"})
	engine := NewEvaluationEngine()

	kpi, err := engine.EvaluateScenario(&scenario, baseline, modelWith("TV", "online", 2.0), nil)
	require.NoError(t, err)

	for name, breakdown := range map[string]map[string]models.KPIBreakdown{
		"department": kpi.BreakdownByDepartment,
		"channel":    kpi.BreakdownByChannel,
	} {
		var sales, margin, units float64
		for _, b := range breakdown {
			sales += b.Sales
			margin += b.Margin
			units += b.Units
		}
		assert.InDelta(t, kpi.TotalSales, sales, 1e-6, name)
		assert.InDelta(t, kpi.TotalMargin, margin, 1e-6, name)
		assert.InDelta(t, kpi.TotalUnits, units, 1e-6, name)
	}

	for key, b := range kpi.BreakdownByChannel {
		assert.InDelta(t, b.Margin-0.1*b.Sales, b.EBIT, 1e-9, key)
	}
}

func TestEvaluateScenarioEqualSplitWeights(t *testing.T) {
	scenario := testScenario(10, []string{"TV", "AUDIO"}, []string{"online", "offline"})
	departments, channels := EqualSplitAllocation{}.Weights(&scenario)
	assert.InDelta(t, 0.5, departments["TV"], 1e-9)
	assert.InDelta(t, 0.5, departments["AUDIO"], 1e-9)
	assert.InDelta(t, 0.5, channels["online"], 1e-9)
	assert.InDelta(t, 0.5, channels["offline"], 1e-9)
}

func TestEvaluateScenarioMarginFallbackOnZeroSalesDay(t *testing.T) {
	dateRange := models.DateRange{StartDate: day(2024, time.October, 7), EndDate: day(2024, time.October, 7)}
	baseline := flatBaseline(dateRange, 0, 0, 0)
	scenario := models.PromoScenario{
		ID: "s", DateRange: dateRange,
		Departments: []string{"TV"}, Channels: []string{"online"},
		DiscountPercentage: 10,
	}
	engine := NewEvaluationEngine()

	kpi, err := engine.EvaluateScenario(&scenario, baseline, modelWith("TV", "online", 1.5), nil)
	require.NoError(t, err)
	// Zero baseline sales stay zero regardless of the fallback ratio.
	assert.Zero(t, kpi.TotalSales)
	assert.Zero(t, kpi.TotalMargin)
}

func TestEvaluateScenarioDaysOutsideBaseline(t *testing.T) {
	// Baseline covers only the first day of the scenario.
	baselineRange := models.DateRange{StartDate: day(2024, time.October, 7), EndDate: day(2024, time.October, 7)}
	baseline := flatBaseline(baselineRange, 100000, 25000, 1000)
	scenario := testScenario(10, []string{"TV"}, []string{"online"})
	engine := NewEvaluationEngine()

	kpi, err := engine.EvaluateScenario(&scenario, baseline, modelWith("TV", "online", 1.5), nil)
	require.NoError(t, err)

	// Only the covered day contributes: 100000 * (1 + 0.10*1.5*(1-0.10*0.3)).
	assert.InDelta(t, 100000*(1+0.10*1.5*(1-0.10*0.3)), kpi.TotalSales, 1e-6)
}

func TestEvaluateScenarioStructuralErrors(t *testing.T) {
	baseline := flatBaseline(oneWeek(), 100000, 25000, 1000)
	engine := NewEvaluationEngine()
	model := modelWith("TV", "online", 1.5)

	tests := []struct {
		name     string
		scenario models.PromoScenario
	}{
		{"no departments", testScenario(10, nil, []string{"online"})},
		{"no channels", testScenario(10, []string{"TV"}, nil)},
		{"inverted range", models.PromoScenario{
			ID:        "s",
			DateRange: models.DateRange{StartDate: day(2024, time.October, 13), EndDate: day(2024, time.October, 7)},
			Departments: []string{"TV"}, Channels: []string{"online"},
		}},
		{"discount over 100", testScenario(120, []string{"TV"}, []string{"online"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.EvaluateScenario(&tt.scenario, baseline, model, nil)
			assert.ErrorIs(t, err, ErrInvalidScenario)
		})
	}
}

func TestEvaluateScenarioComparisonVsBaseline(t *testing.T) {
	baseline := flatBaseline(oneWeek(), 100000, 25000, 1000)
	scenario := testScenario(20, []string{"TV"}, []string{"online"})
	engine := NewEvaluationEngine()

	kpi, err := engine.EvaluateScenario(&scenario, baseline, modelWith("TV", "online", 1.5), nil)
	require.NoError(t, err)

	cmp := kpi.ComparisonVsBaseline
	assert.InDelta(t, kpi.TotalSales-baseline.TotalSales, cmp.SalesDelta, 1e-6)
	assert.InDelta(t, cmp.SalesDelta/baseline.TotalSales*100, cmp.SalesPctChange, 1e-9)
	assert.InDelta(t, 25.38, cmp.SalesPctChange, 1e-6)
}

func TestEvaluateScenarioSegmentBreakdown(t *testing.T) {
	baseline := flatBaseline(oneWeek(), 100000, 25000, 1000)
	scenario := testScenario(10, []string{"TV"}, []string{"online"})
	scenario.Segments = []string{"loyal", "new"}
	engine := NewEvaluationEngine()

	kpi, err := engine.EvaluateScenario(&scenario, baseline, modelWith("TV", "online", 1.5), nil)
	require.NoError(t, err)
	require.Len(t, kpi.BreakdownBySegment, 2)
	assert.InDelta(t, kpi.TotalSales/2, kpi.BreakdownBySegment["loyal"].Sales, 1e-9)
	assert.InDelta(t, kpi.TotalEBIT/2, kpi.BreakdownBySegment["new"].EBIT, 1e-9)
}

func TestCompareScenarios(t *testing.T) {
	baseline := flatBaseline(oneWeek(), 100000, 25000, 1000)
	shallow := testScenario(5, []string{"TV"}, []string{"online"})
	shallow.ID, shallow.Name = "shallow", "Shallow"
	deep := testScenario(30, []string{"TV"}, []string{"online"})
	deep.ID, deep.Name = "deep", "Deep"
	engine := NewEvaluationEngine()

	report, err := engine.CompareScenarios([]models.PromoScenario{shallow, deep}, baseline, modelWith("TV", "online", 1.5), nil)
	require.NoError(t, err)

	require.Len(t, report.KPIs, 2)
	assert.Len(t, report.ComparisonTable["totalSales"], 2)
	assert.Len(t, report.ComparisonTable["totalMargin"], 2)
	// The deep discount sells more but the shallow one keeps the margin.
	assert.Greater(t, report.KPIs[1].TotalSales, report.KPIs[0].TotalSales)
	assert.Greater(t, report.KPIs[0].TotalMargin, report.KPIs[1].TotalMargin)
	require.Len(t, report.Recommendations, 1)
	assert.Contains(t, report.Recommendations[0], "Deep")
	assert.Contains(t, report.Recommendations[0], "Shallow")
}
