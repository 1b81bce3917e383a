package engines

import (
	"fmt"
	"math"
	"time"

	"github.com/Iemelianov/mms-promo-intelligence/models"
)

// Evaluation heuristics preserved from the original planner. Both are exposed
// as engine fields so hosts can tune them; the defaults match historical
// behaviour.
const (
	// DefaultMarginRatioFallback stands in for the baseline margin ratio on
	// days with zero baseline sales.
	DefaultMarginRatioFallback = 0.2
	// DefaultFixedCostRate models fixed costs as a flat share of sales when
	// deriving EBIT from margin.
	DefaultFixedCostRate = 0.1
	// unitsUpliftDamping scales the sales uplift down when applied to units;
	// discounts raise basket value faster than item count.
	unitsUpliftDamping = 0.8
)

// AllocationStrategy decides how a day's baseline is split across the
// scenario's departments and channels. Weights for each dimension must sum
// to 1.
type AllocationStrategy interface {
	Weights(scenario *models.PromoScenario) (departments map[string]float64, channels map[string]float64)
}

// EqualSplitAllocation divides the baseline uniformly across departments and
// channels. This ignores the historical mix on purpose; replace the strategy
// to weight by observed share.
type EqualSplitAllocation struct{}

func (EqualSplitAllocation) Weights(scenario *models.PromoScenario) (map[string]float64, map[string]float64) {
	departments := make(map[string]float64, len(scenario.Departments))
	for _, d := range scenario.Departments {
		departments[d] = 1 / float64(len(scenario.Departments))
	}
	channels := make(map[string]float64, len(scenario.Channels))
	for _, c := range scenario.Channels {
		channels[c] = 1 / float64(len(scenario.Channels))
	}
	return departments, channels
}

// EvaluationEngine turns a scenario plus baseline and uplift model into KPIs.
type EvaluationEngine struct {
	Allocation          AllocationStrategy
	MarginRatioFallback float64
	FixedCostRate       float64
}

func NewEvaluationEngine() *EvaluationEngine {
	return &EvaluationEngine{
		Allocation:          EqualSplitAllocation{},
		MarginRatioFallback: DefaultMarginRatioFallback,
		FixedCostRate:       DefaultFixedCostRate,
	}
}

// EvaluateScenario computes aggregate and per-dimension KPIs for a scenario.
// It is a pure function of its arguments: re-evaluating the same inputs
// yields identical results.
func (e *EvaluationEngine) EvaluateScenario(scenario *models.PromoScenario, baseline *models.BaselineForecast, model *models.UpliftModel, promoCtx *models.PromoContext) (*models.ScenarioKPI, error) {
	if err := checkScenarioStructure(scenario); err != nil {
		return nil, err
	}

	discount := scenario.DiscountPercentage / 100
	deptWeights, chanWeights := e.Allocation.Weights(scenario)

	kpi := &models.ScenarioKPI{
		ScenarioID:            scenario.ID,
		BreakdownByChannel:    make(map[string]models.KPIBreakdown, len(scenario.Channels)),
		BreakdownByDepartment: make(map[string]models.KPIBreakdown, len(scenario.Departments)),
	}

	scenario.DateRange.EachDay(func(day time.Time) {
		proj, ok := baseline.ProjectionFor(day)
		if !ok {
			// Day outside the baseline horizon contributes nothing; callers
			// are expected to align the ranges.
			return
		}
		marginRatio := e.MarginRatioFallback
		if proj.Sales != 0 {
			marginRatio = proj.Margin / proj.Sales
		}
		dayMarginRatio := math.Max(0, marginRatio-discount)

		for _, dept := range scenario.Departments {
			for _, channel := range scenario.Channels {
				uplift := EstimateUplift(model, dept, channel, discount, promoCtx)
				share := deptWeights[dept] * chanWeights[channel]

				sales := proj.Sales * share * (1 + uplift)
				margin := sales * dayMarginRatio
				units := proj.Units * share * (1 + uplift*unitsUpliftDamping)

				kpi.TotalSales += sales
				kpi.TotalMargin += margin
				kpi.TotalUnits += units

				addBreakdown(kpi.BreakdownByDepartment, dept, sales, margin, units)
				addBreakdown(kpi.BreakdownByChannel, channel, sales, margin, units)
			}
		}
	})

	kpi.TotalEBIT = kpi.TotalMargin - e.FixedCostRate*kpi.TotalSales
	applyEBIT(kpi.BreakdownByDepartment, e.FixedCostRate)
	applyEBIT(kpi.BreakdownByChannel, e.FixedCostRate)

	if len(scenario.Segments) > 0 {
		kpi.BreakdownBySegment = segmentSplit(kpi, scenario.Segments)
	}

	kpi.ComparisonVsBaseline = compareVsBaseline(kpi, baseline)
	return kpi, nil
}

// CompareScenarios evaluates several scenarios against the same baseline and
// model and lays the headline KPIs out side by side. The recommendation picks
// the margin leader and the sales leader; with one scenario there is nothing
// to compare.
func (e *EvaluationEngine) CompareScenarios(scenarios []models.PromoScenario, baseline *models.BaselineForecast, model *models.UpliftModel, promoCtx *models.PromoContext) (*models.ComparisonReport, error) {
	report := &models.ComparisonReport{
		Scenarios: scenarios,
		KPIs:      make([]models.ScenarioKPI, 0, len(scenarios)),
		ComparisonTable: map[string][]float64{
			"totalSales":  {},
			"totalMargin": {},
			"totalEbit":   {},
			"totalUnits":  {},
		},
	}
	bestSales, bestMargin := -1, -1
	for i := range scenarios {
		kpi, err := e.EvaluateScenario(&scenarios[i], baseline, model, promoCtx)
		if err != nil {
			return nil, fmt.Errorf("evaluating scenario %q: %w", scenarios[i].Name, err)
		}
		report.KPIs = append(report.KPIs, *kpi)
		report.ComparisonTable["totalSales"] = append(report.ComparisonTable["totalSales"], kpi.TotalSales)
		report.ComparisonTable["totalMargin"] = append(report.ComparisonTable["totalMargin"], kpi.TotalMargin)
		report.ComparisonTable["totalEbit"] = append(report.ComparisonTable["totalEbit"], kpi.TotalEBIT)
		report.ComparisonTable["totalUnits"] = append(report.ComparisonTable["totalUnits"], kpi.TotalUnits)
		if bestSales < 0 || kpi.TotalSales > report.KPIs[bestSales].TotalSales {
			bestSales = i
		}
		if bestMargin < 0 || kpi.TotalMargin > report.KPIs[bestMargin].TotalMargin {
			bestMargin = i
		}
	}
	if len(scenarios) > 1 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("%q leads on sales, %q leads on margin", scenarios[bestSales].Name, scenarios[bestMargin].Name))
	}
	return report, nil
}

func checkScenarioStructure(scenario *models.PromoScenario) error {
	if !scenario.DateRange.Valid() {
		return fmt.Errorf("%w: inverted date range %s", ErrInvalidScenario, scenario.DateRange)
	}
	if len(scenario.Departments) == 0 {
		return fmt.Errorf("%w: no departments", ErrInvalidScenario)
	}
	if len(scenario.Channels) == 0 {
		return fmt.Errorf("%w: no channels", ErrInvalidScenario)
	}
	if scenario.DiscountPercentage < 0 || scenario.DiscountPercentage > 100 {
		return fmt.Errorf("%w: discount %.1f%% outside [0,100]", ErrInvalidScenario, scenario.DiscountPercentage)
	}
	return nil
}

func addBreakdown(m map[string]models.KPIBreakdown, key string, sales, margin, units float64) {
	b := m[key]
	b.Sales += sales
	b.Margin += margin
	b.Units += units
	m[key] = b
}

func applyEBIT(m map[string]models.KPIBreakdown, fixedCostRate float64) {
	for key, b := range m {
		b.EBIT = b.Margin - fixedCostRate*b.Sales
		m[key] = b
	}
}

// segmentSplit divides the totals evenly across segments, mirroring the
// equal-split allocation used for departments and channels.
func segmentSplit(kpi *models.ScenarioKPI, segments []string) map[string]models.KPIBreakdown {
	out := make(map[string]models.KPIBreakdown, len(segments))
	share := 1 / float64(len(segments))
	for _, seg := range segments {
		out[seg] = models.KPIBreakdown{
			Sales:  kpi.TotalSales * share,
			Margin: kpi.TotalMargin * share,
			Units:  kpi.TotalUnits * share,
			EBIT:   kpi.TotalEBIT * share,
		}
	}
	return out
}

func compareVsBaseline(kpi *models.ScenarioKPI, baseline *models.BaselineForecast) models.BaselineComparison {
	cmp := models.BaselineComparison{
		SalesDelta:  kpi.TotalSales - baseline.TotalSales,
		MarginDelta: kpi.TotalMargin - baseline.TotalMargin,
		UnitsDelta:  kpi.TotalUnits - baseline.TotalUnits,
	}
	if baseline.TotalSales != 0 {
		cmp.SalesPctChange = cmp.SalesDelta / baseline.TotalSales * 100
	}
	if baseline.TotalMargin != 0 {
		cmp.MarginPctChange = cmp.MarginDelta / baseline.TotalMargin * 100
	}
	return cmp
}
