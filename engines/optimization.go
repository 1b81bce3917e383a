package engines

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/Iemelianov/mms-promo-intelligence/models"
)

// Objective weight keys accepted by OptimizeScenarios.
const (
	ObjectiveSales  = "sales"
	ObjectiveMargin = "margin"
)

// salesScoreScale normalizes absolute sales into the same order of magnitude
// as the margin ratio before weighting.
const salesScoreScale = 1_000_000

// gridDiscountLevels are the fixed discount depths tried by grid search, in
// percentage points, on top of the named templates.
var gridDiscountLevels = []float64{5, 12, 18}

// OptimizationEngine generates, scores and ranks candidate scenarios.
type OptimizationEngine struct {
	evaluation *EvaluationEngine
	validation *ValidationEngine
}

func NewOptimizationEngine(evaluation *EvaluationEngine, validation *ValidationEngine) *OptimizationEngine {
	return &OptimizationEngine{evaluation: evaluation, validation: validation}
}

// GenerateCandidateScenarios produces the three named templates plus grid
// search over fixed discount levels. All candidates share the brief's date
// range and channels; grid levels above the discount ceiling, or duplicating
// an existing candidate's discount, are skipped.
func (e *OptimizationEngine) GenerateCandidateScenarios(brief models.ScenarioBrief, constraints *models.Constraints) ([]models.PromoScenario, error) {
	if !brief.DateRange.Valid() {
		return nil, fmt.Errorf("%w: inverted date range %s", ErrInvalidScenario, brief.DateRange)
	}
	if len(brief.Departments) == 0 {
		return nil, fmt.Errorf("%w: no departments in brief", ErrInvalidScenario)
	}
	if len(brief.Channels) == 0 {
		return nil, fmt.Errorf("%w: no channels in brief", ErrInvalidScenario)
	}
	if constraints == nil {
		constraints = &e.validation.DefaultConstraints
	}
	maxPct := constraints.MaxDiscount * 100

	conservativeDepts := brief.Departments
	if len(conservativeDepts) > 2 {
		conservativeDepts = conservativeDepts[:2]
	}

	candidates := []models.PromoScenario{
		newCandidate("Conservative", "Shallow discount on the two lead departments",
			brief, conservativeDepts, math.Min(10, maxPct*0.4)),
		newCandidate("Balanced", "Mid-depth discount across all departments",
			brief, brief.Departments, math.Min(15, maxPct*0.6)),
		newCandidate("Aggressive", "Discount near the allowed ceiling",
			brief, brief.Departments, math.Min(maxPct*0.9, maxPct)),
	}

	seen := make(map[float64]bool, len(candidates))
	for _, c := range candidates {
		seen[c.DiscountPercentage] = true
	}
	for _, level := range append(append([]float64{}, gridDiscountLevels...), maxPct) {
		if level > maxPct || seen[level] {
			continue
		}
		seen[level] = true
		candidates = append(candidates, newCandidate(
			fmt.Sprintf("Grid %.0f%%", level),
			"Grid-search discount level",
			brief, brief.Departments, level))
	}
	return candidates, nil
}

func newCandidate(name, description string, brief models.ScenarioBrief, departments []string, discount float64) models.PromoScenario {
	return models.PromoScenario{
		ID:                 uuid.NewString(),
		Name:               name,
		Description:        description,
		DateRange:          brief.DateRange,
		Departments:        append([]string(nil), departments...),
		Channels:           append([]string(nil), brief.Channels...),
		DiscountPercentage: discount,
	}
}

// OptimizeScenarios evaluates and validates every candidate, drops candidates
// that fail validation, and ranks the rest by the weighted objective score.
// Weights are normalized to sum to 1; missing weights count as 0.
func (e *OptimizationEngine) OptimizeScenarios(candidates []models.PromoScenario, weights map[string]float64, baseline *models.BaselineForecast, model *models.UpliftModel, constraints *models.Constraints, promoCtx *models.PromoContext) ([]models.RankedScenario, error) {
	weightSales, weightMargin := normalizeWeights(weights)

	ranked := make([]models.RankedScenario, 0, len(candidates))
	for i := range candidates {
		scenario := candidates[i]
		kpi, err := e.evaluation.EvaluateScenario(&scenario, baseline, model, promoCtx)
		if err != nil {
			return nil, fmt.Errorf("evaluating candidate %q: %w", scenario.Name, err)
		}
		if report := e.validation.ValidateScenario(&scenario, kpi, constraints, nil); !report.IsValid {
			continue
		}
		ranked = append(ranked, models.RankedScenario{
			Scenario: scenario,
			Score:    objectiveScore(kpi, weightSales, weightMargin),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

func normalizeWeights(weights map[string]float64) (sales, margin float64) {
	sales = weights[ObjectiveSales]
	margin = weights[ObjectiveMargin]
	sum := sales + margin
	if sum <= 0 {
		return 0.5, 0.5
	}
	return sales / sum, margin / sum
}

func objectiveScore(kpi *models.ScenarioKPI, weightSales, weightMargin float64) float64 {
	score := weightSales * (kpi.TotalSales / salesScoreScale)
	if kpi.TotalSales > 0 {
		score += weightMargin * (kpi.TotalMargin / kpi.TotalSales)
	}
	return score
}

// CalculateEfficientFrontier marks, for each evaluated scenario, whether it is
// Pareto-optimal on the (sales, margin) plane. A scenario is dominated when
// another one is at least as good on both axes and strictly better on one;
// exact ties are all kept optimal.
func CalculateEfficientFrontier(evaluated []models.ScenarioWithKPI) models.FrontierData {
	frontier := models.FrontierData{
		Scenarios:     make([]models.PromoScenario, len(evaluated)),
		Coordinates:   make([]models.FrontierPoint, len(evaluated)),
		ParetoOptimal: make([]bool, len(evaluated)),
	}
	for i, sk := range evaluated {
		frontier.Scenarios[i] = sk.Scenario
		frontier.Coordinates[i] = models.FrontierPoint{Sales: sk.KPI.TotalSales, Margin: sk.KPI.TotalMargin}
	}
	for i, p := range frontier.Coordinates {
		dominated := false
		for j, q := range frontier.Coordinates {
			if i == j {
				continue
			}
			if q.Sales >= p.Sales && q.Margin >= p.Margin && (q.Sales > p.Sales || q.Margin > p.Margin) {
				dominated = true
				break
			}
		}
		frontier.ParetoOptimal[i] = !dominated
	}
	return frontier
}
