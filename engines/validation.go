package engines

import (
	"fmt"

	"github.com/Iemelianov/mms-promo-intelligence/models"
)

// Check names used in ValidationReport.ChecksPassed.
const (
	CheckDiscountLimits  = "discount_limits"
	CheckMarginThreshold = "margin_threshold"
	CheckDateRange       = "date_range"
	CheckDepartments     = "departments"
	CheckChannels        = "channels"
	CheckKPIPlausibility = "kpi_plausibility"
	CheckBrandCompliance = "brand_compliance"
)

// ValidationEngine applies business rules to a scenario and its KPIs. Rule
// violations are reported, never raised as errors.
type ValidationEngine struct {
	DefaultConstraints models.Constraints
	DefaultBrandRules  models.BrandRules
}

func NewValidationEngine() *ValidationEngine {
	return &ValidationEngine{
		DefaultConstraints: models.Constraints{MaxDiscount: 0.4, MinMargin: 0.15},
	}
}

// ValidateScenario runs every business-rule check against the scenario and,
// when supplied, its KPIs. Nil constraints or brand rules fall back to the
// engine defaults so no check is silently skipped.
func (e *ValidationEngine) ValidateScenario(scenario *models.PromoScenario, kpi *models.ScenarioKPI, constraints *models.Constraints, brandRules *models.BrandRules) models.ValidationReport {
	if constraints == nil {
		constraints = &e.DefaultConstraints
	}
	if brandRules == nil {
		brandRules = &e.DefaultBrandRules
	}

	report := models.ValidationReport{
		ScenarioID:   scenario.ID,
		Issues:       []string{},
		Fixes:        []string{},
		ChecksPassed: make(map[string]bool),
	}
	record := func(check string, passed bool, issue, fix string) {
		report.ChecksPassed[check] = passed
		if !passed {
			report.Issues = append(report.Issues, issue)
			report.Fixes = append(report.Fixes, fix)
		}
	}

	maxDiscountPct := constraints.MaxDiscount * 100
	record(CheckDiscountLimits,
		scenario.DiscountPercentage <= maxDiscountPct,
		fmt.Sprintf("discount %.1f%% exceeds the allowed maximum of %.1f%%", scenario.DiscountPercentage, maxDiscountPct),
		fmt.Sprintf("reduce the discount to at most %.1f%%", maxDiscountPct))

	record(CheckDateRange,
		scenario.DateRange.Valid(),
		fmt.Sprintf("date range %s is inverted", scenario.DateRange),
		"swap the start and end dates")

	record(CheckDepartments,
		len(scenario.Departments) > 0,
		"scenario has no departments",
		"add at least one department")

	record(CheckChannels,
		len(scenario.Channels) > 0,
		"scenario has no channels",
		"add at least one channel (online or offline)")

	if kpi != nil {
		marginOK := false
		if kpi.TotalSales > 0 {
			marginOK = kpi.TotalMargin/kpi.TotalSales >= constraints.MinMargin
		}
		record(CheckMarginThreshold, marginOK,
			fmt.Sprintf("projected margin ratio is below the %.0f%% floor", constraints.MinMargin*100),
			"lower the discount or narrow the scenario to higher-margin departments")

		record(CheckKPIPlausibility,
			kpi.TotalSales >= 0 && kpi.TotalMargin >= 0,
			"projected sales or margin is negative",
			"re-check the baseline window and discount depth")
	}

	if len(brandRules.MandatoryElements) > 0 {
		missing := missingBrandElements(scenario, brandRules.MandatoryElements)
		record(CheckBrandCompliance, len(missing) == 0,
			fmt.Sprintf("mandatory brand elements missing: %v", missing),
			"add the missing brand elements to the scenario metadata")
	} else {
		report.ChecksPassed[CheckBrandCompliance] = true
	}

	report.IsValid = len(report.Issues) == 0
	return report
}

func missingBrandElements(scenario *models.PromoScenario, mandatory []string) []string {
	present := make(map[string]bool)
	if scenario.Metadata != nil {
		if raw, ok := scenario.Metadata["mandatory_elements"]; ok {
			switch elements := raw.(type) {
			case []string:
				for _, el := range elements {
					present[el] = true
				}
			case []interface{}:
				for _, el := range elements {
					if s, ok := el.(string); ok {
						present[s] = true
					}
				}
			}
		}
	}
	var missing []string
	for _, el := range mandatory {
		if !present[el] {
			missing = append(missing, el)
		}
	}
	return missing
}
