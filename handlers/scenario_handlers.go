package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Iemelianov/mms-promo-intelligence/models"
)

// HandleCreateScenario builds a scenario from request parameters and returns
// it with a generated id. Nothing is persisted; scenarios live with the
// caller.
func HandleCreateScenario(c *fiber.Ctx) error {
	var req ScenarioRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	scenario, err := req.toScenario()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": scenario})
}

// EvaluateRequest asks for a full evaluation of one scenario. Geo is optional
// and pulls the static planning context into the uplift estimate.
type EvaluateRequest struct {
	Scenario ScenarioRequest `json:"scenario"`
	Geo      string          `json:"geo"`
}

// HandleEvaluateScenario computes the baseline for the scenario's date range
// and the scenario's KPIs against it.
func HandleEvaluateScenario(c *fiber.Ctx) error {
	var req EvaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	scenario, err := req.Scenario.toScenario()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	ctx := c.Context()
	baseline, err := forecastEngine().CalculateBaseline(ctx, scenario.DateRange, nil)
	if err != nil {
		return respondEngineError(c, err)
	}
	model, err := currentUpliftModel(ctx)
	if err != nil {
		return respondEngineError(c, err)
	}

	kpi, err := evaluationEngine.EvaluateScenario(&scenario, baseline, model, buildPromoContext(req.Geo, scenario.DateRange))
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"scenario": scenario,
		"baseline": baseline,
		"kpi":      kpi,
	}})
}

// CompareRequest asks for a side-by-side evaluation of several scenarios.
type CompareRequest struct {
	Scenarios []ScenarioRequest `json:"scenarios"`
	Geo       string            `json:"geo"`
}

// HandleCompareScenarios evaluates all scenarios against a baseline spanning
// their combined date range and returns the comparison report.
func HandleCompareScenarios(c *fiber.Ctx) error {
	var req CompareRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	if len(req.Scenarios) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "No scenarios to compare"})
	}

	scenarios := make([]models.PromoScenario, 0, len(req.Scenarios))
	for _, sr := range req.Scenarios {
		scenario, err := sr.toScenario()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
		}
		scenarios = append(scenarios, scenario)
	}

	span := combinedRange(scenarios)
	ctx := c.Context()
	baseline, err := forecastEngine().CalculateBaseline(ctx, span, nil)
	if err != nil {
		return respondEngineError(c, err)
	}
	model, err := currentUpliftModel(ctx)
	if err != nil {
		return respondEngineError(c, err)
	}

	report, err := evaluationEngine.CompareScenarios(scenarios, baseline, model, buildPromoContext(req.Geo, span))
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": report})
}

// ValidateRequest asks for business-rule validation, optionally against
// already-computed KPIs.
type ValidateRequest struct {
	Scenario ScenarioRequest     `json:"scenario"`
	KPI      *models.ScenarioKPI `json:"kpi"`
}

// HandleValidateScenario runs the configured business rules over a scenario.
// Rule violations come back in the report body, not as an error status.
func HandleValidateScenario(c *fiber.Ctx) error {
	var req ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	scenario, err := req.Scenario.toScenario()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	constraints := configTool().GetPromoConstraints()
	brandRules := configTool().GetBrandRules()
	report := validationEngine.ValidateScenario(&scenario, req.KPI, &constraints, &brandRules)
	return c.JSON(fiber.Map{"success": true, "data": report})
}

// combinedRange spans from the earliest start to the latest end across
// scenarios.
func combinedRange(scenarios []models.PromoScenario) models.DateRange {
	span := scenarios[0].DateRange
	for _, s := range scenarios[1:] {
		if s.DateRange.StartDate.Before(span.StartDate) {
			span.StartDate = s.DateRange.StartDate
		}
		if s.DateRange.EndDate.After(span.EndDate) {
			span.EndDate = s.DateRange.EndDate
		}
	}
	return span
}
