package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Iemelianov/mms-promo-intelligence/engines"
	"github.com/Iemelianov/mms-promo-intelligence/models"
	"github.com/Iemelianov/mms-promo-intelligence/utils"
)

// BriefRequest is the wire form of a scenario brief.
type BriefRequest struct {
	Objective   string   `json:"objective"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Departments []string `json:"departments"`
	Channels    []string `json:"channels"`
}

func (r BriefRequest) toBrief() (models.ScenarioBrief, error) {
	dateRange, err := utils.ParseDateRange(r.StartDate, r.EndDate)
	if err != nil {
		return models.ScenarioBrief{}, err
	}
	return models.ScenarioBrief{
		Objective:   r.Objective,
		DateRange:   dateRange,
		Departments: r.Departments,
		Channels:    r.Channels,
	}, nil
}

// OptimizeRequest asks for candidate generation plus ranking in one shot.
type OptimizeRequest struct {
	Brief   BriefRequest       `json:"brief"`
	Weights map[string]float64 `json:"weights"`
	Geo     string             `json:"geo"`
}

// HandleOptimizeScenarios generates template and grid candidates for the
// brief, evaluates and validates them, and returns the ranked survivors.
func HandleOptimizeScenarios(c *fiber.Ctx) error {
	var req OptimizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	brief, err := req.Brief.toBrief()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	constraints := configTool().GetPromoConstraints()
	candidates, err := optimizationEngine.GenerateCandidateScenarios(brief, &constraints)
	if err != nil {
		return respondEngineError(c, err)
	}

	ctx := c.Context()
	baseline, err := forecastEngine().CalculateBaseline(ctx, brief.DateRange, nil)
	if err != nil {
		return respondEngineError(c, err)
	}
	model, err := currentUpliftModel(ctx)
	if err != nil {
		return respondEngineError(c, err)
	}

	ranked, err := optimizationEngine.OptimizeScenarios(candidates, req.Weights, baseline, model, &constraints, buildPromoContext(req.Geo, brief.DateRange))
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"candidates": candidates,
		"ranked":     ranked,
	}})
}

// RankRequest asks for ranking of caller-supplied scenarios.
type RankRequest struct {
	Scenarios []ScenarioRequest  `json:"scenarios"`
	Weights   map[string]float64 `json:"weights"`
	Geo       string             `json:"geo"`
}

// HandleRankScenarios scores the supplied scenarios against the weighted
// objectives and returns them ranked.
func HandleRankScenarios(c *fiber.Ctx) error {
	var req RankRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	scenarios, span, err := parseScenarios(req.Scenarios)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	ctx := c.Context()
	baseline, err := forecastEngine().CalculateBaseline(ctx, span, nil)
	if err != nil {
		return respondEngineError(c, err)
	}
	model, err := currentUpliftModel(ctx)
	if err != nil {
		return respondEngineError(c, err)
	}

	constraints := configTool().GetPromoConstraints()
	ranked, err := optimizationEngine.OptimizeScenarios(scenarios, req.Weights, baseline, model, &constraints, buildPromoContext(req.Geo, span))
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": ranked})
}

// FrontierRequest asks for the Pareto frontier over supplied scenarios.
type FrontierRequest struct {
	Scenarios []ScenarioRequest `json:"scenarios"`
	Geo       string            `json:"geo"`
}

// HandleCalculateFrontier evaluates every scenario and marks the
// Pareto-optimal ones on the (sales, margin) plane.
func HandleCalculateFrontier(c *fiber.Ctx) error {
	var req FrontierRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	scenarios, span, err := parseScenarios(req.Scenarios)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	ctx := c.Context()
	baseline, err := forecastEngine().CalculateBaseline(ctx, span, nil)
	if err != nil {
		return respondEngineError(c, err)
	}
	model, err := currentUpliftModel(ctx)
	if err != nil {
		return respondEngineError(c, err)
	}
	promoCtx := buildPromoContext(req.Geo, span)

	evaluated := make([]models.ScenarioWithKPI, 0, len(scenarios))
	for i := range scenarios {
		kpi, err := evaluationEngine.EvaluateScenario(&scenarios[i], baseline, model, promoCtx)
		if err != nil {
			return respondEngineError(c, err)
		}
		evaluated = append(evaluated, models.ScenarioWithKPI{Scenario: scenarios[i], KPI: *kpi})
	}

	frontier := engines.CalculateEfficientFrontier(evaluated)
	return c.JSON(fiber.Map{"success": true, "data": frontier})
}

func parseScenarios(requests []ScenarioRequest) ([]models.PromoScenario, models.DateRange, error) {
	if len(requests) == 0 {
		return nil, models.DateRange{}, errors.New("no scenarios supplied")
	}
	scenarios := make([]models.PromoScenario, 0, len(requests))
	for _, sr := range requests {
		scenario, err := sr.toScenario()
		if err != nil {
			return nil, models.DateRange{}, err
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, combinedRange(scenarios), nil
}
