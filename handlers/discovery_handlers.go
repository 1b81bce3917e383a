package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Iemelianov/mms-promo-intelligence/engines"
	"github.com/Iemelianov/mms-promo-intelligence/utils"
)

// HandleGetGaps computes the baseline for a month and its gap vs targets.
func HandleGetGaps(c *fiber.Ctx) error {
	month := c.Query("month")
	if month == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "month query parameter is required"})
	}
	dateRange, err := utils.MonthRange(month)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	targets, err := configTool().GetTargets(month)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	baseline, err := forecastEngine().CalculateBaseline(c.Context(), dateRange, nil)
	if err != nil {
		return respondEngineError(c, err)
	}
	gap := engines.CalculateGapVsTargets(baseline, targets)
	baseline.GapVsTarget = &gap

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"baseline": baseline,
		"targets":  targets,
		"gap":      gap,
	}})
}

// HandleGetContext returns the planning context for a geo and date range.
func HandleGetContext(c *fiber.Ctx) error {
	geo := c.Query("geo")
	if geo == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "geo query parameter is required"})
	}
	dateRange, err := utils.ParseDateRange(c.Query("start"), c.Query("end"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	promoCtx := contextEngine.BuildContext(geo, dateRange)
	return c.JSON(fiber.Map{"success": true, "data": promoCtx})
}

// HandleGetOpportunities surfaces gap-driven promotional opportunities for a
// month. Departments come from history unless the caller narrows them.
func HandleGetOpportunities(c *fiber.Ctx) error {
	month := c.Query("month")
	geo := c.Query("geo", "DE")
	if month == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "month query parameter is required"})
	}
	dateRange, err := utils.MonthRange(month)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	targets, err := configTool().GetTargets(month)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	ctx := c.Context()
	baseline, err := forecastEngine().CalculateBaseline(ctx, dateRange, nil)
	if err != nil {
		return respondEngineError(c, err)
	}

	departments, err := observedDepartments(c)
	if err != nil {
		return respondEngineError(c, err)
	}

	opportunities := engines.IdentifyOpportunities(baseline, targets, geo, departments)
	return c.JSON(fiber.Map{"success": true, "data": opportunities})
}

// observedDepartments lists the departments present in the trailing history
// window.
func observedDepartments(c *fiber.Ctx) ([]string, error) {
	lookback := utils.TrailingDays(engines.DefaultLookbackDays)
	rows, err := salesTool().GetAggregatedSales(c.Context(), lookback, []string{"department"}, nil)
	if err != nil {
		return nil, err
	}
	departments := make([]string, 0, len(rows))
	for _, row := range rows {
		departments = append(departments, row.Department)
	}
	return departments, nil
}
