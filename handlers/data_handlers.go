package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Iemelianov/mms-promo-intelligence/tools"
	"github.com/Iemelianov/mms-promo-intelligence/utils"
)

// HandleGetDailySales returns per-day sales totals for a window.
func HandleGetDailySales(c *fiber.Ctx) error {
	window, err := utils.ParseDateRange(c.Query("start"), c.Query("end"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	rows, err := salesTool().GetDailySales(c.Context(), window, c.Query("channel"), c.Query("department"))
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": rows})
}

// HandleGetAggregatedSales returns sales aggregated at the requested grain,
// e.g. ?grain=department,channel,promo_flag.
func HandleGetAggregatedSales(c *fiber.Ctx) error {
	window, err := utils.ParseDateRange(c.Query("start"), c.Query("end"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	grain := strings.Split(c.Query("grain", "date"), ",")
	for _, g := range grain {
		if !tools.ValidGrainDimension(g) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "unknown grain dimension: " + g})
		}
	}
	filters := map[string]string{
		"channel":    c.Query("channel"),
		"department": c.Query("department"),
	}
	rows, err := salesTool().GetAggregatedSales(c.Context(), window, grain, filters)
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": rows})
}
