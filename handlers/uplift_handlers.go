package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Iemelianov/mms-promo-intelligence/engines"
	"github.com/Iemelianov/mms-promo-intelligence/models"
	"github.com/Iemelianov/mms-promo-intelligence/utils"
)

// HandleGetUpliftModel returns the current uplift model snapshot, building it
// on first use.
func HandleGetUpliftModel(c *fiber.Ctx) error {
	model, err := currentUpliftModel(c.Context())
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": model})
}

// HandleRefreshUpliftModel rebuilds the uplift model from the trailing
// history window and swaps it in atomically.
func HandleRefreshUpliftModel(c *fiber.Ctx) error {
	model, err := modelCache.Refresh(c.Context(), upliftEngine(), time.Now())
	if err != nil {
		return respondEngineError(c, err)
	}
	log.Printf("Refreshed uplift model %s (%d coefficients)", model.Version, len(model.Coefficients))
	return c.JSON(fiber.Map{"success": true, "data": model})
}

// HandleEstimateUplift estimates uplift for a single (department, channel,
// discount) point, e.g. ?department=TV&channel=online&discount=20.
func HandleEstimateUplift(c *fiber.Ctx) error {
	department := c.Query("department")
	channel := c.Query("channel")
	if department == "" || channel == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "department and channel query parameters are required"})
	}
	discountPct := c.QueryFloat("discount")
	if discountPct < 0 || discountPct > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "discount must be between 0 and 100"})
	}

	model, err := currentUpliftModel(c.Context())
	if err != nil {
		return respondEngineError(c, err)
	}

	var promoCtx *models.PromoContext
	if geo := c.Query("geo"); geo != "" {
		dateRange, err := utils.ParseDateRange(c.Query("start"), c.Query("end"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
		}
		promoCtx = buildPromoContext(geo, dateRange)
	}

	uplift := engines.EstimateUplift(model, department, channel, discountPct/100, promoCtx)
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"department": department,
		"channel":    channel,
		"discount":   discountPct,
		"uplift":     uplift,
	}})
}
