package handlers

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Iemelianov/mms-promo-intelligence/config"
	"github.com/Iemelianov/mms-promo-intelligence/database"
	"github.com/Iemelianov/mms-promo-intelligence/engines"
	"github.com/Iemelianov/mms-promo-intelligence/models"
	"github.com/Iemelianov/mms-promo-intelligence/tools"
	"github.com/Iemelianov/mms-promo-intelligence/utils"
)

// Engine singletons shared by all handlers. Engines are stateless; the only
// shared mutable state is the uplift model cache, which swaps snapshots
// atomically.
var (
	evaluationEngine   = engines.NewEvaluationEngine()
	validationEngine   = engines.NewValidationEngine()
	optimizationEngine = engines.NewOptimizationEngine(evaluationEngine, validationEngine)
	contextEngine      = engines.NewContextEngine()
	modelCache         = engines.NewModelCache()

	configToolOnce sync.Once
	configToolInst *tools.TargetsConfigTool
)

func salesTool() *tools.SalesDataTool {
	return tools.NewSalesDataTool(database.GetDB())
}

func forecastEngine() *engines.ForecastEngine {
	return engines.NewForecastEngine(salesTool())
}

func upliftEngine() *engines.UpliftEngine {
	return engines.NewUpliftEngine(salesTool())
}

func configTool() *tools.TargetsConfigTool {
	configToolOnce.Do(func() {
		configToolInst = tools.NewTargetsConfigTool(config.AppConfig.PromoConfigPath)
	})
	return configToolInst
}

// currentUpliftModel returns the cached model snapshot, building it from the
// trailing history window on first use.
func currentUpliftModel(ctx context.Context) (*models.UpliftModel, error) {
	if model := modelCache.Load(); model != nil {
		return model, nil
	}
	model, err := modelCache.Refresh(ctx, upliftEngine(), time.Now())
	if err != nil {
		return nil, err
	}
	log.Printf("Built uplift model %s (%d coefficients)", model.Version, len(model.Coefficients))
	return model, nil
}

// respondEngineError maps core errors onto HTTP statuses: missing history is
// 404, structural scenario problems are 422, anything else is 500.
func respondEngineError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, engines.ErrDataUnavailable):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": err.Error()})
	case errors.Is(err, engines.ErrInvalidScenario):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"success": false, "message": err.Error()})
	default:
		log.Printf("Engine error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Internal error"})
	}
}

// ScenarioRequest is the wire form of a scenario; dates arrive as strings.
type ScenarioRequest struct {
	ID                 string                 `json:"id"`
	Name               string                 `json:"name"`
	Description        string                 `json:"description"`
	StartDate          string                 `json:"startDate"`
	EndDate            string                 `json:"endDate"`
	Departments        []string               `json:"departments"`
	Channels           []string               `json:"channels"`
	DiscountPercentage float64                `json:"discountPercentage"`
	Segments           []string               `json:"segments"`
	Metadata           map[string]interface{} `json:"metadata"`
}

func (r ScenarioRequest) toScenario() (models.PromoScenario, error) {
	dateRange, err := utils.ParseDateRange(r.StartDate, r.EndDate)
	if err != nil {
		return models.PromoScenario{}, err
	}
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	return models.PromoScenario{
		ID:                 id,
		Name:               r.Name,
		Description:        r.Description,
		DateRange:          dateRange,
		Departments:        r.Departments,
		Channels:           r.Channels,
		DiscountPercentage: r.DiscountPercentage,
		Segments:           r.Segments,
		Metadata:           r.Metadata,
	}, nil
}

// buildPromoContext materializes the optional planning context for a request.
func buildPromoContext(geo string, dateRange models.DateRange) *models.PromoContext {
	if geo == "" {
		return nil
	}
	promoCtx := contextEngine.BuildContext(geo, dateRange)
	return &promoCtx
}
