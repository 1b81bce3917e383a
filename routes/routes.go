package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/Iemelianov/mms-promo-intelligence/handlers"
	"github.com/Iemelianov/mms-promo-intelligence/middleware"
)

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// --- Authentication Routes ---
	auth := api.Group("/auth")
	auth.Post("/login", handlers.HandleLogin)
	auth.Get("/me", middleware.JWTMiddleware, handlers.HandleGetMe)

	// --- Scenario Lab ---
	scenarios := api.Group("/scenarios", middleware.JWTMiddleware, middleware.RoleRequired("planner", "admin"))
	scenarios.Post("/create", handlers.HandleCreateScenario)
	scenarios.Post("/evaluate", handlers.HandleEvaluateScenario)
	scenarios.Post("/compare", handlers.HandleCompareScenarios)
	scenarios.Post("/validate", handlers.HandleValidateScenario)

	// --- Optimization ---
	// Grid evaluation is the most expensive surface, hence the tighter limit.
	optimization := api.Group("/optimization",
		middleware.JWTMiddleware, middleware.RoleRequired("planner", "admin"),
		limiter.New(limiter.Config{Max: 20, Expiration: time.Minute}))
	optimization.Post("/optimize", handlers.HandleOptimizeScenarios)
	optimization.Post("/frontier", handlers.HandleCalculateFrontier)
	optimization.Post("/rank", handlers.HandleRankScenarios)

	// --- Discovery ---
	discovery := api.Group("/discovery", middleware.JWTMiddleware, middleware.RoleRequired("planner", "admin"))
	discovery.Get("/gaps", handlers.HandleGetGaps)
	discovery.Get("/context", handlers.HandleGetContext)
	discovery.Get("/opportunities", handlers.HandleGetOpportunities)

	// --- Uplift Model ---
	uplift := api.Group("/models/uplift", middleware.JWTMiddleware, middleware.RoleRequired("planner", "admin"))
	uplift.Get("/", handlers.HandleGetUpliftModel)
	uplift.Get("/estimate", handlers.HandleEstimateUplift)
	uplift.Post("/refresh", middleware.RoleRequired("admin"), handlers.HandleRefreshUpliftModel)

	// --- Historical Data ---
	data := api.Group("/data", middleware.JWTMiddleware, middleware.RoleRequired("planner", "admin"))
	data.Get("/daily-sales", handlers.HandleGetDailySales)
	data.Get("/aggregated-sales", handlers.HandleGetAggregatedSales)
}
