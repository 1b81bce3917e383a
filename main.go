package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"github.com/Iemelianov/mms-promo-intelligence/config"
	"github.com/Iemelianov/mms-promo-intelligence/database"
	"github.com/Iemelianov/mms-promo-intelligence/routes"
)

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	// Load configuration
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	// Set up the application configuration
	config.AppConfig.JWTSecret = jwtSecret
	config.AppConfig.PromoConfigPath = os.Getenv("PROMO_CONFIG_PATH")
	config.AppConfig.ListenAddr = os.Getenv("LISTEN_ADDR")
	if config.AppConfig.ListenAddr == "" {
		config.AppConfig.ListenAddr = ":3000"
	}

	// Initialize database
	database.InitDB(databaseURL)
	defer database.CloseDB()

	app := fiber.New()

	// Add CORS middleware
	app.Use(cors.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Promo Scenario Co-Pilot API", "version": "1.0.0"})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	// Setup routes
	routes.SetupRoutes(app)

	// Start server
	log.Fatal(app.Listen(config.AppConfig.ListenAddr))
}
