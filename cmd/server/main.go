package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/jam-build-datamodel/internal/app"
	"github.com/localnerve/jam-build-datamodel/internal/config"
	"github.com/localnerve/jam-build-datamodel/internal/database"
	"github.com/localnerve/jam-build-datamodel/internal/handlers"
	"github.com/localnerve/jam-build-datamodel/internal/middleware"
	"github.com/localnerve/jam-build-datamodel/internal/models"
	"github.com/localnerve/jam-build-datamodel/internal/services"
	"github.com/localnerve/jam-build-datamodel/internal/types"
	"github.com/localnerve/jam-build-datamodel/internal/utils"

	_ "github.com/localnerve/jam-build-datamodel/docs/api" // Swagger docs
)

// @title Jam-Build DataModel API
// @version 1.0.0
// @description Go Fiber service describing persisted models and invoking their methods
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/jam-build-datamodel
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db, models.All()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Register the data model
	dataModel, err := app.LoadDataModel(cfg, db)
	if err != nil {
		log.Fatalf("Failed to load data model: %v", err)
	}

	// Create Fiber app
	server := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	server.Use(recover.New())
	server.Use(logger.New())
	server.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("datamodel")
	prometheus.RegisterAt(server, "/metrics")
	server.Use(prometheus.Middleware)

	// Swagger documentation
	server.Get("/swagger/*", swagger.HandlerDefault)

	// Health
	server.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		result := services.HealthCheck(ctx, cfg, db, dataModel)
		status := fiber.StatusOK
		if result.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(result)
	})

	// API routes
	api := server.Group(cfg.APIPrefix)
	api.Use(middleware.APIVersion(services.ServerVersion))

	// Method calls and property writes require a user session when an
	// Authorizer is configured
	handler := handlers.NewDataModelHandler(dataModel)
	handler.RegisterRoutes(api, middleware.AuthUser(cfg))

	// 404 handler
	server.Use(func(c *fiber.Ctx) error {
		return utils.NotFoundResponse(c, "[404] Resource Not Found")
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Gracefully shutting down...")
		_ = server.Shutdown()
	}()

	// Start server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := server.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var fiberErr *fiber.Error
	var statusErr utils.StatusError
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	case errors.As(err, &statusErr):
		code = statusErr.StatusCode()
	}

	// Middleware errors carry their own type and message
	var customErr *types.CustomError
	if errors.As(err, &customErr) {
		message = customErr.Message
		errorType = customErr.Type
	}

	return utils.ErrorResponse(c, message, code, errorType)
}
