package server

import (
	"context"
	"time"

	"github.com/fitsync/fitsync/internal/controllers"
	"github.com/fitsync/fitsync/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type HTTPServerDependencies struct {
	ConnectorController *controllers.ConnectorController
}

func NewHTTPServer(ctx context.Context, deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "fitsync-connectors",
	})

	// Add basic middleware
	router.Use(cors.New())
	router.Use(logger.New())

	// Health check endpoint (no authentication required)
	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "fitsync-connectors",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	connectorGroup := router.Group("/connectors")

	connectorGroup.Post("/:connectorType/sync", deps.ConnectorController.Sync)

	return router
}
