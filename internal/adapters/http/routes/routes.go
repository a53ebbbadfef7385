package routes

import (
	"cmms-engine/internal/adapters/http/handlers"
	"cmms-engine/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Setup registers the operational routes. Business operations are exposed
// to embedding services through the core services, not over HTTP.
func Setup(app *fiber.App, health *handlers.HealthHandler, metrics *observability.Metrics) {
	app.Get("/", health.Root)
	app.Get("/health", health.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
}
