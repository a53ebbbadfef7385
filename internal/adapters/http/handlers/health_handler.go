package handlers

import (
	"context"
	"time"

	"cmms-engine/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PingFunc reports whether a dependency is reachable
type PingFunc func(ctx context.Context) error

// HealthHandler handles health check endpoints
type HealthHandler struct {
	mode   string
	pingDB PingFunc
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(mode string, pingDB PingFunc) *HealthHandler {
	return &HealthHandler{mode: mode, pingDB: pingDB}
}

// Root handles root endpoint
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "🚀 CMMS engine is running",
		"mode":    h.mode,
		"metrics": "/metrics",
	})
}

// HealthCheck reports API and database health. An unreachable database
// answers 503 so load balancers take the instance out.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if h.pingDB != nil {
		if err := h.pingDB(ctx); err != nil {
			dbStatus = "unhealthy"
		}
	}

	checks := fiber.Map{
		"api":      "healthy",
		"database": dbStatus,
	}
	if dbStatus != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
			"checks": checks,
		})
	}
	return response.Success(c, "ok", fiber.Map{"checks": checks})
}
