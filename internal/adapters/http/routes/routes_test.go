package routes

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"cmms-engine/internal/adapters/http/handlers"
	"cmms-engine/internal/adapters/http/middleware"
	"cmms-engine/internal/observability"
	"cmms-engine/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(ping handlers.PingFunc) (*fiber.App, *observability.Metrics) {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	middleware.Setup(app, logger.Discard())
	metrics := observability.NewMetrics()
	Setup(app, handlers.NewHealthHandler("dev", ping), metrics)
	return app, metrics
}

func TestHealth(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		ping   handlers.PingFunc
		status int
		body   string
	}{
		{"database reachable", healthy, fiber.StatusOK, `"database":"healthy"`},
		{"database down", down, fiber.StatusServiceUnavailable, `"database":"unhealthy"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newApp(tt.ping)
			resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(body), tt.body)
		})
	}
}

func TestRoot(t *testing.T) {
	app, _ := newApp(nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"mode":"dev"`)
}

func TestMetricsEndpoint(t *testing.T) {
	app, metrics := newApp(nil)
	metrics.Transition("PLANNED")

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `cmms_work_order_transitions_total{to="PLANNED"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	app, _ := newApp(nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/nothing", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
