package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cmms-engine/internal/adapters/http/handlers"
	"cmms-engine/internal/adapters/http/middleware"
	"cmms-engine/internal/adapters/http/routes"
	"cmms-engine/internal/adapters/persistence/models"
	"cmms-engine/internal/adapters/persistence/repositories"
	"cmms-engine/internal/config"
	"cmms-engine/internal/core/services"
	"cmms-engine/internal/observability"
	"cmms-engine/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("❌ Failed to load configuration")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	// Connect to database
	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("❌ Failed to connect to database")
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("❌ Failed to auto migrate")
	}
	log.Info("✅ Database migration completed")

	if cfg.IsDev() {
		if err := config.NewSeeder(db, log).Run(); err != nil {
			log.WithError(err).Warn("⚠️ Failed to seed development data")
		}
	}

	metrics := observability.NewMetrics()
	threshold := cfg.Engine.ApprovalThreshold
	opts := services.Options{
		Logger:  log,
		Metrics: metrics,
		Retry: services.RetryPolicy{
			MaxRetries: cfg.Engine.ConflictMaxRetries,
			Backoff:    cfg.Engine.ConflictRetryBackoff,
		},
		ApprovalThreshold: &threshold,
	}
	scheduleService := services.NewScheduleService(repositories.NewStore(db), opts)

	// Run due maintenance schedules in the background
	if cfg.Scheduler.Enabled {
		cronService, err := services.NewCronService(scheduleService, cfg.Scheduler.Cron, log)
		if err != nil {
			log.WithError(err).Fatal("❌ Invalid SCHEDULE_CRON")
		}
		cronService.Start()
		defer cronService.Stop()
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "CMMS engine",
		ErrorHandler:          middleware.CustomErrorHandler,
		DisableStartupMessage: cfg.IsProd(),
	})

	middleware.Setup(app, log)
	routes.Setup(app, handlers.NewHealthHandler(cfg.AppMode, config.HealthCheck), metrics)

	// Graceful shutdown
	go gracefulShutdown(app, log)

	log.WithFields(logrus.Fields{"port": cfg.Port, "mode": cfg.AppMode}).Info("🚀 Server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Error("❌ Failed to start server")
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, log logrus.FieldLogger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("❌ Error during shutdown")
	}
	log.Info("✅ Server stopped gracefully")
}
