package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the application
type Config struct {
	AppMode   string
	Port      string
	Database  DatabaseConfig
	Log       LogConfig
	Engine    EngineConfig
	Scheduler SchedulerConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// EngineConfig holds the work order engine policy knobs
type EngineConfig struct {
	// ApprovalThreshold is the estimated cost above which orders created by
	// non-supervisors wait for approval.
	ApprovalThreshold    decimal.Decimal
	ConflictMaxRetries   int
	ConflictRetryBackoff time.Duration
}

// SchedulerConfig holds the maintenance schedule runner configuration
type SchedulerConfig struct {
	Enabled bool
	Cron    string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// .env is optional in production
	if err := godotenv.Load(); err != nil {
		logrus.Warn("⚠️ .env file not found, using environment variables")
	}

	config, err := FromEnv()
	if err != nil {
		return nil, err
	}
	AppConfig = config

	logrus.WithField("mode", config.AppMode).Info("✅ Configuration loaded successfully")
	return config, nil
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	// trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	engine, err := loadEngineConfig()
	if err != nil {
		return nil, err
	}
	scheduler, err := loadSchedulerConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		AppMode:   appMode,
		Port:      getEnv("PORT", "3000"),
		Database:  loadDatabaseConfig(appMode),
		Log:       loadLogConfig(appMode),
		Engine:    engine,
		Scheduler: scheduler,
	}, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "cmms"),
	}
}

func loadLogConfig(mode string) LogConfig {
	level := "debug"
	if mode == "prod" {
		level = "info"
	}
	return LogConfig{
		Level:  getEnv("LOG_LEVEL", level),
		Format: getEnv("LOG_FORMAT", "json"),
	}
}

func loadEngineConfig() (EngineConfig, error) {
	threshold, err := decimal.NewFromString(getEnv("APPROVAL_THRESHOLD", "1000"))
	if err != nil {
		return EngineConfig{}, fmt.Errorf("invalid APPROVAL_THRESHOLD: %w", err)
	}
	if threshold.IsNegative() {
		return EngineConfig{}, fmt.Errorf("invalid APPROVAL_THRESHOLD: must not be negative")
	}

	retries, err := strconv.Atoi(getEnv("CONFLICT_MAX_RETRIES", "3"))
	if err != nil || retries < 0 {
		return EngineConfig{}, fmt.Errorf("invalid CONFLICT_MAX_RETRIES: '%s'", os.Getenv("CONFLICT_MAX_RETRIES"))
	}

	backoff, err := time.ParseDuration(getEnv("CONFLICT_RETRY_BACKOFF", "50ms"))
	if err != nil {
		return EngineConfig{}, fmt.Errorf("invalid CONFLICT_RETRY_BACKOFF: %w", err)
	}

	return EngineConfig{
		ApprovalThreshold:    threshold,
		ConflictMaxRetries:   retries,
		ConflictRetryBackoff: backoff,
	}, nil
}

func loadSchedulerConfig() (SchedulerConfig, error) {
	enabled, err := strconv.ParseBool(getEnv("SCHEDULER_ENABLED", "true"))
	if err != nil {
		return SchedulerConfig{}, fmt.Errorf("invalid SCHEDULER_ENABLED: %w", err)
	}
	return SchedulerConfig{
		Enabled: enabled,
		Cron:    getEnv("SCHEDULE_CRON", "@every 15m"),
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}
