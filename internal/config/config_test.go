package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_MODE", "")
	t.Setenv("APPROVAL_THRESHOLD", "")
	t.Setenv("CONFLICT_MAX_RETRIES", "")
	t.Setenv("CONFLICT_RETRY_BACKOFF", "")
	t.Setenv("SCHEDULER_ENABLED", "")
	t.Setenv("SCHEDULE_CRON", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEV_DB_NAME", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "cmms", cfg.Database.DBName)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Engine.ApprovalThreshold.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 3, cfg.Engine.ConflictMaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Engine.ConflictRetryBackoff)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "@every 15m", cfg.Scheduler.Cron)
}

func TestFromEnv_ProdUsesProdDatabase(t *testing.T) {
	t.Setenv("APP_MODE", " prod ")
	t.Setenv("PROD_DB_HOST", "db.internal")
	t.Setenv("PROD_DB_NAME", "cmms_prod")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("APPROVAL_THRESHOLD", "2500.50")
	t.Setenv("SCHEDULER_ENABLED", "false")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "cmms_prod", cfg.Database.DBName)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "2500.5", cfg.Engine.ApprovalThreshold.String())
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown mode", "APP_MODE", "staging"},
		{"threshold not a number", "APPROVAL_THRESHOLD", "lots"},
		{"negative threshold", "APPROVAL_THRESHOLD", "-1"},
		{"negative retries", "CONFLICT_MAX_RETRIES", "-2"},
		{"bad backoff", "CONFLICT_RETRY_BACKOFF", "soon"},
		{"bad scheduler flag", "SCHEDULER_ENABLED", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(DatabaseConfig{Host: "localhost", Port: "3306", User: "cmms", Password: "secret", DBName: "cmms"})
	assert.Equal(t, "cmms:secret@tcp(localhost:3306)/cmms?charset=utf8mb4&parseTime=True&loc=UTC", dsn)
}
