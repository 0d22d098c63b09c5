package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_NAME", "TOKEN_EXPIRY_HOURS", "GEMINI_MODEL", "SMTP_PORT", "SCHEDULER_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "fittrack", cfg.DBName)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpiry)
	assert.Equal(t, "gemini-pro", cfg.GeminiModel)
	assert.Equal(t, "587", cfg.SMTPPort)
	assert.True(t, cfg.SchedulerEnabled)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_EXPIRY_HOURS", "48")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_SENDER", "noreply@fittrack.app")
	t.Setenv("SMTP_PASSWORD", "secret")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 48*time.Hour, cfg.TokenExpiry)
	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
	assert.Equal(t, "2525", cfg.SMTPPort)
	assert.Equal(t, "noreply@fittrack.app", cfg.SMTPSender)
	assert.Equal(t, "secret", cfg.SMTPPassword)
}
