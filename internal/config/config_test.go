package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, "playground.db", cfg.PlaygroundDBPath)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionExpiry)
	assert.Equal(t, 6*time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, 1000, cfg.MaxLimit)
	assert.Equal(t, int64(50*1024*1024), cfg.MaxUploadBytes())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("APP_SESSION_EXPIRY", "2h")
	t.Setenv("APP_DATABASE_URL", "postgres://u:p@localhost:5432/db")
	t.Setenv("APP_MAX_LIMIT", "200")
	t.Setenv("APP_DEFAULT_LIMIT", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.SessionExpiry)
	assert.Equal(t, "postgres://u:p@localhost:5432/db", cfg.DatabaseURL)
	assert.Equal(t, 200, cfg.MaxLimit)
	assert.Equal(t, 25, cfg.DefaultLimit)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string][2]string{
		"negative expiry":   {"APP_SESSION_EXPIRY", "-1h"},
		"zero interval":     {"APP_CLEANUP_INTERVAL", "0s"},
		"default above max": {"APP_DEFAULT_LIMIT", "5000"},
		"zero upload size":  {"APP_MAX_UPLOAD_SIZE_MB", "0"},
		"port out of range": {"APP_PORT", "70000"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env[0], env[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
