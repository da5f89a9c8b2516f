package config

import (
	"fmt"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"

	"sql_dashboard/internal/utils"
)

// Config holds every setting of the service. Values come from APP_*
// environment variables, optionally loaded from a .env file.
type Config struct {
	Port           int
	Env            string
	LogFormat      string
	LogLevel       string
	AllowedOrigins []string

	PlaygroundDBPath string
	DatabaseURL      string

	UploadDir       string
	MaxUploadSizeMB int64

	SessionExpiry   time.Duration
	CleanupInterval time.Duration

	QueryTimeout   time.Duration
	DefaultLimit   int
	MaxLimit       int
	GraphCacheSize int
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadSizeMB * 1024 * 1024
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8000)
	v.SetDefault("env", "development")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origins", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("playground_db_path", "playground.db")
	v.SetDefault("database_url", "")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("max_upload_size_mb", 50)
	v.SetDefault("session_expiry", 7*24*time.Hour)
	v.SetDefault("cleanup_interval", 6*time.Hour)
	v.SetDefault("query_timeout", 30*time.Second)
	v.SetDefault("default_limit", 50)
	v.SetDefault("max_limit", 1000)
	v.SetDefault("graph_cache_size", 256)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:             v.GetInt("port"),
		Env:              v.GetString("env"),
		LogFormat:        v.GetString("log_format"),
		LogLevel:         v.GetString("log_level"),
		AllowedOrigins:   utils.SplitList(v.GetString("allowed_origins")),
		PlaygroundDBPath: v.GetString("playground_db_path"),
		DatabaseURL:      v.GetString("database_url"),
		UploadDir:        v.GetString("upload_dir"),
		MaxUploadSizeMB:  v.GetInt64("max_upload_size_mb"),
		SessionExpiry:    v.GetDuration("session_expiry"),
		CleanupInterval:  v.GetDuration("cleanup_interval"),
		QueryTimeout:     v.GetDuration("query_timeout"),
		DefaultLimit:     v.GetInt("default_limit"),
		MaxLimit:         v.GetInt("max_limit"),
		GraphCacheSize:   v.GetInt("graph_cache_size"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port: %d", c.Port)
	case c.SessionExpiry <= 0:
		return fmt.Errorf("session_expiry must be positive, got %s", c.SessionExpiry)
	case c.CleanupInterval <= 0:
		return fmt.Errorf("cleanup_interval must be positive, got %s", c.CleanupInterval)
	case c.QueryTimeout <= 0:
		return fmt.Errorf("query_timeout must be positive, got %s", c.QueryTimeout)
	case c.MaxLimit < 1:
		return fmt.Errorf("max_limit must be positive, got %d", c.MaxLimit)
	case c.DefaultLimit < 1 || c.DefaultLimit > c.MaxLimit:
		return fmt.Errorf("default_limit must be between 1 and max_limit (%d), got %d", c.MaxLimit, c.DefaultLimit)
	case c.MaxUploadSizeMB <= 0:
		return fmt.Errorf("max_upload_size_mb must be positive, got %d", c.MaxUploadSizeMB)
	case c.GraphCacheSize <= 0:
		return fmt.Errorf("graph_cache_size must be positive, got %d", c.GraphCacheSize)
	case len(c.AllowedOrigins) == 0:
		return fmt.Errorf("allowed_origins must list at least one origin")
	case c.PlaygroundDBPath == "":
		return fmt.Errorf("playground_db_path must be set")
	}
	return nil
}
