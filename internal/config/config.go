package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the GenoPortal server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Galaxy   GalaxyConfig
	Session  SessionConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type GalaxyConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	PollInterval   time.Duration
	MaxWait        time.Duration
	CallsPerSecond float64
}

type SessionConfig struct {
	TTL time.Duration
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("GENOPORTAL_PORT", 8080),
			Env:  envString("GENOPORTAL_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Galaxy: GalaxyConfig{
			BaseURL:        strings.TrimRight(os.Getenv("GALAXY_BASE_URL"), "/"),
			APIKey:         os.Getenv("GALAXY_API_KEY"),
			Timeout:        envDuration("GALAXY_TIMEOUT", 60*time.Second),
			PollInterval:   envDuration("GALAXY_POLL_INTERVAL", 10*time.Second),
			MaxWait:        envDuration("GALAXY_MAX_WAIT", 30*time.Minute),
			CallsPerSecond: envFloat("GALAXY_CALLS_PER_SECOND", 5),
		},
		Session: SessionConfig{
			TTL: envDuration("SESSION_TTL", 12*time.Hour),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Galaxy.BaseURL == "" {
		return fmt.Errorf("GALAXY_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Galaxy.BaseURL, "http://") && !strings.HasPrefix(c.Galaxy.BaseURL, "https://") {
		return fmt.Errorf("GALAXY_BASE_URL must start with http:// or https://, got %q", c.Galaxy.BaseURL)
	}
	if c.Galaxy.APIKey == "" {
		return fmt.Errorf("GALAXY_API_KEY is required")
	}
	if c.Galaxy.PollInterval <= 0 {
		return fmt.Errorf("GALAXY_POLL_INTERVAL must be positive")
	}
	if c.Galaxy.MaxWait <= c.Galaxy.PollInterval {
		return fmt.Errorf("GALAXY_MAX_WAIT must be longer than GALAXY_POLL_INTERVAL")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
