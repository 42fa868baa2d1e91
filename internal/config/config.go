// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"TDESK_DB_PATH" envDefault:"./data/traveldesk.db"`
	ServerHost string `env:"TDESK_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"TDESK_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"TDESK_ENV" envDefault:"development"`
	LogLevel   string `env:"TDESK_LOG_LEVEL" envDefault:"info"`
	UploadsDir string `env:"TDESK_UPLOADS_DIR" envDefault:"./uploads"`
	CORSOrigin string `env:"TDESK_CORS_ORIGIN" envDefault:"*"` // browser frontend origin

	// Cache configuration
	RedisURL    string `env:"TDESK_REDIS_URL"`                       // Optional Redis URL for distributed caching
	CachePrefix string `env:"TDESK_CACHE_PREFIX" envDefault:"tdesk:"` // Redis key prefix
	CacheTTL    int    `env:"TDESK_CACHE_TTL" envDefault:"300"`       // Default cache TTL in seconds

	// Rate limiting for the public enquiry endpoint
	SubmitRPS   float64 `env:"TDESK_SUBMIT_RPS" envDefault:"1"`
	SubmitBurst int     `env:"TDESK_SUBMIT_BURST" envDefault:"5"`

	// Event log retention in days; older entries are pruned by the scheduler
	EventRetentionDays int `env:"TDESK_EVENT_RETENTION_DAYS" envDefault:"90"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.SubmitRPS <= 0 {
		return nil, fmt.Errorf("TDESK_SUBMIT_RPS must be positive, got %v", cfg.SubmitRPS)
	}
	if cfg.EventRetentionDays < 1 {
		return nil, fmt.Errorf("TDESK_EVENT_RETENTION_DAYS must be at least 1, got %d", cfg.EventRetentionDays)
	}

	return cfg, nil
}
