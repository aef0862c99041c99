// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

// Package config loads and validates server configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the GatherHub server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	API      APIConfig      `koanf:"api"`
	Media    MediaConfig    `koanf:"media"`
	Activity ActivityConfig `koanf:"activity"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use runtime.NumCPU()
	SeedDemo  bool   `koanf:"seed_demo"`
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	SessionStorePath  string        `koanf:"session_store_path"`
	BcryptCost        int           `koanf:"bcrypt_cost"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// APIConfig holds pagination limits for list endpoints.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// MediaConfig holds upstream media upload settings. The circuit breaker
// fields tune the gobreaker wrapper around the upstream.
type MediaConfig struct {
	UploadURL           string        `koanf:"upload_url"`
	APIKey              string        `koanf:"api_key"`
	Timeout             time.Duration `koanf:"timeout"`
	MaxUploadBytes      int64         `koanf:"max_upload_bytes"`
	BreakerMaxFailures  uint32        `koanf:"breaker_max_failures"`
	BreakerOpenInterval time.Duration `koanf:"breaker_open_interval"`
}

// ActivityConfig holds the in-process activity feed pipeline settings.
type ActivityConfig struct {
	BufferSize    int `koanf:"buffer_size"`
	PersistWorker int `koanf:"persist_workers"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would make the server
// unusable. Called once after loading; failures abort startup.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.Timeout <= 0 {
		errs = append(errs, "server.timeout must be positive")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if len(c.Security.JWTSecret) < 32 {
		errs = append(errs, "security.jwt_secret must be at least 32 characters")
	}
	if c.Security.SessionTimeout <= 0 {
		errs = append(errs, "security.session_timeout must be positive")
	}
	if c.Security.BcryptCost < 10 || c.Security.BcryptCost > 18 {
		errs = append(errs, fmt.Sprintf("security.bcrypt_cost must be 10-18, got %d", c.Security.BcryptCost))
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			errs = append(errs, "security.rate_limit_reqs must be positive")
		}
		if c.Security.RateLimitWindow <= 0 {
			errs = append(errs, "security.rate_limit_window must be positive")
		}
	}

	if c.API.DefaultPageSize <= 0 {
		errs = append(errs, "api.default_page_size must be positive")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		errs = append(errs, "api.max_page_size must be >= api.default_page_size")
	}

	if c.Media.MaxUploadBytes <= 0 {
		errs = append(errs, "media.max_upload_bytes must be positive")
	}

	if c.Activity.BufferSize <= 0 {
		errs = append(errs, "activity.buffer_size must be positive")
	}
	if c.Activity.PersistWorker <= 0 {
		errs = append(errs, "activity.persist_workers must be positive")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not a valid level", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q must be json or console", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
