// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// CRMConfig provides settings for the GoHighLevel API client.
type CRMConfig interface {
	GetGHLBaseURL() string
	GetGHLAPIKey() string
	GetGHLLocationID() string
	GetGHLPipelineID() string
	GetGHLRequestsPerSecond() float64
	GetGHLBurst() int
	IsCRMEnabled() bool
}

// RedisConfig provides settings for redis-backed stores and the task queue.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// SMTPConfig provides settings for outbound email.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// DealsConfig provides tunables for the deal pipeline.
type DealsConfig interface {
	GetStaleDealThreshold() time.Duration
}

// NotificationConfig provides settings for outbound alerts.
type NotificationConfig interface {
	GetOpsEmail() string
}

// MatchingConfig provides tunables for the matching engine.
type MatchingConfig interface {
	GetMatchWeightsFile() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	JWTAccessSecret      string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	GHLBaseURL           string
	GHLAPIKey            string
	GHLLocationID        string
	GHLPipelineID        string
	GHLRequestsPerSecond float64
	GHLBurst             int
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	EmailEnabled         bool
	EmailFromName        string
	EmailFromAddress     string
	OpsEmail             string
	StaleDealThreshold   time.Duration
	MatchWeightsFile     string
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// CRMConfig implementation
func (c *Config) GetGHLBaseURL() string            { return c.GHLBaseURL }
func (c *Config) GetGHLAPIKey() string             { return c.GHLAPIKey }
func (c *Config) GetGHLLocationID() string         { return c.GHLLocationID }
func (c *Config) GetGHLPipelineID() string         { return c.GHLPipelineID }
func (c *Config) GetGHLRequestsPerSecond() float64 { return c.GHLRequestsPerSecond }
func (c *Config) GetGHLBurst() int                 { return c.GHLBurst }
func (c *Config) IsCRMEnabled() bool               { return c.GHLAPIKey != "" }

// RedisConfig implementation
func (c *Config) GetRedisURL() string      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool        { return c.EmailEnabled && c.SMTPHost != "" }

// DealsConfig implementation
func (c *Config) GetStaleDealThreshold() time.Duration { return c.StaleDealThreshold }

// NotificationConfig implementation
func (c *Config) GetOpsEmail() string {
	if c.OpsEmail != "" {
		return c.OpsEmail
	}
	return c.EmailFromAddress
}

// MatchingConfig implementation
func (c *Config) GetMatchWeightsFile() string { return c.MatchWeightsFile }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		GHLBaseURL:           getEnv("GHL_BASE_URL", "https://services.leadconnectorhq.com"),
		GHLAPIKey:            getEnv("GHL_API_KEY", ""),
		GHLLocationID:        getEnv("GHL_LOCATION_ID", ""),
		GHLPipelineID:        getEnv("GHL_PIPELINE_ID", ""),
		GHLRequestsPerSecond: mustFloat(getEnv("GHL_REQUESTS_PER_SECOND", "8")),
		GHLBurst:             mustInt(getEnv("GHL_BURST", "15")),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		EmailEnabled:         strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true"),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "DealDesk"),
		EmailFromAddress:     getEnv("EMAIL_FROM_ADDRESS", ""),
		OpsEmail:             getEnv("OPS_EMAIL", ""),
		StaleDealThreshold:   mustDuration(getEnv("STALE_DEAL_THRESHOLD", "120h")),
		MatchWeightsFile:     getEnv("MATCH_WEIGHTS_FILE", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.GHLAPIKey != "" && cfg.GHLLocationID == "" {
		return nil, fmt.Errorf("GHL_LOCATION_ID is required when GHL_API_KEY is set")
	}
	if cfg.IsEmailEnabled() && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
