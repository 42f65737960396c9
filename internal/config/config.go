package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Logger    LoggerConfig
	CORS      CORSConfig
	Platform  PlatformConfig
	Fusion    FusionConfig
	Scheduler SchedulerConfig
	External  ExternalConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL            string        // Required
	MigrationsPath string        // Default: "migrations"
	HealthTimeout  time.Duration // Default: 5s

	// Connection pool tuning
	MaxConns          int32         // Default: 8
	MinConns          int32         // Default: 2
	MaxConnIdleTime   time.Duration // Default: 5m
	MaxConnLifetime   time.Duration // Default: 30m
	HealthCheckPeriod time.Duration // Default: 1m
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        // Default: "127.0.0.1"
	Port            int           // Default: 8080
	ShutdownTimeout time.Duration // Default: 30s
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // Default: "info" (trace, debug, info, warn, error, fatal, panic)
	Environment string // production|development|staging|test (affects format)
}

// CORSConfig holds CORS middleware settings
type CORSConfig struct {
	AllowAll    bool   // Default: false
	FrontendURL string // Used when AllowAll=false
}

// PlatformConfig holds identity platform API credentials and tuning
type PlatformConfig struct {
	BaseURL      string  // Required
	ClientID     string  // Required
	ClientSecret string  // Required
	// RateLimit is the request budget per second against the platform API
	RateLimit float64 // Default: 10
	// MaxRetries bounds the retry loop for throttled or failed requests
	MaxRetries int           // Default: 5
	Timeout    time.Duration // Default: 60s
}

// FusionConfig names the fusion sources the service reconciles
type FusionConfig struct {
	// SourceIDs are the fusion source IDs reconciled on the schedule
	SourceIDs []string
}

// ExternalConfig holds service credentials
type ExternalConfig struct {
	// APIKey protects the management API; empty disables auth (development)
	APIKey string
}

// SchedulerConfig holds the background reconciliation schedule
type SchedulerConfig struct {
	Enabled bool   // Default: true
	Spec    string // Cron spec, default: "0 */4 * * *" (every 4 hours)
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Constants for default values
const (
	DefaultMigrationsPath     = "migrations"
	DefaultServerHost         = "127.0.0.1"
	DefaultServerPort         = 8080
	DefaultShutdownTimeout    = 30 * time.Second
	DefaultHealthCheckTimeout = 5 * time.Second
	DefaultLogLevel           = "info"
	DefaultEnvironment        = "development"
	DefaultRateLimit          = 10.0
	DefaultMaxRetries         = 5
	DefaultPlatformTimeout    = 60 * time.Second
	DefaultScheduleSpec       = "0 */4 * * *"
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL:               getEnv("DATABASE_URL", ""),
			MigrationsPath:    getEnv("MIGRATIONS_PATH", DefaultMigrationsPath),
			HealthTimeout:     DefaultHealthCheckTimeout,
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 8)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 2)),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE", 5*time.Minute),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", time.Minute),
		},
		Server: ServerConfig{
			Host:            getEnv("HOST", DefaultServerHost),
			Port:            getEnvAsInt("PORT", DefaultServerPort),
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", DefaultLogLevel),
			Environment: getEnv("APP_ENV", DefaultEnvironment),
		},
		CORS: CORSConfig{
			AllowAll:    getEnvAsBool("CORS_ALLOW_ALL", false),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Platform: PlatformConfig{
			BaseURL:      getEnv("PLATFORM_BASE_URL", ""),
			ClientID:     getEnv("PLATFORM_CLIENT_ID", ""),
			ClientSecret: getEnv("PLATFORM_CLIENT_SECRET", ""),
			RateLimit:    getEnvAsFloat("PLATFORM_RATE_LIMIT", DefaultRateLimit),
			MaxRetries:   getEnvAsInt("PLATFORM_MAX_RETRIES", DefaultMaxRetries),
			Timeout:      getEnvAsDuration("PLATFORM_TIMEOUT", DefaultPlatformTimeout),
		},
		Fusion: FusionConfig{
			SourceIDs: splitList(getEnv("FUSION_SOURCE_IDS", "")),
		},
		Scheduler: SchedulerConfig{
			Enabled: getEnvAsBool("SCHEDULER_ENABLED", true),
			Spec:    getEnv("SCHEDULE_SPEC", DefaultScheduleSpec),
		},
		External: ExternalConfig{
			APIKey: getEnv("API_KEY", ""),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	var errors ValidationErrors

	// Required: DATABASE_URL
	if c.Database.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "DATABASE_URL",
			Message: "database URL is required",
		})
	}

	// Required: platform API credentials
	if c.Platform.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "PLATFORM_BASE_URL",
			Message: "platform base URL is required",
		})
	}
	if c.Platform.ClientID == "" {
		errors = append(errors, ValidationError{
			Field:   "PLATFORM_CLIENT_ID",
			Message: "platform client ID is required",
		})
	}
	if c.Platform.ClientSecret == "" {
		errors = append(errors, ValidationError{
			Field:   "PLATFORM_CLIENT_SECRET",
			Message: "platform client secret is required",
		})
	}
	if c.Platform.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "PLATFORM_RATE_LIMIT",
			Message: fmt.Sprintf("rate limit must be positive, got %v", c.Platform.RateLimit),
		})
	}
	if c.Platform.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "PLATFORM_MAX_RETRIES",
			Message: fmt.Sprintf("max retries must not be negative, got %d", c.Platform.MaxRetries),
		})
	}

	// Server port range
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "PORT",
			Message: fmt.Sprintf("port must be between 0 and 65535, got %d", c.Server.Port),
		})
	}

	// Log level validation
	validLogLevels := []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic"}
	if !contains(validLogLevels, strings.ToLower(c.Logger.Level)) {
		errors = append(errors, ValidationError{
			Field:   "LOG_LEVEL",
			Message: fmt.Sprintf("invalid log level %q, must be one of: %v", c.Logger.Level, validLogLevels),
		})
	}

	// Environment validation
	validEnvs := []string{"production", "development", "staging", "test"}
	if !contains(validEnvs, c.Logger.Environment) {
		errors = append(errors, ValidationError{
			Field:   "APP_ENV",
			Message: fmt.Sprintf("invalid environment %q, must be one of: %v", c.Logger.Environment, validEnvs),
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// GetBindAddress returns the server bind address in format "host:port"
func (c *Config) GetBindAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Logger.Environment == "production"
}

// getEnv reads an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an integer environment variable with a fallback default
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat reads a float environment variable with a fallback default
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool reads a boolean environment variable with a fallback default
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration reads a duration environment variable with a fallback default
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// splitList splits a comma-separated list, dropping empty entries
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// contains checks if a string slice contains a value
func contains(slice []string, value string) bool {
	for _, v := range slice {
		if v == value {
			return true
		}
	}
	return false
}
