package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"peerbets/database"

	"github.com/google/uuid"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPPort int

	// Resolution configuration
	ResolverUserIDs []uuid.UUID // Users that can resolve events

	// Betting configuration
	DefaultCurrency string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated), empty disables publishing

	// Redis configuration
	RedisAddr    string // Empty disables the odds cache
	OddsCacheTTL time.Duration

	// Worker configuration
	ClosingWorkerEnabled bool

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsResolver checks if a user is allowed to resolve events
func (c *Config) IsResolver(userID uuid.UUID) bool {
	for _, id := range c.ResolverUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// HTTP
		HTTPPort: 8080,

		// Betting
		DefaultCurrency: getEnvWithDefault("DEFAULT_CURRENCY", "€"),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Redis
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		OddsCacheTTL: 30 * time.Second,

		// Workers
		ClosingWorkerEnabled: true,

		// OpenTelemetry
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "peerbets"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "none"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: 30000,

		// Logging
		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if port := os.Getenv("HTTP_PORT"); port != "" {
		parsedPort, err := strconv.Atoi(port)
		if err != nil || parsedPort <= 0 || parsedPort > 65535 {
			return nil, fmt.Errorf("HTTP_PORT must be a valid port, got %q", port)
		}
		config.HTTPPort = parsedPort
	}
	if ttl := os.Getenv("ODDS_CACHE_TTL_SECONDS"); ttl != "" {
		if seconds, err := strconv.Atoi(ttl); err == nil && seconds > 0 {
			config.OddsCacheTTL = time.Duration(seconds) * time.Second
		}
	}
	if enabled := os.Getenv("CLOSING_WORKER_ENABLED"); enabled != "" {
		if parsed, err := strconv.ParseBool(enabled); err == nil {
			config.ClosingWorkerEnabled = parsed
		}
	}
	if enabled := os.Getenv("OTEL_ENABLED"); enabled != "" {
		if parsed, err := strconv.ParseBool(enabled); err == nil {
			config.OTelEnabled = parsed
		}
	}
	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil && parsed > 0 {
			config.OTelExportIntervalMillis = parsed
		}
	}

	// Parse resolver user IDs
	if resolverIDs := os.Getenv("RESOLVER_USER_IDS"); resolverIDs != "" {
		for _, idStr := range strings.Split(resolverIDs, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := uuid.Parse(idStr)
			if err != nil {
				return nil, fmt.Errorf("invalid resolver user ID %q: %w", idStr, err)
			}
			config.ResolverUserIDs = append(config.ResolverUserIDs, id)
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
		switch config.OTelExporterType {
		case "console", "otlp", "none":
		default:
			return nil, fmt.Errorf("OTEL_EXPORTER_TYPE must be console, otlp or none, got %q", config.OTelExporterType)
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// TestResolverID is the resolver configured by NewTestConfig
var TestResolverID = uuid.MustParse("00000000-0000-0000-0000-000000999999")

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:      "test",
		ResolverUserIDs:  []uuid.UUID{TestResolverID},
		DefaultCurrency:  "€",
		HTTPPort:         8080,
		OddsCacheTTL:     30 * time.Second,
		OTelExporterType: "none",
		LogLevel:         "info",
		LogFormat:        "text",
	}
}
