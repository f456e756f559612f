package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// Observability
	SentryDSN string // Sentry DSN for error tracking

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from an upstream gateway
	// - "jwt": Validate Bearer tokens signed with JWTSecret
	AuthMode  string
	JWTSecret string

	// Persisted target routes. Empty keeps them in memory.
	DatabaseURL string

	// Default OSC destination for targets without a stored route
	OSCHost    string
	OSCPort    int
	OSCAddress string

	// Compiler limits
	Subdivision     uint32
	MaxPatternBytes int
	MaxMeasures     int
	MaxNodes        int
	CompileTimeout  time.Duration

	// REPL
	HistoryFile string
}

func Load() *Config {
	return &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		Port:            getEnv("PORT", "8080"),
		SentryDSN:       getEnv("SENTRY_DSN", ""),
		AuthMode:        getEnv("AUTH_MODE", "none"), // Default to no auth for local use
		JWTSecret:       getEnv("JWT_SECRET", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		OSCHost:         getEnv("OSC_HOST", "127.0.0.1"),
		OSCPort:         getEnvInt("OSC_PORT", 1234),
		OSCAddress:      getEnv("OSC_ADDRESS", "/battito"),
		Subdivision:     uint32(getEnvInt("SUBDIVISION", 1920)),
		MaxPatternBytes: getEnvInt("MAX_PATTERN_BYTES", 4096),
		MaxMeasures:     getEnvInt("MAX_MEASURES", 4096),
		MaxNodes:        getEnvInt("MAX_NODES", 1<<20),
		CompileTimeout:  getEnvDuration("COMPILE_TIMEOUT", 2*time.Second),
		HistoryFile:     getEnv("HISTORY_FILE", defaultHistoryFile()),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt only accepts positive values.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 || n > 1<<31-1 {
		log.Printf("⚠️  Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("⚠️  Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".battito_history"
	}
	return filepath.Join(home, ".battito_history")
}

// IsGatewayMode returns true if running behind an authenticating gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsJWTMode returns true if requests carry their own signed tokens
func (c *Config) IsJWTMode() bool {
	return c.AuthMode == "jwt"
}

// IsProduction gates release mode and CloudWatch
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasDatabase reports whether target routes are persisted
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// OSCDestination is the default host:port targets are sent to
func (c *Config) OSCDestination() string {
	return c.OSCHost + ":" + strconv.Itoa(c.OSCPort)
}
