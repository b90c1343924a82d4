package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Auth0Config holds Auth0 JWT verification configuration.
// Both fields are empty when authentication is disabled.
type Auth0Config struct {
	Domain   string // e.g., "your-tenant.auth0.com"
	Audience string // e.g., "https://api.flightplanner.dev"
}

// Enabled reports whether registry writes require a JWT.
func (c Auth0Config) Enabled() bool {
	return c.Domain != "" && c.Audience != ""
}

// DatabaseConfig holds PostgreSQL connection configuration.
// An empty URL disables the aircraft registry.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string
	File  string // optional rotating log file
}

type Config struct {
	Port        string
	Environment string
	Log         LogConfig

	// MagneticDeclination is applied to every leg until a geomagnetic
	// model replaces the constant.
	MagneticDeclination float64
	CORSAllowedOrigins  []string
	AircraftCacheSize   int

	Database DatabaseConfig
	Auth0    Auth0Config
}

// Load reads configuration from environment variables.
// It fails fast with clear errors for invalid values.
func Load() (*Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "staging" && env != "production" {
		return nil, fmt.Errorf("invalid ENV value %q: must be development, staging, or production", env)
	}

	logLevel := strings.ToLower(getEnv("LOG_LEVEL", "info"))
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", logLevel)
	}

	declination := 6.0
	if v := os.Getenv("MAGNETIC_DECLINATION"); v != "" {
		d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAGNETIC_DECLINATION: must be a number of degrees: %w", err)
		}
		if d < -180 || d > 180 {
			return nil, fmt.Errorf("invalid MAGNETIC_DECLINATION: %v is outside [-180, 180]", d)
		}
		declination = d
	}

	// Database configuration (optional)
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL != "" {
		if err := validateDatabaseURL(databaseURL); err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
	}

	// Auth0 configuration (optional, but all-or-nothing)
	auth0Domain := os.Getenv("AUTH0_DOMAIN")
	auth0Audience := os.Getenv("AUTH0_AUDIENCE")
	var missing []string
	if auth0Domain != "" && auth0Audience == "" {
		missing = append(missing, "AUTH0_AUDIENCE")
	}
	if auth0Audience != "" && auth0Domain == "" {
		missing = append(missing, "AUTH0_DOMAIN")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}
	if auth0Domain != "" {
		if err := validateAuth0Domain(auth0Domain); err != nil {
			return nil, fmt.Errorf("invalid AUTH0_DOMAIN: %w", err)
		}
	}

	if env == "production" && databaseURL != "" && auth0Domain == "" {
		return nil, fmt.Errorf("AUTH0_DOMAIN and AUTH0_AUDIENCE are required in production when DATABASE_URL is set")
	}

	dbConfig := DatabaseConfig{
		URL:             databaseURL,
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
	}

	return &Config{
		Port:        port,
		Environment: env,
		Log: LogConfig{
			Level: logLevel,
			File:  os.Getenv("LOG_FILE"),
		},
		MagneticDeclination: declination,
		CORSAllowedOrigins:  parseList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		AircraftCacheSize:   getEnvInt("AIRCRAFT_CACHE_SIZE", 256),
		Database:            dbConfig,
		Auth0: Auth0Config{
			Domain:   auth0Domain,
			Audience: auth0Audience,
		},
	}, nil
}

// validateAuth0Domain ensures the Auth0 domain is properly formatted.
func validateAuth0Domain(domain string) error {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}

	// Should not include protocol
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return fmt.Errorf("domain should not include protocol (http:// or https://)")
	}

	if !strings.Contains(domain, ".") {
		return fmt.Errorf("domain must be a valid hostname (e.g., your-tenant.auth0.com)")
	}

	return nil
}

// validateDatabaseURL ensures the database URL is a valid PostgreSQL connection string.
func validateDatabaseURL(dbURL string) error {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}

	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return fmt.Errorf("URL must use postgres:// or postgresql:// scheme, got %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host")
	}

	return nil
}

// parseList splits a comma-separated value, dropping empty entries.
func parseList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}
