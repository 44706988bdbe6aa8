// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, database selection, legacy-route deprecation, rate limiting, and
// observability settings.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-task-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects and addresses the database.
type DBConfig struct {
	Driver   string // sqlite|postgres
	Path     string // SQLite file
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// LegacyConfig controls the deprecation headers on un-versioned routes.
type LegacyConfig struct {
	SunsetDate string // YYYY-MM-DD
	Message    string // optional Warning text override
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogRedact      bool   // scrub PII from access logs
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // versioned API prefix

	// Storage
	DB       DBConfig
	SeedPath string // legacy JSON seed file for cmd/migrate

	// Legacy routes
	Legacy LegacyConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment, applies defaults, normalizes values and
// validates the result. The returned Config is populated even on error.
func Load() (Config, error) {
	cfg := fromEnv()
	cfg.normalize()
	return cfg, cfg.Validate()
}

func fromEnv() Config {
	return Config{
		Port:              getenv("PORT", "8000"),
		ReadTimeout:       envOr("READ_TIMEOUT", 15*time.Second, time.ParseDuration),
		ReadHeaderTimeout: envOr("READ_HEADER_TIMEOUT", 10*time.Second, time.ParseDuration),
		WriteTimeout:      envOr("WRITE_TIMEOUT", 20*time.Second, time.ParseDuration),
		IdleTimeout:       envOr("IDLE_TIMEOUT", 60*time.Second, time.ParseDuration),
		MaxHeaderBytes:    envOr("MAX_HEADER_BYTES", 1<<20, strconv.Atoi),
		MaxBodyBytes:      envOr("MAX_BODY_BYTES", int64(1<<20), parseInt64),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      envOr("LOG_PRETTY", false, parseBool),
		LogRedact:      envOr("LOG_REDACT", false, parseBool),
		SwaggerEnabled: envOr("SWAGGER_ENABLED", false, parseBool),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DB: DBConfig{
			Driver:   strings.ToLower(strings.TrimSpace(getenv("DB_DRIVER", DriverSQLite))),
			Path:     getenv("DB_PATH", "tasks.db"),
			Host:     getenv("DB_HOST", "localhost"),
			Port:     envOr("DB_PORT", 5432, strconv.Atoi),
			User:     getenv("DB_USER", "postgres"),
			Password: getenv("DB_PASSWORD", ""),
			Name:     getenv("DB_NAME", "tasks"),
			SSLMode:  getenv("DB_SSL_MODE", "disable"),
		},
		SeedPath: getenv("SEED_PATH", ""),

		Legacy: LegacyConfig{
			SunsetDate: getenv("LEGACY_SUNSET_DATE", "2025-10-31"),
			Message:    getenv("LEGACY_WARNING", ""),
		},

		RateRPS:   envOr("RATE_RPS", 5.0, parseFloat),
		RateBurst: envOr("RATE_BURST", 10, strconv.Atoi),

		CORS: CORSConfig{AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", ""))},
		Security: SecurityConfig{
			EnableHSTS: envOr("ENABLE_HSTS", false, parseBool),
			HSTSMaxAge: envOr("HSTS_MAX_AGE", 180*24*time.Hour, time.ParseDuration),
		},

		IdempotencyTTL: envOr("IDEMPOTENCY_TTL", 24*time.Hour, time.ParseDuration),

		OTEL: OTELConfig{
			Enabled:     envOr("OTEL_ENABLED", false, parseBool),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    envOr("OTEL_EXPORTER_OTLP_INSECURE", true, parseBool),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-task-backend"),
			SampleRatio: envOr("OTEL_TRACES_SAMPLER_ARG", 1.0, parseFloat),
		},
	}
}

func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
	if c.DB.Driver == "postgresql" {
		c.DB.Driver = DriverPostgres
	}
}

// Validate returns the first invalid setting found, or nil.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if c.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be > 0")
	}
	if err := c.DB.validate(); err != nil {
		return err
	}
	if _, err := time.Parse(time.DateOnly, c.Legacy.SunsetDate); err != nil {
		return errors.New("LEGACY_SUNSET_DATE must be YYYY-MM-DD")
	}
	if c.APIBasePath == "/" {
		return errors.New("API_BASE_PATH must not be the root path")
	}
	if c.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if c.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if c.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if c.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

func (d DBConfig) validate() error {
	switch d.Driver {
	case DriverSQLite:
		if strings.TrimSpace(d.Path) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case DriverPostgres:
		if strings.TrimSpace(d.Host) == "" || strings.TrimSpace(d.Name) == "" {
			return errors.New("DB_HOST and DB_NAME must not be empty for postgres")
		}
		if d.Port <= 0 || d.Port > 65535 {
			return errors.New("DB_PORT must be in 1..65535")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be one of: %s, %s", DriverSQLite, DriverPostgres)
	}
	return nil
}

// DSN builds a PostgreSQL connection URL from the DB_* settings.
func (c Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.DB.Host, c.DB.Port),
		Path:   "/" + c.DB.Name,
	}
	switch {
	case c.DB.Password != "":
		u.User = url.UserPassword(c.DB.User, c.DB.Password)
	case c.DB.User != "":
		u.User = url.User(c.DB.User)
	}
	if c.DB.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.DB.SSLMode}}.Encode()
	}
	return u.String()
}

// ---- env helpers ----

// getenv returns the variable or def when unset or empty.
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envOr parses the variable with parse, falling back to def when it is
// unset, empty or malformed.
func envOr[T any](k string, def T, parse func(string) (T, error)) T {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

// parseBool accepts the usual switch spellings, case-insensitively.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing ones (root stays "/").
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
