package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Global health window modes
const (
	// GlobalHealthBaseline keeps global health on its own trailing lookback,
	// independent of the days selected for the other aggregates.
	GlobalHealthBaseline = "baseline"
	// GlobalHealthWindow applies the selected days to global health as well.
	GlobalHealthWindow = "window"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port               string
	Env                string // development, staging, production
	CORSAllowedOrigins []string

	// Database
	Database DatabaseConfig

	// Dashboard / records defaults
	Dashboard DashboardConfig

	// Redis (rate limiting only)
	Redis RedisConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	ProbeSchedule  string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host       string
	Port       string
	Name       string
	User       string
	Password   string
	URL        string
	SearchPath string // tenant schema

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// Query execution
	QueryTimeout  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// DashboardConfig holds request defaults and the global health window switch
type DashboardConfig struct {
	DefaultDatasetDays   int
	DefaultDashboardDays int
	MaxWindowDays        int
	DefaultPageSize      int
	MaxPageSize          int

	GlobalHealthMode         string
	GlobalHealthLookbackDays int
	GlobalHealthReference    time.Time // zero = request time
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// RateLimitConfig holds API rate limit settings
type RateLimitConfig struct {
	RequestsPerSecond float64 // per-process token bucket
	Burst             int
	PerMinute         int // per-client window, enforced through Redis when enabled
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "5001"),
		Env:  getEnv("ENV", "development"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost:5001",
			"http://127.0.0.1:5001",
		}),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", ""),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			SearchPath:      getEnv("DB_SEARCH_PATH", "public"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
			QueryTimeout:    getEnvAsDuration("DB_QUERY_TIMEOUT", "60s"),
			RetryAttempts:   getEnvAsInt("DB_RETRY_ATTEMPTS", 3),
			RetryDelay:      getEnvAsDuration("DB_RETRY_DELAY", "1s"),
		},

		Dashboard: DashboardConfig{
			DefaultDatasetDays:       getEnvAsInt("DEFAULT_DATASET_DAYS", 1),
			DefaultDashboardDays:     getEnvAsInt("DEFAULT_DASHBOARD_DAYS", 2),
			MaxWindowDays:            getEnvAsInt("MAX_WINDOW_DAYS", 365),
			DefaultPageSize:          getEnvAsInt("DEFAULT_PAGE_SIZE", 100),
			MaxPageSize:              getEnvAsInt("MAX_PAGE_SIZE", 1000),
			GlobalHealthMode:         strings.ToLower(getEnv("GLOBAL_HEALTH_MODE", GlobalHealthBaseline)),
			GlobalHealthLookbackDays: getEnvAsInt("GLOBAL_HEALTH_LOOKBACK_DAYS", 30),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 40),
			PerMinute:         getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		ProbeSchedule:  getEnv("DB_PROBE_SCHEDULE", "*/30 * * * * *"),
	}

	if ref := getEnv("GLOBAL_HEALTH_REFERENCE_DATE", ""); ref != "" {
		t, err := time.ParseInLocation("2006-01-02", ref, time.Local)
		if err != nil {
			return nil, fmt.Errorf("config validation failed: GLOBAL_HEALTH_REFERENCE_DATE must be YYYY-MM-DD: %w", err)
		}
		cfg.Dashboard.GlobalHealthReference = t
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = cfg.Database.BuildURL()
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// BuildURL assembles a connection string from the discrete DB_* settings.
// Returns "" when host, name or user is missing.
func (d DatabaseConfig) BuildURL() string {
	if d.Host == "" || d.Name == "" || d.User == "" {
		return ""
	}

	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + d.Port,
		Path:   "/" + d.Name,
	}
	return u.String()
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL or DB_HOST/DB_NAME/DB_USER is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Dashboard.GlobalHealthMode != GlobalHealthBaseline && c.Dashboard.GlobalHealthMode != GlobalHealthWindow {
		return fmt.Errorf("GLOBAL_HEALTH_MODE must be one of: %s, %s", GlobalHealthBaseline, GlobalHealthWindow)
	}

	if c.Dashboard.MaxWindowDays < 1 {
		return fmt.Errorf("MAX_WINDOW_DAYS must be positive")
	}

	if c.Dashboard.MaxPageSize < 1 || c.Dashboard.DefaultPageSize < 1 || c.Dashboard.DefaultPageSize > c.Dashboard.MaxPageSize {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be within 1..MAX_PAGE_SIZE")
	}

	if c.Database.RetryAttempts < 1 {
		return fmt.Errorf("DB_RETRY_ATTEMPTS must be at least 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"src/server/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
