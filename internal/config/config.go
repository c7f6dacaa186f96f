// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the root application configuration.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	API       APIConfig
	Scheduler SchedulerConfig
	Metrics   MetricsConfig
}

// AppConfig carries process identity and log level.
type AppConfig struct {
	Name     string
	Env      string
	Port     int
	LogLevel string
}

// DatabaseConfig configures the Postgres connection used to persist store
// profiles (shift-code catalogue, base demand) and archived rosters.
type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig configures the HTTP surface.
type APIConfig struct {
	RateLimit int
	Timeout   time.Duration
	CORS      CORSConfig
}

type CORSConfig struct {
	Enabled bool
	Origins []string
}

// SchedulerConfig carries the roster engine's tunable defaults: solver
// time bounds, repair budget, weekend uplift, rest gap, and the
// worker-thread cap used by the underlying CP solver.
type SchedulerConfig struct {
	DefaultTimeLimit   time.Duration // default 120s
	MaxTimeLimit       time.Duration // hard cap 180s
	ResolverMaxRounds  int           // default R=3
	WeekendUpliftPct   float64       // default +20%
	MinRestHours       int           // default 10h
	MaxConsecutiveDays int           // default 6
	MaxDailyHours      float64       // default 10h
	SolverWorkerCap    int           // default = available cores
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from the environment, falling back to the
// defaults the configuration fixes as numbers.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "storeroster"),
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnvInt("APP_PORT", 7012),
			LogLevel: getEnv("APP_LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "storeroster"),
			User:            getEnv("DB_USER", "storeroster"),
			Password:        getEnv("DB_PASSWORD", "storeroster"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		API: APIConfig{
			RateLimit: getEnvInt("API_RATE_LIMIT", 100),
			Timeout:   getEnvDuration("API_TIMEOUT", 185*time.Second),
			CORS: CORSConfig{
				Enabled: getEnvBool("API_CORS_ENABLED", true),
				Origins: []string{"*"},
			},
		},
		Scheduler: SchedulerConfig{
			DefaultTimeLimit:   getEnvDuration("SCHEDULER_DEFAULT_TIME_LIMIT", 120*time.Second),
			MaxTimeLimit:       getEnvDuration("SCHEDULER_MAX_TIME_LIMIT", 180*time.Second),
			ResolverMaxRounds:  getEnvInt("SCHEDULER_RESOLVER_MAX_ROUNDS", 3),
			WeekendUpliftPct:   getEnvFloat("SCHEDULER_WEEKEND_UPLIFT_PCT", 0.20),
			MinRestHours:       getEnvInt("SCHEDULER_MIN_REST_HOURS", 10),
			MaxConsecutiveDays: getEnvInt("SCHEDULER_MAX_CONSECUTIVE_DAYS", 6),
			MaxDailyHours:      getEnvFloat("SCHEDULER_MAX_DAILY_HOURS", 10.0),
			SolverWorkerCap:    getEnvInt("SCHEDULER_SOLVER_WORKER_CAP", 0), // 0 = available cores
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool { return c.App.Env == "development" }
func (c *Config) IsProduction() bool  { return c.App.Env == "production" }
func (c *Config) IsTest() bool        { return c.App.Env == "test" }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
