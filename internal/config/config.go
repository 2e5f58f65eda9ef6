package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	AuthJWTSecret  string
	AuthTokenTTL   time.Duration
	DevLoginSecret string
	AdminToken     string

	GitHubClientID     string
	GitHubClientSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	XPRateLimitMax    int
	XPRateLimitWindow time.Duration

	JobQuotaMax         int
	JobQuotaWindow      time.Duration
	JobMaxPayloadBytes  int
	JobRunTimeout       time.Duration
	JobPollInterval     time.Duration
	JobQueueName        string
	RunnerImage         string
	RunnerMemoryLimit   string
	RunnerCPULimit      string
	RunnerNetworkAccess bool

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "codequest"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		AuthJWTSecret:  strings.TrimSpace(getenv("AUTH_JWT_SECRET", "dev-secret-change-me")),
		AuthTokenTTL:   getenvDuration("AUTH_TOKEN_TTL", 7*24*time.Hour),
		DevLoginSecret: strings.TrimSpace(getenv("DEV_LOGIN_SECRET", "")),
		AdminToken:     strings.TrimSpace(getenv("ADMIN_TOKEN", "")),

		GitHubClientID:     strings.TrimSpace(getenv("GITHUB_CLIENT_ID", "")),
		GitHubClientSecret: strings.TrimSpace(getenv("GITHUB_CLIENT_SECRET", "")),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		XPRateLimitMax:    getenvInt("XP_RATE_LIMIT_MAX", 30),
		XPRateLimitWindow: getenvDuration("XP_RATE_LIMIT_WINDOW", time.Minute),

		JobQuotaMax:         getenvInt("JOB_QUOTA_MAX", 10),
		JobQuotaWindow:      getenvDuration("JOB_QUOTA_WINDOW", time.Minute),
		JobMaxPayloadBytes:  getenvInt("JOB_MAX_PAYLOAD_BYTES", 20000),
		JobRunTimeout:       getenvDuration("JOB_RUN_TIMEOUT", 30*time.Second),
		JobPollInterval:     getenvDuration("JOB_POLL_INTERVAL", time.Second),
		JobQueueName:        getenv("JOB_QUEUE_NAME", "jobs:queue"),
		RunnerImage:         getenv("RUNNER_IMAGE", "python:3.11-slim"),
		RunnerMemoryLimit:   getenv("RUNNER_MEMORY_LIMIT", "256m"),
		RunnerCPULimit:      getenv("RUNNER_CPU_LIMIT", "0.5"),
		RunnerNetworkAccess: getenvBool("RUNNER_NETWORK_ACCESS", false),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "codequest"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

var Module = fx.Module("config",
	fx.Provide(Load),
)
