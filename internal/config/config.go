package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Hub      HubConfig
	Cloud    CloudConfig
	Agent    AgentConfig
	Pixel    PixelConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines bearer authentication parameters for the send endpoint.
type AuthConfig struct {
	JWTSecret     string
	ServiceSecret string
}

// HubConfig points at the NotificaMe hub gateway used for channel sends.
// BaseURL and AltBaseURL differ by a version path segment; the sender tries
// both before giving up.
type HubConfig struct {
	BaseURL    string
	AltBaseURL string
	Token      string
}

// CloudConfig holds official Cloud API settings shared across connections.
type CloudConfig struct {
	GraphBaseURL string
	VerifyToken  string
}

// AgentConfig points at the AI auto-reply agent service.
type AgentConfig struct {
	URL            string
	TimeoutSeconds int
}

// PixelConfig points at the conversion-report endpoint.
type PixelConfig struct {
	URL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "messaging-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("AUTH_JWT_SECRET", "dev-secret"),
			ServiceSecret: os.Getenv("AUTH_SERVICE_SECRET"),
		},
		Hub: HubConfig{
			BaseURL:    getEnv("HUB_BASE_URL", "https://hub.notificame.com.br/v1"),
			AltBaseURL: getEnv("HUB_ALT_BASE_URL", "https://hub.notificame.com.br"),
			Token:      os.Getenv("HUB_TOKEN"),
		},
		Cloud: CloudConfig{
			GraphBaseURL: getEnv("CLOUD_GRAPH_BASE_URL", "https://graph.facebook.com/v18.0"),
			VerifyToken:  os.Getenv("CLOUD_VERIFY_TOKEN"),
		},
		Agent: AgentConfig{
			URL:            os.Getenv("AGENT_URL"),
			TimeoutSeconds: getEnvAsInt("AGENT_TIMEOUT_SECONDS", 60),
		},
		Pixel: PixelConfig{
			URL: os.Getenv("PIXEL_REPORT_URL"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AgentTimeout returns the agent call timeout duration.
func (a AgentConfig) AgentTimeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
