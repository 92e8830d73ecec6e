package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the workboard.
type Config struct {
	App          AppConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Workboard    WorkboardConfig
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

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig controls the event audit log.
type NotificationConfig struct {
	Enabled         bool
	SupervisorEmail string
}

// WorkboardConfig holds board presentation and demo-data settings.
type WorkboardConfig struct {
	SeedDemoData  bool
	ColumnLimit   int
	DefaultLocale string
}

// Load reads configuration from environment variables, applying defaults
// where possible. Files in envFiles are loaded first; a missing file is not
// an error.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	columnLimit := getEnvAsInt("WORKBOARD_COLUMN_LIMIT", 6)
	if columnLimit <= 0 {
		return nil, fmt.Errorf("invalid WORKBOARD_COLUMN_LIMIT: %d", columnLimit)
	}
	bcryptCost := getEnvAsInt("AUTH_BCRYPT_COST", 10)
	if bcryptCost < 4 || bcryptCost > 31 {
		return nil, fmt.Errorf("invalid AUTH_BCRYPT_COST: %d", bcryptCost)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "isp-workboard"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "127.0.0.1"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 480),
			BcryptCost:            bcryptCost,
		},
		Notification: NotificationConfig{
			Enabled:         getEnvAsBool("NOTIFY_ENABLED", true),
			SupervisorEmail: os.Getenv("NOTIFY_SUPERVISOR_EMAIL"),
		},
		Workboard: WorkboardConfig{
			SeedDemoData:  getEnvAsBool("WORKBOARD_SEED_DEMO", true),
			ColumnLimit:   columnLimit,
			DefaultLocale: getEnv("WORKBOARD_DEFAULT_LOCALE", "en"),
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
