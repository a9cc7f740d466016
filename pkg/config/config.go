package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	Auth AuthConfig

	Notifier NotifierConfig

	// EstimateSweepInterval is how often the expiry sweeper scans for
	// pending estimates past their approval deadline.
	EstimateSweepInterval time.Duration

	// AllowedOrigins is a comma-separated allowlist of origins allowed to
	// call the API from a browser frontend. Example:
	//   https://portal.yourworkshop.com,http://localhost:5173
	AllowedOrigins []string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type AuthConfig struct {
	// JWTSecret signs principal session tokens (HS256).
	//
	// Never ship the dev default to production.
	JWTSecret string

	// TokenTTL bounds how long an issued session token is accepted.
	TokenTTL time.Duration
}

type NotifierConfig struct {
	// BaseURL of the external notification dispatcher. Empty disables
	// outbound notifications (dev-friendly).
	BaseURL string

	Timeout time.Duration
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "workshop"),
			User:     env("DB_USER", "workshop"),
			Password: env("DB_PASSWORD", "workshop"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: env("JWT_SECRET", "dev-only-secret"),
			TokenTTL:  envDuration("JWT_TTL", 12*time.Hour),
		},
		Notifier: NotifierConfig{
			BaseURL: os.Getenv("NOTIFIER_BASE_URL"),
			Timeout: envDuration("NOTIFIER_TIMEOUT", 5*time.Second),
		},
		EstimateSweepInterval: envDuration("ESTIMATE_SWEEP_INTERVAL", 2*time.Minute),
		AllowedOrigins:        envList("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
