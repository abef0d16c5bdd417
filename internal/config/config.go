package config

import (
	"fmt"
	"os"
	"time"
)

// Config collects every environment-driven setting of the server.
type Config struct {
	Port string

	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresDB       string
	PostgresSSL      string

	JWTIssuer   string
	JWTAudience string

	StripeSecretKey string
	StripeCurrency  string

	ShutdownGracePeriod time.Duration
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return def
}

// Load reads the configuration from the environment, applying
// defaults where a value is absent.
func Load() Config {
	return Config{
		Port: getEnv("PORT", "5000"),

		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost:5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "parts_station"),
		PostgresSSL:      getEnv("POSTGRES_SSL", "disable"),

		JWTIssuer:   getEnv("JWT_ISSUER", "parts-station"),
		JWTAudience: getEnv("JWT_AUDIENCE", "parts-station-client"),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		StripeCurrency:  getEnv("STRIPE_CURRENCY", "usd"),

		ShutdownGracePeriod: parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// DatabaseDSN assembles the PostgreSQL connection string.
func (c Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresDB,
		c.PostgresSSL,
	)
}
