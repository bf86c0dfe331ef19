// Package config loads process configuration from the environment, with a
// local .env file as a development convenience.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                 string
	AppEnv               string
	DatabaseURL          string
	AllowedOrigins       []string
	ShopifyWebhookSecret string
}

// Load reads the environment. An empty DATABASE_URL selects the in-memory
// demo backend instead of Postgres.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                 getEnv("PORT", "8081"),
		AppEnv:               getEnv("APP_ENV", "development"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		AllowedOrigins:       splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		ShopifyWebhookSecret: os.Getenv("SHOPIFY_WEBHOOK_SECRET"),
	}
}

// UseMemoryStore reports whether the demo backend should serve instead of
// Postgres.
func (c *Config) UseMemoryStore() bool {
	return c.DatabaseURL == ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
