// Package config reads MEALPLANNR_* settings from the environment, after
// loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const prefix = "MEALPLANNR_"

type Config struct {
	Port           string
	DBPath         string
	LogLevel       string
	LogFormat      string
	BaseURL        string
	Secret         string
	TokenTTL       time.Duration
	LinkTTL        time.Duration
	PostmarkToken  string
	FromEmail      string
	AllowedOrigins []string
	RateLimit      int
}

// ErrMissingSecret is returned by RequireSecret when no signing secret is
// configured.
var ErrMissingSecret = errors.New("MEALPLANNR_SECRET is required")

// Load reads the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "mealplannr.db"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		Secret:        getEnv("SECRET", ""),
		PostmarkToken: getEnv("POSTMARK_TOKEN", ""),
		FromEmail:     getEnv("FROM_EMAIL", ""),
	}
	cfg.BaseURL = strings.TrimRight(getEnv("BASE_URL", "http://localhost:"+cfg.Port), "/")

	var err error
	if cfg.TokenTTL, err = getEnvDuration("TOKEN_TTL", 720*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.LinkTTL, err = getEnvDuration("LINK_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit, err = getEnvInt("RATE_LIMIT", 10); err != nil {
		return Config{}, err
	}
	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	return cfg, nil
}

// RequireSecret fails when commands that sign tokens have no secret.
func (c Config) RequireSecret() error {
	if c.Secret == "" {
		return ErrMissingSecret
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(prefix + key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", prefix, key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", prefix, key, err)
	}
	return d, nil
}
