package sessionkit

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// FromEnv builds a Config from environment variables, loading a .env
// file first when present. Unset variables keep their DefaultConfig
// values.
//
// Recognized variables:
//
//	SESSIONKIT_API_BASE_URL        backend endpoint root (required)
//	SESSIONKIT_REQUEST_TIMEOUT_SECONDS
//	SESSIONKIT_JWT_EXPIRE_SECONDS  access-token lifetime fallback
//	SESSIONKIT_REFRESH_TTL_SECONDS refresh-token lifetime
//	SESSIONKIT_CODE_TTL_SECONDS    verification-code lifetime
//	SESSIONKIT_CODE_DIGITS
//	SESSIONKIT_STORE_BACKEND       "redis" or "memory"
//	SESSIONKIT_REDIS_PREFIX
//	SESSIONKIT_METRICS_ENABLED
//	SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD, SMTP_FROM
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	cfg.API.BaseURL = getEnv("SESSIONKIT_API_BASE_URL", cfg.API.BaseURL)
	if seconds, err := getEnvSeconds("SESSIONKIT_REQUEST_TIMEOUT_SECONDS", cfg.API.RequestTimeout); err != nil {
		return Config{}, err
	} else {
		cfg.API.RequestTimeout = seconds
	}

	if seconds, err := getEnvSeconds("SESSIONKIT_JWT_EXPIRE_SECONDS", cfg.Tokens.AccessTTL); err != nil {
		return Config{}, err
	} else {
		cfg.Tokens.AccessTTL = seconds
	}
	if seconds, err := getEnvSeconds("SESSIONKIT_REFRESH_TTL_SECONDS", cfg.Tokens.RefreshTTL); err != nil {
		return Config{}, err
	} else {
		cfg.Tokens.RefreshTTL = seconds
	}

	if seconds, err := getEnvSeconds("SESSIONKIT_CODE_TTL_SECONDS", cfg.Verification.CodeTTL); err != nil {
		return Config{}, err
	} else {
		cfg.Verification.CodeTTL = seconds
	}
	if digits, err := getEnvInt("SESSIONKIT_CODE_DIGITS", cfg.Verification.CodeDigits); err != nil {
		return Config{}, err
	} else {
		cfg.Verification.CodeDigits = digits
	}

	cfg.Store.Backend = StoreBackend(getEnv("SESSIONKIT_STORE_BACKEND", string(cfg.Store.Backend)))
	cfg.Store.RedisPrefix = getEnv("SESSIONKIT_REDIS_PREFIX", cfg.Store.RedisPrefix)

	if enabled, err := getEnvBool("SESSIONKIT_METRICS_ENABLED", cfg.Metrics.Enabled); err != nil {
		return Config{}, err
	} else {
		cfg.Metrics.Enabled = enabled
	}

	cfg.SMTP.Host = getEnv("SMTP_HOST", cfg.SMTP.Host)
	if port, err := getEnvInt("SMTP_PORT", cfg.SMTP.Port); err != nil {
		return Config{}, err
	} else {
		cfg.SMTP.Port = port
	}
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", cfg.SMTP.Username)
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.From = getEnv("SMTP_FROM", cfg.SMTP.From)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvSeconds(key string, fallback time.Duration) (time.Duration, error) {
	seconds, err := getEnvInt(key, int(fallback/time.Second))
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
