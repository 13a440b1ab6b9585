package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret   string
	SessionName string

	// ArbiterKey is the shared secret a participant must present to
	// join as the arbiter (GM).
	ArbiterKey string

	// SelfSpendNeedsApproval routes spends on an actor's own roll
	// through the arbiter like any other spend. Off by default: the
	// original economy trusts self-spends.
	SelfSpendNeedsApproval bool

	// PendingRequestTTL bounds how long an unanswered spend request
	// stays visible to the arbiter before the expiry sweep drops it.
	PendingRequestTTL time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:         getEnv("ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:   getEnv("REDIS_PASSWORD", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		SessionName: getEnv("SESSION_NAME", "table"),
		ArbiterKey:  getEnv("ARBITER_KEY", ""),
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
	}
	cfg.RedisDB = db

	cfg.SelfSpendNeedsApproval = getEnv("SELF_SPEND_NEEDS_APPROVAL", "false") == "true"

	ttl, err := time.ParseDuration(getEnv("PENDING_REQUEST_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PENDING_REQUEST_TTL: %v", err)
	}
	cfg.PendingRequestTTL = ttl

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-do-not-use"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
