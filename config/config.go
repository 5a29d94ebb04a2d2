// Package config loads service configuration from the environment once at
// startup.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the runtime configuration for the auth service.
type Config struct {
	ListenAddr  string   // HTTP listen address
	JWTSecret   []byte   // shared signing secret; required, no default
	RedisURL    string   // store connection string, including DB index
	CORSOrigins []string // allowed cross-origin callers
	AuthDomain  string   // fallback domain embedded in challenge messages
	Production  bool     // toggles the Secure cookie attribute
}

// Load reads configuration from the environment. A missing JWT_SECRET is a
// startup error: shipping an implicit default signing secret is never
// acceptable.
func Load() (*Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	cfg := &Config{
		ListenAddr: getenv("LISTEN_ADDR", ":9000"),
		JWTSecret:  []byte(secret),
		RedisURL:   getenv("REDIS_URL", "redis://localhost:6379/0"),
		AuthDomain: getenv("AUTH_DOMAIN", "playsolmates.app"),
		Production: os.Getenv("ENV") == "production",
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
