// Package config loads runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures top-level service configuration.
type Server struct {
	Addr              string
	DatabaseURL       string
	Redis             RedisConfig
	WebhookTimeout    time.Duration
	HeartbeatInterval time.Duration
	EventBuffer       int
	AuditBuffer       int
}

// RedisConfig captures Redis connection settings. An empty URL disables
// Redis and the site cache falls back to the inner store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:        envString("PANTRYPULSE_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		WebhookTimeout:    envDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		HeartbeatInterval: envDuration("SSE_HEARTBEAT_INTERVAL", 30*time.Second),
		EventBuffer:       envInt("EVENT_BUFFER", 64),
		AuditBuffer:       envInt("AUDIT_BUFFER", 256),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
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
