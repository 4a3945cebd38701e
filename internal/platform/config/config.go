package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr          string
	AdminToken    string
	JWTSigningKey string

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Outbox   OutboxConfig
}

// PostgresConfig holds connection settings for the primary database.
// An empty URL selects the in-memory stores (dev mode).
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds connection settings for the subscriber dedupe store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the outbox-to-Kafka relay.
// An empty broker list disables the relay.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// OutboxConfig tunes the background event dispatcher.
type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxBackoff   time.Duration
}

// FromEnv builds a Config from environment variables with dev-safe defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:       envOr("SIRENOPS_ADDR", ":8080"),
		AdminToken: os.Getenv("SIRENOPS_ADMIN_TOKEN"),
		// Use a default for development - must be overridden in production.
		JWTSigningKey: envOr("SIRENOPS_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Postgres: PostgresConfig{
			URL:             os.Getenv("SIRENOPS_POSTGRES_URL"),
			MaxOpenConns:    envIntOr("SIRENOPS_POSTGRES_MAX_CONNS", 25),
			ConnMaxLifetime: envDurationOr("SIRENOPS_POSTGRES_CONN_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("SIRENOPS_REDIS_URL"),
			PoolSize:     envIntOr("SIRENOPS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("SIRENOPS_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("SIRENOPS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("SIRENOPS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("SIRENOPS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Topic: envOr("SIRENOPS_KAFKA_TOPIC", "sirenops.guard.events"),
		},
		Outbox: OutboxConfig{
			PollInterval: envDurationOr("SIRENOPS_OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    envIntOr("SIRENOPS_OUTBOX_BATCH_SIZE", 100),
			MaxBackoff:   envDurationOr("SIRENOPS_OUTBOX_MAX_BACKOFF", time.Minute),
		},
	}
	if brokers := os.Getenv("SIRENOPS_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
