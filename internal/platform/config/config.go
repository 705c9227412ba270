package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mastery/internal/ledger/models"
	"mastery/internal/platform/kafka"
)

// Store backends selectable through MASTERY_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	Environment   string
	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration
	Store         string
	DatabaseURL   string
	Redis         RedisConfig
	Kafka         kafka.ProducerConfig
	Ledger        Ledger
	Clock         Clock
}

// Ledger holds the bootstrap configuration applied through the admin
// setters at start-up. Empty principals are left unset.
type Ledger struct {
	Admin              string
	Oracle             string
	RewardCollaborator string
	NftCollaborator    string
	VerificationFee    int64
	MaxVerifications   int64
}

// Clock anchors block heights to wall-clock time.
type Clock struct {
	Genesis   time.Time
	BlockTime time.Duration
}

// RedisConfig holds connection pool settings for the Redis store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

var TokenTTL = 15 * time.Minute

// DefaultGenesis is the block-height origin when MASTERY_GENESIS is unset.
var DefaultGenesis = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// FromEnv builds a Server config from environment variables so main stays lean.
// Malformed numeric and duration values are reported rather than ignored.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:          getEnv("MASTERY_ADDR", ":8080"),
		Environment:   getEnv("MASTERY_ENV", "development"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     getEnv("JWT_ISSUER", "mastery"),
		TokenTTL:      TokenTTL,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: kafka.DefaultProducerConfig(),
		Ledger: Ledger{
			Admin:              getEnv("MASTERY_ADMIN_PRINCIPAL", "admin"),
			Oracle:             os.Getenv("MASTERY_ORACLE_PRINCIPAL"),
			RewardCollaborator: os.Getenv("MASTERY_REWARD_COLLABORATOR"),
			NftCollaborator:    os.Getenv("MASTERY_NFT_COLLABORATOR"),
			VerificationFee:    models.DefaultVerificationFee,
			MaxVerifications:   models.DefaultMaxVerifications,
		},
		Clock: Clock{Genesis: DefaultGenesis, BlockTime: 10 * time.Minute},
	}
	cfg.Kafka.Brokers = os.Getenv("KAFKA_BROKERS")

	var err error
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", cfg.TokenTTL); err != nil {
		return Server{}, err
	}
	if cfg.Ledger.VerificationFee, err = int64Env("MASTERY_VERIFICATION_FEE", cfg.Ledger.VerificationFee); err != nil {
		return Server{}, err
	}
	if cfg.Ledger.MaxVerifications, err = int64Env("MASTERY_MAX_VERIFICATIONS", cfg.Ledger.MaxVerifications); err != nil {
		return Server{}, err
	}
	if cfg.Clock.BlockTime, err = durationEnv("MASTERY_BLOCK_TIME", cfg.Clock.BlockTime); err != nil {
		return Server{}, err
	}
	if raw := os.Getenv("MASTERY_GENESIS"); raw != "" {
		if cfg.Clock.Genesis, err = time.Parse(time.RFC3339, raw); err != nil {
			return Server{}, fmt.Errorf("MASTERY_GENESIS: %w", err)
		}
	}

	cfg.Store = strings.ToLower(os.Getenv("MASTERY_STORE"))
	switch cfg.Store {
	case "":
		cfg.Store = defaultStore(cfg)
	case StoreMemory, StorePostgres, StoreRedis:
	default:
		return Server{}, fmt.Errorf("MASTERY_STORE: unknown store %q", cfg.Store)
	}
	if cfg.Store == StorePostgres && cfg.DatabaseURL == "" {
		return Server{}, fmt.Errorf("MASTERY_STORE=postgres requires DATABASE_URL")
	}
	if cfg.Store == StoreRedis && cfg.Redis.URL == "" {
		return Server{}, fmt.Errorf("MASTERY_STORE=redis requires REDIS_URL")
	}

	return cfg, nil
}

// defaultStore prefers Postgres, then Redis, then the in-memory store.
func defaultStore(cfg Server) string {
	switch {
	case cfg.DatabaseURL != "":
		return StorePostgres
	case cfg.Redis.URL != "":
		return StoreRedis
	default:
		return StoreMemory
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func int64Env(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
