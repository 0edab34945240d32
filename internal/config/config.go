package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Defaults for the auction rules. The bid window and floor multiplier are
// named here rather than buried in the rule engine so deployments can tune
// them.
const (
	DefaultBidWindowDays   = 2
	DefaultFloorMultiplier = "1.0"
	DefaultLockTimeout     = 3 * time.Second
	DefaultHTTPAddr        = ":8080"
	DefaultOutboxBatchSize = 10
	DefaultOutboxInterval  = time.Second
	DefaultPredictorTTL    = 15 * time.Minute
)

// Config holds everything the binaries need from the environment
type Config struct {
	HTTPAddr     string
	DatabaseURL  string
	RabbitMQURL  string
	RedisURL     string
	PredictorURL string

	// JWTPublicKeyPath points at the PEM public key of the external identity
	// service; empty disables authenticated routes.
	JWTPublicKeyPath string
	JWTIssuer        string

	BidWindow       time.Duration
	FloorMultiplier decimal.Decimal
	LockTimeout     time.Duration

	OutboxBatchSize int
	OutboxInterval  time.Duration
	PredictorTTL    time.Duration
}

// Load reads configuration from the environment, with .env.local overriding
// .env for local development.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:         getEnv("HTTP_ADDR", DefaultHTTPAddr),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		PredictorURL:     os.Getenv("PREDICTOR_URL"),
		JWTPublicKeyPath: os.Getenv("JWT_PUBLIC_KEY_PATH"),
		JWTIssuer:        getEnv("JWT_ISSUER", "plotbid"),
		LockTimeout:      DefaultLockTimeout,
		OutboxBatchSize:  DefaultOutboxBatchSize,
		OutboxInterval:   DefaultOutboxInterval,
		PredictorTTL:     DefaultPredictorTTL,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	windowDays := DefaultBidWindowDays
	if raw := os.Getenv("BID_WINDOW_DAYS"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("invalid BID_WINDOW_DAYS %q", raw)
		}
		windowDays = days
	}
	cfg.BidWindow = time.Duration(windowDays) * 24 * time.Hour

	multiplier, err := decimal.NewFromString(getEnv("FLOOR_MULTIPLIER", DefaultFloorMultiplier))
	if err != nil || !multiplier.IsPositive() {
		return nil, fmt.Errorf("invalid FLOOR_MULTIPLIER")
	}
	cfg.FloorMultiplier = multiplier

	if raw := os.Getenv("LOCK_TIMEOUT_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("invalid LOCK_TIMEOUT_MS %q", raw)
		}
		cfg.LockTimeout = time.Duration(ms) * time.Millisecond
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
