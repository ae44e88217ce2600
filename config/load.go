package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the environment, after merging a .env file when one exists.
// Variables already set in the process win over the file.
func Load() (App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return App{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := App{
		Port:        getenv("APP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   getenv("JWT_SECRET", "local_dev_secret"),
		Env:         getenv("APP_ENV", "dev"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  getenv("MONGO_DB", "propertyhub"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AWSRegion:    getenv("AWS_REGION", "ap-southeast-1"),
		AWSKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		S3Bucket:     os.Getenv("AWS_S3_BUCKET"),

		GatewayURL:           os.Getenv("PAYMENT_GATEWAY_URL"),
		GatewayKey:           os.Getenv("PAYMENT_GATEWAY_KEY"),
		GatewayCallbackToken: os.Getenv("PAYMENT_CALLBACK_TOKEN"),

		LeaseExpiryCron:    getenv("LEASE_EXPIRY_CRON", "@every 1h"),
		InvoiceOverdueCron: getenv("INVOICE_OVERDUE_CRON", "15 0 * * *"),
	}

	var err error
	if cfg.JWTTTLHours, err = intenv("JWT_TTL_HOURS", 24); err != nil {
		return App{}, err
	}
	if cfg.RedisDB, err = intenv("REDIS_DB", 0); err != nil {
		return App{}, err
	}
	if cfg.RequestRatePerMin, err = intenv("REQUEST_RATE_PER_MIN", 10); err != nil {
		return App{}, err
	}
	if cfg.Env == "production" && cfg.JWTSecret == "local_dev_secret" {
		return App{}, errors.New("JWT_SECRET must be set in production")
	}
	return cfg, nil
}

// RequireDB is for commands that cannot run without Postgres.
func (a App) RequireDB() error {
	if a.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func intenv(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: want a non-negative integer, got %q", k, v)
	}
	return n, nil
}
