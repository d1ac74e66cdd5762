// internal/config/config.go

// Package config 從環境變數（以及可選的 .env 檔）讀取執行設定。
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	Env             string
	StoreDriver     string // file | postgres | mysql | memory
	DataDir         string
	DatabaseURL     string
	MySQLDSN        string
	IDScheme        string // snowflake | uuid
	SnowflakeNode   int64
	DescriptionMode string // shared | labeled
	LogLevel        slog.Level
	IdempotencyTTL  time.Duration
}

// LoadConfig 先嘗試載入 .env，再讀取環境變數並套用預設值。
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on system env variables")
	}
	return FromEnv()
}

// FromEnv 只讀取目前行程的環境變數。
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", "file")),
		DataDir:         getEnv("DATA_DIR", "./data"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MySQLDSN:        getEnv("MYSQL_DSN", ""),
		IDScheme:        strings.ToLower(getEnv("ID_SCHEME", "snowflake")),
		DescriptionMode: strings.ToLower(getEnv("TRANSFER_DESCRIPTION_MODE", "shared")),
	}

	node, err := strconv.ParseInt(getEnv("SNOWFLAKE_NODE", "1"), 10, 64)
	if err != nil || node < 0 || node > 1023 {
		return nil, fmt.Errorf("SNOWFLAKE_NODE must be an integer in 0..1023")
	}
	cfg.SnowflakeNode = node

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	ttl, err := time.ParseDuration(getEnv("IDEMPOTENCY_TTL", "24h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("IDEMPOTENCY_TTL must be a positive duration")
	}
	cfg.IdempotencyTTL = ttl

	switch cfg.StoreDriver {
	case "file", "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("STORE_DRIVER=postgres requires DATABASE_URL")
		}
	case "mysql":
		if cfg.MySQLDSN == "" {
			return nil, fmt.Errorf("STORE_DRIVER=mysql requires MYSQL_DSN")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}

// IsProduction 回報是否以正式環境執行。
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
