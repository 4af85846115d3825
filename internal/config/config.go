package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Log store backends
const (
	LogStoreSQL    = "sql"
	LogStoreRedis  = "redis"
	LogStoreMemory = "memory"
)

type Config struct {
	// Server configuration
	Port string
	Mode string

	// Database configuration
	DatabaseURL string
	SQLitePath  string

	// Redis configuration
	RedisURL string

	// Local transaction log
	LogStore string
	LogKey   string

	// Remote ledger configuration
	Ledger LedgerConfig

	// Optional medication catalog override
	CatalogCSV string
}

// LedgerConfig configures the remote ledger client.
// An empty BaseURL selects the in-process simulated ledger.
type LedgerConfig struct {
	BaseURL         string
	ContractAddress string
	APISecret       string
	Timeout         time.Duration
	ReadRetries     int
	RetryDelay      time.Duration
}

// Load reads configuration from .env and the environment
func Load() (*Config, error) {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Mode:        getEnv("GIN_MODE", "debug"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "pharmacy-coverage.db"),
		RedisURL:    getEnv("REDIS_URL", ""),
		LogStore:    strings.ToLower(getEnv("LOG_STORE", LogStoreSQL)),
		LogKey:      getEnv("LOG_KEY", "transactions"),
		Ledger: LedgerConfig{
			BaseURL:         strings.TrimRight(getEnv("LEDGER_URL", ""), "/"),
			ContractAddress: getEnv("LEDGER_CONTRACT_ADDRESS", ""),
			APISecret:       getEnv("LEDGER_API_SECRET", ""),
			Timeout:         time.Duration(getEnvInt("LEDGER_TIMEOUT_SECONDS", 15)) * time.Second,
			ReadRetries:     getEnvInt("LEDGER_READ_RETRIES", 3),
			RetryDelay:      time.Duration(getEnvInt("LEDGER_RETRY_DELAY_MS", 250)) * time.Millisecond,
		},
		CatalogCSV: getEnv("CATALOG_CSV", ""),
	}

	switch cfg.LogStore {
	case LogStoreSQL, LogStoreRedis, LogStoreMemory:
	default:
		cfg.LogStore = LogStoreSQL
	}
	if cfg.LogStore == LogStoreRedis && cfg.RedisURL == "" {
		cfg.RedisURL = "redis://localhost:6379/0"
	}
	if cfg.Ledger.ReadRetries < 1 {
		cfg.Ledger.ReadRetries = 1
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
