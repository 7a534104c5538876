package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"spotArchiver/internal/adapters/logger" // Import the logger package for LogLevel
	"spotArchiver/internal/ports"
)

// Config holds all application configuration loaded from the environment.
// Run parameters (month range, interval, symbols) come from command-line
// flags, not from here.
type Config struct {
	// Binance API (optional; only public endpoints are used)
	APIKey    string
	SecretKey string

	// Archive host
	VisionBaseURL string
	FetchTimeout  time.Duration // Per-request bound on one archive download
	FetchPause    time.Duration // Minimum delay between fetches after a data-bearing month

	// Instrument auto-selection
	QuoteAsset    string
	AutoPickCount int // Pairs picked on top of the always-included bases

	// Output sinks
	DataDir        string // CSV files and the run manifest land here
	EnableCSV      bool
	EnableSQLite   bool
	DBPath         string
	EnablePostgres bool
	PostgresDSN    string

	// Logging
	LogLevel  logger.LogLevel
	LogFormat string // "text" or "json"

	// Monthly sync daemon
	SyncCron     string // Cron spec with a seconds field
	SyncSymbols  []string
	SyncInterval string
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API (keys optional: the ticker endpoint is public)
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")

	// Archive host
	cfg.VisionBaseURL = getEnv("VISION_BASE_URL", "https://data.binance.vision")

	fetchTimeoutSeconds, err := getEnvAsIntRequired("FETCH_TIMEOUT_SECONDS", 60)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid FETCH_TIMEOUT_SECONDS: %v", err))
	} else if fetchTimeoutSeconds <= 0 {
		errs = append(errs, "FETCH_TIMEOUT_SECONDS must be positive")
	}
	cfg.FetchTimeout = time.Duration(fetchTimeoutSeconds) * time.Second

	fetchPauseMillis, err := getEnvAsIntRequired("FETCH_PAUSE_MILLIS", 250)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid FETCH_PAUSE_MILLIS: %v", err))
	} else if fetchPauseMillis < 0 {
		errs = append(errs, "FETCH_PAUSE_MILLIS cannot be negative")
	}
	cfg.FetchPause = time.Duration(fetchPauseMillis) * time.Millisecond

	// Instrument auto-selection
	cfg.QuoteAsset = strings.ToUpper(getEnv("QUOTE_ASSET", "USDT"))
	if cfg.QuoteAsset == "" {
		errs = append(errs, "QUOTE_ASSET must be set")
	}
	cfg.AutoPickCount, err = getEnvAsIntRequired("AUTO_PICK_COUNT", 3)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid AUTO_PICK_COUNT: %v", err))
	} else if cfg.AutoPickCount < 0 {
		errs = append(errs, "AUTO_PICK_COUNT cannot be negative")
	}

	// Output sinks
	cfg.DataDir = getEnv("DATA_DIR", "./data/raw")
	if cfg.DataDir == "" {
		errs = append(errs, "DATA_DIR must be set")
	}
	cfg.EnableCSV = getEnvAsBool("ENABLE_CSV", true)
	cfg.EnableSQLite = getEnvAsBool("ENABLE_SQLITE", false)
	cfg.DBPath = getEnv("DB_PATH", "./data/klines.db")
	if cfg.EnableSQLite && cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set when ENABLE_SQLITE is true")
	}
	cfg.EnablePostgres = getEnvAsBool("ENABLE_POSTGRES", false)
	cfg.PostgresDSN = getEnv("POSTGRES_DSN", "")
	if cfg.EnablePostgres && cfg.PostgresDSN == "" {
		errs = append(errs, "POSTGRES_DSN must be set when ENABLE_POSTGRES is true")
	}
	if !cfg.EnableCSV && !cfg.EnableSQLite && !cfg.EnablePostgres {
		errs = append(errs, "at least one output sink must be enabled")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "text"))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("invalid LOG_FORMAT %q (want text or json)", cfg.LogFormat))
	}

	// Monthly sync daemon (3rd of each month, 08:30 UTC by default; the
	// archive host needs a few days to publish a closed month)
	cfg.SyncCron = getEnv("SYNC_CRON", "0 30 8 3 * *")
	syncSymbols := getEnv("SYNC_SYMBOLS", "BTC,ETH")
	for _, s := range strings.Split(syncSymbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			cfg.SyncSymbols = append(cfg.SyncSymbols, strings.ToUpper(s))
		}
	}
	cfg.SyncInterval = getEnv("SYNC_INTERVAL", "1h")

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ports.ErrConfiguration, strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
