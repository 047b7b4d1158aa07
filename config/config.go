package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"signalSentry/internal/adapters/logger" // Import the logger package for LogLevel
)

// UnitConfig identifies one source/storage/target pairing.
type UnitConfig struct {
	Source  string `json:"source"`
	Storage string `json:"storage"`
	Target  string `json:"target"`
}

// Config holds all application configuration.
type Config struct {
	// Telegram
	TelegramBotToken string

	// Gemini extraction
	GeminiAPIKey string
	GeminiModel  string

	// Processing units
	Units []UnitConfig

	// Binance price feed (public endpoints suffice without keys)
	BinanceAPIKey    string
	BinanceSecretKey string
	IsTestnet        bool

	// Polling
	MessagePollInterval time.Duration
	PricePollInterval   time.Duration
	MaxMessagesToPoll   int

	// Entry / exit tuning
	EntryTolerancePips float64
	EntryConfirmTicks  int
	ExitConfirmTicks   int // reserved; exits fire on the first qualifying sample
	PipValues          map[string]float64
	DefaultPipValue    float64

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Telegram
	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	if cfg.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN must be set")
	}

	// Gemini
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", "")
	if cfg.GeminiAPIKey == "" {
		errs = append(errs, "GEMINI_API_KEY must be set")
	}
	cfg.GeminiModel = getEnv("GEMINI_MODEL", "gemini-2.5-flash")

	// Units
	cfg.Units, err = parseUnits(getEnv("CHANNEL_UNITS", "[]"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CHANNEL_UNITS: %v", err))
	} else if len(cfg.Units) == 0 {
		errs = append(errs, "CHANNEL_UNITS must define at least one unit")
	}

	// Binance
	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)

	// Polling
	messagePollSeconds := getEnvAsInt("MESSAGE_POLL_SECONDS", 60)
	if messagePollSeconds <= 0 {
		errs = append(errs, "MESSAGE_POLL_SECONDS must be positive")
	}
	cfg.MessagePollInterval = time.Duration(messagePollSeconds) * time.Second

	pricePollSeconds := getEnvAsInt("PRICE_POLL_SECONDS", 10)
	if pricePollSeconds <= 0 {
		errs = append(errs, "PRICE_POLL_SECONDS must be positive")
	}
	cfg.PricePollInterval = time.Duration(pricePollSeconds) * time.Second

	cfg.MaxMessagesToPoll = getEnvAsInt("MAX_MESSAGES_TO_POLL", 5)
	if cfg.MaxMessagesToPoll <= 0 {
		errs = append(errs, "MAX_MESSAGES_TO_POLL must be positive")
	}

	// Entry / exit tuning
	cfg.EntryTolerancePips, err = getEnvAsFloatRequired("ENTRY_TOLERANCE_PIPS", 5.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ENTRY_TOLERANCE_PIPS: %v", err))
	} else if cfg.EntryTolerancePips < 0 {
		errs = append(errs, "ENTRY_TOLERANCE_PIPS cannot be negative")
	}

	cfg.EntryConfirmTicks = getEnvAsInt("ENTRY_CONFIRM_TICKS", 3)
	if cfg.EntryConfirmTicks <= 0 {
		errs = append(errs, "ENTRY_CONFIRM_TICKS must be positive")
	}

	cfg.ExitConfirmTicks = getEnvAsInt("EXIT_CONFIRM_TICKS", 1)
	if cfg.ExitConfirmTicks <= 0 {
		errs = append(errs, "EXIT_CONFIRM_TICKS must be positive")
	}

	cfg.PipValues, err = parsePipValues(getEnv("PIP_VALUES", "{}"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PIP_VALUES: %v", err))
	}

	cfg.DefaultPipValue, err = getEnvAsFloatRequired("DEFAULT_PIP_VALUE", 0.0001)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DEFAULT_PIP_VALUE: %v", err))
	} else if cfg.DefaultPipValue <= 0 {
		errs = append(errs, "DEFAULT_PIP_VALUE must be positive")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/signal_sentry.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// parseUnits decodes the CHANNEL_UNITS JSON array, e.g.
// [{"source":"@sigs","storage":"sigs-state","target":"@mirror"}].
func parseUnits(raw string) ([]UnitConfig, error) {
	var units []UnitConfig
	if err := json.Unmarshal([]byte(raw), &units); err != nil {
		return nil, fmt.Errorf("must be a JSON array of {source,storage,target}: %w", err)
	}
	for i, u := range units {
		if u.Source == "" || u.Storage == "" || u.Target == "" {
			return nil, fmt.Errorf("unit %d is missing source, storage or target", i)
		}
	}
	return units, nil
}

// parsePipValues decodes the PIP_VALUES JSON object, e.g.
// {"XAUUSD":0.1,"EURUSD":0.0001}. Symbols are upper-cased.
func parsePipValues(raw string) (map[string]float64, error) {
	var values map[string]float64
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("must be a JSON object of symbol to pip value: %w", err)
	}
	normalized := make(map[string]float64, len(values))
	for symbol, pip := range values {
		if pip <= 0 {
			return nil, fmt.Errorf("pip value for %s must be positive", symbol)
		}
		normalized[strings.ToUpper(strings.TrimSpace(symbol))] = pip
	}
	return normalized, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Log warning? For non-required fields, default is often acceptable.
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
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
