package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Apply modes for the price adjuster
const (
	ApplyModeSimulate = "simulate"
	ApplyModeRemote   = "remote"
	ApplyModeBrowser  = "browser"
)

// Config represents the application configuration
type Config struct {
	// Control API
	ListenAddr string

	// Marketplace pages
	ListingURL string
	BaseURL    string

	// Redis configuration (store + result streams)
	RedisAddr            string
	RedisDB              int
	RedisKeyPrefix       string
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration (fetch block cache)
	MemcacheAddr     string
	FetchBlockTime   time.Duration

	// Adjuster configuration
	ApplyMode        string
	SimulatePassRate float64
	ItemDelay        time.Duration
	Headless         bool

	// Scheduler configuration
	ScheduleCheckHour int

	// Telegram notifications (optional)
	TelegramToken  string
	TelegramChatID int64

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	blockSecs, _ := strconv.Atoi(getEnv("FETCH_BLOCK_SECONDS", "500"))
	itemDelay, _ := strconv.Atoi(getEnv("ITEM_DELAY_SECONDS", "2"))
	passRate, _ := strconv.ParseFloat(getEnv("SIMULATE_PASS_RATE", "0.9"), 64)
	checkHour, _ := strconv.Atoi(getEnv("SCHEDULE_CHECK_HOUR", "8"))
	chatID, _ := strconv.ParseInt(getEnv("TELEGRAM_CHAT_ID", "0"), 10, 64)

	return &Config{
		ListenAddr:           getEnv("LISTEN_ADDR", ":8710"),
		ListingURL:           getEnv("LISTING_URL", "https://jp.mercari.com/mypage/listings"),
		BaseURL:              getEnv("BASE_URL", "https://jp.mercari.com"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisKeyPrefix:       getEnv("REDIS_KEY_PREFIX", "fleaprice"),
		RedisStream:          getEnv("REDIS_STREAM", "priceadjust"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		FetchBlockTime:       time.Duration(blockSecs) * time.Second,
		ApplyMode:            getEnv("APPLY_MODE", ApplyModeSimulate),
		SimulatePassRate:     passRate,
		ItemDelay:            time.Duration(itemDelay) * time.Second,
		Headless:             getEnv("BROWSER_HEADLESS", "true") != "false",
		ScheduleCheckHour:    checkHour,
		TelegramToken:        getEnv("TELEGRAM_TOKEN", ""),
		TelegramChatID:       chatID,
		Environment:          getEnv("FLEAPRICE_ENVIRONMENT", "development"),
	}
}

// Validate checks that the loaded configuration is usable
func (c *Config) Validate() error {
	if c.ListingURL == "" {
		return fmt.Errorf("LISTING_URL must not be empty")
	}
	if _, err := url.Parse(c.ListingURL); err != nil {
		return fmt.Errorf("LISTING_URL is not a valid URL: %w", err)
	}
	switch c.ApplyMode {
	case ApplyModeSimulate, ApplyModeRemote, ApplyModeBrowser:
	default:
		return fmt.Errorf("APPLY_MODE must be one of simulate, remote, browser (got %q)", c.ApplyMode)
	}
	if c.SimulatePassRate < 0 || c.SimulatePassRate > 1 {
		return fmt.Errorf("SIMULATE_PASS_RATE must be within [0,1] (got %v)", c.SimulatePassRate)
	}
	if c.ItemDelay < 0 {
		return fmt.Errorf("ITEM_DELAY_SECONDS must not be negative")
	}
	if c.ScheduleCheckHour < 0 || c.ScheduleCheckHour > 23 {
		return fmt.Errorf("SCHEDULE_CHECK_HOUR must be within [0,23] (got %d)", c.ScheduleCheckHour)
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
