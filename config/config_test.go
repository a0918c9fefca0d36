package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfigDefaults tests the defaults with a clean environment
func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, ":8710", cfg.ListenAddr)
	assert.Equal(t, "https://jp.mercari.com/mypage/listings", cfg.ListingURL)
	assert.Equal(t, "https://jp.mercari.com", cfg.BaseURL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "fleaprice", cfg.RedisKeyPrefix)
	assert.Equal(t, "priceadjust", cfg.RedisStream)
	assert.Equal(t, "localhost:11211", cfg.MemcacheAddr)
	assert.Equal(t, 500*time.Second, cfg.FetchBlockTime)
	assert.Equal(t, ApplyModeSimulate, cfg.ApplyMode)
	assert.Equal(t, 0.9, cfg.SimulatePassRate)
	assert.Equal(t, 2*time.Second, cfg.ItemDelay)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 8, cfg.ScheduleCheckHour)
	assert.Equal(t, "development", cfg.Environment)
}

// TestLoadConfigEnvOverrides tests environment variable overrides
func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("APPLY_MODE", "browser")
	t.Setenv("SIMULATE_PASS_RATE", "0.5")
	t.Setenv("ITEM_DELAY_SECONDS", "5")
	t.Setenv("SCHEDULE_CHECK_HOUR", "6")
	t.Setenv("BROWSER_HEADLESS", "false")

	cfg := LoadConfig()

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, ApplyModeBrowser, cfg.ApplyMode)
	assert.Equal(t, 0.5, cfg.SimulatePassRate)
	assert.Equal(t, 5*time.Second, cfg.ItemDelay)
	assert.Equal(t, 6, cfg.ScheduleCheckHour)
	assert.False(t, cfg.Headless)
}

// TestValidate tests configuration validation
func TestValidate(t *testing.T) {
	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())

	bad := *cfg
	bad.ApplyMode = "mystery"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.SimulatePassRate = 1.5
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.ItemDelay = -time.Second
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.ScheduleCheckHour = 24
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.ListingURL = ""
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.TelegramToken = "123:abc"
	bad.TelegramChatID = 0
	assert.Error(t, bad.Validate())
}
