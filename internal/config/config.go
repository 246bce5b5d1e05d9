// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"time"

	"github.com/AccelByte/extend-ads-policy/pkg/policy"
)

// Store backends selectable via STORE_BACKEND.
const (
	StoreBackendRedis  = "redis"
	StoreBackendSQLite = "sqlite"
)

// Config holds all application configuration loaded from environment
// variables, parsed with github.com/caarlos0/env struct tags.
type Config struct {
	// ============================================================
	// Server configuration
	// ============================================================
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"6565"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	AdminPort   int    `env:"ADMIN_PORT" envDefault:"8081"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"ExtendAdsPolicyService"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// ============================================================
	// Store configuration
	// ============================================================
	StoreBackend      string `env:"STORE_BACKEND" envDefault:"redis"`
	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisMaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int    `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`
	SQLitePath        string `env:"SQLITE_PATH" envDefault:"ads_policy.db"`

	// ============================================================
	// Ads configuration
	// ============================================================
	// ProfileID selects whose counters this instance manages. PlacementsPath
	// points at the YAML placement table; empty uses the built-in defaults.
	ProfileID      string        `env:"PROFILE_ID" envDefault:"default"`
	PlacementsPath string        `env:"PLACEMENTS_PATH" envDefault:"config/placements.yaml"`
	AdProvider     string        `env:"AD_PROVIDER" envDefault:"simulated"`
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"30m"`

	// ============================================================
	// Policy defaults (admin overrides are layered on top)
	// ============================================================
	AdsEnabled                   bool          `env:"ADS_ENABLED" envDefault:"true"`
	BannerAdsEnabled             bool          `env:"BANNER_ADS_ENABLED" envDefault:"true"`
	InterstitialAdsEnabled       bool          `env:"INTERSTITIAL_ADS_ENABLED" envDefault:"true"`
	AudioAdsEnabled              bool          `env:"AUDIO_ADS_ENABLED" envDefault:"true"`
	InterstitialMinInterval      time.Duration `env:"INTERSTITIAL_MIN_INTERVAL" envDefault:"10m"`
	InterstitialMaxPerSession    int           `env:"INTERSTITIAL_MAX_PER_SESSION" envDefault:"2"`
	InterstitialEpisodeFrequency int           `env:"INTERSTITIAL_EPISODE_FREQUENCY" envDefault:"3"`
	AudioAdEpisodeFrequency      int           `env:"AUDIO_AD_EPISODE_FREQUENCY" envDefault:"2"`
	AudioAdLoadTimeout           time.Duration `env:"AUDIO_AD_LOAD_TIMEOUT" envDefault:"5s"`
	AdsTestMode                  bool          `env:"ADS_TEST_MODE" envDefault:"false"`
	AdsDebugLogging              bool          `env:"ADS_DEBUG_LOGGING" envDefault:"false"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	OtelEnabled     bool   `env:"OTEL_ENABLED" envDefault:"true"`
	OtelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"extend-ads-policy"`
}

// PolicyDefaults assembles the env-derived policy config the admin
// overrides are applied to.
func (c *Config) PolicyDefaults() policy.Config {
	return policy.Config{
		AdsEnabled:             c.AdsEnabled,
		BannerAdsEnabled:       c.BannerAdsEnabled,
		InterstitialAdsEnabled: c.InterstitialAdsEnabled,
		AudioAdsEnabled:        c.AudioAdsEnabled,
		TestMode:               c.AdsTestMode,
		DebugLogging:           c.AdsDebugLogging,

		InterstitialMinInterval:      c.InterstitialMinInterval,
		InterstitialMaxPerSession:    c.InterstitialMaxPerSession,
		InterstitialEpisodeFrequency: c.InterstitialEpisodeFrequency,
		AudioAdEpisodeFrequency:      c.AudioAdEpisodeFrequency,
		AudioAdLoadTimeout:           c.AudioAdLoadTimeout,
	}
}
