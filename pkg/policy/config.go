// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package policy

import (
	"fmt"
	"time"
)

// Default policy values, applied when no environment or admin override is set.
const (
	DefaultInterstitialMinInterval      = 10 * time.Minute
	DefaultInterstitialMaxPerSession    = 2
	DefaultInterstitialEpisodeFrequency = 3
	DefaultAudioAdEpisodeFrequency      = 2
	DefaultAudioAdLoadTimeout           = 5 * time.Second

	// DefaultSessionTimeout is how long the app may stay backgrounded before
	// session counters reset on the next foreground.
	DefaultSessionTimeout = 30 * time.Minute
)

// Config holds every tunable of the ad policy. Per-format flags are only
// effective while the master AdsEnabled flag is set; that conjunction lives
// in the decision functions, not here.
type Config struct {
	AdsEnabled             bool `json:"adsEnabled"`
	BannerAdsEnabled       bool `json:"bannerAdsEnabled"`
	InterstitialAdsEnabled bool `json:"interstitialAdsEnabled"`
	AudioAdsEnabled        bool `json:"audioAdsEnabled"`

	// TestMode switches ad requests to the test ad units. DebugLogging
	// raises the ad event log from debug to info level.
	TestMode     bool `json:"testMode"`
	DebugLogging bool `json:"debugLogging"`

	InterstitialMinInterval      time.Duration `json:"interstitialMinInterval"`
	InterstitialMaxPerSession    int           `json:"interstitialMaxPerSession"`
	InterstitialEpisodeFrequency int           `json:"interstitialEpisodeFrequency"`
	AudioAdEpisodeFrequency      int           `json:"audioAdEpisodeFrequency"`
	AudioAdLoadTimeout           time.Duration `json:"audioAdLoadTimeout"`
}

// DefaultConfig returns the built-in policy defaults.
func DefaultConfig() Config {
	return Config{
		AdsEnabled:             true,
		BannerAdsEnabled:       true,
		InterstitialAdsEnabled: true,
		AudioAdsEnabled:        true,

		InterstitialMinInterval:      DefaultInterstitialMinInterval,
		InterstitialMaxPerSession:    DefaultInterstitialMaxPerSession,
		InterstitialEpisodeFrequency: DefaultInterstitialEpisodeFrequency,
		AudioAdEpisodeFrequency:      DefaultAudioAdEpisodeFrequency,
		AudioAdLoadTimeout:           DefaultAudioAdLoadTimeout,
	}
}

// Validate checks the policy invariants. A violation is a configuration
// error: it aborts startup or rejects the admin update, it never surfaces
// at decision time.
func (c Config) Validate() error {
	if c.InterstitialMinInterval < 0 {
		return fmt.Errorf("interstitial min interval must not be negative, got %v", c.InterstitialMinInterval)
	}
	if c.InterstitialMaxPerSession < 0 {
		return fmt.Errorf("interstitial max per session must not be negative, got %d", c.InterstitialMaxPerSession)
	}
	if c.InterstitialEpisodeFrequency < 1 {
		return fmt.Errorf("interstitial episode frequency must be at least 1, got %d", c.InterstitialEpisodeFrequency)
	}
	if c.AudioAdEpisodeFrequency < 1 {
		return fmt.Errorf("audio ad episode frequency must be at least 1, got %d", c.AudioAdEpisodeFrequency)
	}
	if c.AudioAdLoadTimeout < 0 {
		return fmt.Errorf("audio ad load timeout must not be negative, got %v", c.AudioAdLoadTimeout)
	}
	return nil
}

// HasAnyAdsEnabled reports whether at least one ad format can serve.
func (c Config) HasAnyAdsEnabled() bool {
	return c.AdsEnabled && (c.BannerAdsEnabled || c.InterstitialAdsEnabled || c.AudioAdsEnabled)
}
