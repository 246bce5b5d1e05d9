// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package policy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Overrides is a sparse admin-set patch over the policy defaults. Nil fields
// are unset and leave the default in place. The whole document is persisted
// in the config namespace so overrides survive restarts.
type Overrides struct {
	AdsEnabled             *bool `json:"adsEnabled,omitempty"`
	BannerAdsEnabled       *bool `json:"bannerAdsEnabled,omitempty"`
	InterstitialAdsEnabled *bool `json:"interstitialAdsEnabled,omitempty"`
	AudioAdsEnabled        *bool `json:"audioAdsEnabled,omitempty"`
	TestMode               *bool `json:"testMode,omitempty"`
	DebugLogging           *bool `json:"debugLogging,omitempty"`

	InterstitialMinInterval      *time.Duration `json:"interstitialMinInterval,omitempty"`
	InterstitialMaxPerSession    *int           `json:"interstitialMaxPerSession,omitempty"`
	InterstitialEpisodeFrequency *int           `json:"interstitialEpisodeFrequency,omitempty"`
	AudioAdEpisodeFrequency      *int           `json:"audioAdEpisodeFrequency,omitempty"`
	AudioAdLoadTimeout           *time.Duration `json:"audioAdLoadTimeout,omitempty"`
}

// Apply overlays the set fields on top of a base config and returns the
// result. The base is not modified.
func (o *Overrides) Apply(base Config) Config {
	if o == nil {
		return base
	}

	cfg := base
	if o.AdsEnabled != nil {
		cfg.AdsEnabled = *o.AdsEnabled
	}
	if o.BannerAdsEnabled != nil {
		cfg.BannerAdsEnabled = *o.BannerAdsEnabled
	}
	if o.InterstitialAdsEnabled != nil {
		cfg.InterstitialAdsEnabled = *o.InterstitialAdsEnabled
	}
	if o.AudioAdsEnabled != nil {
		cfg.AudioAdsEnabled = *o.AudioAdsEnabled
	}
	if o.TestMode != nil {
		cfg.TestMode = *o.TestMode
	}
	if o.DebugLogging != nil {
		cfg.DebugLogging = *o.DebugLogging
	}
	if o.InterstitialMinInterval != nil {
		cfg.InterstitialMinInterval = *o.InterstitialMinInterval
	}
	if o.InterstitialMaxPerSession != nil {
		cfg.InterstitialMaxPerSession = *o.InterstitialMaxPerSession
	}
	if o.InterstitialEpisodeFrequency != nil {
		cfg.InterstitialEpisodeFrequency = *o.InterstitialEpisodeFrequency
	}
	if o.AudioAdEpisodeFrequency != nil {
		cfg.AudioAdEpisodeFrequency = *o.AudioAdEpisodeFrequency
	}
	if o.AudioAdLoadTimeout != nil {
		cfg.AudioAdLoadTimeout = *o.AudioAdLoadTimeout
	}
	return cfg
}

// Merge copies the set fields of patch into o, leaving o's other fields as
// they are.
func (o *Overrides) Merge(patch *Overrides) {
	if patch == nil {
		return
	}

	if patch.AdsEnabled != nil {
		o.AdsEnabled = patch.AdsEnabled
	}
	if patch.BannerAdsEnabled != nil {
		o.BannerAdsEnabled = patch.BannerAdsEnabled
	}
	if patch.InterstitialAdsEnabled != nil {
		o.InterstitialAdsEnabled = patch.InterstitialAdsEnabled
	}
	if patch.AudioAdsEnabled != nil {
		o.AudioAdsEnabled = patch.AudioAdsEnabled
	}
	if patch.TestMode != nil {
		o.TestMode = patch.TestMode
	}
	if patch.DebugLogging != nil {
		o.DebugLogging = patch.DebugLogging
	}
	if patch.InterstitialMinInterval != nil {
		o.InterstitialMinInterval = patch.InterstitialMinInterval
	}
	if patch.InterstitialMaxPerSession != nil {
		o.InterstitialMaxPerSession = patch.InterstitialMaxPerSession
	}
	if patch.InterstitialEpisodeFrequency != nil {
		o.InterstitialEpisodeFrequency = patch.InterstitialEpisodeFrequency
	}
	if patch.AudioAdEpisodeFrequency != nil {
		o.AudioAdEpisodeFrequency = patch.AudioAdEpisodeFrequency
	}
	if patch.AudioAdLoadTimeout != nil {
		o.AudioAdLoadTimeout = patch.AudioAdLoadTimeout
	}
}

// FieldsSet lists the names of the overridden fields, for the admin surface.
func (o *Overrides) FieldsSet() []string {
	if o == nil {
		return nil
	}

	var set []string
	if o.AdsEnabled != nil {
		set = append(set, "adsEnabled")
	}
	if o.BannerAdsEnabled != nil {
		set = append(set, "bannerAdsEnabled")
	}
	if o.InterstitialAdsEnabled != nil {
		set = append(set, "interstitialAdsEnabled")
	}
	if o.AudioAdsEnabled != nil {
		set = append(set, "audioAdsEnabled")
	}
	if o.TestMode != nil {
		set = append(set, "testMode")
	}
	if o.DebugLogging != nil {
		set = append(set, "debugLogging")
	}
	if o.InterstitialMinInterval != nil {
		set = append(set, "interstitialMinInterval")
	}
	if o.InterstitialMaxPerSession != nil {
		set = append(set, "interstitialMaxPerSession")
	}
	if o.InterstitialEpisodeFrequency != nil {
		set = append(set, "interstitialEpisodeFrequency")
	}
	if o.AudioAdEpisodeFrequency != nil {
		set = append(set, "audioAdEpisodeFrequency")
	}
	if o.AudioAdLoadTimeout != nil {
		set = append(set, "audioAdLoadTimeout")
	}
	return set
}

// ConfigService owns the effective policy config: environment defaults
// overlaid with persisted admin overrides. It is safe for concurrent use;
// admin handlers write while the decision path reads.
type ConfigService struct {
	mu        sync.RWMutex
	defaults  Config
	overrides Overrides
	store     ConfigStore
	profileID string
}

// NewConfigService validates the defaults, loads any persisted overrides and
// returns the service. Invalid defaults abort startup.
func NewConfigService(ctx context.Context, defaults Config, store ConfigStore, profileID string) (*ConfigService, error) {
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy defaults: %w", err)
	}

	overrides, err := store.GetOverrides(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load config overrides: %w", err)
	}

	// Persisted overrides may predate a tightened invariant. Drop them
	// rather than refuse to start.
	if err := overrides.Apply(defaults).Validate(); err != nil {
		logrus.Warnf("discarding persisted config overrides: %v", err)
		overrides = &Overrides{}
	}

	if set := overrides.FieldsSet(); len(set) > 0 {
		logrus.Infof("loaded config overrides for profile %s: %v", profileID, set)
	}

	return &ConfigService{
		defaults:  defaults,
		overrides: *overrides,
		store:     store,
		profileID: profileID,
	}, nil
}

// Effective returns the current config snapshot.
func (s *ConfigService) Effective() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overrides.Apply(s.defaults)
}

// Overridden returns a copy of the current override document.
func (s *ConfigService) Overridden() Overrides {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overrides
}

// Update merges a patch into the overrides, validates the resulting config
// and persists the new document. The patch is rejected as a whole if the
// result violates any invariant.
func (s *ConfigService) Update(ctx context.Context, patch *Overrides) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.overrides
	merged.Merge(patch)

	cfg := merged.Apply(s.defaults)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	if err := s.store.UpdateOverrides(ctx, s.profileID, &merged); err != nil {
		return Config{}, fmt.Errorf("failed to persist config overrides: %w", err)
	}

	s.overrides = merged
	logrus.Infof("config updated for profile %s: %v", s.profileID, merged.FieldsSet())
	return cfg, nil
}

// ResetToDefaults clears every override, persisted and in memory.
func (s *ConfigService) ResetToDefaults(ctx context.Context) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteOverrides(ctx, s.profileID); err != nil {
		return Config{}, fmt.Errorf("failed to clear config overrides: %w", err)
	}

	s.overrides = Overrides{}
	logrus.Infof("config reset to defaults for profile %s", s.profileID)
	return s.defaults, nil
}
