// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/AccelByte/extend-ads-policy/pkg/common"
	"github.com/AccelByte/extend-ads-policy/pkg/policy"
	"github.com/sirupsen/logrus"
)

// configView renders the effective policy config with durations as strings
// ("10m", "5s") so the admin API reads and writes the same shapes.
type configView struct {
	AdsEnabled             bool `json:"adsEnabled"`
	BannerAdsEnabled       bool `json:"bannerAdsEnabled"`
	InterstitialAdsEnabled bool `json:"interstitialAdsEnabled"`
	AudioAdsEnabled        bool `json:"audioAdsEnabled"`
	TestMode               bool `json:"testMode"`
	DebugLogging           bool `json:"debugLogging"`

	InterstitialMinInterval      string `json:"interstitialMinInterval"`
	InterstitialMaxPerSession    int    `json:"interstitialMaxPerSession"`
	InterstitialEpisodeFrequency int    `json:"interstitialEpisodeFrequency"`
	AudioAdEpisodeFrequency      int    `json:"audioAdEpisodeFrequency"`
	AudioAdLoadTimeout           string `json:"audioAdLoadTimeout"`
}

func viewOf(cfg policy.Config) configView {
	return configView{
		AdsEnabled:             cfg.AdsEnabled,
		BannerAdsEnabled:       cfg.BannerAdsEnabled,
		InterstitialAdsEnabled: cfg.InterstitialAdsEnabled,
		AudioAdsEnabled:        cfg.AudioAdsEnabled,
		TestMode:               cfg.TestMode,
		DebugLogging:           cfg.DebugLogging,

		InterstitialMinInterval:      cfg.InterstitialMinInterval.String(),
		InterstitialMaxPerSession:    cfg.InterstitialMaxPerSession,
		InterstitialEpisodeFrequency: cfg.InterstitialEpisodeFrequency,
		AudioAdEpisodeFrequency:      cfg.AudioAdEpisodeFrequency,
		AudioAdLoadTimeout:           cfg.AudioAdLoadTimeout.String(),
	}
}

// configPatch is the PATCH request body. Absent fields leave the current
// value in place; durations are parsed from strings.
type configPatch struct {
	AdsEnabled             *bool `json:"adsEnabled"`
	BannerAdsEnabled       *bool `json:"bannerAdsEnabled"`
	InterstitialAdsEnabled *bool `json:"interstitialAdsEnabled"`
	AudioAdsEnabled        *bool `json:"audioAdsEnabled"`
	TestMode               *bool `json:"testMode"`
	DebugLogging           *bool `json:"debugLogging"`

	InterstitialMinInterval      *string `json:"interstitialMinInterval"`
	InterstitialMaxPerSession    *int    `json:"interstitialMaxPerSession"`
	InterstitialEpisodeFrequency *int    `json:"interstitialEpisodeFrequency"`
	AudioAdEpisodeFrequency      *int    `json:"audioAdEpisodeFrequency"`
	AudioAdLoadTimeout           *string `json:"audioAdLoadTimeout"`
}

func (p *configPatch) toOverrides() (*policy.Overrides, error) {
	o := &policy.Overrides{
		AdsEnabled:             p.AdsEnabled,
		BannerAdsEnabled:       p.BannerAdsEnabled,
		InterstitialAdsEnabled: p.InterstitialAdsEnabled,
		AudioAdsEnabled:        p.AudioAdsEnabled,
		TestMode:               p.TestMode,
		DebugLogging:           p.DebugLogging,

		InterstitialMaxPerSession:    p.InterstitialMaxPerSession,
		InterstitialEpisodeFrequency: p.InterstitialEpisodeFrequency,
		AudioAdEpisodeFrequency:      p.AudioAdEpisodeFrequency,
	}

	if p.InterstitialMinInterval != nil {
		d, err := time.ParseDuration(*p.InterstitialMinInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid interstitialMinInterval: %w", err)
		}
		o.InterstitialMinInterval = &d
	}
	if p.AudioAdLoadTimeout != nil {
		d, err := time.ParseDuration(*p.AudioAdLoadTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid audioAdLoadTimeout: %w", err)
		}
		o.AudioAdLoadTimeout = &d
	}

	return o, nil
}

func (a *Admin) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.getConfig(w, r)
	case http.MethodPatch:
		a.patchConfig(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *Admin) getConfig(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "Admin.GetConfig")
	defer scope.Finish()

	overridden := a.config.Overridden()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"config":     viewOf(a.config.Effective()),
		"overridden": overridden.FieldsSet(),
	})
}

func (a *Admin) patchConfig(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "Admin.PatchConfig")
	defer scope.Finish()

	var patch configPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	overrides, err := patch.toOverrides()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := a.config.Update(scope.Ctx, overrides)
	if err != nil {
		// An invariant violation is the caller's mistake, not ours
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logrus.Infof("admin config update applied")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"config": viewOf(cfg),
	})
}

func (a *Admin) handleConfigReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	scope := common.GetScopeFromContext(r.Context(), "Admin.ResetConfig")
	defer scope.Finish()

	cfg, err := a.config.ResetToDefaults(scope.Ctx)
	if err != nil {
		scope.TraceError(err)
		logrus.Errorf("config reset failed: %v", err)
		writeError(w, http.StatusInternalServerError, "config reset failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"config": viewOf(cfg),
	})
}
