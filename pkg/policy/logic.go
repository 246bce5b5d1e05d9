// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package policy

import (
	"time"

	"github.com/sirupsen/logrus"
)

// CheckSessionReset checks if the inactivity timeout elapsed and resets the
// session-scoped counters if so. Episode counters are never touched here.
// Returns true if a reset occurred, false otherwise.
func CheckSessionReset(state *SessionState, now time.Time, timeout time.Duration) bool {
	// Calculate time since the app was last active
	inactiveFor := now.Sub(state.LastActiveTime)

	if inactiveFor > timeout {
		logrus.Debugf("session reset triggered: inactive for %v (timeout %v)", inactiveFor, timeout)
		ResetSessionCounters(state, now)
		return true
	}

	return false
}

// ResetSessionCounters starts a fresh session: zero interstitials shown, no
// last-shown time, session start stamped to now.
func ResetSessionCounters(state *SessionState, now time.Time) {
	state.SessionStartTime = now
	state.SessionInterstitialCount = 0
	state.LastInterstitialTime = time.Time{}
}

// CanShowBanner checks whether banner ads may be requested at all.
// Banners carry no frequency cap; only the enable flags apply.
func CanShowBanner(cfg Config) bool {
	return cfg.AdsEnabled && cfg.BannerAdsEnabled
}

// CanShowInterstitial checks the hard interstitial caps: format enabled,
// session count below the maximum, and minimum interval since the last one.
// Returns true if an interstitial is allowed right now. No side effects.
func CanShowInterstitial(state *SessionState, cfg Config, now time.Time) bool {
	if !cfg.AdsEnabled || !cfg.InterstitialAdsEnabled {
		return false
	}

	// Session cap
	if state.SessionInterstitialCount >= cfg.InterstitialMaxPerSession {
		logrus.Debugf("interstitial denied: session cap reached (%d/%d)",
			state.SessionInterstitialCount, cfg.InterstitialMaxPerSession)
		return false
	}

	// Minimum interval since the last shown interstitial. A profile that
	// never showed one has a zero LastInterstitialTime and passes.
	if state.HasShownInterstitial() {
		sinceLast := now.Sub(state.LastInterstitialTime)
		if sinceLast < cfg.InterstitialMinInterval {
			logrus.Debugf("interstitial denied: only %v since last (min interval %v)",
				sinceLast, cfg.InterstitialMinInterval)
			return false
		}
	}

	return true
}

// IsInterstitialEpisodeDue checks only the cadence half of the episode
// trigger: the start count sits exactly on a multiple of the configured
// frequency. Caps are not consulted, so callers can tell "not at the
// boundary yet" apart from "capped at the boundary".
func IsInterstitialEpisodeDue(state *SessionState, cfg Config) bool {
	if state.EpisodeStartCount <= 0 {
		return false
	}

	if state.EpisodeStartCount%cfg.InterstitialEpisodeFrequency != 0 {
		logrus.Debugf("interstitial not triggered: episode count %d not a multiple of %d",
			state.EpisodeStartCount, cfg.InterstitialEpisodeFrequency)
		return false
	}

	return true
}

// ShouldTriggerInterstitialByEpisodeCount checks the episode-count trigger:
// the hard caps must pass AND the episode start count must sit exactly on a
// multiple of the configured frequency. The trigger is edge-based: a count
// that jumped past a multiple without being checked there does not fire
// retroactively.
func ShouldTriggerInterstitialByEpisodeCount(state *SessionState, cfg Config, now time.Time) bool {
	if !CanShowInterstitial(state, cfg, now) {
		return false
	}

	if !IsInterstitialEpisodeDue(state, cfg) {
		return false
	}

	logrus.Debugf("interstitial triggered at episode count %d", state.EpisodeStartCount)
	return true
}

// ShouldPlayAudioAd checks the audio pre-roll cadence: at least the
// configured number of episode starts since the last audio ad. This is
// deliberately a different rule than the interstitial one, so an audio ad
// missed at an exact multiple still plays on a later episode.
func ShouldPlayAudioAd(state *SessionState, cfg Config) bool {
	if !cfg.AdsEnabled || !cfg.AudioAdsEnabled {
		return false
	}

	since := state.EpisodesSinceLastAudioAd()
	if since < cfg.AudioAdEpisodeFrequency {
		logrus.Debugf("audio ad not due: %d episode starts since last (need %d)",
			since, cfg.AudioAdEpisodeFrequency)
		return false
	}

	logrus.Debugf("audio ad due: %d episode starts since last", since)
	return true
}

// RecordInterstitialShown marks an interstitial impression at display start.
func RecordInterstitialShown(state *SessionState, now time.Time) {
	state.SessionInterstitialCount++
	state.LastInterstitialTime = now

	logrus.Debugf("interstitial recorded: count=%d, lastShown=%v",
		state.SessionInterstitialCount, now)
}

// RecordAudioAdPlayed marks the current episode count as the last one that
// carried an audio ad.
func RecordAudioAdPlayed(state *SessionState) {
	state.LastAudioAdEpisodeIndex = state.EpisodeStartCount

	logrus.Debugf("audio ad recorded at episode count %d", state.EpisodeStartCount)
}

// RecordEpisodeStart increments the monotonic episode start counter. It
// counts attempts to start playback, not completions, and must be recorded
// before any frequency check for the same start.
func RecordEpisodeStart(state *SessionState) {
	state.EpisodeStartCount++

	logrus.Debugf("episode start recorded: count=%d", state.EpisodeStartCount)
}
