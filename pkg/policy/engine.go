// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package policy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Engine owns the in-memory SessionState for one profile and applies the
// decision rules to it. The in-memory state is the source of truth; the
// store is a synchronous write-through mirror so a restart picks up where
// the profile left off.
//
// The engine is NOT safe for concurrent use. Every call must come from the
// single control goroutine that owns ad decisions.
type Engine struct {
	store  SessionStore
	config ConfigProvider
	cfg    EngineConfig
	state  *SessionState
}

type EngineConfig struct {
	ProfileID string

	// SessionTimeout defaults to DefaultSessionTimeout when zero.
	SessionTimeout time.Duration
}

// NewEngine loads (or creates) the profile's state and returns the engine.
func NewEngine(ctx context.Context, store SessionStore, config ConfigProvider, cfg EngineConfig) (*Engine, error) {
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultSessionTimeout
	}

	state, err := store.GetSessionState(ctx, cfg.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}

	logrus.Infof("policy engine ready for profile %s: %d episode starts, %d interstitials this session",
		cfg.ProfileID, state.EpisodeStartCount, state.SessionInterstitialCount)

	return &Engine{
		store:  store,
		config: config,
		cfg:    cfg,
		state:  state,
	}, nil
}

// persist mirrors the in-memory state to the store. Failures are logged and
// swallowed: decisions keep flowing from memory while the store recovers.
func (e *Engine) persist(ctx context.Context) {
	if err := e.store.UpdateSessionState(ctx, e.cfg.ProfileID, e.state); err != nil {
		logrus.Errorf("failed to persist session state for profile %s: %v", e.cfg.ProfileID, err)
	}
}

// CanShowBanner reports whether a banner may be requested on the given
// screen. The screen only matters for placement lookup, not for policy.
func (e *Engine) CanShowBanner(screen string) bool {
	allowed := CanShowBanner(e.config.Effective())
	if !allowed {
		logrus.Debugf("banner denied on screen %s: banners disabled", screen)
	}
	return allowed
}

// InterstitialEnabled reports whether the interstitial format is switched
// on at all, ignoring session caps. Preloading consults this alone, so a
// capped session can still warm the next eligible ad.
func (e *Engine) InterstitialEnabled() bool {
	cfg := e.config.Effective()
	return cfg.AdsEnabled && cfg.InterstitialAdsEnabled
}

// AudioEnabled reports whether the audio pre-roll format is switched on,
// ignoring the episode cadence.
func (e *Engine) AudioEnabled() bool {
	cfg := e.config.Effective()
	return cfg.AdsEnabled && cfg.AudioAdsEnabled
}

// AudioLoadTimeout returns how long playback waits for an audio ad before
// proceeding without one.
func (e *Engine) AudioLoadTimeout() time.Duration {
	return e.config.Effective().AudioAdLoadTimeout
}

// TestMode reports whether ad requests should target test inventory.
func (e *Engine) TestMode() bool {
	return e.config.Effective().TestMode
}

// CanShowInterstitial reports whether the hard interstitial caps pass.
func (e *Engine) CanShowInterstitial(now time.Time) bool {
	return CanShowInterstitial(e.state, e.config.Effective(), now)
}

// InterstitialEpisodeDue reports whether the episode count sits on the
// trigger cadence, ignoring the caps.
func (e *Engine) InterstitialEpisodeDue() bool {
	return IsInterstitialEpisodeDue(e.state, e.config.Effective())
}

// ShouldTriggerInterstitialByEpisodeCount reports whether the episode-count
// trigger fires right now.
func (e *Engine) ShouldTriggerInterstitialByEpisodeCount(now time.Time) bool {
	return ShouldTriggerInterstitialByEpisodeCount(e.state, e.config.Effective(), now)
}

// ShouldPlayAudioAd reports whether an audio pre-roll is due.
func (e *Engine) ShouldPlayAudioAd() bool {
	return ShouldPlayAudioAd(e.state, e.config.Effective())
}

// RecordInterstitialShown marks an interstitial impression at display start
// and persists.
func (e *Engine) RecordInterstitialShown(ctx context.Context, now time.Time) {
	RecordInterstitialShown(e.state, now)
	e.persist(ctx)
}

// RecordAudioAdPlayed marks the audio cadence as consumed and persists.
func (e *Engine) RecordAudioAdPlayed(ctx context.Context) {
	RecordAudioAdPlayed(e.state)
	e.persist(ctx)
}

// RecordEpisodeStart counts a playback start attempt and persists. Callers
// must record the start before running any frequency check for it.
func (e *Engine) RecordEpisodeStart(ctx context.Context) {
	RecordEpisodeStart(e.state)
	e.persist(ctx)
}

// OnAppForegrounded resets the session counters when the background gap
// exceeded the session timeout, then stamps activity.
func (e *Engine) OnAppForegrounded(ctx context.Context, now time.Time) {
	if CheckSessionReset(e.state, now, e.cfg.SessionTimeout) {
		logrus.Infof("session counters reset for profile %s after inactivity", e.cfg.ProfileID)
	}
	e.state.LastActiveTime = now
	e.persist(ctx)
}

// OnAppBackgrounded stamps activity so the next foreground can measure the
// gap, and flushes state while the app still can.
func (e *Engine) OnAppBackgrounded(ctx context.Context, now time.Time) {
	e.state.LastActiveTime = now
	e.persist(ctx)
}

// ResetSession zeroes the session-scoped counters. Episode counters keep
// their values.
func (e *Engine) ResetSession(ctx context.Context, now time.Time) error {
	ResetSessionCounters(e.state, now)
	logrus.Infof("session counters reset for profile %s", e.cfg.ProfileID)
	return e.store.UpdateSessionState(ctx, e.cfg.ProfileID, e.state)
}

// ResetAll wipes the whole state, episode counters included.
func (e *Engine) ResetAll(ctx context.Context, now time.Time) error {
	e.state = NewSessionState(now)
	logrus.Infof("all policy state reset for profile %s", e.cfg.ProfileID)
	return e.store.UpdateSessionState(ctx, e.cfg.ProfileID, e.state)
}

// Snapshot returns a copy of the current state for read-only callers.
func (e *Engine) Snapshot() SessionState {
	return *e.state
}

// DebugInfo returns a human-readable state summary for the admin surface.
func (e *Engine) DebugInfo() string {
	cfg := e.config.Effective()
	s := e.state

	var b strings.Builder
	fmt.Fprintf(&b, "ads enabled: %t (banner=%t interstitial=%t audio=%t)\n",
		cfg.AdsEnabled, cfg.BannerAdsEnabled, cfg.InterstitialAdsEnabled, cfg.AudioAdsEnabled)
	fmt.Fprintf(&b, "test mode: %t, debug logging: %t\n", cfg.TestMode, cfg.DebugLogging)
	fmt.Fprintf(&b, "session started: %s\n", s.SessionStartTime.Format(time.RFC3339))
	fmt.Fprintf(&b, "interstitials this session: %d/%d (min interval %v)\n",
		s.SessionInterstitialCount, cfg.InterstitialMaxPerSession, cfg.InterstitialMinInterval)
	if s.HasShownInterstitial() {
		fmt.Fprintf(&b, "last interstitial: %s\n", s.LastInterstitialTime.Format(time.RFC3339))
	} else {
		fmt.Fprintf(&b, "last interstitial: never\n")
	}
	fmt.Fprintf(&b, "episode starts: %d (interstitial every %d, audio every %d)\n",
		s.EpisodeStartCount, cfg.InterstitialEpisodeFrequency, cfg.AudioAdEpisodeFrequency)
	fmt.Fprintf(&b, "episodes since last audio ad: %d\n", s.EpisodesSinceLastAudioAd())
	fmt.Fprintf(&b, "last active: %s\n", s.LastActiveTime.Format(time.RFC3339))
	return b.String()
}
