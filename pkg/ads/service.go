package ads

import (
	"context"
	"fmt"
	"time"

	"github.com/AccelByte/extend-ads-policy/pkg/clock"
	"github.com/AccelByte/extend-ads-policy/pkg/lifecycle"
	"github.com/AccelByte/extend-ads-policy/pkg/placement"
	"github.com/AccelByte/extend-ads-policy/pkg/policy"
	"github.com/AccelByte/extend-ads-policy/pkg/provider"
	"github.com/sirupsen/logrus"
)

// ServiceConfig wires the ads facade to everything it composes.
type ServiceConfig struct {
	ProfileID      string
	SessionTimeout time.Duration

	Store      policy.SessionStore
	Config     policy.ConfigProvider
	Provider   provider.Provider
	Clock      clock.Clock
	Placements *placement.Config
	Sink       Sink

	Playback             PlaybackController
	BannerListener       BannerListener
	InterstitialListener InterstitialListener
	AudioListener        AudioListener
}

// Service is the single entry point for ad decisions. It owns the control
// loop, the policy engine and the three format managers; every public method
// marshals onto the loop, so callers may use it from any goroutine. It also
// coordinates the session: app foreground and background transitions route
// through here into the engine's inactivity reset.
type Service struct {
	cfg  ServiceConfig
	loop *Loop

	engine       *policy.Engine
	banner       *BannerManager
	interstitial *InterstitialManager
	audio        *AudioManager
}

// NewService builds the engine and the managers. The loop does not run
// until Start is called.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	if cfg.Placements == nil {
		cfg.Placements = placement.DefaultConfig()
	}

	s := &Service{
		cfg:  cfg,
		loop: NewLoop(),
	}

	engine, err := policy.NewEngine(ctx, cfg.Store, cfg.Config, policy.EngineConfig{
		ProfileID:      cfg.ProfileID,
		SessionTimeout: cfg.SessionTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create policy engine: %w", err)
	}
	s.engine = engine

	dispatch := func(fn func()) {
		if !s.loop.Post(fn) {
			logrus.Debugf("ad callback dropped after shutdown")
		}
	}

	testMode := cfg.Config.Effective().TestMode

	s.banner, err = NewBannerManager(BannerManagerConfig{
		Engine:     engine,
		Provider:   cfg.Provider,
		Clock:      cfg.Clock,
		Sink:       cfg.Sink,
		Placements: cfg.Placements,
		Listener:   cfg.BannerListener,
		Dispatch:   dispatch,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create banner manager: %w", err)
	}

	s.interstitial, err = NewInterstitialManager(InterstitialManagerConfig{
		AdUnit:   cfg.Placements.Interstitial.AdUnitFor(testMode),
		Engine:   engine,
		Provider: cfg.Provider,
		Clock:    cfg.Clock,
		Sink:     cfg.Sink,
		Listener: cfg.InterstitialListener,
		Dispatch: dispatch,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create interstitial manager: %w", err)
	}

	s.audio, err = NewAudioManager(AudioManagerConfig{
		AdUnit:   cfg.Placements.Audio.AdUnitFor(testMode),
		Engine:   engine,
		Provider: cfg.Provider,
		Clock:    cfg.Clock,
		Sink:     cfg.Sink,
		Playback: cfg.Playback,
		Listener: cfg.AudioListener,
		Dispatch: dispatch,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create audio manager: %w", err)
	}

	return s, nil
}

// Start launches the control loop and warms the first interstitial.
func (s *Service) Start() {
	s.loop.Start()
	s.loop.Post(func() {
		s.interstitial.Preload("startup")
	})
	logrus.Info("ads service started")
}

// Shutdown drains the control loop and releases every held ad handle.
func (s *Service) Shutdown(ctx context.Context) error {
	s.loop.Do(func() {
		s.banner.Shutdown()
		s.interstitial.Cancel()
	})

	if err := s.loop.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop ads loop: %w", err)
	}
	logrus.Info("ads service stopped")
	return nil
}

// HandleEpisodeStart runs the pre-roll decision for a new playback start.
// The episode start is recorded before any frequency check so counts and
// caps are evaluated consistently; the count reflects attempts to start,
// not completions. Content playback proceeds through the
// PlaybackController exactly once, ad or no ad.
func (s *Service) HandleEpisodeStart(episodeID string) {
	s.loop.Do(func() {
		s.engine.RecordEpisodeStart(context.Background())
		s.audio.OnEpisodeStart(context.Background(), episodeID)
	})
}

// MaybeShowInterstitial shows an interstitial when the episode-count
// trigger fires and the caps allow it. Reports whether a show started and,
// if not, the skip reason: a count off the cadence is "not_due", a cap or
// interval denial at the boundary is "frequency_cap".
func (s *Service) MaybeShowInterstitial(adContext string) (shown bool, reason SkipReason) {
	s.loop.Do(func() {
		if !s.engine.InterstitialEnabled() {
			reason = s.interstitial.skipOpportunity(adContext, SkipReasonDisabled)
			return
		}
		if !s.engine.InterstitialEpisodeDue() {
			reason = s.interstitial.skipOpportunity(adContext, SkipReasonNotDue)
			return
		}
		shown, reason = s.interstitial.TryShow(adContext)
	})
	return shown, reason
}

// PreloadInterstitial warms the next interstitial without showing it.
func (s *Service) PreloadInterstitial(adContext string) {
	s.loop.Do(func() {
		s.interstitial.Preload(adContext)
	})
}

// TryShowInterstitial shows the preloaded interstitial if the caps allow
// it right now, regardless of the episode-count trigger.
func (s *Service) TryShowInterstitial(adContext string) (shown bool, reason SkipReason) {
	s.loop.Do(func() {
		shown, reason = s.interstitial.TryShow(adContext)
	})
	return shown, reason
}

// EnterScreen runs the banner decision for a screen the user entered.
func (s *Service) EnterScreen(screen string) {
	s.loop.Do(func() {
		s.banner.EnterScreen(screen)
	})
}

// LeaveScreen destroys the screen's banner, if any.
func (s *Service) LeaveScreen(screen string) {
	s.loop.Do(func() {
		s.banner.LeaveScreen(screen)
	})
}

// PauseAudioAd pauses a playing pre-roll.
func (s *Service) PauseAudioAd() error {
	var err error
	s.loop.Do(func() {
		err = s.audio.PauseAd()
	})
	return err
}

// ResumeAudioAd resumes a paused pre-roll.
func (s *Service) ResumeAudioAd() error {
	var err error
	s.loop.Do(func() {
		err = s.audio.ResumeAd()
	})
	return err
}

// SkipAudioAd tears down the current pre-roll and lets the episode proceed.
func (s *Service) SkipAudioAd() error {
	var err error
	s.loop.Do(func() {
		err = s.audio.SkipAd()
	})
	return err
}

// OnAppForegrounded stamps activity, resets session counters after the
// inactivity timeout, and opportunistically warms an interstitial for the
// fresh session.
func (s *Service) OnAppForegrounded() {
	s.loop.Do(func() {
		s.engine.OnAppForegrounded(context.Background(), s.cfg.Clock.Now())
		s.interstitial.Preload("app_foreground")
	})
}

// OnAppBackgrounded stamps activity and flushes state while the app can.
func (s *Service) OnAppBackgrounded() {
	s.loop.Do(func() {
		s.engine.OnAppBackgrounded(context.Background(), s.cfg.Clock.Now())
	})
}

// ResetSession zeroes the session-scoped counters.
func (s *Service) ResetSession(ctx context.Context) error {
	var err error
	s.loop.Do(func() {
		err = s.engine.ResetSession(ctx, s.cfg.Clock.Now())
	})
	return err
}

// ResetAll wipes the whole policy state, episode counters included.
func (s *Service) ResetAll(ctx context.Context) error {
	var err error
	s.loop.Do(func() {
		err = s.engine.ResetAll(ctx, s.cfg.Clock.Now())
	})
	return err
}

// Status is a point-in-time snapshot for the admin surface.
type Status struct {
	State             policy.SessionState `json:"state"`
	InterstitialState lifecycle.State     `json:"interstitialState"`
	AudioState        lifecycle.State     `json:"audioState"`
	AudioPlayState    string              `json:"audioPlayState"`
	ActiveBanners     []string            `json:"activeBanners"`
	DebugInfo         string              `json:"debugInfo"`
}

// Status reports the current policy counters and manager states.
func (s *Service) Status() Status {
	var st Status
	s.loop.Do(func() {
		st = Status{
			State:             s.engine.Snapshot(),
			InterstitialState: s.interstitial.State(),
			AudioState:        s.audio.State(),
			AudioPlayState:    s.audio.PlayState(),
			ActiveBanners:     s.banner.ActiveScreens(),
			DebugInfo:         s.engine.DebugInfo(),
		}
	})
	return st
}
