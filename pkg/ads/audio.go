package ads

import (
	"context"
	"errors"
	"fmt"

	"github.com/AccelByte/extend-ads-policy/pkg/clock"
	"github.com/AccelByte/extend-ads-policy/pkg/lifecycle"
	"github.com/AccelByte/extend-ads-policy/pkg/policy"
	"github.com/AccelByte/extend-ads-policy/pkg/provider"
	"github.com/sirupsen/logrus"
)

const surfacePlayback = "playback"

// Audio playback sub-states while an ad holds the audio focus.
const (
	playStateIdle    = "idle"
	playStatePlaying = "playing"
	playStatePaused  = "paused"
)

// AudioManagerConfig wires an audio pre-roll manager to its collaborators.
type AudioManagerConfig struct {
	AdUnit   string
	Engine   *policy.Engine
	Provider provider.Provider
	Clock    clock.Clock
	Sink     Sink
	Playback PlaybackController
	Listener AudioListener

	// Dispatch serializes backend callbacks onto the control goroutine.
	Dispatch func(func())
}

// AudioManager runs the pre-roll decision for each episode start and holds
// playback until the ad finishes or fails. Whatever happens, the episode
// proceeds exactly once. It is confined to the control goroutine.
type AudioManager struct {
	cfg     AudioManagerConfig
	machine *lifecycle.Machine

	episodeID string
	proceeded bool
	playState string
}

// NewAudioManager creates an audio manager with an idle machine.
func NewAudioManager(cfg AudioManagerConfig) (*AudioManager, error) {
	a := &AudioManager{cfg: cfg, playState: playStateIdle}

	machine, err := lifecycle.New(lifecycle.Config{
		Format:      provider.FormatAudio,
		AdUnit:      cfg.AdUnit,
		Provider:    cfg.Provider,
		Clock:       cfg.Clock,
		LoadTimeout: cfg.Engine.AudioLoadTimeout(),
		Dispatch:    cfg.Dispatch,
		Events: lifecycle.Events{
			OnLoaded:                 a.onLoaded,
			OnLoadFailed:             a.onLoadFailed,
			OnShowStarted:            a.onShowStarted,
			OnCompleted:              a.onCompleted,
			OnShowFailed:             a.onShowFailed,
			OnContentPauseRequested:  a.onContentPause,
			OnContentResumeRequested: a.onContentResume,
		},
	})
	if err != nil {
		return nil, err
	}

	a.machine = machine
	return a, nil
}

// State returns the lifecycle state of the current instance.
func (a *AudioManager) State() lifecycle.State {
	return a.machine.State()
}

// PlayState returns the playback sub-state of the current ad.
func (a *AudioManager) PlayState() string {
	return a.playState
}

// EpisodeID returns the episode whose start this manager is handling.
func (a *AudioManager) EpisodeID() string {
	return a.episodeID
}

// OnEpisodeStart runs the pre-roll decision for a new episode. When no ad
// is due, playback proceeds immediately.
func (a *AudioManager) OnEpisodeStart(ctx context.Context, episodeID string) {
	a.beginEpisode(episodeID)

	a.emit(Event{Kind: KindOpportunity, Context: "episode_start"})

	if !a.cfg.Engine.AudioEnabled() {
		a.emit(Event{Kind: KindSkipped, Context: "episode_start", Reason: SkipReasonDisabled})
		a.cfg.Listener.skipped(SkipReasonDisabled)
		a.proceed()
		return
	}

	if !a.cfg.Engine.ShouldPlayAudioAd() {
		a.emit(Event{Kind: KindSkipped, Context: "episode_start", Reason: SkipReasonFrequencyCap})
		a.cfg.Listener.skipped(SkipReasonFrequencyCap)
		a.proceed()
		return
	}

	a.RequestAd(ctx, episodeID)
}

// ProceedWithoutAd hands playback to the episode without running the
// pre-roll decision, e.g. when another format already took the boundary.
func (a *AudioManager) ProceedWithoutAd(episodeID string) {
	a.beginEpisode(episodeID)
	a.proceed()
}

// RequestAd begins loading a pre-roll for the episode. Playback holds
// until the ad finishes or fails; either way the episode proceeds exactly
// once.
func (a *AudioManager) RequestAd(ctx context.Context, episodeID string) {
	if a.episodeID != episodeID {
		a.beginEpisode(episodeID)
	}

	// The timeout follows the live policy config
	a.machine.SetLoadTimeout(a.cfg.Engine.AudioLoadTimeout())

	a.emit(Event{Kind: KindRequest, Context: "episode_start"})

	err := a.machine.Request(lifecycle.RequestInfo{
		Context:   "episode_start",
		EpisodeID: episodeID,
		CustomParams: map[string]string{
			"episode_id": episodeID,
		},
	})
	if err != nil {
		logrus.Warnf("audio ad request failed to start: %v", err)
		a.proceed()
	}
}

// PlayAd shows the loaded pre-roll. Called automatically on fill.
func (a *AudioManager) PlayAd() error {
	return a.machine.Show(surfacePlayback)
}

// PauseAd pauses a playing pre-roll.
func (a *AudioManager) PauseAd() error {
	if a.playState != playStatePlaying {
		return fmt.Errorf("no audio ad playing")
	}

	if err := a.machine.Pause(); err != nil {
		return err
	}

	a.playState = playStatePaused
	a.emit(Event{Kind: KindPaused})
	return nil
}

// ResumeAd resumes a paused pre-roll.
func (a *AudioManager) ResumeAd() error {
	if a.playState != playStatePaused {
		return fmt.Errorf("no paused audio ad")
	}

	if err := a.machine.Resume(); err != nil {
		return err
	}

	a.playState = playStatePlaying
	a.emit(Event{Kind: KindResumed})
	return nil
}

// SkipAd tears down the current pre-roll at the user's request and lets
// the episode proceed.
func (a *AudioManager) SkipAd() error {
	switch a.machine.State() {
	case lifecycle.StateShowing:
		if err := a.machine.Skip(); err != nil {
			return err
		}
	case lifecycle.StateLoading, lifecycle.StateReady:
		if err := a.machine.Cancel(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("no audio ad to skip")
	}

	a.playState = playStateIdle
	a.emit(Event{Kind: KindSkipped, Reason: SkipReasonUserSkip})
	a.cfg.Listener.skipped(SkipReasonUserSkip)
	a.proceed()
	return nil
}

// beginEpisode abandons whatever the previous episode left behind and arms
// the proceed guarantee for the new one.
func (a *AudioManager) beginEpisode(episodeID string) {
	switch a.machine.State() {
	case lifecycle.StateShowing:
		// A new episode while an ad still plays tears the ad down
		if err := a.machine.Skip(); err != nil {
			logrus.Warnf("failed to skip stale audio ad: %v", err)
		}
	case lifecycle.StateLoading, lifecycle.StateReady:
		if err := a.machine.Cancel(); err != nil {
			logrus.Warnf("failed to cancel stale audio ad: %v", err)
		}
	}

	a.episodeID = episodeID
	a.proceeded = false
	a.playState = playStateIdle
}

// proceed releases playback to the content exactly once per episode start.
func (a *AudioManager) proceed() {
	if a.proceeded {
		return
	}
	a.proceeded = true

	if a.cfg.Playback != nil {
		a.cfg.Playback.ProceedWithContent(a.episodeID)
	}
}

func (a *AudioManager) emit(ev Event) {
	ev.Format = provider.FormatAudio
	if ev.AdUnit == "" {
		ev.AdUnit = a.cfg.AdUnit
	}
	ev.At = a.cfg.Clock.Now()
	if a.cfg.Sink != nil {
		a.cfg.Sink.Record(ev)
	}
}

func (a *AudioManager) onLoaded() {
	a.emit(Event{Kind: KindFill, Duration: a.cfg.Clock.Now().Sub(a.machine.RequestedAt())})
	a.cfg.Listener.loaded()

	if err := a.PlayAd(); err != nil {
		logrus.Warnf("audio ad failed to start: %v", err)
		a.proceed()
	}
}

func (a *AudioManager) onLoadFailed(err error) {
	if errors.Is(err, provider.ErrNoFill) {
		a.emit(Event{Kind: KindNoFill})
	} else {
		a.emit(Event{Kind: KindError, Op: "load", Err: err})
	}
	a.cfg.Listener.errored(&ProviderError{Format: provider.FormatAudio, Op: "load", Err: err})

	// Fail open: the episode never waits for a second attempt
	a.proceed()
}

func (a *AudioManager) onShowStarted() {
	a.playState = playStatePlaying

	// The cadence is consumed when the ad audibly starts, not when it
	// loads, so a failed start costs the listener nothing
	a.cfg.Engine.RecordAudioAdPlayed(context.Background())

	a.emit(Event{Kind: KindStarted})
	a.emit(Event{Kind: KindImpression})
	a.cfg.Listener.started()
}

func (a *AudioManager) onCompleted() {
	a.playState = playStateIdle
	a.emit(Event{Kind: KindCompleted})
	a.cfg.Listener.completed()
	a.proceed()
}

func (a *AudioManager) onShowFailed(err error) {
	a.playState = playStateIdle
	a.emit(Event{Kind: KindError, Op: "show", Err: err})
	a.cfg.Listener.errored(&ProviderError{Format: provider.FormatAudio, Op: "show", Err: err})
	a.proceed()
}

func (a *AudioManager) onContentPause() {
	if a.cfg.Playback != nil {
		a.cfg.Playback.PauseContent()
	}
}

func (a *AudioManager) onContentResume() {
	a.proceed()
}
