package ads

import (
	"context"
	"errors"

	"github.com/AccelByte/extend-ads-policy/pkg/clock"
	"github.com/AccelByte/extend-ads-policy/pkg/lifecycle"
	"github.com/AccelByte/extend-ads-policy/pkg/policy"
	"github.com/AccelByte/extend-ads-policy/pkg/provider"
	"github.com/sirupsen/logrus"
)

// DefaultSurface is where full-screen ads present themselves.
const DefaultSurface = "main"

// InterstitialManagerConfig wires an interstitial manager to its
// collaborators.
type InterstitialManagerConfig struct {
	AdUnit   string
	Surface  string
	Engine   *policy.Engine
	Provider provider.Provider
	Clock    clock.Clock
	Sink     Sink
	Listener InterstitialListener

	// Dispatch serializes backend callbacks onto the control goroutine.
	Dispatch func(func())
}

// InterstitialManager keeps one interstitial warm and shows it when the
// policy allows. It is confined to the control goroutine.
type InterstitialManager struct {
	cfg     InterstitialManagerConfig
	machine *lifecycle.Machine
}

// NewInterstitialManager creates an interstitial manager with an idle
// machine.
func NewInterstitialManager(cfg InterstitialManagerConfig) (*InterstitialManager, error) {
	if cfg.Surface == "" {
		cfg.Surface = DefaultSurface
	}

	m := &InterstitialManager{cfg: cfg}

	machine, err := lifecycle.New(lifecycle.Config{
		Format:   provider.FormatInterstitial,
		AdUnit:   cfg.AdUnit,
		Provider: cfg.Provider,
		Clock:    cfg.Clock,
		Dispatch: cfg.Dispatch,
		Events: lifecycle.Events{
			OnLoaded:      m.onLoaded,
			OnLoadFailed:  m.onLoadFailed,
			OnShowStarted: m.onShowStarted,
			OnClicked:     m.onClicked,
			OnDismissed:   m.onDismissed,
			OnShowFailed:  m.onShowFailed,
		},
	})
	if err != nil {
		return nil, err
	}

	m.machine = machine
	return m, nil
}

// State returns the lifecycle state of the current instance.
func (m *InterstitialManager) State() lifecycle.State {
	return m.machine.State()
}

// Preload warms the next interstitial. Safe to call repeatedly: a load in
// flight or an ad already waiting makes it a no-op. The policy gate applies
// here too: a load issued while the session cap or minimum interval denies
// could never be shown, so the request is not spent. Skips are silent;
// there was no opportunity to report.
func (m *InterstitialManager) Preload(adContext string) {
	switch m.machine.State() {
	case lifecycle.StateLoading, lifecycle.StateReady:
		logrus.Debugf("interstitial preload skipped: already %s", m.machine.State())
		return
	case lifecycle.StateShowing:
		return
	}

	if !m.cfg.Engine.InterstitialEnabled() {
		logrus.Debugf("interstitial preload skipped: format disabled")
		return
	}

	if !m.cfg.Engine.CanShowInterstitial(m.cfg.Clock.Now()) {
		logrus.Debugf("interstitial preload skipped: policy denies a show")
		return
	}

	m.emit(Event{Kind: KindRequest, Context: adContext})

	if err := m.machine.Request(lifecycle.RequestInfo{Context: adContext}); err != nil {
		logrus.Warnf("interstitial preload failed to start: %v", err)
	}
}

// TryShow shows the preloaded interstitial if policy allows it right now.
// It reports whether a show started and, if not, why the moment was
// skipped. A skip for lack of a loaded ad kicks off a preload so the next
// moment finds one waiting.
func (m *InterstitialManager) TryShow(adContext string) (bool, SkipReason) {
	now := m.cfg.Clock.Now()

	m.emit(Event{Kind: KindOpportunity, Context: adContext})

	if !m.cfg.Engine.InterstitialEnabled() {
		return false, m.skip(adContext, SkipReasonDisabled)
	}

	if !m.cfg.Engine.CanShowInterstitial(now) {
		return false, m.skip(adContext, SkipReasonFrequencyCap)
	}

	if m.machine.State() != lifecycle.StateReady || m.machine.ShowPending() {
		reason := m.skip(adContext, SkipReasonNotLoaded)
		m.Preload(adContext)
		return false, reason
	}

	if err := m.machine.Show(m.cfg.Surface); err != nil {
		logrus.Warnf("interstitial show failed to start: %v", err)
		return false, m.skip(adContext, SkipReasonNotLoaded)
	}

	return true, ""
}

// Cancel abandons any instance that is not on screen.
func (m *InterstitialManager) Cancel() {
	if m.machine.State() == lifecycle.StateShowing {
		return
	}
	if err := m.machine.Cancel(); err != nil {
		logrus.Warnf("interstitial cancel failed: %v", err)
	}
}

// skipOpportunity records a moment that was evaluated and skipped before
// the show path ran.
func (m *InterstitialManager) skipOpportunity(adContext string, reason SkipReason) SkipReason {
	m.emit(Event{Kind: KindOpportunity, Context: adContext})
	return m.skip(adContext, reason)
}

func (m *InterstitialManager) skip(adContext string, reason SkipReason) SkipReason {
	m.emit(Event{Kind: KindSkipped, Context: adContext, Reason: reason})
	m.cfg.Listener.skipped(reason)
	return reason
}

func (m *InterstitialManager) emit(ev Event) {
	ev.Format = provider.FormatInterstitial
	if ev.AdUnit == "" {
		ev.AdUnit = m.cfg.AdUnit
	}
	ev.At = m.cfg.Clock.Now()
	if m.cfg.Sink != nil {
		m.cfg.Sink.Record(ev)
	}
}

func (m *InterstitialManager) onLoaded() {
	m.emit(Event{Kind: KindFill, Duration: m.cfg.Clock.Now().Sub(m.machine.RequestedAt())})
	m.cfg.Listener.loaded()
}

func (m *InterstitialManager) onLoadFailed(err error) {
	if errors.Is(err, provider.ErrNoFill) {
		m.emit(Event{Kind: KindNoFill})
	} else {
		m.emit(Event{Kind: KindError, Op: "load", Err: err})
	}
	m.cfg.Listener.failed(&ProviderError{Format: provider.FormatInterstitial, Op: "load", Err: err})
}

func (m *InterstitialManager) onShowStarted() {
	// The impression counts from display start
	m.cfg.Engine.RecordInterstitialShown(context.Background(), m.cfg.Clock.Now())
	m.emit(Event{Kind: KindImpression})
	m.cfg.Listener.showStarted()
}

func (m *InterstitialManager) onClicked() {
	m.emit(Event{Kind: KindClick})
}

func (m *InterstitialManager) onDismissed() {
	m.emit(Event{Kind: KindClose})
	m.cfg.Listener.closed()
	// Warm the next one while the session is alive
	m.Preload("after_dismiss")
}

func (m *InterstitialManager) onShowFailed(err error) {
	m.emit(Event{Kind: KindError, Op: "show", Err: err})
	m.cfg.Listener.failed(&ProviderError{Format: provider.FormatInterstitial, Op: "show", Err: err})
}
