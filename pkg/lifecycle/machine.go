// Package lifecycle drives individual ad instances through their load and
// display states.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/AccelByte/extend-ads-policy/pkg/clock"
	"github.com/AccelByte/extend-ads-policy/pkg/provider"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of a single ad instance.
type State string

const (
	StateIdle      State = "IDLE"
	StateLoading   State = "LOADING"
	StateReady     State = "READY"
	StateShowing   State = "SHOWING"
	StateCompleted State = "COMPLETED"
	StateError     State = "ERROR"
)

// Terminal reports whether the state is a resting state that allows a new request.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError
}

// ErrLoadTimeout is reported when a load does not finish within the
// configured timeout.
var ErrLoadTimeout = errors.New("ad load timed out")

// Events receives machine transitions. All callbacks run on the dispatch
// goroutine; nil fields are skipped.
type Events struct {
	OnLoaded     func()
	OnLoadFailed func(err error)

	OnShowStarted func()
	OnClicked     func()
	OnDismissed   func()
	OnCompleted   func()
	OnShowFailed  func(err error)

	OnContentPauseRequested  func()
	OnContentResumeRequested func()
}

// Config wires a machine to its backend and its owner's loop.
type Config struct {
	Format   provider.Format
	AdUnit   string
	Provider provider.Provider
	Clock    clock.Clock

	// LoadTimeout bounds how long a load may stay in flight. Zero disables
	// the timeout edge.
	LoadTimeout time.Duration

	// Dispatch serializes provider callbacks and timer fires onto the
	// owner's goroutine. When nil, callbacks run inline.
	Dispatch func(func())

	Events Events
}

// RequestInfo carries the per-request fields of a load.
type RequestInfo struct {
	Context      string
	EpisodeID    string
	CustomParams map[string]string
}

// Machine drives one ad instance at a time through load, show and teardown.
// It is confined to the dispatch goroutine: every method must be called from
// there, and every event is delivered there.
//
// Each Request starts a new instance and invalidates the previous one.
// Results belonging to an earlier instance, including a timeout that fired
// just before its load finished, are recognized by token and discarded.
type Machine struct {
	cfg Config

	state       State
	token       uint64
	handle      provider.Handle
	timer       clock.Timer
	showPending bool
	requestedAt time.Time
}

// New creates a machine in the IDLE state.
func New(cfg Config) (*Machine, error) {
	if cfg.Format == "" {
		return nil, fmt.Errorf("lifecycle machine requires a format")
	}
	if cfg.AdUnit == "" {
		return nil, fmt.Errorf("lifecycle machine requires an ad unit")
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("lifecycle machine requires a provider")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("lifecycle machine requires a clock")
	}

	return &Machine{
		cfg:   cfg,
		state: StateIdle,
	}, nil
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	return m.state
}

// ShowPending reports whether a show has been issued but the backend has not
// started displaying yet.
func (m *Machine) ShowPending() bool {
	return m.showPending
}

// RequestedAt returns when the current instance started loading.
func (m *Machine) RequestedAt() time.Time {
	return m.requestedAt
}

// SetLoadTimeout changes the timeout applied to subsequent requests. An
// in-flight instance keeps the timeout it started with.
func (m *Machine) SetLoadTimeout(d time.Duration) {
	m.cfg.LoadTimeout = d
}

// Request starts loading a new ad instance. Valid from IDLE and from the
// terminal states.
func (m *Machine) Request(info RequestInfo) error {
	switch m.state {
	case StateIdle, StateCompleted, StateError:
	default:
		return fmt.Errorf("cannot request %s ad while %s", m.cfg.Format, m.state)
	}

	m.token++
	token := m.token
	m.state = StateLoading
	m.handle = nil
	m.showPending = false
	m.requestedAt = m.cfg.Clock.Now()

	logrus.Debugf("%s ad load requested: unit=%s, context=%s", m.cfg.Format, m.cfg.AdUnit, info.Context)

	if m.cfg.LoadTimeout > 0 {
		m.timer = m.cfg.Clock.Schedule(m.cfg.LoadTimeout, func() {
			m.dispatch(func() { m.onLoadTimeout(token) })
		})
	}

	m.cfg.Provider.Load(provider.Request{
		Format:       m.cfg.Format,
		AdUnit:       m.cfg.AdUnit,
		Context:      info.Context,
		EpisodeID:    info.EpisodeID,
		CustomParams: info.CustomParams,
	}, provider.LoadCallbacks{
		OnLoaded: func(h provider.Handle) {
			m.dispatch(func() { m.onLoaded(token, h) })
		},
		OnNoFill: func() {
			m.dispatch(func() { m.onLoadFailed(token, provider.ErrNoFill) })
		},
		OnFailed: func(err error) {
			m.dispatch(func() { m.onLoadFailed(token, err) })
		},
	})

	return nil
}

// Show asks the backend to display the loaded ad. Valid only from READY.
func (m *Machine) Show(surface string) error {
	if m.state != StateReady {
		return fmt.Errorf("cannot show %s ad while %s", m.cfg.Format, m.state)
	}
	if m.showPending {
		return fmt.Errorf("%s ad show already in progress", m.cfg.Format)
	}

	m.showPending = true
	token := m.token

	logrus.Debugf("%s ad show requested: unit=%s, surface=%s", m.cfg.Format, m.cfg.AdUnit, surface)

	m.cfg.Provider.Show(m.handle, surface, provider.ShowCallbacks{
		OnStarted: func() {
			m.dispatch(func() { m.onShowStarted(token) })
		},
		OnClicked: func() {
			m.dispatch(func() { m.onClicked(token) })
		},
		OnDismissed: func() {
			m.dispatch(func() { m.onDismissed(token) })
		},
		OnCompleted: func() {
			m.dispatch(func() { m.onCompleted(token) })
		},
		OnFailed: func(err error) {
			m.dispatch(func() { m.onShowFailed(token, err) })
		},
		OnContentPauseRequested: func() {
			m.dispatch(func() { m.onContentPause(token) })
		},
		OnContentResumeRequested: func() {
			m.dispatch(func() { m.onContentResume(token) })
		},
	})

	return nil
}

// Pause relays a pause to the backend. Valid only while showing.
func (m *Machine) Pause() error {
	if m.state != StateShowing {
		return fmt.Errorf("cannot pause %s ad while %s", m.cfg.Format, m.state)
	}
	m.cfg.Provider.Pause(m.handle)
	return nil
}

// Resume relays a resume to the backend. Valid only while showing.
func (m *Machine) Resume() error {
	if m.state != StateShowing {
		return fmt.Errorf("cannot resume %s ad while %s", m.cfg.Format, m.state)
	}
	m.cfg.Provider.Resume(m.handle)
	return nil
}

// Skip tears down a showing ad at the user's request and records the
// instance as completed. The handle is destroyed, which tells the backend
// to stop playback.
func (m *Machine) Skip() error {
	if m.state != StateShowing {
		return fmt.Errorf("cannot skip %s ad while %s", m.cfg.Format, m.state)
	}

	// Provider callbacks for this instance are dead from here on
	m.token++
	m.finish(StateCompleted)

	logrus.Debugf("%s ad skipped: unit=%s", m.cfg.Format, m.cfg.AdUnit)
	return nil
}

// Cancel abandons the current instance and returns to IDLE, destroying any
// loaded handle. A showing ad cannot be cancelled.
func (m *Machine) Cancel() error {
	if m.state == StateShowing {
		return fmt.Errorf("cannot cancel %s ad while showing", m.cfg.Format)
	}

	// Invalidate in-flight callbacks and timers for this instance
	m.token++
	m.cancelTimer()
	m.releaseHandle()
	m.showPending = false
	m.state = StateIdle

	logrus.Debugf("%s ad cancelled: unit=%s", m.cfg.Format, m.cfg.AdUnit)
	return nil
}

func (m *Machine) dispatch(fn func()) {
	if m.cfg.Dispatch != nil {
		m.cfg.Dispatch(fn)
		return
	}
	fn()
}

func (m *Machine) cancelTimer() {
	if m.timer != nil {
		m.timer.Cancel()
		m.timer = nil
	}
}

func (m *Machine) releaseHandle() {
	if m.handle != nil {
		m.cfg.Provider.Destroy(m.handle)
		m.handle = nil
	}
}

func (m *Machine) finish(to State) {
	m.cancelTimer()
	m.releaseHandle()
	m.showPending = false
	m.state = to
}

// showing reports whether display callbacks are expected right now, either
// on screen already or issued and not yet started.
func (m *Machine) showing() bool {
	return m.state == StateShowing || (m.state == StateReady && m.showPending)
}

func (m *Machine) onLoaded(token uint64, h provider.Handle) {
	if token != m.token || m.state != StateLoading {
		// A cancelled or timed-out instance; release the late arrival
		logrus.Debugf("%s ad loaded after its instance ended, discarding", m.cfg.Format)
		if h != nil {
			m.cfg.Provider.Destroy(h)
		}
		return
	}

	m.cancelTimer()
	m.handle = h
	m.state = StateReady

	logrus.Debugf("%s ad ready: unit=%s", m.cfg.Format, m.cfg.AdUnit)

	if m.cfg.Events.OnLoaded != nil {
		m.cfg.Events.OnLoaded()
	}
}

func (m *Machine) onLoadFailed(token uint64, err error) {
	if token != m.token || m.state != StateLoading {
		return
	}

	m.cancelTimer()
	m.state = StateError

	logrus.Debugf("%s ad load failed: unit=%s, err=%v", m.cfg.Format, m.cfg.AdUnit, err)

	if m.cfg.Events.OnLoadFailed != nil {
		m.cfg.Events.OnLoadFailed(err)
	}
}

func (m *Machine) onLoadTimeout(token uint64) {
	if token != m.token || m.state != StateLoading {
		return
	}

	m.timer = nil
	m.state = StateError

	logrus.Debugf("%s ad load timed out: unit=%s after %s", m.cfg.Format, m.cfg.AdUnit, m.cfg.LoadTimeout)

	if m.cfg.Events.OnLoadFailed != nil {
		m.cfg.Events.OnLoadFailed(ErrLoadTimeout)
	}
}

func (m *Machine) onShowStarted(token uint64) {
	if token != m.token || m.state != StateReady || !m.showPending {
		return
	}

	m.showPending = false
	m.state = StateShowing

	logrus.Debugf("%s ad showing: unit=%s", m.cfg.Format, m.cfg.AdUnit)

	if m.cfg.Events.OnShowStarted != nil {
		m.cfg.Events.OnShowStarted()
	}
}

func (m *Machine) onClicked(token uint64) {
	if token != m.token || !m.showing() {
		return
	}

	if m.cfg.Events.OnClicked != nil {
		m.cfg.Events.OnClicked()
	}
}

func (m *Machine) onDismissed(token uint64) {
	if token != m.token || !m.showing() {
		return
	}

	m.finish(StateCompleted)

	logrus.Debugf("%s ad dismissed: unit=%s", m.cfg.Format, m.cfg.AdUnit)

	if m.cfg.Events.OnDismissed != nil {
		m.cfg.Events.OnDismissed()
	}
}

func (m *Machine) onCompleted(token uint64) {
	if token != m.token || !m.showing() {
		return
	}

	m.finish(StateCompleted)

	logrus.Debugf("%s ad completed: unit=%s", m.cfg.Format, m.cfg.AdUnit)

	if m.cfg.Events.OnCompleted != nil {
		m.cfg.Events.OnCompleted()
	}
}

func (m *Machine) onShowFailed(token uint64, err error) {
	if token != m.token || !m.showing() {
		return
	}

	m.finish(StateError)

	logrus.Debugf("%s ad show failed: unit=%s, err=%v", m.cfg.Format, m.cfg.AdUnit, err)

	if m.cfg.Events.OnShowFailed != nil {
		m.cfg.Events.OnShowFailed(err)
	}
}

func (m *Machine) onContentPause(token uint64) {
	if token != m.token {
		return
	}

	if m.cfg.Events.OnContentPauseRequested != nil {
		m.cfg.Events.OnContentPauseRequested()
	}
}

func (m *Machine) onContentResume(token uint64) {
	if token != m.token {
		return
	}

	if m.cfg.Events.OnContentResumeRequested != nil {
		m.cfg.Events.OnContentResumeRequested()
	}
}
