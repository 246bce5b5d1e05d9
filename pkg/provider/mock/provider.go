package mock

import (
	"fmt"

	"github.com/AccelByte/extend-ads-policy/pkg/provider"
)

// Provider is a mock implementation of provider.Provider for testing
type Provider struct {
	// LoadFunc allows tests to customize Load behavior
	LoadFunc func(req provider.Request, cb provider.LoadCallbacks)

	// ShowFunc allows tests to customize Show behavior
	ShowFunc func(h provider.Handle, surface string, cb provider.ShowCallbacks)

	// ProviderName is the name reported by Name
	ProviderName string

	// AutoLoad delivers OnLoaded synchronously with a fresh Ad handle.
	// When false, Load only records the call and the test drives the
	// recorded callbacks itself.
	AutoLoad bool

	// LoadError, when set, makes Load report a failure
	LoadError error

	// NoFill, when set, makes Load report no fill
	NoFill bool

	// AutoShow delivers OnStarted synchronously when Show is called
	AutoShow bool

	// Call tracking
	LoadCalls    []LoadCall
	ShowCalls    []ShowCall
	PauseCalls   []provider.Handle
	ResumeCalls  []provider.Handle
	DestroyCalls []provider.Handle

	nextID int
}

// LoadCall records a call to Load
type LoadCall struct {
	Request   provider.Request
	Callbacks provider.LoadCallbacks
}

// ShowCall records a call to Show
type ShowCall struct {
	Handle    provider.Handle
	Surface   string
	Callbacks provider.ShowCallbacks
}

// Ad is the handle type handed out by the mock
type Ad struct {
	ID   int
	Unit string
}

// NewProvider creates a new mock provider with default behavior
func NewProvider() *Provider {
	return &Provider{
		ProviderName: "mock",
	}
}

// Name returns the mock provider name
func (m *Provider) Name() string {
	return m.ProviderName
}

// Load implements provider.Provider
func (m *Provider) Load(req provider.Request, cb provider.LoadCallbacks) {
	// Track call
	m.LoadCalls = append(m.LoadCalls, LoadCall{Request: req, Callbacks: cb})

	// Use custom function if provided
	if m.LoadFunc != nil {
		m.LoadFunc(req, cb)
		return
	}

	// Use scripted behavior
	switch {
	case m.LoadError != nil:
		if cb.OnFailed != nil {
			cb.OnFailed(m.LoadError)
		}
	case m.NoFill:
		if cb.OnNoFill != nil {
			cb.OnNoFill()
		}
	case m.AutoLoad:
		m.nextID++
		if cb.OnLoaded != nil {
			cb.OnLoaded(&Ad{ID: m.nextID, Unit: req.AdUnit})
		}
	}
}

// Show implements provider.Provider
func (m *Provider) Show(h provider.Handle, surface string, cb provider.ShowCallbacks) {
	// Track call
	m.ShowCalls = append(m.ShowCalls, ShowCall{Handle: h, Surface: surface, Callbacks: cb})

	// Use custom function if provided
	if m.ShowFunc != nil {
		m.ShowFunc(h, surface, cb)
		return
	}

	if m.AutoShow && cb.OnStarted != nil {
		cb.OnStarted()
	}
}

// Pause implements provider.Provider
func (m *Provider) Pause(h provider.Handle) {
	// Track call
	m.PauseCalls = append(m.PauseCalls, h)
}

// Resume implements provider.Provider
func (m *Provider) Resume(h provider.Handle) {
	// Track call
	m.ResumeCalls = append(m.ResumeCalls, h)
}

// Destroy implements provider.Provider
func (m *Provider) Destroy(h provider.Handle) {
	// Track call
	m.DestroyCalls = append(m.DestroyCalls, h)
}

// Reset clears all tracked calls and scripted behavior
func (m *Provider) Reset() {
	m.LoadFunc = nil
	m.ShowFunc = nil
	m.AutoLoad = false
	m.LoadError = nil
	m.NoFill = false
	m.AutoShow = false
	m.LoadCalls = nil
	m.ShowCalls = nil
	m.PauseCalls = nil
	m.ResumeCalls = nil
	m.DestroyCalls = nil
	m.nextID = 0
}

// WithAutoLoad configures the mock to fill every load immediately
func (m *Provider) WithAutoLoad() *Provider {
	m.AutoLoad = true
	return m
}

// WithAutoShow configures the mock to start every show immediately
func (m *Provider) WithAutoShow() *Provider {
	m.AutoShow = true
	return m
}

// WithLoadError configures the mock to fail every load
func (m *Provider) WithLoadError(err error) *Provider {
	m.LoadError = err
	m.NoFill = false
	return m
}

// WithNoFill configures the mock to answer every load with no fill
func (m *Provider) WithNoFill() *Provider {
	m.NoFill = true
	m.LoadError = nil
	return m
}

// LastLoad returns the most recent load call, or nil if none happened
func (m *Provider) LastLoad() *LoadCall {
	if len(m.LoadCalls) == 0 {
		return nil
	}
	return &m.LoadCalls[len(m.LoadCalls)-1]
}

// LastShow returns the most recent show call, or nil if none happened
func (m *Provider) LastShow() *ShowCall {
	if len(m.ShowCalls) == 0 {
		return nil
	}
	return &m.ShowCalls[len(m.ShowCalls)-1]
}

// AssertLoadCount checks that the expected number of loads happened
func (m *Provider) AssertLoadCount(expected int) error {
	if len(m.LoadCalls) != expected {
		return fmt.Errorf("expected %d load calls, got %d", expected, len(m.LoadCalls))
	}
	return nil
}

// AssertDestroyed checks that a specific handle was destroyed
func (m *Provider) AssertDestroyed(h provider.Handle) error {
	for _, d := range m.DestroyCalls {
		if d == h {
			return nil
		}
	}
	return fmt.Errorf("handle %v was not destroyed", h)
}
