package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/AccelByte/extend-ads-policy/pkg/policy"
)

// SessionStore is a mock implementation of policy.SessionStore for testing
type SessionStore struct {
	// GetSessionStateFunc is called when GetSessionState is invoked
	GetSessionStateFunc func(ctx context.Context, profileID string) (*policy.SessionState, error)

	// UpdateSessionStateFunc is called when UpdateSessionState is invoked
	UpdateSessionStateFunc func(ctx context.Context, profileID string, state *policy.SessionState) error

	// DeleteSessionStateFunc is called when DeleteSessionState is invoked
	DeleteSessionStateFunc func(ctx context.Context, profileID string) error

	// Default data
	States       map[string]*policy.SessionState
	DefaultError error

	// Call tracking
	GetCalls    []string
	UpdateCalls []UpdateSessionStateCall
	DeleteCalls []string
}

// UpdateSessionStateCall tracks parameters for UpdateSessionState calls
type UpdateSessionStateCall struct {
	ProfileID string
	State     policy.SessionState
}

// NewSessionStore creates a new mock SessionStore with defaults
func NewSessionStore() *SessionStore {
	return &SessionStore{
		States: make(map[string]*policy.SessionState),
	}
}

// GetSessionState returns the stored state, or a fresh one on miss
func (m *SessionStore) GetSessionState(ctx context.Context, profileID string) (*policy.SessionState, error) {
	// Track call
	m.GetCalls = append(m.GetCalls, profileID)

	// Use custom function if provided
	if m.GetSessionStateFunc != nil {
		return m.GetSessionStateFunc(ctx, profileID)
	}

	// Use default behavior
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	if state, ok := m.States[profileID]; ok {
		copied := *state
		return &copied, nil
	}
	return policy.NewSessionState(time.Now()), nil
}

// UpdateSessionState stores a copy of the state
func (m *SessionStore) UpdateSessionState(ctx context.Context, profileID string, state *policy.SessionState) error {
	// Track call
	m.UpdateCalls = append(m.UpdateCalls, UpdateSessionStateCall{
		ProfileID: profileID,
		State:     *state,
	})

	// Use custom function if provided
	if m.UpdateSessionStateFunc != nil {
		return m.UpdateSessionStateFunc(ctx, profileID, state)
	}

	// Use default behavior
	if m.DefaultError != nil {
		return m.DefaultError
	}

	copied := *state
	m.States[profileID] = &copied
	return nil
}

// DeleteSessionState removes the stored state
func (m *SessionStore) DeleteSessionState(ctx context.Context, profileID string) error {
	// Track call
	m.DeleteCalls = append(m.DeleteCalls, profileID)

	// Use custom function if provided
	if m.DeleteSessionStateFunc != nil {
		return m.DeleteSessionStateFunc(ctx, profileID)
	}

	// Use default behavior
	if m.DefaultError != nil {
		return m.DefaultError
	}

	delete(m.States, profileID)
	return nil
}

// Reset clears all call tracking
func (m *SessionStore) Reset() {
	m.GetCalls = nil
	m.UpdateCalls = nil
	m.DeleteCalls = nil
}

// WithState seeds a profile's state
func (m *SessionStore) WithState(profileID string, state *policy.SessionState) *SessionStore {
	copied := *state
	m.States[profileID] = &copied
	return m
}

// WithError sets the default error to return
func (m *SessionStore) WithError(err error) *SessionStore {
	m.DefaultError = err
	return m
}

// LastUpdated returns the most recently persisted state for a profile
func (m *SessionStore) LastUpdated(profileID string) *policy.SessionState {
	for i := len(m.UpdateCalls) - 1; i >= 0; i-- {
		if m.UpdateCalls[i].ProfileID == profileID {
			state := m.UpdateCalls[i].State
			return &state
		}
	}
	return nil
}

// AssertUpdated verifies UpdateSessionState was called for a profile
func (m *SessionStore) AssertUpdated(profileID string) error {
	for _, call := range m.UpdateCalls {
		if call.ProfileID == profileID {
			return nil
		}
	}
	return fmt.Errorf("expected UpdateSessionState called with profileID=%s, but got calls: %v",
		profileID, m.UpdateCalls)
}

// ConfigStore is a mock implementation of policy.ConfigStore for testing
type ConfigStore struct {
	// GetOverridesFunc is called when GetOverrides is invoked
	GetOverridesFunc func(ctx context.Context, profileID string) (*policy.Overrides, error)

	// UpdateOverridesFunc is called when UpdateOverrides is invoked
	UpdateOverridesFunc func(ctx context.Context, profileID string, overrides *policy.Overrides) error

	// DeleteOverridesFunc is called when DeleteOverrides is invoked
	DeleteOverridesFunc func(ctx context.Context, profileID string) error

	// Default data
	Overrides    map[string]*policy.Overrides
	DefaultError error

	// Call tracking
	GetCalls    []string
	UpdateCalls []string
	DeleteCalls []string
}

// NewConfigStore creates a new mock ConfigStore with defaults
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		Overrides: make(map[string]*policy.Overrides),
	}
}

// GetOverrides returns the stored overrides, or an empty document on miss
func (m *ConfigStore) GetOverrides(ctx context.Context, profileID string) (*policy.Overrides, error) {
	m.GetCalls = append(m.GetCalls, profileID)

	if m.GetOverridesFunc != nil {
		return m.GetOverridesFunc(ctx, profileID)
	}

	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	if overrides, ok := m.Overrides[profileID]; ok {
		copied := *overrides
		return &copied, nil
	}
	return &policy.Overrides{}, nil
}

// UpdateOverrides stores a copy of the overrides
func (m *ConfigStore) UpdateOverrides(ctx context.Context, profileID string, overrides *policy.Overrides) error {
	m.UpdateCalls = append(m.UpdateCalls, profileID)

	if m.UpdateOverridesFunc != nil {
		return m.UpdateOverridesFunc(ctx, profileID, overrides)
	}

	if m.DefaultError != nil {
		return m.DefaultError
	}

	copied := *overrides
	m.Overrides[profileID] = &copied
	return nil
}

// DeleteOverrides removes the stored overrides
func (m *ConfigStore) DeleteOverrides(ctx context.Context, profileID string) error {
	m.DeleteCalls = append(m.DeleteCalls, profileID)

	if m.DeleteOverridesFunc != nil {
		return m.DeleteOverridesFunc(ctx, profileID)
	}

	if m.DefaultError != nil {
		return m.DefaultError
	}

	delete(m.Overrides, profileID)
	return nil
}

// WithOverrides seeds a profile's override document
func (m *ConfigStore) WithOverrides(profileID string, overrides *policy.Overrides) *ConfigStore {
	copied := *overrides
	m.Overrides[profileID] = &copied
	return m
}

// WithError sets the default error to return
func (m *ConfigStore) WithError(err error) *ConfigStore {
	m.DefaultError = err
	return m
}

// StaticConfig is a fixed-value policy.ConfigProvider for testing
type StaticConfig struct {
	Config policy.Config
}

// NewStaticConfig wraps a config value as a provider
func NewStaticConfig(cfg policy.Config) *StaticConfig {
	return &StaticConfig{Config: cfg}
}

// Effective returns the wrapped config
func (s *StaticConfig) Effective() policy.Config {
	return s.Config
}
