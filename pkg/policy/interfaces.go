// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package policy

import (
	"context"
)

// Storage interfaces for the two persistence namespaces the policy owns.
// Having interfaces here allows easier mocking for unit tests and swapping
// storage backends (Redis for shared deployments, SQLite for single-node).

// SessionStore persists per-profile ad policy counters. A missing profile
// must yield a fresh default state, not an error.
type SessionStore interface {
	GetSessionState(ctx context.Context, profileID string) (*SessionState, error)
	UpdateSessionState(ctx context.Context, profileID string, state *SessionState) error
	DeleteSessionState(ctx context.Context, profileID string) error
}

// ConfigStore persists admin-set config overrides. A missing profile must
// yield empty overrides, not an error.
type ConfigStore interface {
	GetOverrides(ctx context.Context, profileID string) (*Overrides, error)
	UpdateOverrides(ctx context.Context, profileID string, overrides *Overrides) error
	DeleteOverrides(ctx context.Context, profileID string) error
}

// ConfigProvider yields the effective policy config at decision time.
type ConfigProvider interface {
	Effective() Config
}
