// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL is the default TTL for session state in Redis (30 days).
	// Counters for a profile idle that long may start over.
	DefaultTTL = 30 * 24 * time.Hour

	// sessionStateKeyPrefix is the prefix for all session state keys
	sessionStateKeyPrefix = "ads_policy:session_state:"
	// configOverridesKeyPrefix is the prefix for all config override keys
	configOverridesKeyPrefix = "ads_policy:config:"
)

// RedisSessionStore implements SessionStore using Redis.
type RedisSessionStore struct {
	client *redis.Client
	cfg    RedisSessionStoreConfig
}

type RedisSessionStoreConfig struct {
	// TTL overrides DefaultTTL when positive.
	TTL time.Duration
}

// NewRedisSessionStore creates a new Redis-backed session state store.
func NewRedisSessionStore(
	client *redis.Client,
	cfg RedisSessionStoreConfig,
) *RedisSessionStore {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &RedisSessionStore{
		client: client,
		cfg:    cfg,
	}
}

// makeSessionStateKey creates a Redis key for a profile
func makeSessionStateKey(profileID string) string {
	return fmt.Sprintf("%s%s", sessionStateKeyPrefix, profileID)
}

// GetSessionState retrieves the session state for a profile from Redis
func (r *RedisSessionStore) GetSessionState(ctx context.Context, profileID string) (*SessionState, error) {
	key := makeSessionStateKey(profileID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Profile doesn't exist, return new state
		logrus.Infof("no existing session state for profile %s, returning new state", profileID)
		return NewSessionState(time.Now()), nil
	}
	if err != nil {
		logrus.Errorf("failed to get session state for profile %s: %v", profileID, err)
		return nil, fmt.Errorf("failed to get session state: %w", err)
	}

	var state SessionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		logrus.Errorf("failed to unmarshal session state for profile %s: %v", profileID, err)
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}

	logrus.Debugf("retrieved session state for profile %s", profileID)
	return &state, nil
}

// UpdateSessionState updates the session state for a profile in Redis
func (r *RedisSessionStore) UpdateSessionState(ctx context.Context, profileID string, state *SessionState) error {
	key := makeSessionStateKey(profileID)

	data, err := json.Marshal(state)
	if err != nil {
		logrus.Errorf("failed to marshal session state for profile %s: %v", profileID, err)
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.cfg.TTL).Err(); err != nil {
		logrus.Errorf("failed to set session state for profile %s: %v", profileID, err)
		return fmt.Errorf("failed to set session state: %w", err)
	}

	logrus.Debugf("updated session state for profile %s with TTL %v", profileID, r.cfg.TTL)
	return nil
}

// DeleteSessionState deletes the session state for a profile from Redis
func (r *RedisSessionStore) DeleteSessionState(ctx context.Context, profileID string) error {
	key := makeSessionStateKey(profileID)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		logrus.Errorf("failed to delete session state for profile %s: %v", profileID, err)
		return fmt.Errorf("failed to delete session state: %w", err)
	}

	logrus.Infof("deleted session state for profile %s", profileID)
	return nil
}

// RedisConfigStore implements ConfigStore using Redis. Overrides are stored
// without a TTL so an admin-set value never silently expires.
type RedisConfigStore struct {
	client *redis.Client
	cfg    RedisConfigStoreConfig
}

type RedisConfigStoreConfig struct{}

// NewRedisConfigStore creates a new Redis-backed config override store.
func NewRedisConfigStore(
	client *redis.Client,
	cfg RedisConfigStoreConfig,
) *RedisConfigStore {
	return &RedisConfigStore{
		client: client,
		cfg:    cfg,
	}
}

// makeConfigOverridesKey creates a Redis key for a profile
func makeConfigOverridesKey(profileID string) string {
	return fmt.Sprintf("%s%s", configOverridesKeyPrefix, profileID)
}

// GetOverrides retrieves the config overrides for a profile from Redis
func (r *RedisConfigStore) GetOverrides(ctx context.Context, profileID string) (*Overrides, error) {
	key := makeConfigOverridesKey(profileID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// No overrides set, defaults apply
		return &Overrides{}, nil
	}
	if err != nil {
		logrus.Errorf("failed to get config overrides for profile %s: %v", profileID, err)
		return nil, fmt.Errorf("failed to get config overrides: %w", err)
	}

	var overrides Overrides
	if err := json.Unmarshal([]byte(data), &overrides); err != nil {
		logrus.Errorf("failed to unmarshal config overrides for profile %s: %v", profileID, err)
		return nil, fmt.Errorf("failed to unmarshal config overrides: %w", err)
	}

	logrus.Debugf("retrieved config overrides for profile %s", profileID)
	return &overrides, nil
}

// UpdateOverrides updates the config overrides for a profile in Redis
func (r *RedisConfigStore) UpdateOverrides(ctx context.Context, profileID string, overrides *Overrides) error {
	key := makeConfigOverridesKey(profileID)

	data, err := json.Marshal(overrides)
	if err != nil {
		logrus.Errorf("failed to marshal config overrides for profile %s: %v", profileID, err)
		return fmt.Errorf("failed to marshal config overrides: %w", err)
	}

	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		logrus.Errorf("failed to set config overrides for profile %s: %v", profileID, err)
		return fmt.Errorf("failed to set config overrides: %w", err)
	}

	logrus.Infof("updated config overrides for profile %s", profileID)
	return nil
}

// DeleteOverrides deletes the config overrides for a profile from Redis
func (r *RedisConfigStore) DeleteOverrides(ctx context.Context, profileID string) error {
	key := makeConfigOverridesKey(profileID)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		logrus.Errorf("failed to delete config overrides for profile %s: %v", profileID, err)
		return fmt.Errorf("failed to delete config overrides: %w", err)
	}

	logrus.Infof("deleted config overrides for profile %s", profileID)
	return nil
}
