// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package policy

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

func TestGetSessionState_NewProfile(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewRedisSessionStore(client, RedisSessionStoreConfig{})

	state, err := store.GetSessionState(ctx, "profile-123")
	if err != nil {
		t.Fatalf("GetSessionState() error = %v", err)
	}

	// Should return new state for a profile never seen before
	if state == nil {
		t.Fatal("GetSessionState() returned nil state")
	}

	// Check default values
	if state.SessionInterstitialCount != 0 {
		t.Errorf("SessionInterstitialCount = %d, expected 0", state.SessionInterstitialCount)
	}
	if state.EpisodeStartCount != 0 {
		t.Errorf("EpisodeStartCount = %d, expected 0", state.EpisodeStartCount)
	}
	if !state.LastInterstitialTime.IsZero() {
		t.Error("LastInterstitialTime should be zero for a new profile")
	}
	if state.SessionStartTime.IsZero() {
		t.Error("SessionStartTime should be stamped for a new profile")
	}
}

func TestGetSessionState_ExistingProfile(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewRedisSessionStore(client, RedisSessionStoreConfig{})
	profileID := "profile-456"

	expectedState := &SessionState{
		SessionStartTime:         time.Now().Add(-time.Hour),
		SessionInterstitialCount: 1,
		LastInterstitialTime:     time.Now().Add(-20 * time.Minute),
		EpisodeStartCount:        8,
		LastAudioAdEpisodeIndex:  6,
		LastActiveTime:           time.Now(),
	}

	// Manually insert into Redis
	data, _ := json.Marshal(expectedState)
	client.Set(ctx, makeSessionStateKey(profileID), data, DefaultTTL)

	state, err := store.GetSessionState(ctx, profileID)
	if err != nil {
		t.Fatalf("GetSessionState() error = %v", err)
	}

	if state.SessionInterstitialCount != expectedState.SessionInterstitialCount {
		t.Errorf("SessionInterstitialCount = %d, expected %d",
			state.SessionInterstitialCount, expectedState.SessionInterstitialCount)
	}
	if state.EpisodeStartCount != expectedState.EpisodeStartCount {
		t.Errorf("EpisodeStartCount = %d, expected %d",
			state.EpisodeStartCount, expectedState.EpisodeStartCount)
	}
	if state.LastAudioAdEpisodeIndex != expectedState.LastAudioAdEpisodeIndex {
		t.Errorf("LastAudioAdEpisodeIndex = %d, expected %d",
			state.LastAudioAdEpisodeIndex, expectedState.LastAudioAdEpisodeIndex)
	}
}

func TestUpdateSessionState(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewRedisSessionStore(client, RedisSessionStoreConfig{})
	profileID := "profile-789"

	state := &SessionState{
		SessionStartTime:         time.Now(),
		SessionInterstitialCount: 2,
		EpisodeStartCount:        5,
		LastActiveTime:           time.Now(),
	}

	if err := store.UpdateSessionState(ctx, profileID, state); err != nil {
		t.Fatalf("UpdateSessionState() error = %v", err)
	}

	// Verify it was saved
	data, err := client.Get(ctx, makeSessionStateKey(profileID)).Result()
	if err != nil {
		t.Fatalf("failed to get key from Redis: %v", err)
	}

	var retrieved SessionState
	if err := json.Unmarshal([]byte(data), &retrieved); err != nil {
		t.Fatalf("failed to unmarshal state: %v", err)
	}

	if retrieved.SessionInterstitialCount != state.SessionInterstitialCount {
		t.Errorf("SessionInterstitialCount = %d, expected %d",
			retrieved.SessionInterstitialCount, state.SessionInterstitialCount)
	}
	if retrieved.EpisodeStartCount != state.EpisodeStartCount {
		t.Errorf("EpisodeStartCount = %d, expected %d",
			retrieved.EpisodeStartCount, state.EpisodeStartCount)
	}
}

func TestUpdateSessionState_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewRedisSessionStore(client, RedisSessionStoreConfig{})
	profileID := "profile-ttl"

	if err := store.UpdateSessionState(ctx, profileID, &SessionState{EpisodeStartCount: 1}); err != nil {
		t.Fatalf("UpdateSessionState() error = %v", err)
	}

	ttl, err := client.TTL(ctx, makeSessionStateKey(profileID)).Result()
	if err != nil {
		t.Fatalf("failed to get TTL: %v", err)
	}

	// TTL should be approximately 30 days
	if ttl < DefaultTTL-time.Second || ttl > DefaultTTL {
		t.Errorf("TTL = %v, expected approximately %v", ttl, DefaultTTL)
	}
}

func TestDeleteSessionState(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewRedisSessionStore(client, RedisSessionStoreConfig{})
	profileID := "profile-delete"

	store.UpdateSessionState(ctx, profileID, &SessionState{EpisodeStartCount: 3})

	exists, _ := client.Exists(ctx, makeSessionStateKey(profileID)).Result()
	if exists != 1 {
		t.Fatal("state should exist before deletion")
	}

	if err := store.DeleteSessionState(ctx, profileID); err != nil {
		t.Fatalf("DeleteSessionState() error = %v", err)
	}

	exists, _ = client.Exists(ctx, makeSessionStateKey(profileID)).Result()
	if exists != 0 {
		t.Error("state should not exist after deletion")
	}
}

func TestMakeKeys(t *testing.T) {
	if got := makeSessionStateKey("p1"); got != sessionStateKeyPrefix+"p1" {
		t.Errorf("makeSessionStateKey() = %s, expected %s", got, sessionStateKeyPrefix+"p1")
	}
	if got := makeConfigOverridesKey("p1"); got != configOverridesKeyPrefix+"p1" {
		t.Errorf("makeConfigOverridesKey() = %s, expected %s", got, configOverridesKeyPrefix+"p1")
	}
}

func TestRedisConfigStoreRoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewRedisConfigStore(client, RedisConfigStoreConfig{})
	profileID := "profile-config"

	// Miss yields an empty document
	overrides, err := store.GetOverrides(ctx, profileID)
	if err != nil {
		t.Fatalf("GetOverrides() error = %v", err)
	}
	if len(overrides.FieldsSet()) != 0 {
		t.Errorf("fresh profile overrides = %v, expected none", overrides.FieldsSet())
	}

	maxPerSession := 4
	testMode := true
	if err := store.UpdateOverrides(ctx, profileID, &Overrides{
		InterstitialMaxPerSession: &maxPerSession,
		TestMode:                  &testMode,
	}); err != nil {
		t.Fatalf("UpdateOverrides() error = %v", err)
	}

	// Overrides must never expire; go-redis reports a negative TTL for
	// keys without one
	ttl, err := client.TTL(ctx, makeConfigOverridesKey(profileID)).Result()
	if err != nil {
		t.Fatalf("failed to get TTL: %v", err)
	}
	if ttl > 0 {
		t.Errorf("config overrides TTL = %v, expected no expiry", ttl)
	}

	loaded, err := store.GetOverrides(ctx, profileID)
	if err != nil {
		t.Fatalf("GetOverrides() error = %v", err)
	}
	if loaded.InterstitialMaxPerSession == nil || *loaded.InterstitialMaxPerSession != 4 {
		t.Error("InterstitialMaxPerSession override did not round-trip")
	}
	if loaded.TestMode == nil || !*loaded.TestMode {
		t.Error("TestMode override did not round-trip")
	}

	if err := store.DeleteOverrides(ctx, profileID); err != nil {
		t.Fatalf("DeleteOverrides() error = %v", err)
	}
	cleared, _ := store.GetOverrides(ctx, profileID)
	if len(cleared.FieldsSet()) != 0 {
		t.Error("overrides should be empty after delete")
	}
}
