// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

//go:build integration
// +build integration

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/AccelByte/extend-ads-policy/pkg/common"
	"github.com/AccelByte/extend-ads-policy/pkg/policy"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// This is a manual integration test for the Redis stores.
// Run this with: go run -tags integration test_redis_integration.go
// Requires: Redis running on localhost:6379 (override with REDIS_HOST/REDIS_PORT)

func main() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.Infof("Starting Redis integration test...")

	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr:     common.GetEnv("REDIS_HOST", "localhost") + ":" + common.GetEnv("REDIS_PORT", "6379"),
		Password: common.GetEnv("REDIS_PASSWORD", ""),
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer client.Close()

	testProfileID := fmt.Sprintf("test-profile-%d", time.Now().Unix())
	logrus.Infof("Testing with profile ID: %s", testProfileID)

	sessionStore := policy.NewRedisSessionStore(client, policy.RedisSessionStoreConfig{})
	configStore := policy.NewRedisConfigStore(client, policy.RedisConfigStoreConfig{})

	// Test 1: Get state for new profile
	logrus.Infof("\n=== Test 1: Get state for new profile ===")
	state1, err := sessionStore.GetSessionState(ctx, testProfileID)
	if err != nil {
		logrus.Fatalf("GetSessionState failed: %v", err)
	}
	if state1.EpisodeStartCount != 0 || state1.SessionInterstitialCount != 0 {
		logrus.Fatalf("❌ Expected fresh state for new profile, got %+v", state1)
	}
	logrus.Infof("✓ New profile gets a fresh state")

	// Test 2: Write and read back session state
	logrus.Infof("\n=== Test 2: Write and read back session state ===")
	now := time.Now().UTC().Truncate(time.Second)
	written := policy.NewSessionState(now)
	written.EpisodeStartCount = 5
	written.SessionInterstitialCount = 1
	written.LastInterstitialTime = now

	if err := sessionStore.UpdateSessionState(ctx, testProfileID, written); err != nil {
		logrus.Fatalf("UpdateSessionState failed: %v", err)
	}

	state2, err := sessionStore.GetSessionState(ctx, testProfileID)
	if err != nil {
		logrus.Fatalf("GetSessionState failed: %v", err)
	}
	if state2.EpisodeStartCount != 5 {
		logrus.Fatalf("❌ EpisodeStartCount mismatch: got %d, expected 5", state2.EpisodeStartCount)
	}
	if state2.SessionInterstitialCount != 1 {
		logrus.Fatalf("❌ SessionInterstitialCount mismatch: got %d, expected 1", state2.SessionInterstitialCount)
	}
	logrus.Infof("✓ Session state round-trips: episodes=%d interstitials=%d",
		state2.EpisodeStartCount, state2.SessionInterstitialCount)

	// Test 3: Engine decisions against the live store
	logrus.Infof("\n=== Test 3: Engine decisions against the live store ===")
	engine, err := policy.NewEngine(ctx, sessionStore, staticConfig{}, policy.EngineConfig{
		ProfileID:      testProfileID,
		SessionTimeout: 30 * time.Minute,
	})
	if err != nil {
		logrus.Fatalf("NewEngine failed: %v", err)
	}

	// One interstitial already shown just now: min interval must block a second
	if engine.CanShowInterstitial(now.Add(time.Minute)) {
		logrus.Fatalf("❌ Interstitial should be blocked inside the min interval")
	}
	if !engine.CanShowInterstitial(now.Add(11 * time.Minute)) {
		logrus.Fatalf("❌ Interstitial should be allowed after the min interval")
	}
	logrus.Infof("✓ Interstitial interval gate behaves against persisted state")

	if err := engine.RecordEpisodeStart(ctx); err != nil {
		logrus.Fatalf("RecordEpisodeStart failed: %v", err)
	}
	state3, err := sessionStore.GetSessionState(ctx, testProfileID)
	if err != nil {
		logrus.Fatalf("GetSessionState failed: %v", err)
	}
	if state3.EpisodeStartCount != 6 {
		logrus.Fatalf("❌ EpisodeStartCount should be written through: got %d, expected 6", state3.EpisodeStartCount)
	}
	logrus.Infof("✓ Episode start written through to Redis")

	// Test 4: Config overrides round-trip
	logrus.Infof("\n=== Test 4: Config overrides round-trip ===")
	maxPerSession := 5
	if err := configStore.UpdateOverrides(ctx, testProfileID, &policy.Overrides{
		InterstitialMaxPerSession: &maxPerSession,
	}); err != nil {
		logrus.Fatalf("UpdateOverrides failed: %v", err)
	}
	overrides, err := configStore.GetOverrides(ctx, testProfileID)
	if err != nil {
		logrus.Fatalf("GetOverrides failed: %v", err)
	}
	if overrides.InterstitialMaxPerSession == nil || *overrides.InterstitialMaxPerSession != 5 {
		logrus.Fatalf("❌ Overrides mismatch: got %+v", overrides)
	}
	logrus.Infof("✓ Config overrides round-trip")

	// Test 5: Clean up
	logrus.Infof("\n=== Test 5: Clean up ===")
	if err := sessionStore.DeleteSessionState(ctx, testProfileID); err != nil {
		logrus.Fatalf("DeleteSessionState failed: %v", err)
	}
	if err := configStore.DeleteOverrides(ctx, testProfileID); err != nil {
		logrus.Fatalf("DeleteOverrides failed: %v", err)
	}
	state4, err := sessionStore.GetSessionState(ctx, testProfileID)
	if err != nil {
		logrus.Fatalf("GetSessionState after delete failed: %v", err)
	}
	if state4.EpisodeStartCount != 0 {
		logrus.Fatalf("❌ State should be reset after deletion")
	}
	logrus.Infof("✓ Verified state was deleted (got fresh state)")

	logrus.Infof("\n==================================================")
	logrus.Infof("✅ All Redis integration tests passed!")
	logrus.Infof("==================================================")
}

type staticConfig struct{}

func (staticConfig) Effective() policy.Config {
	return policy.DefaultConfig()
}
