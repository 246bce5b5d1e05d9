// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package policy

import (
	"testing"
	"time"
)

func TestCheckSessionReset(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		state       *SessionState
		now         time.Time
		timeout     time.Duration
		expectReset bool
	}{
		{
			name: "no reset - active ten minutes ago",
			state: &SessionState{
				SessionInterstitialCount: 1,
				LastActiveTime:           now.Add(-10 * time.Minute),
			},
			now:         now,
			timeout:     30 * time.Minute,
			expectReset: false,
		},
		{
			name: "no reset - exactly at timeout",
			state: &SessionState{
				SessionInterstitialCount: 1,
				LastActiveTime:           now.Add(-30 * time.Minute),
			},
			now:         now,
			timeout:     30 * time.Minute,
			expectReset: false,
		},
		{
			name: "reset - one minute past timeout",
			state: &SessionState{
				SessionInterstitialCount: 2,
				LastInterstitialTime:     now.Add(-40 * time.Minute),
				LastActiveTime:           now.Add(-31 * time.Minute),
			},
			now:         now,
			timeout:     30 * time.Minute,
			expectReset: true,
		},
		{
			name: "reset - app gone for days",
			state: &SessionState{
				SessionInterstitialCount: 2,
				LastActiveTime:           now.Add(-3 * 24 * time.Hour),
			},
			now:         now,
			timeout:     30 * time.Minute,
			expectReset: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			episodesBefore := tt.state.EpisodeStartCount

			result := CheckSessionReset(tt.state, tt.now, tt.timeout)

			if result != tt.expectReset {
				t.Errorf("CheckSessionReset() = %v, expected %v", result, tt.expectReset)
			}

			if tt.expectReset {
				if tt.state.SessionInterstitialCount != 0 {
					t.Errorf("SessionInterstitialCount = %d, expected 0 after reset",
						tt.state.SessionInterstitialCount)
				}
				if !tt.state.LastInterstitialTime.IsZero() {
					t.Errorf("LastInterstitialTime should be zero after reset")
				}
				if !tt.state.SessionStartTime.Equal(tt.now) {
					t.Errorf("SessionStartTime was not updated to now")
				}
			}

			// Episode counters must survive session resets
			if tt.state.EpisodeStartCount != episodesBefore {
				t.Errorf("EpisodeStartCount = %d, expected %d (must survive reset)",
					tt.state.EpisodeStartCount, episodesBefore)
			}
		})
	}
}

func TestCheckSessionResetPreservesEpisodeCounters(t *testing.T) {
	now := time.Now()
	state := &SessionState{
		SessionInterstitialCount: 2,
		LastInterstitialTime:     now.Add(-1 * time.Hour),
		EpisodeStartCount:        17,
		LastAudioAdEpisodeIndex:  15,
		LastActiveTime:           now.Add(-31 * time.Minute),
	}

	if !CheckSessionReset(state, now, 30*time.Minute) {
		t.Fatal("expected a session reset")
	}

	if state.EpisodeStartCount != 17 {
		t.Errorf("EpisodeStartCount = %d, expected 17", state.EpisodeStartCount)
	}
	if state.LastAudioAdEpisodeIndex != 15 {
		t.Errorf("LastAudioAdEpisodeIndex = %d, expected 15", state.LastAudioAdEpisodeIndex)
	}
}

func TestCanShowBanner(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		expected bool
	}{
		{
			name:     "enabled",
			cfg:      Config{AdsEnabled: true, BannerAdsEnabled: true},
			expected: true,
		},
		{
			name:     "master switch off",
			cfg:      Config{AdsEnabled: false, BannerAdsEnabled: true},
			expected: false,
		},
		{
			name:     "banners off",
			cfg:      Config{AdsEnabled: true, BannerAdsEnabled: false},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanShowBanner(tt.cfg)
			if result != tt.expected {
				t.Errorf("CanShowBanner() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestCanShowInterstitial(t *testing.T) {
	now := time.Now()
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		state    *SessionState
		cfg      Config
		now      time.Time
		expected bool
	}{
		{
			name:     "allowed - never shown",
			state:    &SessionState{},
			cfg:      cfg,
			now:      now,
			expected: true,
		},
		{
			name: "denied - session cap reached regardless of elapsed time",
			state: &SessionState{
				SessionInterstitialCount: 2,
				LastInterstitialTime:     now.Add(-24 * time.Hour),
			},
			cfg:      cfg,
			now:      now,
			expected: false,
		},
		{
			name: "denied - interval not elapsed regardless of count",
			state: &SessionState{
				SessionInterstitialCount: 0,
				LastInterstitialTime:     now.Add(-5 * time.Minute),
			},
			cfg:      cfg,
			now:      now,
			expected: false,
		},
		{
			name: "allowed - interval exactly elapsed",
			state: &SessionState{
				SessionInterstitialCount: 1,
				LastInterstitialTime:     now.Add(-10 * time.Minute),
			},
			cfg:      cfg,
			now:      now,
			expected: true,
		},
		{
			name:     "denied - interstitials disabled",
			state:    &SessionState{},
			cfg:      Config{AdsEnabled: true, InterstitialAdsEnabled: false, InterstitialMaxPerSession: 2, InterstitialMinInterval: 10 * time.Minute},
			now:      now,
			expected: false,
		},
		{
			name:     "denied - master switch off",
			state:    &SessionState{},
			cfg:      Config{AdsEnabled: false, InterstitialAdsEnabled: true, InterstitialMaxPerSession: 2, InterstitialMinInterval: 10 * time.Minute},
			now:      now,
			expected: false,
		},
		{
			name:  "denied - zero cap blocks even a fresh session",
			state: &SessionState{},
			cfg: Config{
				AdsEnabled: true, InterstitialAdsEnabled: true,
				InterstitialMaxPerSession: 0, InterstitialMinInterval: 10 * time.Minute,
			},
			now:      now,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanShowInterstitial(tt.state, tt.cfg, tt.now)
			if result != tt.expected {
				t.Errorf("CanShowInterstitial() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestIsInterstitialEpisodeDue(t *testing.T) {
	cfg := DefaultConfig() // frequency 3

	tests := []struct {
		name     string
		count    int
		expected bool
	}{
		{name: "zero count never due", count: 0, expected: false},
		{name: "below the first multiple", count: 2, expected: false},
		{name: "exactly at the multiple", count: 3, expected: true},
		{name: "between multiples", count: 4, expected: false},
		{name: "later multiple", count: 6, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &SessionState{EpisodeStartCount: tt.count}
			if got := IsInterstitialEpisodeDue(state, cfg); got != tt.expected {
				t.Errorf("IsInterstitialEpisodeDue() = %v, expected %v", got, tt.expected)
			}
		})
	}

	// Caps do not factor in; a capped session at the multiple is still due
	capped := &SessionState{EpisodeStartCount: 3, SessionInterstitialCount: cfg.InterstitialMaxPerSession}
	if !IsInterstitialEpisodeDue(capped, cfg) {
		t.Error("Cadence check must ignore the session cap")
	}
}

// Walks the documented session: cap 2, min interval 10 minutes.
func TestInterstitialSessionScenario(t *testing.T) {
	start := time.Now()
	cfg := DefaultConfig()
	state := &SessionState{SessionStartTime: start, LastActiveTime: start}

	// t=0: allowed, show one
	if !CanShowInterstitial(state, cfg, start) {
		t.Fatal("t=0: expected interstitial allowed")
	}
	RecordInterstitialShown(state, start)
	if state.SessionInterstitialCount != 1 {
		t.Fatalf("count = %d, expected 1", state.SessionInterstitialCount)
	}

	// t=5m: denied, interval not met
	if CanShowInterstitial(state, cfg, start.Add(5*time.Minute)) {
		t.Error("t=5m: expected denial (interval)")
	}

	// t=11m: allowed, show the second
	at11 := start.Add(11 * time.Minute)
	if !CanShowInterstitial(state, cfg, at11) {
		t.Fatal("t=11m: expected interstitial allowed")
	}
	RecordInterstitialShown(state, at11)
	if state.SessionInterstitialCount != 2 {
		t.Fatalf("count = %d, expected 2", state.SessionInterstitialCount)
	}

	// t=20m: denied, session cap reached even though the interval passed
	if CanShowInterstitial(state, cfg, start.Add(20*time.Minute)) {
		t.Error("t=20m: expected denial (session cap)")
	}
}

func TestShouldTriggerInterstitialByEpisodeCount(t *testing.T) {
	now := time.Now()
	cfg := DefaultConfig() // frequency 3

	tests := []struct {
		name     string
		state    *SessionState
		expected bool
	}{
		{
			name:     "no trigger at zero episodes",
			state:    &SessionState{EpisodeStartCount: 0},
			expected: false,
		},
		{
			name:     "no trigger at one",
			state:    &SessionState{EpisodeStartCount: 1},
			expected: false,
		},
		{
			name:     "trigger at exact multiple",
			state:    &SessionState{EpisodeStartCount: 3},
			expected: true,
		},
		{
			name:     "no trigger just past multiple",
			state:    &SessionState{EpisodeStartCount: 4},
			expected: false,
		},
		{
			name:     "trigger at next multiple",
			state:    &SessionState{EpisodeStartCount: 6},
			expected: true,
		},
		{
			name: "no trigger when hard caps deny",
			state: &SessionState{
				EpisodeStartCount:        3,
				SessionInterstitialCount: 2,
			},
			expected: false,
		},
		{
			name: "no trigger inside min interval",
			state: &SessionState{
				EpisodeStartCount:    3,
				LastInterstitialTime: now.Add(-2 * time.Minute),
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ShouldTriggerInterstitialByEpisodeCount(tt.state, cfg, now)
			if result != tt.expected {
				t.Errorf("ShouldTriggerInterstitialByEpisodeCount() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestShouldPlayAudioAd(t *testing.T) {
	cfg := DefaultConfig() // frequency 2

	tests := []struct {
		name     string
		state    *SessionState
		cfg      Config
		expected bool
	}{
		{
			name:     "not due - one episode since last",
			state:    &SessionState{EpisodeStartCount: 3, LastAudioAdEpisodeIndex: 2},
			cfg:      cfg,
			expected: false,
		},
		{
			name:     "due - exactly the frequency since last",
			state:    &SessionState{EpisodeStartCount: 4, LastAudioAdEpisodeIndex: 2},
			cfg:      cfg,
			expected: true,
		},
		{
			name:     "due - more than the frequency since last",
			state:    &SessionState{EpisodeStartCount: 7, LastAudioAdEpisodeIndex: 2},
			cfg:      cfg,
			expected: true,
		},
		{
			name:     "due - fresh profile with enough starts",
			state:    &SessionState{EpisodeStartCount: 2},
			cfg:      cfg,
			expected: true,
		},
		{
			name:     "not due - audio disabled",
			state:    &SessionState{EpisodeStartCount: 10},
			cfg:      Config{AdsEnabled: true, AudioAdsEnabled: false, AudioAdEpisodeFrequency: 2},
			expected: false,
		},
		{
			name:     "not due - master switch off",
			state:    &SessionState{EpisodeStartCount: 10},
			cfg:      Config{AdsEnabled: false, AudioAdsEnabled: true, AudioAdEpisodeFrequency: 2},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ShouldPlayAudioAd(tt.state, tt.cfg)
			if result != tt.expected {
				t.Errorf("ShouldPlayAudioAd() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

// Walks the documented cadence: frequency 2, ad played at episode 2.
func TestAudioAdCadenceScenario(t *testing.T) {
	cfg := DefaultConfig()
	state := &SessionState{}

	RecordEpisodeStart(state) // 1
	if ShouldPlayAudioAd(state, cfg) {
		t.Error("episode 1: expected no audio ad")
	}

	RecordEpisodeStart(state) // 2
	if !ShouldPlayAudioAd(state, cfg) {
		t.Fatal("episode 2: expected audio ad due")
	}
	RecordAudioAdPlayed(state)

	RecordEpisodeStart(state) // 3
	if ShouldPlayAudioAd(state, cfg) {
		t.Error("episode 3: expected no audio ad right after one played")
	}

	RecordEpisodeStart(state) // 4
	if !ShouldPlayAudioAd(state, cfg) {
		t.Error("episode 4: expected audio ad due again")
	}
}

func TestRecordInterstitialShown(t *testing.T) {
	now := time.Now()
	state := &SessionState{SessionInterstitialCount: 1}

	RecordInterstitialShown(state, now)

	if state.SessionInterstitialCount != 2 {
		t.Errorf("SessionInterstitialCount = %d, expected 2", state.SessionInterstitialCount)
	}
	if !state.LastInterstitialTime.Equal(now) {
		t.Errorf("LastInterstitialTime = %v, expected %v", state.LastInterstitialTime, now)
	}
}

func TestRecordAudioAdPlayed(t *testing.T) {
	state := &SessionState{EpisodeStartCount: 9, LastAudioAdEpisodeIndex: 4}

	RecordAudioAdPlayed(state)

	if state.LastAudioAdEpisodeIndex != 9 {
		t.Errorf("LastAudioAdEpisodeIndex = %d, expected 9", state.LastAudioAdEpisodeIndex)
	}
	if state.EpisodesSinceLastAudioAd() != 0 {
		t.Errorf("EpisodesSinceLastAudioAd() = %d, expected 0", state.EpisodesSinceLastAudioAd())
	}
}

func TestRecordEpisodeStart(t *testing.T) {
	state := &SessionState{EpisodeStartCount: 5}

	RecordEpisodeStart(state)

	if state.EpisodeStartCount != 6 {
		t.Errorf("EpisodeStartCount = %d, expected 6", state.EpisodeStartCount)
	}
}
