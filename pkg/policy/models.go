// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package policy

import (
	"time"
)

// SessionState is the complete ad policy state persisted per profile.
// This is the ONLY state the policy engine owns and manages.
//
// Session-scoped fields (SessionStartTime, SessionInterstitialCount,
// LastInterstitialTime) reset when the app foregrounds after the inactivity
// timeout. Episode-scoped fields (EpisodeStartCount,
// LastAudioAdEpisodeIndex) survive session resets.
type SessionState struct {
	SessionStartTime         time.Time `json:"sessionStartTime"`
	SessionInterstitialCount int       `json:"sessionInterstitialCount"`
	LastInterstitialTime     time.Time `json:"lastInterstitialTime"`
	EpisodeStartCount        int       `json:"episodeStartCount"`
	LastAudioAdEpisodeIndex  int       `json:"lastAudioAdEpisodeIndex"`
	LastActiveTime           time.Time `json:"lastActiveTime"`
}

// NewSessionState returns a fresh state for a profile seen for the first time.
func NewSessionState(now time.Time) *SessionState {
	return &SessionState{
		SessionStartTime: now,
		LastActiveTime:   now,
	}
}

// EpisodesSinceLastAudioAd returns how many episode starts happened since the
// last audio ad played. A profile that never played one gets the full count.
func (s *SessionState) EpisodesSinceLastAudioAd() int {
	return s.EpisodeStartCount - s.LastAudioAdEpisodeIndex
}

// HasShownInterstitial reports whether any interstitial was shown during the
// current session. LastInterstitialTime is the zero time until the first one.
func (s *SessionState) HasShownInterstitial() bool {
	return !s.LastInterstitialTime.IsZero()
}
