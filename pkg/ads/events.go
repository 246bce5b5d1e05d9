// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package ads

import (
	"time"

	"github.com/AccelByte/extend-ads-policy/pkg/provider"
)

// Kind identifies what happened in the ad pipeline.
type Kind string

const (
	KindOpportunity Kind = "opportunity"
	KindRequest     Kind = "request"
	KindFill        Kind = "fill"
	KindNoFill      Kind = "no_fill"
	KindImpression  Kind = "impression"
	KindClick       Kind = "click"
	KindClose       Kind = "close"
	KindError       Kind = "error"
	KindSkipped     Kind = "skipped"
	KindStarted     Kind = "started"
	KindCompleted   Kind = "completed"
	KindPaused      Kind = "paused"
	KindResumed     Kind = "resumed"
)

// SkipReason explains why an eligible moment did not show an ad.
type SkipReason string

const (
	SkipReasonDisabled     SkipReason = "disabled"
	SkipReasonFrequencyCap SkipReason = "frequency_cap"
	SkipReasonNotDue       SkipReason = "not_due"
	SkipReasonNotLoaded    SkipReason = "not_loaded"
	SkipReasonUserSkip     SkipReason = "user_skip"
)

// Event is one observed step of an ad's journey. Sinks receive every event
// on the control goroutine and must not block.
type Event struct {
	Kind   Kind
	Format provider.Format
	AdUnit string

	// Screen is set for banner placements.
	Screen string

	// Context labels what the app was doing, e.g. "episode_start".
	Context string

	// Op distinguishes the failing operation on error events.
	Op string

	// Reason is set on skipped events.
	Reason SkipReason

	// Err is set on error events.
	Err error

	// Duration carries the load time on fill events.
	Duration time.Duration

	At time.Time
}
