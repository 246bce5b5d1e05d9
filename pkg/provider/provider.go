package provider

import "errors"

// Format identifies an ad format as reported in events and metrics.
type Format string

const (
	FormatBanner       Format = "banner"
	FormatInterstitial Format = "interstitial"
	FormatAudio        Format = "audio_preroll"
)

// ErrNoFill is reported when the ad server answered but had no ad to serve.
// It is a routine outcome, not an infrastructure failure.
var ErrNoFill = errors.New("no fill")

// Handle is an opaque reference to a loaded ad held by a backend. Callers
// never inspect it; they pass it back to Show/Pause/Resume/Destroy.
type Handle interface{}

// Request describes one ad load.
type Request struct {
	Format  Format
	AdUnit  string
	Size    string // banner creative size, empty for other formats
	Context string // where in the app the request originated

	// EpisodeID is set for audio pre-rolls.
	EpisodeID string

	// CustomParams are forwarded to the ad server where the backend
	// supports targeting parameters.
	CustomParams map[string]string
}

// LoadCallbacks receive the outcome of a Load. Backends invoke them from
// their own goroutines; callers are responsible for serialization.
type LoadCallbacks struct {
	OnLoaded func(h Handle)
	OnNoFill func()
	OnFailed func(err error)
}

// ShowCallbacks receive display lifecycle signals for a shown ad. Audio
// backends additionally drive the content handoff around the ad.
type ShowCallbacks struct {
	OnStarted   func()
	OnClicked   func()
	OnDismissed func()
	OnCompleted func()
	OnFailed    func(err error)

	OnContentPauseRequested  func()
	OnContentResumeRequested func()
}

// Provider is the narrow surface of an ad backend. Load and Show return
// immediately; outcomes arrive later on the callbacks.
type Provider interface {
	// Name identifies the backend instance, unique within a registry.
	Name() string

	Load(req Request, cb LoadCallbacks)
	Show(h Handle, surface string, cb ShowCallbacks)

	// Pause and Resume only apply to audio handles; other backends no-op.
	Pause(h Handle)
	Resume(h Handle)

	// Destroy releases a handle. Safe to call with a handle that already
	// finished showing.
	Destroy(h Handle)
}
