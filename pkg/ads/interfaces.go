package ads

// Interfaces for the surfaces the ad pipeline drives but does not own:
// the app's playback stack and the screens that host banner slots.
//
// You may not need to have interface and go with direct struct usage,
// but having interfaces allows easier mocking for unit tests.

// PlaybackController hands audio focus between ads and episode content.
type PlaybackController interface {
	// PauseContent halts episode playback while an ad takes the audio focus.
	PauseContent()

	// ProceedWithContent starts or resumes episode playback. The audio
	// manager guarantees exactly one call per episode start it handles,
	// whether an ad played, failed, or never existed.
	ProceedWithContent(episodeID string)
}

// BannerListener receives banner visibility changes for a screen. A screen
// that gets no fill collapses its slot to zero height.
type BannerListener interface {
	BannerFilled(screen string)
	BannerCollapsed(screen string)
}
