package ads

// Caller-facing notifications per format manager. All callbacks run on the
// control goroutine; nil fields are skipped. The managers keep working with
// a zero listener, so callers only wire the signals they care about.

// InterstitialListener receives interstitial lifecycle notifications.
type InterstitialListener struct {
	AdLoaded      func()
	AdFailed      func(err error)
	AdShowStarted func()
	AdClosed      func()
	AdSkipped     func(reason SkipReason)
}

func (l InterstitialListener) loaded() {
	if l.AdLoaded != nil {
		l.AdLoaded()
	}
}

func (l InterstitialListener) failed(err error) {
	if l.AdFailed != nil {
		l.AdFailed(err)
	}
}

func (l InterstitialListener) showStarted() {
	if l.AdShowStarted != nil {
		l.AdShowStarted()
	}
}

func (l InterstitialListener) closed() {
	if l.AdClosed != nil {
		l.AdClosed()
	}
}

func (l InterstitialListener) skipped(reason SkipReason) {
	if l.AdSkipped != nil {
		l.AdSkipped(reason)
	}
}

// AudioListener receives audio pre-roll notifications. The proceed-with-
// content guarantee is separate: it goes to the PlaybackController.
type AudioListener struct {
	AdLoaded    func()
	AdStarted   func()
	AdCompleted func()
	AdError     func(err error)
	AdSkipped   func(reason SkipReason)
}

func (l AudioListener) loaded() {
	if l.AdLoaded != nil {
		l.AdLoaded()
	}
}

func (l AudioListener) started() {
	if l.AdStarted != nil {
		l.AdStarted()
	}
}

func (l AudioListener) completed() {
	if l.AdCompleted != nil {
		l.AdCompleted()
	}
}

func (l AudioListener) errored(err error) {
	if l.AdError != nil {
		l.AdError(err)
	}
}

func (l AudioListener) skipped(reason SkipReason) {
	if l.AdSkipped != nil {
		l.AdSkipped(reason)
	}
}
