package builtin

import (
	"testing"
	"time"

	"github.com/AccelByte/extend-ads-policy/pkg/provider"
)

func newTestBackend(t *testing.T, params map[string]interface{}) *Simulated {
	t.Helper()

	if params == nil {
		params = map[string]interface{}{}
	}
	if _, ok := params["load_latency_ms"]; !ok {
		params["load_latency_ms"] = 0
	}
	if _, ok := params["seed"]; !ok {
		params["seed"] = 1
	}

	return NewSimulated(provider.Config{
		Name:       "simulated_test",
		Type:       SimulatedProviderType,
		Enabled:    true,
		Parameters: params,
	})
}

func waitEvent(t *testing.T, events <-chan string, want string) {
	t.Helper()

	select {
	case got := <-events:
		if got != want {
			t.Fatalf("Expected event %q, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Timed out waiting for event %q", want)
	}
}

func expectNoEvent(t *testing.T, events <-chan string, window time.Duration) {
	t.Helper()

	select {
	case got := <-events:
		t.Fatalf("Expected no event, got %q", got)
	case <-time.After(window):
	}
}

func loadAd(t *testing.T, s *Simulated, format provider.Format) provider.Handle {
	t.Helper()

	loaded := make(chan provider.Handle, 1)
	s.Load(provider.Request{Format: format, AdUnit: "/173142088/test_unit"}, provider.LoadCallbacks{
		OnLoaded: func(h provider.Handle) { loaded <- h },
		OnNoFill: func() { t.Error("Unexpected no fill") },
		OnFailed: func(err error) { t.Errorf("Unexpected load failure: %v", err) },
	})

	select {
	case h := <-loaded:
		return h
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for load")
		return nil
	}
}

func TestSimulatedLoad_Fill(t *testing.T) {
	s := newTestBackend(t, map[string]interface{}{"fill_rate": 1.0})

	h := loadAd(t, s, provider.FormatInterstitial)

	ad, ok := h.(*SimulatedAd)
	if !ok {
		t.Fatalf("Expected *SimulatedAd handle, got %T", h)
	}

	if ad.Unit != "/173142088/test_unit" {
		t.Errorf("Expected ad unit '/173142088/test_unit', got '%s'", ad.Unit)
	}
}

func TestSimulatedLoad_NoFill(t *testing.T) {
	s := newTestBackend(t, map[string]interface{}{"fill_rate": 0.0})

	events := make(chan string, 1)
	s.Load(provider.Request{Format: provider.FormatInterstitial, AdUnit: "/173142088/test_unit"}, provider.LoadCallbacks{
		OnLoaded: func(h provider.Handle) { t.Error("Unexpected fill") },
		OnNoFill: func() { events <- "no_fill" },
		OnFailed: func(err error) { t.Errorf("Unexpected load failure: %v", err) },
	})

	waitEvent(t, events, "no_fill")
}

func TestSimulatedLoad_Failure(t *testing.T) {
	s := newTestBackend(t, map[string]interface{}{"fail_rate": 1.0})

	events := make(chan string, 1)
	s.Load(provider.Request{Format: provider.FormatInterstitial, AdUnit: "/173142088/test_unit"}, provider.LoadCallbacks{
		OnLoaded: func(h provider.Handle) { t.Error("Unexpected fill") },
		OnNoFill: func() { t.Error("Unexpected no fill") },
		OnFailed: func(err error) { events <- "failed" },
	})

	waitEvent(t, events, "failed")
}

func TestSimulatedLoad_AudioCarriesVASTTag(t *testing.T) {
	s := newTestBackend(t, nil)

	h := loadAd(t, s, provider.FormatAudio)

	ad := h.(*SimulatedAd)
	if ad.VASTTag == "" {
		t.Error("Expected audio ad to carry a VAST tag URL")
	}
}

func TestSimulatedShow_Interstitial(t *testing.T) {
	s := newTestBackend(t, map[string]interface{}{"show_duration_ms": 10})

	h := loadAd(t, s, provider.FormatInterstitial)

	events := make(chan string, 4)
	s.Show(h, "main", provider.ShowCallbacks{
		OnStarted:   func() { events <- "started" },
		OnDismissed: func() { events <- "dismissed" },
		OnFailed:    func(err error) { t.Errorf("Unexpected show failure: %v", err) },
	})

	waitEvent(t, events, "started")
	waitEvent(t, events, "dismissed")
}

func TestSimulatedShow_AudioSequence(t *testing.T) {
	s := newTestBackend(t, map[string]interface{}{"show_duration_ms": 10})

	h := loadAd(t, s, provider.FormatAudio)

	events := make(chan string, 8)
	s.Show(h, "playback", provider.ShowCallbacks{
		OnStarted:                func() { events <- "started" },
		OnCompleted:              func() { events <- "completed" },
		OnFailed:                 func(err error) { t.Errorf("Unexpected show failure: %v", err) },
		OnContentPauseRequested:  func() { events <- "content_pause" },
		OnContentResumeRequested: func() { events <- "content_resume" },
	})

	waitEvent(t, events, "content_pause")
	waitEvent(t, events, "started")
	waitEvent(t, events, "completed")
	waitEvent(t, events, "content_resume")
}

func TestSimulatedShow_Failure(t *testing.T) {
	s := newTestBackend(t, map[string]interface{}{"show_fail_rate": 1.0})

	h := loadAd(t, s, provider.FormatInterstitial)

	events := make(chan string, 1)
	s.Show(h, "main", provider.ShowCallbacks{
		OnStarted: func() { t.Error("Unexpected show start") },
		OnFailed:  func(err error) { events <- "failed" },
	})

	waitEvent(t, events, "failed")
}

func TestSimulatedPauseResume(t *testing.T) {
	s := newTestBackend(t, map[string]interface{}{"show_duration_ms": 200})

	h := loadAd(t, s, provider.FormatAudio)

	events := make(chan string, 8)
	s.Show(h, "playback", provider.ShowCallbacks{
		OnStarted:   func() { events <- "started" },
		OnCompleted: func() { events <- "completed" },
	})

	waitEvent(t, events, "started")

	// Paused ads do not finish
	s.Pause(h)
	expectNoEvent(t, events, 400*time.Millisecond)

	s.Resume(h)
	waitEvent(t, events, "completed")
}

func TestSimulatedDestroy_StopsFinish(t *testing.T) {
	s := newTestBackend(t, map[string]interface{}{"show_duration_ms": 100})

	h := loadAd(t, s, provider.FormatInterstitial)

	events := make(chan string, 4)
	s.Show(h, "main", provider.ShowCallbacks{
		OnStarted:   func() { events <- "started" },
		OnDismissed: func() { events <- "dismissed" },
	})

	waitEvent(t, events, "started")

	s.Destroy(h)
	expectNoEvent(t, events, 250*time.Millisecond)
}

func TestSimulatedShow_DestroyedHandle(t *testing.T) {
	s := newTestBackend(t, nil)

	h := loadAd(t, s, provider.FormatInterstitial)
	s.Destroy(h)

	events := make(chan string, 1)
	s.Show(h, "main", provider.ShowCallbacks{
		OnStarted: func() { t.Error("Unexpected show start") },
		OnFailed:  func(err error) { events <- "failed" },
	})

	waitEvent(t, events, "failed")
}
