package ads_test

import (
	"context"
	"testing"
	"time"

	"github.com/AccelByte/extend-ads-policy/pkg/ads"
	"github.com/AccelByte/extend-ads-policy/pkg/clock"
	"github.com/AccelByte/extend-ads-policy/pkg/lifecycle"
	"github.com/AccelByte/extend-ads-policy/pkg/policy"
	policymock "github.com/AccelByte/extend-ads-policy/pkg/policy/mock"
	providermock "github.com/AccelByte/extend-ads-policy/pkg/provider/mock"
)

type serviceFixture struct {
	service  *ads.Service
	provider *providermock.Provider
	clock    *clock.Fake
	playback *fakePlayback
	sink     *captureSink
	store    *policymock.SessionStore
}

func newServiceFixture(t *testing.T, cfg policy.Config, p *providermock.Provider) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		provider: p,
		clock:    clock.NewFake(time.Now()),
		playback: &fakePlayback{},
		sink:     &captureSink{},
		store:    policymock.NewSessionStore(),
	}

	svc, err := ads.NewService(context.Background(), ads.ServiceConfig{
		ProfileID:      testProfileID,
		SessionTimeout: 30 * time.Minute,
		Store:          f.store,
		Config:         policymock.NewStaticConfig(cfg),
		Provider:       p,
		Clock:          f.clock,
		Sink:           f.sink,
		Playback:       f.playback,
	})
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	f.service = svc

	svc.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		svc.Shutdown(ctx)
	})

	return f
}

// sync drains the control loop, including callbacks that tasks re-posted.
// Each Status call flushes everything queued before it; a few rounds cover
// the load-then-show dispatch chains.
func (f *serviceFixture) sync() {
	for i := 0; i < 4; i++ {
		f.service.Status()
	}
}

func TestServiceStartPreloadsInterstitial(t *testing.T) {
	p := providermock.NewProvider().WithAutoLoad()
	f := newServiceFixture(t, policy.DefaultConfig(), p)
	f.sync()

	status := f.service.Status()
	if status.InterstitialState != lifecycle.StateReady {
		t.Errorf("Expected a warm interstitial after start, got %s", status.InterstitialState)
	}
}

func TestServiceEpisodeFlow(t *testing.T) {
	p := providermock.NewProvider().WithAutoLoad().WithAutoShow()
	f := newServiceFixture(t, policy.DefaultConfig(), p)
	f.sync()

	// Episode 1: below the audio cadence, proceeds immediately
	f.service.HandleEpisodeStart("ep_1")
	f.sync()
	if len(f.playback.proceeds) != 1 || f.playback.proceeds[0] != "ep_1" {
		t.Fatalf("Expected ep_1 to proceed, got %v", f.playback.proceeds)
	}

	// Episode 2: the audio pre-roll is due and holds playback
	f.service.HandleEpisodeStart("ep_2")
	f.sync()
	status := f.service.Status()
	if status.AudioState != lifecycle.StateShowing {
		t.Fatalf("Expected audio SHOWING on ep_2, got %s", status.AudioState)
	}
	if len(f.playback.proceeds) != 1 {
		t.Fatalf("Playback must hold during the pre-roll, got %v", f.playback.proceeds)
	}

	// The pre-roll completes and the episode proceeds
	f.provider.LastShow().Callbacks.OnCompleted()
	f.sync()
	if len(f.playback.proceeds) != 2 || f.playback.proceeds[1] != "ep_2" {
		t.Fatalf("Expected ep_2 to proceed after the ad, got %v", f.playback.proceeds)
	}

	// Episode 3: no audio due, and the interstitial trigger fires
	f.service.HandleEpisodeStart("ep_3")
	f.sync()
	if len(f.playback.proceeds) != 3 || f.playback.proceeds[2] != "ep_3" {
		t.Fatalf("Expected ep_3 to proceed without an ad, got %v", f.playback.proceeds)
	}

	shown, reason := f.service.MaybeShowInterstitial("episode_boundary")
	if !shown {
		t.Fatalf("Expected an interstitial at episode 3, got reason %q", reason)
	}
	f.sync()

	status = f.service.Status()
	if status.State.SessionInterstitialCount != 1 {
		t.Errorf("Expected 1 interstitial recorded, got %d", status.State.SessionInterstitialCount)
	}
	if status.State.EpisodeStartCount != 3 {
		t.Errorf("Expected 3 episode starts, got %d", status.State.EpisodeStartCount)
	}
}

func TestServiceMaybeShowBeforeTrigger(t *testing.T) {
	p := providermock.NewProvider().WithAutoLoad().WithAutoShow()
	f := newServiceFixture(t, policy.DefaultConfig(), p)
	f.sync()

	f.service.HandleEpisodeStart("ep_1")
	f.sync()

	shown, reason := f.service.MaybeShowInterstitial("episode_boundary")
	if shown || reason != ads.SkipReasonNotDue {
		t.Errorf("Expected a not-due skip before the trigger, got shown=%t reason=%q", shown, reason)
	}

	// The skipped moment still reaches the sink
	last := f.sink.last()
	if last.Kind != ads.KindSkipped || last.Reason != ads.SkipReasonNotDue {
		t.Errorf("Expected a skipped event with reason not_due, got %+v", last)
	}
	if !f.sink.has(ads.KindOpportunity) {
		t.Errorf("Expected an opportunity event, got %v", f.sink.kinds())
	}
}

func TestServiceMaybeShowCappedAtBoundary(t *testing.T) {
	cfg := policy.DefaultConfig()
	cfg.InterstitialEpisodeFrequency = 1
	cfg.InterstitialMaxPerSession = 1
	cfg.InterstitialMinInterval = 0
	cfg.AudioAdsEnabled = false

	p := providermock.NewProvider().WithAutoLoad().WithAutoShow()
	f := newServiceFixture(t, cfg, p)
	f.sync()

	f.service.HandleEpisodeStart("ep_1")
	f.sync()

	if shown, reason := f.service.MaybeShowInterstitial("boundary"); !shown {
		t.Fatalf("Expected a show at the boundary, got reason %q", reason)
	}
	f.sync()

	// Still on the cadence, but the session cap is spent
	shown, reason := f.service.MaybeShowInterstitial("boundary")
	if shown || reason != ads.SkipReasonFrequencyCap {
		t.Errorf("Expected a cap skip at the boundary, got shown=%t reason=%q", shown, reason)
	}
}

func TestServiceMaybeShowDisabled(t *testing.T) {
	cfg := policy.DefaultConfig()
	cfg.InterstitialAdsEnabled = false

	p := providermock.NewProvider().WithAutoLoad()
	f := newServiceFixture(t, cfg, p)
	f.sync()

	shown, reason := f.service.MaybeShowInterstitial("episode_boundary")
	if shown || reason != ads.SkipReasonDisabled {
		t.Errorf("Expected disabled skip, got shown=%t reason=%q", shown, reason)
	}
}

func TestServiceAudioControlsRoundTrip(t *testing.T) {
	p := providermock.NewProvider().WithAutoLoad().WithAutoShow()
	f := newServiceFixture(t, policy.DefaultConfig(), p)
	f.sync()

	f.service.HandleEpisodeStart("ep_1")
	f.sync()
	f.service.HandleEpisodeStart("ep_2")
	f.sync()

	if err := f.service.PauseAudioAd(); err != nil {
		t.Fatalf("PauseAudioAd failed: %v", err)
	}
	if got := f.service.Status().AudioPlayState; got != "paused" {
		t.Errorf("Expected paused, got %s", got)
	}

	if err := f.service.ResumeAudioAd(); err != nil {
		t.Fatalf("ResumeAudioAd failed: %v", err)
	}

	if err := f.service.SkipAudioAd(); err != nil {
		t.Fatalf("SkipAudioAd failed: %v", err)
	}
	if len(f.playback.proceeds) != 2 || f.playback.proceeds[1] != "ep_2" {
		t.Errorf("Expected ep_2 to proceed after skip, got %v", f.playback.proceeds)
	}
}

func TestServiceResetSession(t *testing.T) {
	p := providermock.NewProvider().WithAutoLoad().WithAutoShow()
	f := newServiceFixture(t, policy.DefaultConfig(), p)
	f.sync()

	for _, ep := range []string{"ep_1", "ep_2", "ep_3"} {
		f.service.HandleEpisodeStart(ep)
		f.sync()
	}
	if shown, reason := f.service.MaybeShowInterstitial("boundary"); !shown {
		t.Fatalf("Expected an interstitial at episode 3, got reason %q", reason)
	}
	f.sync()

	if err := f.service.ResetSession(context.Background()); err != nil {
		t.Fatalf("ResetSession failed: %v", err)
	}

	status := f.service.Status()
	if status.State.SessionInterstitialCount != 0 {
		t.Errorf("Expected session counters zeroed, got %d", status.State.SessionInterstitialCount)
	}
	// Episode counters survive a session reset
	if status.State.EpisodeStartCount != 3 {
		t.Errorf("Expected episode count kept, got %d", status.State.EpisodeStartCount)
	}

	if err := f.service.ResetAll(context.Background()); err != nil {
		t.Fatalf("ResetAll failed: %v", err)
	}
	if got := f.service.Status().State.EpisodeStartCount; got != 0 {
		t.Errorf("Expected everything wiped, got %d episode starts", got)
	}
}

func TestServiceBannerScreens(t *testing.T) {
	p := providermock.NewProvider().WithAutoLoad().WithAutoShow()
	f := newServiceFixture(t, policy.DefaultConfig(), p)
	f.sync()

	f.service.EnterScreen("home")
	f.sync()
	status := f.service.Status()
	if len(status.ActiveBanners) != 1 || status.ActiveBanners[0] != "home" {
		t.Errorf("Expected home banner active, got %v", status.ActiveBanners)
	}

	f.service.LeaveScreen("home")
	if got := f.service.Status().ActiveBanners; len(got) != 0 {
		t.Errorf("Expected no banners after leave, got %v", got)
	}
}

func TestServiceShutdownReleasesHandles(t *testing.T) {
	p := providermock.NewProvider().WithAutoLoad().WithAutoShow()

	f := &serviceFixture{
		provider: p,
		clock:    clock.NewFake(time.Now()),
		playback: &fakePlayback{},
		store:    policymock.NewSessionStore(),
	}

	svc, err := ads.NewService(context.Background(), ads.ServiceConfig{
		ProfileID:      testProfileID,
		SessionTimeout: 30 * time.Minute,
		Store:          f.store,
		Config:         policymock.NewStaticConfig(policy.DefaultConfig()),
		Provider:       p,
		Clock:          f.clock,
		Playback:       f.playback,
	})
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	f.service = svc

	svc.Start()
	svc.EnterScreen("home")
	f.sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	// The warm interstitial and the banner are both released
	if len(p.DestroyCalls) != 2 {
		t.Errorf("Expected 2 destroyed handles on shutdown, got %d", len(p.DestroyCalls))
	}

	// Calls after shutdown are safe no-ops
	svc.EnterScreen("search")
	if err := svc.PauseAudioAd(); err != nil {
		t.Logf("PauseAudioAd after shutdown: %v", err)
	}
}
