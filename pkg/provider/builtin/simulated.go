package builtin

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/AccelByte/extend-ads-policy/pkg/provider"
	"github.com/sirupsen/logrus"
)

const (
	// SimulatedProviderType is the identifier for the simulated ad backend
	SimulatedProviderType = "simulated"

	// DefaultFillRate is the default probability that a load returns an ad
	DefaultFillRate = 1.0

	// DefaultFailRate is the default probability that a load fails outright
	DefaultFailRate = 0.0

	// DefaultLoadLatencyMs is the default simulated network latency for loads
	DefaultLoadLatencyMs = 150

	// DefaultShowDurationMs is how long a simulated ad plays before finishing
	DefaultShowDurationMs = 1500
)

// SimulatedAd is the handle type produced by the simulated backend.
type SimulatedAd struct {
	ID      int64
	Unit    string
	Format  provider.Format
	VASTTag string

	mu        sync.Mutex
	finish    *time.Timer
	onFinish  func()
	remaining time.Duration
	resumedAt time.Time
	destroyed bool
}

// Simulated is an in-process ad backend that answers load and show requests
// with configurable latency, fill rate and failure injection. It stands in
// for a real ad SDK in development and load testing.
type Simulated struct {
	name         string
	fillRate     float64
	failRate     float64
	showFailRate float64
	loadLatency  time.Duration
	showDuration time.Duration

	mu     sync.Mutex
	rng    *rand.Rand
	nextID int64
}

// NewSimulated creates a simulated backend from a configuration.
func NewSimulated(config provider.Config) *Simulated {
	name := config.Name
	if name == "" {
		name = SimulatedProviderType
	}

	seed := int64(config.GetInt("seed", 0))
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Simulated{
		name:         name,
		fillRate:     config.GetFloat("fill_rate", DefaultFillRate),
		failRate:     config.GetFloat("fail_rate", DefaultFailRate),
		showFailRate: config.GetFloat("show_fail_rate", DefaultFailRate),
		loadLatency:  time.Duration(config.GetInt("load_latency_ms", DefaultLoadLatencyMs)) * time.Millisecond,
		showDuration: time.Duration(config.GetInt("show_duration_ms", DefaultShowDurationMs)) * time.Millisecond,
		rng:          rand.New(rand.NewSource(seed)),
	}

	logrus.Infof("creating simulated ad provider: name=%s, fill_rate=%.2f, fail_rate=%.2f, load_latency=%s",
		name, s.fillRate, s.failRate, s.loadLatency)

	return s
}

// Name returns the backend instance name.
func (s *Simulated) Name() string {
	return s.name
}

// Load decides the outcome at request time and delivers it after the
// configured latency, the way a real SDK answers from a network thread.
func (s *Simulated) Load(req provider.Request, cb provider.LoadCallbacks) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	failRoll := s.rng.Float64()
	fillRoll := s.rng.Float64()
	s.mu.Unlock()

	ad := &SimulatedAd{
		ID:     id,
		Unit:   req.AdUnit,
		Format: req.Format,
	}

	if req.Format == provider.FormatAudio {
		ad.VASTTag = provider.BuildVASTTagURL(req.AdUnit, time.Now().UnixMilli(), req.CustomParams)
		logrus.Debugf("simulated audio ad tag: %s", ad.VASTTag)
	}

	time.AfterFunc(s.loadLatency, func() {
		switch {
		case failRoll < s.failRate:
			logrus.Debugf("simulated load failure for %s (id=%d)", req.AdUnit, id)
			if cb.OnFailed != nil {
				cb.OnFailed(fmt.Errorf("simulated load failure for %s", req.AdUnit))
			}
		case fillRoll > s.fillRate:
			logrus.Debugf("simulated no fill for %s (id=%d)", req.AdUnit, id)
			if cb.OnNoFill != nil {
				cb.OnNoFill()
			}
		default:
			logrus.Debugf("simulated fill for %s (id=%d)", req.AdUnit, id)
			if cb.OnLoaded != nil {
				cb.OnLoaded(ad)
			}
		}
	})
}

// Show plays the simulated ad. Interstitials dismiss themselves and audio
// ads complete after the configured show duration; banners just report
// that they started.
func (s *Simulated) Show(h provider.Handle, surface string, cb provider.ShowCallbacks) {
	ad, ok := h.(*SimulatedAd)
	if !ok {
		if cb.OnFailed != nil {
			cb.OnFailed(fmt.Errorf("unexpected handle type %T", h))
		}
		return
	}

	ad.mu.Lock()
	destroyed := ad.destroyed
	ad.mu.Unlock()
	if destroyed {
		if cb.OnFailed != nil {
			cb.OnFailed(fmt.Errorf("ad %d already destroyed", ad.ID))
		}
		return
	}

	s.mu.Lock()
	showRoll := s.rng.Float64()
	s.mu.Unlock()

	if showRoll < s.showFailRate {
		time.AfterFunc(0, func() {
			logrus.Debugf("simulated show failure for %s (id=%d)", ad.Unit, ad.ID)
			if cb.OnFailed != nil {
				cb.OnFailed(fmt.Errorf("simulated show failure for %s", ad.Unit))
			}
		})
		return
	}

	switch ad.Format {
	case provider.FormatAudio:
		time.AfterFunc(0, func() {
			// Arm the finish timer before reporting playback so a Pause
			// issued right after OnStarted always finds it.
			ad.armFinish(s.showDuration, func() {
				if cb.OnCompleted != nil {
					cb.OnCompleted()
				}
				if cb.OnContentResumeRequested != nil {
					cb.OnContentResumeRequested()
				}
			})
			if cb.OnContentPauseRequested != nil {
				cb.OnContentPauseRequested()
			}
			if cb.OnStarted != nil {
				cb.OnStarted()
			}
		})
	case provider.FormatInterstitial:
		time.AfterFunc(0, func() {
			ad.armFinish(s.showDuration, func() {
				if cb.OnDismissed != nil {
					cb.OnDismissed()
				}
			})
			if cb.OnStarted != nil {
				cb.OnStarted()
			}
		})
	default:
		time.AfterFunc(0, func() {
			if cb.OnStarted != nil {
				cb.OnStarted()
			}
		})
	}
}

// Pause suspends the finish timer of a playing audio ad.
func (s *Simulated) Pause(h provider.Handle) {
	if ad, ok := h.(*SimulatedAd); ok {
		ad.pauseFinish()
	}
}

// Resume re-arms the finish timer with the remaining play time.
func (s *Simulated) Resume(h provider.Handle) {
	if ad, ok := h.(*SimulatedAd); ok {
		ad.resumeFinish()
	}
}

// Destroy releases the handle and stops any pending finish timer.
func (s *Simulated) Destroy(h provider.Handle) {
	ad, ok := h.(*SimulatedAd)
	if !ok {
		return
	}

	ad.mu.Lock()
	defer ad.mu.Unlock()

	ad.destroyed = true
	if ad.finish != nil {
		ad.finish.Stop()
		ad.finish = nil
	}
	logrus.Debugf("simulated ad destroyed: id=%d, unit=%s", ad.ID, ad.Unit)
}

func (a *SimulatedAd) armFinish(d time.Duration, fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.destroyed {
		return
	}

	a.onFinish = fn
	a.remaining = d
	a.resumedAt = time.Now()
	a.finish = time.AfterFunc(d, fn)
}

func (a *SimulatedAd) pauseFinish() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finish == nil {
		return
	}

	a.finish.Stop()
	a.finish = nil
	elapsed := time.Since(a.resumedAt)
	if elapsed < a.remaining {
		a.remaining -= elapsed
	} else {
		a.remaining = 0
	}
}

func (a *SimulatedAd) resumeFinish() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.destroyed || a.finish != nil || a.onFinish == nil {
		return
	}

	a.resumedAt = time.Now()
	a.finish = time.AfterFunc(a.remaining, a.onFinish)
}
